package graph

// ReconstructPath walks a BFS parent map from sink back to source and
// returns the forward path (source first), or nil if sink was never
// reached.
func ReconstructPath(parent map[string]string, source, sink string) []string {
	if sink != source {
		if _, ok := parent[sink]; !ok {
			return nil
		}
	}
	var rev []string
	cur := sink
	for cur != source {
		rev = append(rev, cur)
		p, ok := parent[cur]
		if !ok {
			return nil
		}
		cur = p
	}
	rev = append(rev, source)

	path := make([]string, len(rev))
	for i, n := range rev {
		path[len(rev)-1-i] = n
	}
	return path
}

// BottleneckCapacity returns the minimum residual capacity along path, i.e.
// the most flow that can be pushed along it without violating any edge's
// capacity. Returns 0 for a path shorter than two nodes or containing a
// missing edge.
func BottleneckCapacity(g *ResidualGraph, path []string) float64 {
	if len(path) < 2 {
		return 0
	}
	min := Infinity
	for i := 0; i < len(path)-1; i++ {
		e := g.GetEdge(path[i], path[i+1])
		if e == nil {
			return 0
		}
		if e.Capacity < min {
			min = e.Capacity
		}
	}
	if min == Infinity {
		return 0
	}
	return min
}

// Augment pushes flow along every edge of path.
func Augment(g *ResidualGraph, path []string, flow float64) {
	for i := 0; i < len(path)-1; i++ {
		g.UpdateFlow(path[i], path[i+1], flow)
	}
}
