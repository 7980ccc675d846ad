package graph

import "container/heap"

type dijkstraItem struct {
	node string
	dist float64
}

type dijkstraQueue []dijkstraItem

func (q dijkstraQueue) Len() int { return len(q) }
func (q dijkstraQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].node < q[j].node
}
func (q dijkstraQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *dijkstraQueue) Push(x any)   { *q = append(*q, x.(dijkstraItem)) }
func (q *dijkstraQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Dijkstra computes shortest cost-weighted distances from source over
// forward edges with positive residual capacity, using each edge's Cost as
// its weight (assumed non-negative, per the network validator's transport
// cost check). Adapted from the teacher's binary-heap Dijkstra with
// deterministic tie-breaking by node id, so two runs over an unchanged
// residual graph pick the same path (spec §5's determinism guarantee).
func Dijkstra(g *ResidualGraph, source string) (dist map[string]float64, parent map[string]string) {
	dist = make(map[string]float64, len(g.Nodes))
	parent = make(map[string]string, len(g.Nodes))
	visited := make(map[string]bool, len(g.Nodes))

	for node := range g.Nodes {
		dist[node] = Infinity
	}
	dist[source] = 0

	pq := &dijkstraQueue{{node: source, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(dijkstraItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true

		for _, e := range g.NeighborsList(cur.node) {
			if e.IsReverse || !e.HasCapacity() {
				continue
			}
			nd := cur.dist + e.Cost
			if nd < dist[e.To]-Epsilon {
				dist[e.To] = nd
				parent[e.To] = cur.node
				heap.Push(pq, dijkstraItem{node: e.To, dist: nd})
			}
		}
	}
	return dist, parent
}
