package graph

import "gaspipeline/internal/domain"

// BuildFromNetwork constructs a fresh residual graph from a network's active
// points and segments. Unidirectional segments contribute a forward edge
// with its cancellation reverse edge. Bidirectional segments may carry
// genuine flow both ways (up to |MinFlow| in the ToPointID->FromPointID
// direction); that reverse capacity is folded into the forward edge's
// cancellation partner, so a bidirectional segment's true flow is read off
// as (forward.Flow - backward.Flow) rather than backward.Flow alone.
func BuildFromNetwork(n *domain.Network) *ResidualGraph {
	g := NewResidualGraph()
	for _, p := range n.PointsSorted() {
		if p.IsActive {
			g.AddNode(p.ID)
		}
	}
	for _, s := range n.ActiveSegments() {
		g.AddEdgeWithReverse(s.ID, s.FromPointID, s.ToPointID, s.Capacity, s.TransportationCost)
		if s.IsBidirectional {
			reverseCapacity := -s.MinFlow
			if reverseCapacity > 0 {
				if back := g.GetEdge(s.ToPointID, s.FromPointID); back != nil {
					back.OriginalCapacity += reverseCapacity
					back.Capacity += reverseCapacity
				}
			}
		}
	}
	return g
}
