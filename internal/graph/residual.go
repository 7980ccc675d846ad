// Package graph provides the residual-graph representation the
// graph-algorithmic optimization backends run against: max-flow (throughput),
// repeated shortest-augmenting-path min-cost flow, and multi-path
// enumeration (balance). It is built from a domain.Network on demand and
// never mutates the network it was built from.
package graph

import (
	"sort"
	"sync"
)

// Epsilon is the tolerance used for residual-capacity comparisons.
const Epsilon = 1e-9

// Infinity represents an unreachable distance or unbounded capacity.
const Infinity = 1.7976931348623157e+308

// ResidualEdge is one edge in the residual graph. Every original segment
// contributes a forward edge (capacity, cost) and a backward edge (initial
// capacity 0, negative cost) so augmenting paths can cancel previously
// pushed flow.
type ResidualEdge struct {
	To               string
	Capacity         float64
	Cost             float64
	Flow             float64
	OriginalCapacity float64
	IsReverse        bool
	SegmentID        string
}

// HasCapacity reports whether the edge can carry additional flow.
func (e *ResidualEdge) HasCapacity() bool {
	return e.Capacity > Epsilon
}

// IncomingEdge pairs a reverse-traversal source node with the edge pointing
// at it; used by algorithms that need to walk the graph backward.
type IncomingEdge struct {
	From string
	Edge *ResidualEdge
}

// ResidualGraph is a point-id-keyed flow network. Ownership mirrors
// domain.Network's map-based approach rather than a pointer graph, so that
// id lookup stays O(1) and topology cycles are never a special case.
type ResidualGraph struct {
	Nodes map[string]bool

	edges        map[string]map[string]*ResidualEdge
	edgesList    map[string][]*ResidualEdge
	reverseEdges map[string]map[string]*ResidualEdge

	sortedMu     sync.Mutex
	sortedNodes  []string
	sortedDirty  bool
}

// NewResidualGraph returns an empty graph ready for AddEdgeWithReverse calls.
func NewResidualGraph() *ResidualGraph {
	return &ResidualGraph{
		Nodes:        make(map[string]bool),
		edges:        make(map[string]map[string]*ResidualEdge),
		edgesList:    make(map[string][]*ResidualEdge),
		reverseEdges: make(map[string]map[string]*ResidualEdge),
		sortedDirty:  true,
	}
}

// AddNode registers a node, a no-op if it already exists.
func (g *ResidualGraph) AddNode(id string) {
	if !g.Nodes[id] {
		g.Nodes[id] = true
		g.sortedDirty = true
	}
}

func (g *ResidualGraph) addReverseIndex(from, to string, e *ResidualEdge) {
	if g.reverseEdges[to] == nil {
		g.reverseEdges[to] = make(map[string]*ResidualEdge)
	}
	g.reverseEdges[to][from] = e
}

// AddEdgeWithReverse adds a forward edge of the given capacity and cost
// along with its zero-capacity reverse counterpart, per the standard
// residual-graph construction.
func (g *ResidualGraph) AddEdgeWithReverse(segmentID, from, to string, capacity, cost float64) {
	g.AddNode(from)
	g.AddNode(to)

	if g.edges[from] == nil {
		g.edges[from] = make(map[string]*ResidualEdge)
	}
	fwd := &ResidualEdge{To: to, Capacity: capacity, Cost: cost, OriginalCapacity: capacity, SegmentID: segmentID}
	g.edges[from][to] = fwd
	g.edgesList[from] = append(g.edgesList[from], fwd)
	g.addReverseIndex(from, to, fwd)

	if g.edges[to] == nil {
		g.edges[to] = make(map[string]*ResidualEdge)
	}
	bwd := &ResidualEdge{To: from, Capacity: 0, Cost: -cost, IsReverse: true, SegmentID: segmentID}
	g.edges[to][from] = bwd
	g.edgesList[to] = append(g.edgesList[to], bwd)
	g.addReverseIndex(to, from, bwd)
}

// GetEdge returns the edge from "from" to "to", or nil if none exists.
func (g *ResidualGraph) GetEdge(from, to string) *ResidualEdge {
	if g.edges[from] == nil {
		return nil
	}
	return g.edges[from][to]
}

// NeighborsList returns from's outgoing edges in deterministic (insertion)
// order, the ordering every traversal in this package relies on.
func (g *ResidualGraph) NeighborsList(from string) []*ResidualEdge {
	return g.edgesList[from]
}

// IncomingList returns edges pointing at "to", sorted by source id for
// deterministic reverse traversal.
func (g *ResidualGraph) IncomingList(to string) []IncomingEdge {
	incoming := g.reverseEdges[to]
	if len(incoming) == 0 {
		return nil
	}
	out := make([]IncomingEdge, 0, len(incoming))
	for from, e := range incoming {
		out = append(out, IncomingEdge{From: from, Edge: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

// SortedNodes returns every node id in ascending order, cached until the
// next AddNode call.
func (g *ResidualGraph) SortedNodes() []string {
	g.sortedMu.Lock()
	defer g.sortedMu.Unlock()
	if g.sortedDirty || len(g.sortedNodes) != len(g.Nodes) {
		g.sortedNodes = make([]string, 0, len(g.Nodes))
		for n := range g.Nodes {
			g.sortedNodes = append(g.sortedNodes, n)
		}
		sort.Strings(g.sortedNodes)
		g.sortedDirty = false
	}
	return g.sortedNodes
}

// UpdateFlow pushes flow along the from->to edge, adjusting both the
// forward edge's capacity/flow and the reverse edge's capacity.
func (g *ResidualGraph) UpdateFlow(from, to string, flow float64) {
	if e := g.GetEdge(from, to); e != nil {
		e.Flow += flow
		e.Capacity -= flow
	}
	if back := g.GetEdge(to, from); back != nil {
		back.Capacity += flow
	}
}

// TotalFlowFrom sums the positive flow leaving source on forward edges —
// the standard way to read off a max-flow value after augmentation.
func (g *ResidualGraph) TotalFlowFrom(source string) float64 {
	var total float64
	for _, e := range g.edgesList[source] {
		if !e.IsReverse && e.Flow > 0 {
			total += e.Flow
		}
	}
	return total
}

// TotalCost sums flow*cost across every forward edge, in sorted-node order
// for determinism.
func (g *ResidualGraph) TotalCost() float64 {
	var total float64
	for _, from := range g.SortedNodes() {
		for _, e := range g.edgesList[from] {
			if !e.IsReverse && e.Flow > 0 {
				total += e.Flow * e.Cost
			}
		}
	}
	return total
}

// Reset restores every edge to its original (unflowed) capacity.
func (g *ResidualGraph) Reset() {
	for _, edges := range g.edgesList {
		for _, e := range edges {
			e.Capacity = e.OriginalCapacity
			e.Flow = 0
		}
	}
}
