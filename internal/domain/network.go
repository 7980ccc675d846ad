// Package domain holds the pipeline network data model: points (nodes),
// segments (directed pipes), and the network that owns them by id. The
// package carries no optimization logic — it is the shared vocabulary that
// internal/optimize, internal/pressure, internal/compressor, and
// internal/tracer all build on.
package domain

import (
	"fmt"
	"sort"
	"sync"
)

// PointType tags which variant of point a Point represents. Go favors a
// discriminated struct over subclassing: branches on Type select which of
// the variant-only fields apply.
type PointType int

const (
	PointTypeUnspecified PointType = iota
	PointTypeReceipt
	PointTypeDelivery
	PointTypeCompressor
)

func (t PointType) String() string {
	switch t {
	case PointTypeReceipt:
		return "receipt"
	case PointTypeDelivery:
		return "delivery"
	case PointTypeCompressor:
		return "compressor"
	default:
		return "unspecified"
	}
}

// MarshalJSON renders the point type using the wire vocabulary from spec §6.
func (t PointType) MarshalJSON() ([]byte, error) {
	switch t {
	case PointTypeReceipt:
		return []byte(`"Receipt"`), nil
	case PointTypeDelivery:
		return []byte(`"Delivery"`), nil
	case PointTypeCompressor:
		return []byte(`"Compressor"`), nil
	default:
		return []byte(`"Unspecified"`), nil
	}
}

// UnmarshalJSON parses the wire vocabulary from spec §6.
func (t *PointType) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"Receipt"`:
		*t = PointTypeReceipt
	case `"Delivery"`:
		*t = PointTypeDelivery
	case `"Compressor"`:
		*t = PointTypeCompressor
	default:
		*t = PointTypeUnspecified
	}
	return nil
}

// Point is a node in the pipeline network: a receipt (supply source), a
// delivery (demand sink), or a compressor station. Only the fields relevant
// to its Type are meaningful; the others are left at their zero value.
type Point struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Type     PointType         `json:"type"`
	X        float64           `json:"x"`
	Y        float64           `json:"y"`
	IsActive bool              `json:"isActive"`
	Metadata map[string]string `json:"metadata,omitempty"`

	MinPressure     float64 `json:"minPressure"`
	MaxPressure     float64 `json:"maxPressure"`
	CurrentPressure float64 `json:"currentPressure"`

	// Receipt-only.
	SupplyCapacity float64 `json:"supplyCapacity,omitempty"`
	UnitCost       float64 `json:"unitCost,omitempty"`

	// Delivery-only.
	DemandRequirement float64 `json:"demandRequirement,omitempty"`

	// Compressor-only.
	MaxPressureBoost    float64 `json:"maxPressureBoost,omitempty"`
	FuelConsumptionRate float64 `json:"fuelConsumptionRate,omitempty"`
}

// Clone returns a deep copy of the point.
func (p *Point) Clone() *Point {
	clone := *p
	if p.Metadata != nil {
		clone.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

// PressureWindowValid reports whether [MinPressure, MaxPressure] is a
// non-empty window with MinPressure >= 0, per spec invariant 4.
func (p *Point) PressureWindowValid() bool {
	return p.MinPressure >= 0 && p.MaxPressure > p.MinPressure
}

// SegmentKey uniquely identifies a directed segment by its endpoints.
type SegmentKey struct {
	From string
	To   string
}

func (k SegmentKey) String() string {
	return fmt.Sprintf("%s->%s", k.From, k.To)
}

// Segment is a directed pipe connecting two points.
type Segment struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	FromPointID string `json:"fromPointId"`
	ToPointID   string `json:"toPointId"`

	Length         float64 `json:"length"`
	Diameter       float64 `json:"diameter"`
	FrictionFactor float64 `json:"frictionFactor"`

	Capacity            float64 `json:"capacity"`
	MinFlow             float64 `json:"minFlow"`
	IsBidirectional     bool    `json:"isBidirectional"`
	IsActive            bool    `json:"isActive"`
	TransportationCost  float64 `json:"transportationCost"`
	CurrentFlow         float64 `json:"currentFlow"`

	// PressureDropConstant is derived once after load: k = FrictionFactor *
	// Length / (Diameter^5 * 1000). See RecomputeDerived.
	PressureDropConstant float64 `json:"-"`
}

// Key returns the segment's endpoint key.
func (s *Segment) Key() SegmentKey {
	return SegmentKey{From: s.FromPointID, To: s.ToPointID}
}

// Clone returns a deep copy of the segment.
func (s *Segment) Clone() *Segment {
	clone := *s
	return &clone
}

// Utilization returns |flow| / capacity as a fraction in [0, 1] (assuming a
// feasible flow); callers multiply by 100 for the spec's percentage form.
func (s *Segment) Utilization() float64 {
	if s.Capacity <= Epsilon {
		return 0
	}
	u := s.CurrentFlow / s.Capacity
	if u < 0 {
		u = -u
	}
	return u
}

// IsSaturated reports whether the segment is at or beyond its capacity.
func (s *Segment) IsSaturated() bool {
	return s.Utilization() >= 1.0-Epsilon
}

// ResidualCapacity returns the remaining forward capacity.
func (s *Segment) ResidualCapacity() float64 {
	return s.Capacity - s.CurrentFlow
}

// RecomputeDerived recomputes PressureDropConstant from the physical fields.
// Must be called once after load and again after any physical-field edit.
func (s *Segment) RecomputeDerived() {
	if s.Diameter <= 0 {
		s.PressureDropConstant = 0
		return
	}
	s.PressureDropConstant = s.FrictionFactor * s.Length / (pow5(s.Diameter) * 1000)
}

func pow5(x float64) float64 {
	x2 := x * x
	return x2 * x2 * x
}

// Network owns all points and segments by id and exposes non-owning adjacency
// lookups. Topology may contain cycles (e.g. looped distribution), so
// ownership is always by id map, never by direct pointer graph traversal.
type Network struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Points      map[string]*Point `json:"points"`

	// Segments is keyed by segment id on the wire (spec §6) but the engine
	// also needs O(1) lookup by endpoint pair, so both indexes are kept.
	segmentsByID map[string]*Segment
	segments     map[SegmentKey]*Segment

	outgoing map[string][]string
	incoming map[string][]string

	mu sync.RWMutex
}

// NewNetwork returns an empty, ready-to-populate network.
func NewNetwork(name string) *Network {
	return &Network{
		Name:         name,
		Points:       make(map[string]*Point),
		segmentsByID: make(map[string]*Segment),
		segments:     make(map[SegmentKey]*Segment),
		outgoing:     make(map[string][]string),
		incoming:     make(map[string][]string),
	}
}

// AddPoint inserts or replaces a point.
func (n *Network) AddPoint(p *Point) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Points[p.ID] = p
}

// AddSegment inserts or replaces a segment and recomputes its derived
// PressureDropConstant, updating the adjacency indexes.
func (n *Network) AddSegment(s *Segment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	s.RecomputeDerived()
	n.segmentsByID[s.ID] = s
	n.segments[s.Key()] = s
	n.outgoing[s.FromPointID] = append(n.outgoing[s.FromPointID], s.ToPointID)
	n.incoming[s.ToPointID] = append(n.incoming[s.ToPointID], s.FromPointID)
}

// GetPoint looks up a point by id.
func (n *Network) GetPoint(id string) (*Point, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	p, ok := n.Points[id]
	return p, ok
}

// GetSegment looks up a segment by its endpoints.
func (n *Network) GetSegment(from, to string) (*Segment, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	s, ok := n.segments[SegmentKey{From: from, To: to}]
	return s, ok
}

// GetSegmentByID looks up a segment by its wire id.
func (n *Network) GetSegmentByID(id string) (*Segment, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	s, ok := n.segmentsByID[id]
	return s, ok
}

// Outgoing returns the destination point ids reachable by one segment hop
// (active or not) from id, in deterministic (insertion) order.
func (n *Network) Outgoing(id string) []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.outgoing[id]
}

// Incoming returns the origin point ids with one segment hop (active or not)
// into id.
func (n *Network) Incoming(id string) []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.incoming[id]
}

// Segments returns all segments in deterministic id-sorted order, required
// by §5's determinism guarantee for variable/constraint construction order.
func (n *Network) Segments() []*Segment {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Segment, 0, len(n.segmentsByID))
	for _, s := range n.segmentsByID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PointsSorted returns all points in deterministic id-sorted order.
func (n *Network) PointsSorted() []*Point {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Point, 0, len(n.Points))
	for _, p := range n.Points {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PointsByType returns all points (active or not) of a given type, id-sorted.
func (n *Network) PointsByType(t PointType) []*Point {
	var out []*Point
	for _, p := range n.PointsSorted() {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

// ActivePointsByType returns active points of a given type, id-sorted.
func (n *Network) ActivePointsByType(t PointType) []*Point {
	var out []*Point
	for _, p := range n.PointsSorted() {
		if p.Type == t && p.IsActive {
			out = append(out, p)
		}
	}
	return out
}

// ActiveSegments returns active segments whose endpoints are both active
// points, id-sorted.
func (n *Network) ActiveSegments() []*Segment {
	var out []*Segment
	for _, s := range n.Segments() {
		if !s.IsActive {
			continue
		}
		from, okF := n.GetPoint(s.FromPointID)
		to, okT := n.GetPoint(s.ToPointID)
		if !okF || !okT || !from.IsActive || !to.IsActive {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ResetFlow zeroes CurrentFlow on every segment, preparing the network for a
// fresh optimization run.
func (n *Network) ResetFlow() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.segmentsByID {
		s.CurrentFlow = 0
	}
}

// Clone returns a deep, independent copy of the network, suitable for
// scenario variants that must share no mutable state with the original.
func (n *Network) Clone() *Network {
	n.mu.RLock()
	defer n.mu.RUnlock()

	clone := NewNetwork(n.Name)
	clone.Description = n.Description
	for id, p := range n.Points {
		clone.Points[id] = p.Clone()
	}
	for _, s := range n.segmentsByID {
		clone.AddSegment(s.Clone())
	}
	return clone
}

// TotalSupplyCapacity sums SupplyCapacity across active receipts.
func (n *Network) TotalSupplyCapacity() float64 {
	var total float64
	for _, p := range n.ActivePointsByType(PointTypeReceipt) {
		total += p.SupplyCapacity
	}
	return total
}

// TotalDemandRequirement sums DemandRequirement across active deliveries.
func (n *Network) TotalDemandRequirement() float64 {
	var total float64
	for _, p := range n.ActivePointsByType(PointTypeDelivery) {
		total += p.DemandRequirement
	}
	return total
}
