package domain

// Builder assembles a Network programmatically. It is the non-file-loading
// construction path spec §3's lifecycle describes ("constructed once, via
// configuration or programmatic builder, validated, then treated as
// immutable"); JSON deserialization (json.go) is the other path.
type Builder struct {
	net *Network
}

// NewBuilder starts a new network under construction.
func NewBuilder(name string) *Builder {
	return &Builder{net: NewNetwork(name)}
}

// Receipt adds an active receipt point with the given supply capacity and
// pressure window.
func (b *Builder) Receipt(id, name string, supplyCapacity, unitCost, minP, maxP float64) *Builder {
	b.net.AddPoint(&Point{
		ID: id, Name: name, Type: PointTypeReceipt, IsActive: true,
		SupplyCapacity: supplyCapacity, UnitCost: unitCost,
		MinPressure: minP, MaxPressure: maxP, CurrentPressure: maxP,
	})
	return b
}

// Delivery adds an active delivery point with the given demand requirement
// and pressure window.
func (b *Builder) Delivery(id, name string, demandRequirement, minP, maxP float64) *Builder {
	b.net.AddPoint(&Point{
		ID: id, Name: name, Type: PointTypeDelivery, IsActive: true,
		DemandRequirement: demandRequirement,
		MinPressure:       minP, MaxPressure: maxP, CurrentPressure: minP,
	})
	return b
}

// Compressor adds an active compressor station.
func (b *Builder) Compressor(id, name string, maxBoost, fuelRate, minP, maxP float64) *Builder {
	b.net.AddPoint(&Point{
		ID: id, Name: name, Type: PointTypeCompressor, IsActive: true,
		MaxPressureBoost: maxBoost, FuelConsumptionRate: fuelRate,
		MinPressure: minP, MaxPressure: maxP, CurrentPressure: minP,
	})
	return b
}

// Segment adds an active directed segment between two previously added
// points.
func (b *Builder) Segment(id, name, from, to string, capacity, length, diameter, friction, cost float64) *Builder {
	b.net.AddSegment(&Segment{
		ID: id, Name: name, FromPointID: from, ToPointID: to,
		Capacity: capacity, Length: length, Diameter: diameter, FrictionFactor: friction,
		TransportationCost: cost, IsActive: true,
	})
	return b
}

// Bidirectional marks the segment with the given id as
// bidirectional, adjusting MinFlow to -Capacity per spec §3.
func (b *Builder) Bidirectional(id string) *Builder {
	if s, ok := b.net.GetSegmentByID(id); ok {
		s.IsBidirectional = true
		s.MinFlow = -s.Capacity
	}
	return b
}

// Build returns the assembled network. The caller is responsible for calling
// Validate before using it in an optimization run.
func (b *Builder) Build() *Network {
	return b.net
}
