package domain

import "encoding/json"

// wireNetwork mirrors Network's JSON shape but is a plain struct (not tied to
// Network's internal indexes) so it round-trips through encoding/json
// directly, matching the configuration shape of spec §6.
type wireNetwork struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Points      map[string]*Point  `json:"points"`
	Segments    map[string]*wireSeg `json:"segments"`
}

type wireSeg struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	FromPointID        string  `json:"fromPointId"`
	ToPointID          string  `json:"toPointId"`
	Capacity           float64 `json:"capacity"`
	Length             float64 `json:"length"`
	Diameter           float64 `json:"diameter"`
	FrictionFactor     float64 `json:"frictionFactor"`
	TransportationCost float64 `json:"transportationCost"`
	CurrentFlow        float64 `json:"currentFlow"`
	IsActive           bool    `json:"isActive"`
	IsBidirectional    bool    `json:"isBidirectional"`
	MinFlow            float64 `json:"minFlow"`
}

// MarshalJSON renders the network in the configuration-object shape of spec
// §6: points and segments keyed by id.
func (n *Network) MarshalJSON() ([]byte, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	w := wireNetwork{
		Name:        n.Name,
		Description: n.Description,
		Points:      n.Points,
		Segments:    make(map[string]*wireSeg, len(n.segmentsByID)),
	}
	for id, s := range n.segmentsByID {
		w.Segments[id] = &wireSeg{
			ID: s.ID, Name: s.Name, FromPointID: s.FromPointID, ToPointID: s.ToPointID,
			Capacity: s.Capacity, Length: s.Length, Diameter: s.Diameter, FrictionFactor: s.FrictionFactor,
			TransportationCost: s.TransportationCost, CurrentFlow: s.CurrentFlow,
			IsActive: s.IsActive, IsBidirectional: s.IsBidirectional, MinFlow: s.MinFlow,
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses the configuration-object shape of spec §6 and
// recomputes each segment's PressureDropConstant, per spec's "after load".
func (n *Network) UnmarshalJSON(data []byte) error {
	var w wireNetwork
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*n = *NewNetwork(w.Name)
	n.Description = w.Description

	for id, p := range w.Points {
		if p.ID == "" {
			p.ID = id
		}
		n.AddPoint(p)
	}
	for id, s := range w.Segments {
		segID := s.ID
		if segID == "" {
			segID = id
		}
		n.AddSegment(&Segment{
			ID: segID, Name: s.Name, FromPointID: s.FromPointID, ToPointID: s.ToPointID,
			Capacity: s.Capacity, Length: s.Length, Diameter: s.Diameter, FrictionFactor: s.FrictionFactor,
			TransportationCost: s.TransportationCost, CurrentFlow: s.CurrentFlow,
			IsActive: s.IsActive, IsBidirectional: s.IsBidirectional, MinFlow: s.MinFlow,
		})
	}
	return nil
}
