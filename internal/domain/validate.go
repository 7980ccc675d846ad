package domain

import (
	"fmt"

	"gaspipeline/internal/apperr"
)

// Validate checks the network against the structural and business invariants
// of spec §3. It never stops at the first problem: every violation is
// collected so a caller can report the complete list at once (spec §7: error
// kind 1/2 are "aggregate list, never single-shot").
func (n *Network) Validate() []*apperr.Error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var errs []*apperr.Error

	if len(n.Points) == 0 {
		return append(errs, apperr.New(apperr.CodeEmptyNetwork, "network has no points"))
	}

	for id, p := range n.Points {
		if id != p.ID {
			errs = append(errs, apperr.NewWithField(apperr.CodeInvalidArgument,
				fmt.Sprintf("point map key %q does not match point id %q", id, p.ID), "points"))
		}
		if !p.PressureWindowValid() {
			errs = append(errs, apperr.NewWithField(apperr.CodeEmptyPressureWindow,
				fmt.Sprintf("point %s has empty or invalid pressure window [%.2f, %.2f]", p.ID, p.MinPressure, p.MaxPressure),
				fmt.Sprintf("points[%s]", p.ID)))
		}
		switch p.Type {
		case PointTypeReceipt:
			if p.SupplyCapacity <= 0 {
				errs = append(errs, apperr.NewWithField(apperr.CodeInvalidArgument,
					fmt.Sprintf("receipt %s must have SupplyCapacity > 0", p.ID), fmt.Sprintf("points[%s].supplyCapacity", p.ID)))
			}
		case PointTypeDelivery:
			if p.DemandRequirement <= 0 {
				errs = append(errs, apperr.NewWithField(apperr.CodeInvalidArgument,
					fmt.Sprintf("delivery %s must have DemandRequirement > 0", p.ID), fmt.Sprintf("points[%s].demandRequirement", p.ID)))
			}
		case PointTypeCompressor:
			if p.MaxPressureBoost <= 0 {
				errs = append(errs, apperr.NewWithField(apperr.CodeInvalidArgument,
					fmt.Sprintf("compressor %s must have MaxPressureBoost > 0", p.ID), fmt.Sprintf("points[%s].maxPressureBoost", p.ID)))
			}
		default:
			errs = append(errs, apperr.NewWithField(apperr.CodeInvalidPointType,
				fmt.Sprintf("point %s has unspecified type", p.ID), fmt.Sprintf("points[%s].type", p.ID)))
		}
	}

	for key, s := range n.segments {
		if _, ok := n.Points[s.FromPointID]; !ok {
			errs = append(errs, apperr.NewWithField(apperr.CodeDanglingSegment,
				fmt.Sprintf("segment %s references non-existent from-point %s", key, s.FromPointID), "segments"))
		}
		if _, ok := n.Points[s.ToPointID]; !ok {
			errs = append(errs, apperr.NewWithField(apperr.CodeDanglingSegment,
				fmt.Sprintf("segment %s references non-existent to-point %s", key, s.ToPointID), "segments"))
		}
		if s.FromPointID == s.ToPointID {
			errs = append(errs, apperr.NewWithField(apperr.CodeSelfLoop,
				fmt.Sprintf("segment %s is a self-loop at %s", s.ID, s.FromPointID), fmt.Sprintf("segments[%s]", s.ID)))
		}
		if s.Length <= 0 || s.Diameter <= 0 || s.FrictionFactor <= 0 {
			errs = append(errs, apperr.NewWithField(apperr.CodeInvalidArgument,
				fmt.Sprintf("segment %s must have Length, Diameter, FrictionFactor > 0", s.ID), fmt.Sprintf("segments[%s]", s.ID)))
		}
		if s.Capacity <= 0 {
			errs = append(errs, apperr.NewWithField(apperr.CodeInvalidCapacity,
				fmt.Sprintf("segment %s must have Capacity > 0", s.ID), fmt.Sprintf("segments[%s].capacity", s.ID)))
		}
		if s.TransportationCost < 0 {
			errs = append(errs, apperr.NewWithField(apperr.CodeNegativeCost,
				fmt.Sprintf("segment %s has negative transportation cost", s.ID), fmt.Sprintf("segments[%s].transportationCost", s.ID)))
		}
		wantMinFlow := 0.0
		if s.IsBidirectional {
			wantMinFlow = -s.Capacity
		}
		if s.IsBidirectional {
			if s.MinFlow > 0 || s.MinFlow < -s.Capacity-Epsilon {
				errs = append(errs, apperr.NewWithField(apperr.CodeInvalidArgument,
					fmt.Sprintf("bidirectional segment %s must have MinFlow in [-Capacity, 0], got %.4f", s.ID, s.MinFlow),
					fmt.Sprintf("segments[%s].minFlow", s.ID)))
			}
		} else if s.MinFlow < 0 {
			errs = append(errs, apperr.NewWithField(apperr.CodeInvalidArgument,
				fmt.Sprintf("unidirectional segment %s must have MinFlow >= 0, got %.4f (expected %.4f as baseline)", s.ID, s.MinFlow, wantMinFlow),
				fmt.Sprintf("segments[%s].minFlow", s.ID)))
		}
	}

	var activeReceipts, activeDeliveries int
	var totalSupply, totalDemand float64
	for _, p := range n.Points {
		if !p.IsActive {
			continue
		}
		switch p.Type {
		case PointTypeReceipt:
			activeReceipts++
			totalSupply += p.SupplyCapacity
		case PointTypeDelivery:
			activeDeliveries++
			totalDemand += p.DemandRequirement
		}
	}
	if activeReceipts == 0 {
		errs = append(errs, apperr.New(apperr.CodeNoActiveReceipt, "network has no active receipt point"))
	}
	if activeDeliveries == 0 {
		errs = append(errs, apperr.New(apperr.CodeNoActiveDelivery, "network has no active delivery point"))
	}
	if activeReceipts > 0 && activeDeliveries > 0 && totalSupply < totalDemand-Epsilon {
		errs = append(errs, apperr.New(apperr.CodeSupplyBelowDemand,
			fmt.Sprintf("total active supply capacity %.2f is less than total active demand requirement %.2f", totalSupply, totalDemand)).
			WithDetail("totalSupply", totalSupply).WithDetail("totalDemand", totalDemand))
	}

	return errs
}
