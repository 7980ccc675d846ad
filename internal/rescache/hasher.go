package rescache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"gaspipeline/internal/domain"
)

// NetworkHash computes a deterministic hash of a network's topology and
// physical parameters, suitable as a cache key component. Points and
// segments are already walked in id-sorted order (Network.PointsSorted and
// Network.Segments), so two structurally identical networks hash identically
// regardless of the order their points/segments were added in.
func NetworkHash(n *domain.Network) string {
	if n == nil {
		return ""
	}
	var b strings.Builder

	for _, p := range n.PointsSorted() {
		fmt.Fprintf(&b, "p:%s:%d:%t:%.6f:%.6f:%.6f:%.6f;",
			p.ID, p.Type, p.IsActive, p.SupplyCapacity, p.DemandRequirement, p.MinPressure, p.MaxPressure)
	}
	for _, s := range n.Segments() {
		fmt.Fprintf(&b, "s:%s:%s:%s:%t:%.6f:%.6f:%.6f:%.6f:%.6f:%.6f;",
			s.ID, s.FromPointID, s.ToPointID, s.IsActive,
			s.Capacity, s.MinFlow, s.Length, s.Diameter, s.FrictionFactor, s.TransportationCost)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}

// BuildResultKey builds a cache key for an optimization result from the
// network hash, algorithm name, and a sorted rendering of the algorithm
// parameters in effect, so two runs with different AlgorithmParameters
// never collide on the same key.
func BuildResultKey(networkHash, algorithm string, params map[string]float64) string {
	if len(params) == 0 {
		return fmt.Sprintf("result:%s:%s", algorithm, networkHash)
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&pb, "%s=%.6f,", k, params[k])
	}
	sum := sha256.Sum256([]byte(pb.String()))
	optionsHash := hex.EncodeToString(sum[:8])

	return fmt.Sprintf("result:%s:%s:%s", algorithm, networkHash, optionsHash)
}
