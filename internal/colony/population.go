package colony

import (
	"log/slog"
	"math"
	"sort"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/world"
)

// Unbounded marks an unknown or unlimited envelope bound.
const Unbounded = -1

// Envelope is the (min, max) headcount a role should stay within.
type Envelope struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Stats is the population picture for one role.
type Stats struct {
	Role     agents.Role `json:"role"`
	Subtotal int         `json:"subtotal"`
	Envelope
	Delta int `json:"delta"`
}

// Census is the world state the envelopes are derived from.
type Census struct {
	Sources     int // distinct extraction nodes
	Slots       int // free extraction slots summed over sources
	Sites       int // pending construction sites
	Reclaimable int // drops plus non-empty decay containers
	Counts      map[agents.Role]int
}

// consumersExcept counts agents of source-consuming roles other than role.
func (c Census) consumersExcept(role agents.Role) int {
	n := 0
	for r, count := range c.Counts {
		if r != role && r.ConsumesSource() {
			n += count
		}
	}
	return n
}

// EnvelopeFor computes the demand envelope of a role.
func (c Census) EnvelopeFor(role agents.Role) Envelope {
	switch role {
	case agents.RoleHarvester:
		return Envelope{Min: c.Sources, Max: c.Slots - c.consumersExcept(role)}
	case agents.RoleUpgrader:
		return Envelope{Min: 2, Max: c.Slots - c.consumersExcept(role)}
	case agents.RoleBuilder:
		maxSlots := c.Slots - c.consumersExcept(role)
		lo := min(max(2, int(math.Ceil(float64(c.Sites)/1.5))), maxSlots)
		return Envelope{Min: lo, Max: max(lo, 2)}
	case agents.RoleReclaimer:
		lo := 0
		if c.Reclaimable > 0 {
			lo = 1
		}
		return Envelope{Min: lo, Max: 1}
	default:
		return Envelope{Min: Unbounded, Max: Unbounded}
	}
}

// Regulator keeps each role's headcount inside its envelope by picking at
// most one role to grow per evaluation.
type Regulator struct {
	// GrowEnergyRatio gates growth above the minimum: energy available over
	// capacity must exceed it.
	GrowEnergyRatio float64
	// Every is the evaluation cadence in ticks. Zero means every tick.
	Every uint64
}

// Due reports whether the regulator runs on tick.
func (r Regulator) Due(tick uint64) bool {
	return r.Every <= 1 || tick%r.Every == 0
}

// Census gathers the inputs for the colony's envelopes.
func (r Regulator) Census(q world.Queries, c *Colony, roster []*agents.Agent) Census {
	census := Census{Counts: make(map[agents.Role]int)}
	for _, src := range c.Sources(q) {
		census.Sources++
		census.Slots += q.FreeSlots(src.ID)
	}
	census.Sites = len(c.Sites(q))
	census.Reclaimable = len(q.FindAll(c.Room, world.KindDrop, nil)) +
		len(q.FindAll(c.Room, world.KindContainer, func(e world.Entity) bool { return e.Energy > 0 }))
	for _, a := range roster {
		census.Counts[a.Role()]++
	}
	return census
}

// Stats computes per-role stats for the given roles, in that order.
func (r Regulator) Stats(census Census, roles []agents.Role) []Stats {
	out := make([]Stats, 0, len(roles))
	for _, role := range roles {
		s := Stats{Role: role, Subtotal: census.Counts[role], Envelope: census.EnvelopeFor(role)}
		if s.Min != Unbounded {
			s.Delta = s.Subtotal - s.Min
		} else {
			s.Delta = s.Subtotal
		}
		out = append(out, s)
	}
	return out
}

// EnergyRatio returns available over capacity for a room, or 0 when the
// room has no capacity at all.
func EnergyRatio(q world.Queries, room string) float64 {
	capacity := q.EnergyCapacity(room)
	if capacity <= 0 {
		return 0
	}
	return float64(q.EnergyAvailable(room)) / float64(capacity)
}

// Decide picks the role to grow, if any. A role below its minimum always
// wins; otherwise the first role with headroom grows, but only when the
// energy ratio clears the gate.
func (r Regulator) Decide(stats []Stats, energyRatio float64) (agents.Role, bool) {
	sorted := append([]Stats(nil), stats...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Delta < sorted[j].Delta })

	for _, s := range sorted {
		if s.Delta < 0 {
			slog.Info("population below minimum", "role", s.Role, "subtotal", s.Subtotal, "min", s.Min)
			return s.Role, true
		}
		if s.Max == Unbounded || s.Delta+max(s.Min, 0) < s.Max {
			if energyRatio > r.GrowEnergyRatio {
				slog.Info("population should grow", "role", s.Role, "subtotal", s.Subtotal, "max", s.Max)
				return s.Role, true
			}
			slog.Info("population should grow, insufficient energy", "role", s.Role, "energy_ratio", energyRatio)
			return "", false
		}
	}
	slog.Debug("population cannot grow anymore")
	return "", false
}
