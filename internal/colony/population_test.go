package colony

import (
	"testing"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/world"
)

func TestEnvelopeFor(t *testing.T) {
	c := Census{
		Sources:     2,
		Slots:       10,
		Sites:       5,
		Reclaimable: 0,
		Counts: map[agents.Role]int{
			agents.RoleHarvester: 2,
			agents.RoleUpgrader:  3,
			agents.RoleBuilder:   1,
			agents.RoleReclaimer: 1,
		},
	}
	if got := c.EnvelopeFor(agents.RoleHarvester); got != (Envelope{Min: 2, Max: 6}) {
		t.Fatalf("harvester envelope = %+v", got)
	}
	if got := c.EnvelopeFor(agents.RoleUpgrader); got != (Envelope{Min: 2, Max: 7}) {
		t.Fatalf("upgrader envelope = %+v", got)
	}
	// ceil(5/1.5) = 4, max slots = 10 - 5 = 5.
	if got := c.EnvelopeFor(agents.RoleBuilder); got != (Envelope{Min: 4, Max: 4}) {
		t.Fatalf("builder envelope = %+v", got)
	}
	if got := c.EnvelopeFor(agents.RoleReclaimer); got != (Envelope{Min: 0, Max: 1}) {
		t.Fatalf("reclaimer envelope = %+v", got)
	}
	c.Reclaimable = 3
	if got := c.EnvelopeFor(agents.RoleReclaimer); got != (Envelope{Min: 1, Max: 1}) {
		t.Fatalf("reclaimer envelope with drops = %+v", got)
	}
	if got := c.EnvelopeFor("scout"); got != (Envelope{Min: Unbounded, Max: Unbounded}) {
		t.Fatalf("unknown role envelope = %+v", got)
	}
}

func TestEnvelopeFor_BuilderMinCappedBySlots(t *testing.T) {
	c := Census{Slots: 3, Sites: 9, Counts: map[agents.Role]int{agents.RoleHarvester: 2}}
	if got := c.EnvelopeFor(agents.RoleBuilder); got != (Envelope{Min: 1, Max: 2}) {
		t.Fatalf("builder envelope = %+v", got)
	}
}

func TestCensus_HarvesterMinIsSourceCount(t *testing.T) {
	w, _, c, _ := newColony()
	w.AddSource(at(10, 10))
	w.AddSource(at(20, 10))
	w.AddSource(at(30, 10))
	w.AddDrop(at(3, 3), 10)
	w.AddContainer(at(4, 4), 0)

	reg := Regulator{GrowEnergyRatio: 0.8}
	census := reg.Census(w, c, nil)
	stats := reg.Stats(census, agents.AllRoles)
	h := stats[0]
	if h.Role != agents.RoleHarvester || h.Min != 3 {
		t.Fatalf("harvester stats = %+v", h)
	}
	if h.Max < h.Min {
		t.Fatalf("harvester max %d below min %d with free slots", h.Max, h.Min)
	}
	if census.Reclaimable != 1 {
		t.Fatalf("reclaimable = %d, want 1 (empty containers excluded)", census.Reclaimable)
	}
}

func TestDecide_BelowMinimumWinsRegardlessOfEnergy(t *testing.T) {
	stats := []Stats{
		{Role: agents.RoleHarvester, Subtotal: 2, Envelope: Envelope{2, 6}, Delta: 0},
		{Role: agents.RoleUpgrader, Subtotal: 0, Envelope: Envelope{2, 6}, Delta: -2},
		{Role: agents.RoleBuilder, Subtotal: 1, Envelope: Envelope{2, 2}, Delta: -1},
	}
	role, ok := Regulator{GrowEnergyRatio: 0.8}.Decide(stats, 0)
	if !ok || role != agents.RoleUpgrader {
		t.Fatalf("decide = %s %v, want upgrader", role, ok)
	}
}

func TestDecide_GrowthGatedByEnergy(t *testing.T) {
	stats := []Stats{
		{Role: agents.RoleReclaimer, Subtotal: 1, Envelope: Envelope{1, 1}, Delta: 0},
		{Role: agents.RoleHarvester, Subtotal: 2, Envelope: Envelope{2, 6}, Delta: 0},
	}
	reg := Regulator{GrowEnergyRatio: 0.8}
	if _, ok := reg.Decide(stats, 0.5); ok {
		t.Fatalf("growth above minimum needs energy")
	}
	role, ok := reg.Decide(stats, 0.9)
	if !ok || role != agents.RoleHarvester {
		t.Fatalf("decide = %s %v, want harvester", role, ok)
	}
}

func TestDecide_NothingToGrow(t *testing.T) {
	stats := []Stats{
		{Role: agents.RoleHarvester, Subtotal: 6, Envelope: Envelope{2, 6}, Delta: 4},
		{Role: agents.RoleReclaimer, Subtotal: 0, Envelope: Envelope{0, 0}, Delta: 0},
	}
	if _, ok := (Regulator{}).Decide(stats, 1); ok {
		t.Fatalf("no role has headroom")
	}
}

func TestDecide_UnknownRoleNeverUrgent(t *testing.T) {
	reg := Regulator{GrowEnergyRatio: 0.8}
	stats := reg.Stats(Census{Counts: map[agents.Role]int{}}, []agents.Role{"scout"})
	if stats[0].Delta != 0 {
		t.Fatalf("unknown role delta = %d, want subtotal 0", stats[0].Delta)
	}
	if _, ok := reg.Decide(stats, 0.5); ok {
		t.Fatalf("unknown role should not force growth")
	}
}

func TestEnergyRatio(t *testing.T) {
	w, _, _, spawn := newColony()
	w.AddStructure(world.StructureExtension, at(27, 25))
	w.Update(spawn, func(e *world.Entity) { e.Energy = 175 })
	if got := EnergyRatio(w, testRoom); got != 0.5 {
		t.Fatalf("ratio = %v, want 0.5", got)
	}
	if got := EnergyRatio(w, "E9S9"); got != 0 {
		t.Fatalf("ratio without capacity = %v, want 0", got)
	}
}

func TestDue_Cadence(t *testing.T) {
	if !(Regulator{}).Due(7) {
		t.Fatalf("zero cadence runs every tick")
	}
	r := Regulator{Every: 5}
	if r.Due(7) || !r.Due(10) {
		t.Fatalf("cadence 5 should run on multiples of 5")
	}
}
