package simworld

import "github.com/talgya/mini-colony/internal/world"

func (w *World) agent(id world.EntityID) (*world.Entity, bool) {
	e, ok := w.entities[id]
	if !ok || e.Kind != world.KindAgent || !e.Owned {
		return nil, false
	}
	return e, true
}

func (w *World) workParts(id world.EntityID) int {
	n := world.CountParts(w.bodies[id], world.PartWork)
	if n == 0 {
		n = 1
	}
	return n
}

// Move implements world.Commands. The agent steps one tile along a shortest
// path toward the tiles adjacent to to.
func (w *World) Move(agent world.EntityID, to world.Position) world.Result {
	a, ok := w.agent(agent)
	if !ok {
		return world.Failed
	}
	if a.Pos.InRangeTo(to, 1) {
		return world.OK
	}
	step, ok := w.firstStep(a.Pos, to)
	if !ok {
		return world.NoPath
	}
	a.Pos = step
	return world.OK
}

// Harvest implements world.Commands.
func (w *World) Harvest(agent, source world.EntityID) world.Result {
	a, ok := w.agent(agent)
	if !ok {
		return world.Failed
	}
	src, ok := w.entities[source]
	if !ok || src.Kind != world.KindSource {
		return world.InvalidTarget
	}
	if !a.Pos.InRangeTo(src.Pos, 1) {
		return world.NotInRange
	}
	if src.Energy <= 0 {
		return world.NotEnoughResource
	}
	amount := min(HarvestPerWork*w.workParts(agent), src.Energy, a.FreeCapacity())
	src.Energy -= amount
	a.Energy += amount
	return world.OK
}

// Transfer implements world.Commands.
func (w *World) Transfer(agent, to world.EntityID) world.Result {
	a, ok := w.agent(agent)
	if !ok {
		return world.Failed
	}
	dst, ok := w.entities[to]
	if !ok || dst.Kind != world.KindStructure || dst.Capacity == 0 {
		return world.InvalidTarget
	}
	if !a.Pos.InRangeTo(dst.Pos, 1) {
		return world.NotInRange
	}
	if a.Energy <= 0 {
		return world.NotEnoughResource
	}
	if dst.FreeCapacity() <= 0 {
		return world.Full
	}
	amount := min(a.Energy, dst.FreeCapacity())
	a.Energy -= amount
	dst.Energy += amount
	return world.OK
}

// UpgradeController implements world.Commands.
func (w *World) UpgradeController(agent, controller world.EntityID) world.Result {
	a, ok := w.agent(agent)
	if !ok {
		return world.Failed
	}
	c, ok := w.entities[controller]
	if !ok || c.Kind != world.KindStructure || c.Type != world.StructureController || !c.Owned {
		return world.InvalidTarget
	}
	if !a.Pos.InRangeTo(c.Pos, 3) {
		return world.NotInRange
	}
	if a.Energy <= 0 {
		return world.NotEnoughResource
	}
	amount := min(UpgradePerWork*w.workParts(agent), a.Energy)
	a.Energy -= amount
	c.Energy += amount
	if c.Energy >= c.Capacity {
		c.Energy -= c.Capacity
		c.Level++
		c.Capacity = progressForLevel(c.Level)
	}
	return world.OK
}

// Repair implements world.Commands. A structure already at full hits is
// reported as an invalid target.
func (w *World) Repair(agent, structure world.EntityID) world.Result {
	a, ok := w.agent(agent)
	if !ok {
		return world.Failed
	}
	s, ok := w.entities[structure]
	if !ok || s.Kind != world.KindStructure || s.HitsMax <= 0 || s.Hits >= s.HitsMax {
		return world.InvalidTarget
	}
	if !a.Pos.InRangeTo(s.Pos, 3) {
		return world.NotInRange
	}
	if a.Energy <= 0 {
		return world.NotEnoughResource
	}
	spent := min(w.workParts(agent), a.Energy)
	a.Energy -= spent
	s.Hits = min(s.Hits+spent*RepairPerWork, s.HitsMax)
	return world.OK
}

// Build implements world.Commands. A finished site turns into its structure
// under a new ID.
func (w *World) Build(agent, site world.EntityID) world.Result {
	a, ok := w.agent(agent)
	if !ok {
		return world.Failed
	}
	s, ok := w.entities[site]
	if !ok || s.Kind != world.KindSite {
		return world.InvalidTarget
	}
	if !a.Pos.InRangeTo(s.Pos, 3) {
		return world.NotInRange
	}
	if a.Energy <= 0 {
		return world.NotEnoughResource
	}
	spent := min(BuildPerWork*w.workParts(agent), a.Energy, s.Capacity-s.Energy)
	a.Energy -= spent
	s.Energy += spent
	if s.Energy >= s.Capacity {
		t, pos := s.Type, s.Pos
		w.Remove(site)
		w.AddStructure(t, pos)
	}
	return world.OK
}

// Pickup implements world.Commands.
func (w *World) Pickup(agent, drop world.EntityID) world.Result {
	a, ok := w.agent(agent)
	if !ok {
		return world.Failed
	}
	d, ok := w.entities[drop]
	if !ok || d.Kind != world.KindDrop {
		return world.InvalidTarget
	}
	if !a.Pos.InRangeTo(d.Pos, 1) {
		return world.NotInRange
	}
	if a.FreeCapacity() <= 0 {
		return world.Full
	}
	amount := min(d.Energy, a.FreeCapacity())
	d.Energy -= amount
	a.Energy += amount
	if d.Energy <= 0 {
		w.Remove(drop)
	}
	return world.OK
}

// Withdraw implements world.Commands.
func (w *World) Withdraw(agent, container world.EntityID) world.Result {
	a, ok := w.agent(agent)
	if !ok {
		return world.Failed
	}
	c, ok := w.entities[container]
	if !ok || (c.Kind != world.KindContainer && c.Kind != world.KindStructure) {
		return world.InvalidTarget
	}
	if !a.Pos.InRangeTo(c.Pos, 1) {
		return world.NotInRange
	}
	if c.Energy <= 0 {
		return world.NotEnoughResource
	}
	if a.FreeCapacity() <= 0 {
		return world.Full
	}
	amount := min(c.Energy, a.FreeCapacity())
	c.Energy -= amount
	a.Energy += amount
	return world.OK
}

// TowerDamage is the damage a tower deals at range r.
func TowerDamage(r int) int {
	switch {
	case r <= 5:
		return 600
	case r >= 20:
		return 150
	default:
		return 600 - (r-5)*450/15
	}
}

// Attack implements world.Commands for towers. A hostile reduced to zero
// hits dies and leaves its energy behind.
func (w *World) Attack(tower, hostile world.EntityID) world.Result {
	t, ok := w.entities[tower]
	if !ok || t.Kind != world.KindStructure || t.Type != world.StructureTower || !t.Owned {
		return world.Failed
	}
	h, ok := w.entities[hostile]
	if !ok || h.Kind != world.KindHostile {
		return world.InvalidTarget
	}
	r := t.Pos.Range(h.Pos)
	if r == world.NoRange {
		return world.NotInRange
	}
	if t.Energy < TowerAttackCost {
		return world.NotEnoughResource
	}
	t.Energy -= TowerAttackCost
	h.Hits -= TowerDamage(r)
	if h.Hits <= 0 {
		w.Kill(hostile)
	}
	return world.OK
}

// SpawnCreate implements world.Commands. Energy is drawn from spawns first,
// then extensions; the agent appears next to the spawn right away and the
// spawn stays busy for a few ticks per part.
func (w *World) SpawnCreate(spawn world.EntityID, body []world.Part, name string) world.Result {
	s, ok := w.entities[spawn]
	if !ok || s.Kind != world.KindStructure || s.Type != world.StructureSpawn || !s.Owned {
		return world.InvalidTarget
	}
	if s.Spawning > 0 {
		return world.Busy
	}
	if name == "" || len(body) == 0 {
		return world.Failed
	}
	if _, taken := w.entities[world.EntityID(name)]; taken {
		return world.Failed
	}
	for _, p := range body {
		if !world.KnownPart(p) {
			return world.Failed
		}
	}
	cost := world.BodyCost(body)
	room := s.Pos.Room
	if cost > w.EnergyAvailable(room) {
		return world.NotEnoughResource
	}
	w.drawEnergy(room, cost)

	pos := s.Pos
	for _, n := range s.Pos.Neighbors() {
		if w.walkable(n) {
			pos = n
			break
		}
	}
	w.AddAgent(name, pos, body, true)
	s.Spawning = SpawnTicksPerPart * len(body)
	return world.OK
}

func (w *World) drawEnergy(room string, cost int) {
	for _, kind := range []world.StructureType{world.StructureSpawn, world.StructureExtension} {
		for _, id := range w.order {
			e := w.entities[id]
			if cost == 0 {
				return
			}
			if e.Pos.Room != room || e.Type != kind || !isEnergyStore(e) {
				continue
			}
			take := min(e.Energy, cost)
			e.Energy -= take
			cost -= take
		}
	}
}
