package agents

import (
	"testing"

	"github.com/talgya/mini-colony/internal/simworld"
	"github.com/talgya/mini-colony/internal/world"
)

// scriptedHarvest answers every Harvest with a fixed result.
type scriptedHarvest struct {
	*simworld.World
	res   world.Result
	calls int
}

func (s *scriptedHarvest) Harvest(agent, source world.EntityID) world.Result {
	s.calls++
	return s.res
}

func TestRun_OutOfRangeMovesAndKeepsTask(t *testing.T) {
	f := newFixture()
	src := f.w.AddSource(at(20, 10))
	h := f.agent("h", RoleHarvester, at(10, 10), 0)
	h.Assign(TaskHarvest, world.EntityRef(src), 0)

	NewWorker().Run(f.env(), f.roster)
	f.refresh(t)
	if h.Pos().Range(at(20, 10)) != 9 {
		t.Fatalf("agent should have stepped toward the source, now at %v", h.Pos())
	}
	wantTask(t, h, TaskHarvest, world.EntityRef(src))
}

func TestRun_HarvestInRange(t *testing.T) {
	f := newFixture()
	src := f.w.AddSource(at(11, 10))
	h := f.agent("h", RoleHarvester, at(10, 10), 0)
	h.Assign(TaskHarvest, world.EntityRef(src), 0)

	NewWorker().Run(f.env(), f.roster)
	f.refresh(t)
	if h.Carried() == 0 {
		t.Fatalf("agent should have harvested")
	}
	wantTask(t, h, TaskHarvest, world.EntityRef(src))
}

func TestRun_StaleTargetIsCleared(t *testing.T) {
	f := newFixture()
	src := f.w.AddSource(at(11, 10))
	f.w.Update(src, func(e *world.Entity) { e.Energy = 0 })
	h := f.agent("h", RoleHarvester, at(10, 10), 0)
	h.Assign(TaskHarvest, world.EntityRef(src), 0)

	spawn := f.w.AddStructure(world.StructureSpawn, at(13, 13))
	d := f.agent("d", RoleHarvester, at(12, 12), 50)
	d.Assign(TaskDropoff, world.EntityRef(spawn), 0)

	NewWorker().Run(f.env(), f.roster)
	wantTask(t, h, TaskHarvest, world.NoTarget)
	wantTask(t, d, TaskDropoff, world.NoTarget)
}

func TestRun_VanishedTargetIsCleared(t *testing.T) {
	f := newFixture()
	b := f.agent("b", RoleBuilder, at(10, 10), 50)
	b.Assign(TaskBuild, world.EntityRef("finished-site"), 0)

	NewWorker().Run(f.env(), f.roster)
	wantTask(t, b, TaskBuild, world.NoTarget)
}

func TestRun_ReclaimPicksUpOrWithdraws(t *testing.T) {
	f := newFixture()
	drop := f.w.AddDrop(at(11, 10), 20)
	box := f.w.AddContainer(at(31, 30), 30)
	r1 := f.agent("r1", RoleReclaimer, at(10, 10), 0)
	r1.Assign(TaskReclaim, world.EntityRef(drop), 0)
	r2 := f.agent("r2", RoleReclaimer, at(30, 30), 0)
	r2.Assign(TaskReclaim, world.EntityRef(box), 0)

	NewWorker().Run(f.env(), f.roster)
	f.refresh(t)
	if r1.Carried() != 20 {
		t.Fatalf("r1 carried %d, want 20", r1.Carried())
	}
	if r2.Carried() != 30 {
		t.Fatalf("r2 carried %d, want 30", r2.Carried())
	}
	if _, ok := f.w.Get(drop); ok {
		t.Fatalf("emptied drop should be gone")
	}
}

func TestRun_StandbyIssuesNothing(t *testing.T) {
	f := newFixture()
	a := f.agent("a", RoleUpgrader, at(10, 10), 10)
	a.Assign(TaskStandby, world.At(at(30, 30)), 0)

	NewWorker().Run(f.env(), f.roster)
	f.refresh(t)
	if a.Pos() != at(10, 10) {
		t.Fatalf("standby agent moved to %v", a.Pos())
	}
}

func TestRun_PositionTargetMoves(t *testing.T) {
	f := newFixture()
	a := f.agent("a", RoleUpgrader, at(10, 10), 10)
	a.Assign(TaskUpgrade, world.At(at(10, 20)), 0)

	NewWorker().Run(f.env(), f.roster)
	f.refresh(t)
	if a.Pos().Y != 11 {
		t.Fatalf("agent should step toward the position, now at %v", a.Pos())
	}
}

func TestRun_PositionReachedClearsTarget(t *testing.T) {
	f := newFixture()
	a := f.agent("a", RoleUpgrader, at(10, 10), 10)
	a.Assign(TaskUpgrade, world.At(at(11, 11)), 0)

	NewWorker().Run(f.env(), f.roster)
	f.refresh(t)
	wantTask(t, a, TaskUpgrade, world.NoTarget)
	if a.Pos() != at(10, 10) {
		t.Fatalf("agent should not move once adjacent, now at %v", a.Pos())
	}
}

func TestRun_UnexpectedResultKeepsTask(t *testing.T) {
	for _, res := range []world.Result{world.Failed, world.Busy} {
		f := newFixture()
		src := f.w.AddSource(at(11, 10))
		h := f.agent("h", RoleHarvester, at(10, 10), 0)
		h.Assign(TaskHarvest, world.EntityRef(src), 0)

		sw := &scriptedHarvest{World: f.w, res: res}
		env := f.env()
		env.World = sw
		NewWorker().Run(env, f.roster)
		NewWorker().Run(env, f.roster)

		if sw.calls != 2 {
			t.Fatalf("%s: harvest issued %d times, want 2", res, sw.calls)
		}
		wantTask(t, h, TaskHarvest, world.EntityRef(src))
		f.refresh(t)
		if h.Pos() != at(10, 10) {
			t.Fatalf("%s: agent moved to %v", res, h.Pos())
		}
	}
}

func TestRun_NoPathClearsTarget(t *testing.T) {
	f := newFixture()
	src := f.w.AddSource(at(30, 30))
	h := f.agent("h", RoleHarvester, at(10, 10), 0)
	for _, n := range at(10, 10).Neighbors() {
		f.w.SetTerrain(n, world.TerrainWall)
	}
	h.Assign(TaskHarvest, world.EntityRef(src), 0)

	NewWorker().Run(f.env(), f.roster)
	wantTask(t, h, TaskHarvest, world.NoTarget)
}

func TestRun_UpgradeDrainsCarried(t *testing.T) {
	f := newFixture()
	u := f.agent("u", RoleUpgrader, at(38, 38), 10)
	u.Assign(TaskUpgrade, world.EntityRef(f.controller), 0)

	NewWorker().Run(f.env(), f.roster)
	f.refresh(t)
	if u.Carried() != 9 {
		t.Fatalf("carried %d, want 9", u.Carried())
	}
	ctrl, _ := f.w.Get(f.controller)
	if ctrl.Energy != 1 {
		t.Fatalf("controller progress %d, want 1", ctrl.Energy)
	}
}
