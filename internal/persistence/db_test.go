package persistence

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/world"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "colony.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMemoryRoundTrip(t *testing.T) {
	db := openTemp(t)
	bank := agents.NewMemoryBank()
	bank.Put("harvester1", agents.Memory{
		Role: agents.RoleHarvester, Manager: agents.ManagerWorker, Colony: "c1",
		Task: agents.TaskHarvest, Target: world.EntityRef("src-a"), LastTaskChange: 12,
	})
	bank.Put("builder2", agents.Memory{
		Role: agents.RoleBuilder, Manager: agents.ManagerWorker, Colony: "c1",
		Task: agents.TaskStandby, Target: world.At(world.Position{X: 3, Y: 4, Room: "W1N1"}), LastTaskChange: 40,
	})
	bank.Put("reclaimer3", agents.Memory{Role: agents.RoleReclaimer, Manager: agents.ManagerWorker, Colony: "c1"})

	if err := db.SaveMemory(bank); err != nil {
		t.Fatalf("SaveMemory: %v", err)
	}
	got, err := db.LoadMemory()
	if err != nil {
		t.Fatalf("LoadMemory: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("loaded %d memories, want 3", got.Len())
	}
	for _, id := range bank.IDs() {
		want, _ := bank.Get(id)
		have, ok := got.Get(id)
		if !ok || *have != *want {
			t.Fatalf("memory %s = %+v, want %+v", id, have, want)
		}
	}

	// Full replace: a second save drops entries no longer in the bank.
	bank.Delete("builder2")
	if err := db.SaveMemory(bank); err != nil {
		t.Fatalf("SaveMemory: %v", err)
	}
	if got, _ := db.LoadMemory(); got.Len() != 2 || got.Has("builder2") {
		t.Fatalf("stale memory survived a full save")
	}
}

func TestColonies(t *testing.T) {
	db := openTemp(t)
	recs := []colony.Record{
		{ID: "ctrl-1", AnchorID: "ctrl-1", DefenseDowntime: 4},
		{ID: "ctrl-2", AnchorID: "ctrl-2", DefenseDowntime: 1},
	}
	if err := db.SaveColonies(recs); err != nil {
		t.Fatalf("SaveColonies: %v", err)
	}
	if err := db.DeleteColony("ctrl-1"); err != nil {
		t.Fatalf("DeleteColony: %v", err)
	}
	got, err := db.LoadColonies()
	if err != nil {
		t.Fatalf("LoadColonies: %v", err)
	}
	if len(got) != 1 || got[0] != recs[1] {
		t.Fatalf("colonies = %+v", got)
	}
}

func TestSaveStateAndMeta(t *testing.T) {
	db := openTemp(t)

	if _, ok, err := db.LastTick(); err != nil || ok {
		t.Fatalf("fresh db LastTick ok=%v err=%v", ok, err)
	}
	if _, err := db.GetMeta(WorldSnapshotKey); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("missing meta err = %v, want sql.ErrNoRows", err)
	}

	bank := agents.NewMemoryBank()
	bank.Put("u1", agents.Memory{Role: agents.RoleUpgrader, Manager: agents.ManagerWorker, Colony: "c1"})
	events := []engine.Event{
		{Tick: 10, Colony: "c1", Description: "colony founded", Category: "colony"},
		{Tick: 11, Colony: "c1", Description: "spawned u1 as upgrader", Category: "spawn"},
	}
	if err := db.SaveState(State{
		Tick:     11,
		World:    []byte(`{"tick":11}`),
		Bank:     bank,
		Colonies: []colony.Record{{ID: "c1", AnchorID: "c1", DefenseDowntime: 2}},
		Events:   events,
	}); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	tick, ok, err := db.LastTick()
	if err != nil || !ok || tick != 11 {
		t.Fatalf("LastTick = %d %v %v", tick, ok, err)
	}
	recent, err := db.RecentEvents(1)
	if err != nil || len(recent) != 1 || recent[0] != events[1] {
		t.Fatalf("recent events = %+v, %v", recent, err)
	}

	if v, _ := db.GetMeta(WorldSnapshotKey); v != `{"tick":11}` {
		t.Fatalf("world snapshot = %q", v)
	}
	if err := db.SaveMeta("note", "a"); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}
	if err := db.SaveMeta("note", "b"); err != nil {
		t.Fatalf("SaveMeta overwrite: %v", err)
	}
	if v, _ := db.GetMeta("note"); v != "b" {
		t.Fatalf("meta = %q", v)
	}
}

func TestSaveState_FailureKeepsPreviousSave(t *testing.T) {
	db := openTemp(t)
	bank := agents.NewMemoryBank()
	bank.Put("h1", agents.Memory{Role: agents.RoleHarvester, Manager: agents.ManagerWorker, Colony: "c1", LastTaskChange: 90})
	good := State{
		Tick:     100,
		World:    []byte(`{"tick":100}`),
		Bank:     bank,
		Colonies: []colony.Record{{ID: "c1", AnchorID: "c1", DefenseDowntime: 1}},
	}
	if err := db.SaveState(good); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	later := agents.NewMemoryBank()
	later.Put("h1", agents.Memory{Role: agents.RoleHarvester, Manager: agents.ManagerWorker, Colony: "c1", LastTaskChange: 190})
	// Two records with one ID violate the primary key after the world and
	// memory rows are already written.
	bad := State{
		Tick:     200,
		World:    []byte(`{"tick":200}`),
		Bank:     later,
		Colonies: []colony.Record{{ID: "c1", AnchorID: "c1"}, {ID: "c1", AnchorID: "c1"}},
	}
	if err := db.SaveState(bad); err == nil {
		t.Fatalf("duplicate colony should fail the save")
	}

	if v, _ := db.GetMeta(WorldSnapshotKey); v != `{"tick":100}` {
		t.Fatalf("world snapshot = %q, want the previous save", v)
	}
	if tick, _, _ := db.LastTick(); tick != 100 {
		t.Fatalf("last tick = %d, want 100", tick)
	}
	mem, err := db.LoadMemory()
	if err != nil {
		t.Fatalf("LoadMemory: %v", err)
	}
	if m, ok := mem.Get("h1"); !ok || m.LastTaskChange != 90 {
		t.Fatalf("memory should be rolled back with the world, got %+v", m)
	}
}
