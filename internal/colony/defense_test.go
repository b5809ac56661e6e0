package colony

import (
	"testing"

	"github.com/talgya/mini-colony/internal/simworld"
	"github.com/talgya/mini-colony/internal/world"
)

func TestDefense_IdleBackoffSequence(t *testing.T) {
	w := simworld.New(1)
	w.AddStructure(world.StructureTower, at(10, 10))
	d := NewDefense(DefaultTowerRange, DefaultMaxDowntime, 1)

	got := []int{d.Downtime()}
	for tick := uint64(1); tick <= 5; tick++ {
		d.Watch(w, testRoom, tick)
		got = append(got, d.Downtime())
	}
	want := []int{1, 2, 3, 4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("downtime sequence = %v, want %v", got, want)
		}
	}
}

func TestDefense_SkipsInactiveTicks(t *testing.T) {
	w := simworld.New(1)
	tower := w.AddStructure(world.StructureTower, at(10, 10))
	w.Update(tower, func(e *world.Entity) { e.Energy = 500 })
	hostile := w.AddHostile(at(12, 10), 100000)
	d := NewDefense(DefaultTowerRange, DefaultMaxDowntime, 4)

	if n := d.Watch(w, testRoom, 6); n != 0 || d.Downtime() != 4 {
		t.Fatalf("tick 6 with downtime 4 should be skipped, engaged=%d downtime=%d", n, d.Downtime())
	}
	if n := d.Watch(w, testRoom, 8); n != 1 {
		t.Fatalf("tick 8 should engage, engaged=%d", n)
	}
	if d.Downtime() != 1 {
		t.Fatalf("engagement should reset downtime, got %d", d.Downtime())
	}
	h, _ := w.Get(hostile)
	if h.Hits != 100000-simworld.TowerDamage(2) {
		t.Fatalf("hostile hits = %d", h.Hits)
	}
}

func TestDefense_EngagesNearestInRange(t *testing.T) {
	w := simworld.New(1)
	tower := w.AddStructure(world.StructureTower, at(10, 10))
	w.Update(tower, func(e *world.Entity) { e.Energy = 500 })
	far := w.AddHostile(at(25, 10), 10000)
	near := w.AddHostile(at(16, 16), 10000)
	outside := w.AddHostile(at(40, 40), 10000)
	d := NewDefense(DefaultTowerRange, DefaultMaxDowntime, 1)

	d.Watch(w, testRoom, 1)
	hit := func(id world.EntityID) bool {
		e, _ := w.Get(id)
		return e.Hits < e.HitsMax
	}
	if !hit(near) || hit(far) || hit(outside) {
		t.Fatalf("tower should engage only the nearest hostile")
	}
}

func TestDefense_DowntimeClampedAtCeiling(t *testing.T) {
	w := simworld.New(1)
	w.AddRoom(testRoom)
	d := NewDefense(DefaultTowerRange, DefaultMaxDowntime, 40)
	if d.Downtime() != DefaultMaxDowntime {
		t.Fatalf("stored downtime should clamp to %d, got %d", DefaultMaxDowntime, d.Downtime())
	}
	for tick := uint64(0); tick < 200; tick++ {
		d.Watch(w, testRoom, tick)
		if d.Downtime() < 1 || d.Downtime() > DefaultMaxDowntime {
			t.Fatalf("downtime %d out of bounds at tick %d", d.Downtime(), tick)
		}
	}
	if NewDefense(DefaultTowerRange, DefaultMaxDowntime, 0).Downtime() != 1 {
		t.Fatalf("zero downtime should clamp to 1")
	}
}
