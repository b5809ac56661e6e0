package colony

import (
	"log/slog"
	"sort"

	"github.com/talgya/mini-colony/internal/world"
)

// Defense defaults.
const (
	DefaultTowerRange  = 20
	DefaultMaxDowntime = 15
)

// Defense is a colony's tower controller. It polls every downtime ticks;
// contact resets the interval to 1, each quiet poll widens it by one up to
// the ceiling.
type Defense struct {
	downtime    int
	maxDowntime int
	towerRange  int
}

// NewDefense creates a defense session resuming from a stored downtime.
// Out-of-range values are clamped.
func NewDefense(towerRange, maxDowntime, downtime int) *Defense {
	if maxDowntime < 1 {
		maxDowntime = 1
	}
	if towerRange < 0 {
		towerRange = 0
	}
	d := &Defense{maxDowntime: maxDowntime, towerRange: towerRange}
	d.setDowntime(downtime)
	return d
}

// Downtime returns the current polling interval.
func (d *Defense) Downtime() int {
	return d.downtime
}

func (d *Defense) setDowntime(v int) {
	d.downtime = max(1, min(v, d.maxDowntime))
}

// Active reports whether towers are polled on this tick.
func (d *Defense) Active(tick uint64) bool {
	return tick%uint64(d.downtime) == 0
}

// Watch runs one defense pass over room. Every owned tower engages the
// nearest hostile in range. Returns how many towers engaged.
func (d *Defense) Watch(w world.World, room string, tick uint64) int {
	if !d.Active(tick) {
		return 0
	}

	towers := w.FindAll(room, world.KindStructure, func(e world.Entity) bool {
		return e.Owned && e.Type == world.StructureTower
	})

	engaged := 0
	for _, tower := range towers {
		hostiles := w.FindInRange(tower.Pos, world.KindHostile, d.towerRange)
		if len(hostiles) == 0 {
			continue
		}
		sort.SliceStable(hostiles, func(i, j int) bool {
			return tower.Pos.Range(hostiles[i].Pos) < tower.Pos.Range(hostiles[j].Pos)
		})
		target := hostiles[0]
		res := w.Attack(tower.ID, target.ID)
		slog.Info("tower engaging hostile", "room", room, "tower", tower.ID,
			"hostile", target.ID, "range", tower.Pos.Range(target.Pos), "result", res.String())
		engaged++
	}

	if engaged > 0 {
		d.setDowntime(1)
	} else {
		d.setDowntime(d.downtime + 1)
		slog.Debug("no hostiles", "room", room, "downtime", d.downtime)
	}
	return engaged
}
