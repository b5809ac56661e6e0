// Package colony holds the per-colony decision loop pieces: the colony
// registry, population regulation, spawn planning, and tower defense.
package colony

import (
	"fmt"
	"log/slog"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/world"
)

// Colony is one controlled room and everything anchored to it.
type Colony struct {
	ID       string
	AnchorID world.EntityID
	Room     string
	Defense  *Defense
}

// Record is the persisted form of a colony.
type Record struct {
	ID              string `db:"id"`
	AnchorID        string `db:"anchor_id"`
	DefenseDowntime int    `db:"defense_downtime"`
}

// Record returns the colony's persistable state.
func (c *Colony) Record() Record {
	return Record{ID: c.ID, AnchorID: string(c.AnchorID), DefenseDowntime: c.Defense.Downtime()}
}

func (c *Colony) String() string {
	return fmt.Sprintf("Colony(%s, room=%s)", c.ID, c.Room)
}

// Spawns returns the colony's own spawn points.
func (c *Colony) Spawns(q world.Queries) []world.Entity {
	return q.FindAll(c.Room, world.KindStructure, func(e world.Entity) bool {
		return e.Owned && e.Type == world.StructureSpawn
	})
}

// AvailableSpawns returns spawn points that are not busy producing an agent.
func (c *Colony) AvailableSpawns(q world.Queries) []world.Entity {
	var out []world.Entity
	for _, s := range c.Spawns(q) {
		if s.Spawning == 0 {
			out = append(out, s)
		}
	}
	return out
}

// Sources returns the extraction nodes in the colony room.
func (c *Colony) Sources(q world.Queries) []world.Entity {
	return q.FindAll(c.Room, world.KindSource, nil)
}

// Sites returns the colony's pending construction sites.
func (c *Colony) Sites(q world.Queries) []world.Entity {
	return q.FindAll(c.Room, world.KindSite, func(e world.Entity) bool { return e.Owned })
}

// Roster joins the live owned agents with the memory that names this colony.
// Agents without memory are not part of any colony.
func (c *Colony) Roster(q world.Queries, bank *agents.MemoryBank) []*agents.Agent {
	var roster []*agents.Agent
	for _, body := range q.FindAll(c.Room, world.KindAgent, func(e world.Entity) bool { return e.Owned }) {
		mem, ok := bank.Get(body.ID)
		if !ok || mem.Colony != c.ID {
			continue
		}
		roster = append(roster, &agents.Agent{ID: body.ID, Body: body, Mem: mem})
	}
	return roster
}

// isAnchor reports whether e can anchor a colony: an owned controller that
// has been claimed (level above zero).
func isAnchor(e world.Entity) bool {
	return e.Kind == world.KindStructure && e.Type == world.StructureController && e.Owned && e.Level > 0
}

// Registry owns the set of colonies for one process run.
type Registry struct {
	towerRange  int
	maxDowntime int

	colonies map[string]*Colony
	order    []string
}

// NewRegistry creates an empty registry. New colonies get a defense with
// the given tower range and downtime ceiling.
func NewRegistry(towerRange, maxDowntime int) *Registry {
	return &Registry{
		towerRange:  towerRange,
		maxDowntime: maxDowntime,
		colonies:    make(map[string]*Colony),
	}
}

// Create registers a colony for anchor. The colony ID is the anchor ID.
func (r *Registry) Create(anchor world.Entity) (*Colony, error) {
	if !isAnchor(anchor) {
		return nil, fmt.Errorf("entity %s is not a claimed controller", anchor.ID)
	}
	id := string(anchor.ID)
	if c, ok := r.colonies[id]; ok {
		return c, nil
	}
	c := &Colony{
		ID:       id,
		AnchorID: anchor.ID,
		Room:     anchor.Pos.Room,
		Defense:  NewDefense(r.towerRange, r.maxDowntime, 1),
	}
	r.colonies[id] = c
	r.order = append(r.order, id)
	slog.Info("colony created", "colony", id, "room", c.Room)
	return c, nil
}

// Load rebuilds colonies from stored records, resolving each anchor. A
// record whose anchor is gone or no longer a claimed controller is skipped;
// its ID is returned so the caller can delete it.
func (r *Registry) Load(q world.Queries, records []Record) (dropped []string) {
	for _, rec := range records {
		if _, ok := r.colonies[rec.ID]; ok {
			continue
		}
		anchor, ok := q.Get(world.EntityID(rec.AnchorID))
		if !ok || !isAnchor(anchor) {
			slog.Warn("cannot restore colony anchor", "colony", rec.ID, "anchor", rec.AnchorID)
			dropped = append(dropped, rec.ID)
			continue
		}
		c := &Colony{
			ID:       rec.ID,
			AnchorID: anchor.ID,
			Room:     anchor.Pos.Room,
			Defense:  NewDefense(r.towerRange, r.maxDowntime, rec.DefenseDowntime),
		}
		r.colonies[c.ID] = c
		r.order = append(r.order, c.ID)
		slog.Info("colony reloaded", "colony", c.ID, "room", c.Room, "downtime", c.Defense.Downtime())
	}
	return dropped
}

// Sync reconciles the registry with the world: colonies whose anchor no
// longer resolves are dropped, and every claimed controller without a colony
// gets one.
func (r *Registry) Sync(q world.Queries) (created, dropped []string) {
	kept := r.order[:0]
	for _, id := range r.order {
		c := r.colonies[id]
		anchor, ok := q.Get(c.AnchorID)
		if !ok || !isAnchor(anchor) {
			slog.Warn("colony anchor lost, dropping colony", "colony", id)
			delete(r.colonies, id)
			dropped = append(dropped, id)
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept

	for _, room := range q.Rooms() {
		for _, ctrl := range q.FindAll(room, world.KindStructure, isAnchor) {
			if _, ok := r.colonies[string(ctrl.ID)]; ok {
				continue
			}
			c, err := r.Create(ctrl)
			if err != nil {
				continue
			}
			created = append(created, c.ID)
		}
	}
	return created, dropped
}

// Get returns a colony by ID.
func (r *Registry) Get(id string) (*Colony, bool) {
	c, ok := r.colonies[id]
	return c, ok
}

// All returns colonies in registration order.
func (r *Registry) All() []*Colony {
	out := make([]*Colony, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.colonies[id])
	}
	return out
}

// Len returns the number of colonies.
func (r *Registry) Len() int {
	return len(r.order)
}

// Records returns the persistable state of every colony.
func (r *Registry) Records() []Record {
	out := make([]Record, 0, len(r.order))
	for _, c := range r.All() {
		out = append(out, c.Record())
	}
	return out
}
