// Package simworld is an in-memory world engine implementing world.World.
// It backs the colonysim harness and the package tests. Geometry is kept
// deliberately simple: square rooms, eight-way movement, BFS pathing.
package simworld

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/talgya/mini-colony/internal/world"
)

// Engine constants.
const (
	SourceCapacity    = 3000
	SourceRegenTicks  = 300
	SpawnCapacity     = 300
	ExtensionCapacity = 50
	TowerCapacity     = 1000
	TowerAttackCost   = 10
	AgentLifetime     = 1500
	SpawnTicksPerPart = 3
	HitsPerPart       = 100
	HarvestPerWork    = 2
	BuildPerWork      = 5
	RepairPerWork     = 100
	UpgradePerWork    = 1
)

type roomGrid [world.RoomSize][world.RoomSize]world.Terrain

// World is a mutable simulated world. It is not safe for concurrent use.
type World struct {
	tick  uint64
	seq   uint64
	seed  int64
	space uuid.UUID

	rooms    map[string]*roomGrid
	entities map[world.EntityID]*world.Entity
	order    []world.EntityID
	bodies   map[world.EntityID][]world.Part
	ttl      map[world.EntityID]int

	slots *world.SlotCache
}

// New creates an empty world. The seed namespaces generated entity IDs, so
// the same seed and build order always yields the same IDs.
func New(seed int64) *World {
	return &World{
		seed:     seed,
		space:    uuid.NewSHA1(uuid.NameSpaceOID, []byte(strconv.FormatInt(seed, 10))),
		rooms:    make(map[string]*roomGrid),
		entities: make(map[world.EntityID]*world.Entity),
		bodies:   make(map[world.EntityID][]world.Part),
		ttl:      make(map[world.EntityID]int),
		slots:    world.NewSlotCache(),
	}
}

func (w *World) newID() world.EntityID {
	w.seq++
	return world.EntityID(uuid.NewSHA1(w.space, []byte(strconv.FormatUint(w.seq, 10))).String())
}

// AddRoom creates a room of plain terrain. Adding an existing room is a no-op.
func (w *World) AddRoom(name string) {
	if _, ok := w.rooms[name]; ok {
		return
	}
	w.rooms[name] = &roomGrid{}
}

// Rooms implements world.Queries. Names come back sorted.
func (w *World) Rooms() []string {
	names := make([]string, 0, len(w.rooms))
	for name := range w.rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetTerrain changes a tile and invalidates cached slot counts.
func (w *World) SetTerrain(pos world.Position, t world.Terrain) {
	grid, ok := w.rooms[pos.Room]
	if !ok || !pos.InBounds() {
		return
	}
	grid[pos.X][pos.Y] = t
	w.slots.Invalidate()
}

// Seed returns the seed the world was created with.
func (w *World) Seed() int64 { return w.seed }

// SetTick moves the world clock, for restoring saved state and for tests.
func (w *World) SetTick(tick uint64) {
	w.tick = tick
}

// Add inserts an entity, assigning an ID if it has none, and returns the ID.
func (w *World) Add(e world.Entity) world.EntityID {
	if e.ID == "" {
		e.ID = w.newID()
	}
	w.AddRoom(e.Pos.Room)
	if _, exists := w.entities[e.ID]; !exists {
		w.order = append(w.order, e.ID)
	}
	ent := e
	w.entities[e.ID] = &ent
	return e.ID
}

// Remove deletes an entity.
func (w *World) Remove(id world.EntityID) {
	if _, ok := w.entities[id]; !ok {
		return
	}
	delete(w.entities, id)
	delete(w.bodies, id)
	delete(w.ttl, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// Update applies fn to a live entity. It reports false if id is unknown.
func (w *World) Update(id world.EntityID, fn func(*world.Entity)) bool {
	e, ok := w.entities[id]
	if !ok {
		return false
	}
	fn(e)
	return true
}

// Body returns an agent's body parts.
func (w *World) Body(id world.EntityID) []world.Part {
	return w.bodies[id]
}

// AddAgent places an agent with the given body. Capacity follows carry parts.
func (w *World) AddAgent(name string, pos world.Position, body []world.Part, owned bool) world.EntityID {
	id := w.Add(world.Entity{
		ID:       world.EntityID(name),
		Kind:     world.KindAgent,
		Pos:      pos,
		Owned:    owned,
		Hits:     HitsPerPart * len(body),
		HitsMax:  HitsPerPart * len(body),
		Capacity: world.CarryPerPart * world.CountParts(body, world.PartCarry),
	})
	w.bodies[id] = append([]world.Part(nil), body...)
	w.ttl[id] = AgentLifetime
	return id
}

// AddSource places an energy source holding a full load.
func (w *World) AddSource(pos world.Position) world.EntityID {
	return w.Add(world.Entity{Kind: world.KindSource, Pos: pos, Energy: SourceCapacity, Capacity: SourceCapacity})
}

// AddController places an owned controller at the given level.
func (w *World) AddController(pos world.Position, level int) world.EntityID {
	return w.Add(world.Entity{
		Kind: world.KindStructure, Type: world.StructureController, Pos: pos, Owned: true,
		Level: level, Capacity: progressForLevel(level),
	})
}

// AddStructure places an owned structure with full hits and default storage.
func (w *World) AddStructure(t world.StructureType, pos world.Position) world.EntityID {
	return w.Add(newStructure(t, pos))
}

// AddSite places an owned construction site needing total progress.
func (w *World) AddSite(t world.StructureType, pos world.Position, total int) world.EntityID {
	return w.Add(world.Entity{Kind: world.KindSite, Type: t, Pos: pos, Owned: true, Capacity: total})
}

// AddDrop places dropped energy on the ground.
func (w *World) AddDrop(pos world.Position, amount int) world.EntityID {
	return w.Add(world.Entity{Kind: world.KindDrop, Pos: pos, Energy: amount})
}

// AddContainer places a decaying container holding energy.
func (w *World) AddContainer(pos world.Position, amount int) world.EntityID {
	return w.Add(world.Entity{Kind: world.KindContainer, Pos: pos, Energy: amount})
}

// AddHostile places an enemy agent.
func (w *World) AddHostile(pos world.Position, hits int) world.EntityID {
	return w.Add(world.Entity{Kind: world.KindHostile, Pos: pos, Hits: hits, HitsMax: hits})
}

func newStructure(t world.StructureType, pos world.Position) world.Entity {
	e := world.Entity{Kind: world.KindStructure, Type: t, Pos: pos, Owned: true}
	switch t {
	case world.StructureSpawn:
		e.HitsMax, e.Capacity, e.Energy = 5000, SpawnCapacity, SpawnCapacity
	case world.StructureExtension:
		e.HitsMax, e.Capacity = 1000, ExtensionCapacity
	case world.StructureTower:
		e.HitsMax, e.Capacity = 3000, TowerCapacity
	case world.StructureRoad:
		e.HitsMax = 5000
	case world.StructureWall:
		e.HitsMax = 300000
	case world.StructureContainer:
		e.HitsMax, e.Capacity = 250000, 2000
	}
	e.Hits = e.HitsMax
	return e
}

func progressForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return 200 << (level - 1)
}

// Tick implements world.Queries.
func (w *World) Tick() uint64 { return w.tick }

// Get implements world.Queries.
func (w *World) Get(id world.EntityID) (world.Entity, bool) {
	e, ok := w.entities[id]
	if !ok {
		return world.Entity{}, false
	}
	return *e, true
}

// FindAll implements world.Queries.
func (w *World) FindAll(room string, kind world.Kind, filter world.Filter) []world.Entity {
	var out []world.Entity
	for _, id := range w.order {
		e := w.entities[id]
		if e.Kind != kind || e.Pos.Room != room {
			continue
		}
		if filter.Match(*e) {
			out = append(out, *e)
		}
	}
	return out
}

// FindInRange implements world.Queries.
func (w *World) FindInRange(from world.Position, kind world.Kind, radius int) []world.Entity {
	r := float64(radius)
	bound := orb.Bound{
		Min: orb.Point{float64(from.X) - r, float64(from.Y) - r},
		Max: orb.Point{float64(from.X) + r, float64(from.Y) + r},
	}
	var out []world.Entity
	for _, id := range w.order {
		e := w.entities[id]
		if e.Kind != kind || e.Pos.Room != from.Room {
			continue
		}
		if bound.Contains(orb.Point{float64(e.Pos.X), float64(e.Pos.Y)}) {
			out = append(out, *e)
		}
	}
	return out
}

// FindNearestByPath implements world.Queries.
func (w *World) FindNearestByPath(from world.Position, kind world.Kind, filter world.Filter) (world.Entity, bool) {
	candidates := w.FindAll(from.Room, kind, filter)
	if len(candidates) == 0 {
		return world.Entity{}, false
	}
	dist := w.distances(from)
	best := -1
	var found world.Entity
	for _, c := range candidates {
		d := pathLength(dist, c.Pos)
		if d < 0 {
			continue
		}
		if best < 0 || d < best {
			best = d
			found = c
		}
	}
	return found, best >= 0
}

// FreeSlots implements world.Queries.
func (w *World) FreeSlots(source world.EntityID) int {
	e, ok := w.entities[source]
	if !ok || e.Kind != world.KindSource {
		return 0
	}
	return w.slots.FreeSlots(w, *e)
}

// Terrain implements world.Queries.
func (w *World) Terrain(pos world.Position) world.Terrain {
	grid, ok := w.rooms[pos.Room]
	if !ok || !pos.InBounds() {
		return world.TerrainWall
	}
	return grid[pos.X][pos.Y]
}

func isEnergyStore(e *world.Entity) bool {
	return e.Kind == world.KindStructure && e.Owned &&
		(e.Type == world.StructureSpawn || e.Type == world.StructureExtension)
}

// EnergyAvailable implements world.Queries.
func (w *World) EnergyAvailable(room string) int {
	sum := 0
	for _, id := range w.order {
		if e := w.entities[id]; e.Pos.Room == room && isEnergyStore(e) {
			sum += e.Energy
		}
	}
	return sum
}

// EnergyCapacity implements world.Queries.
func (w *World) EnergyCapacity(room string) int {
	sum := 0
	for _, id := range w.order {
		if e := w.entities[id]; e.Pos.Room == room && isEnergyStore(e) {
			sum += e.Capacity
		}
	}
	return sum
}

// Step advances the world by one tick: sources regenerate, spawns finish,
// drops decay, empty containers vanish, and agents age out.
func (w *World) Step() {
	w.tick++
	for _, id := range append([]world.EntityID(nil), w.order...) {
		e, ok := w.entities[id]
		if !ok {
			continue
		}
		switch e.Kind {
		case world.KindSource:
			if w.tick%SourceRegenTicks == 0 {
				e.Energy = e.Capacity
			}
		case world.KindStructure:
			if e.Spawning > 0 {
				e.Spawning--
			}
		case world.KindDrop:
			e.Energy -= (e.Energy + 999) / 1000
			if e.Energy <= 0 {
				w.Remove(id)
			}
		case world.KindContainer:
			if e.Energy <= 0 {
				w.Remove(id)
			}
		case world.KindAgent:
			if _, aging := w.ttl[id]; !aging {
				continue
			}
			w.ttl[id]--
			if w.ttl[id] <= 0 {
				w.Kill(id)
			}
		}
	}
}

// Kill removes an agent or hostile and leaves its energy in a container.
func (w *World) Kill(id world.EntityID) {
	e, ok := w.entities[id]
	if !ok {
		return
	}
	pos, energy := e.Pos, e.Energy
	w.Remove(id)
	if energy > 0 {
		w.AddContainer(pos, energy)
	}
}

// Count returns how many entities of kind exist in room.
func (w *World) Count(room string, kind world.Kind) int {
	return len(w.FindAll(room, kind, nil))
}

func (w *World) String() string {
	return fmt.Sprintf("World(tick=%d, rooms=%d, entities=%d)", w.tick, len(w.rooms), len(w.entities))
}
