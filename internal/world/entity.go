package world

// Kind classifies what an entity is, for queries.
type Kind uint8

const (
	KindAgent     Kind = iota // Mobile workers (ours when Owned)
	KindSource                // Regenerating extraction node
	KindStructure             // Built structures, including the controller
	KindSite                  // Pending construction site
	KindDrop                  // Resource lying on the ground
	KindContainer             // Decaying container left behind by a dead agent
	KindHostile               // Enemy agents
)

var kindNames = [...]string{"agent", "source", "structure", "site", "drop", "container", "hostile"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// StructureType names what a structure or construction site is.
type StructureType string

const (
	StructureSpawn      StructureType = "spawn"
	StructureExtension  StructureType = "extension"
	StructureTower      StructureType = "tower"
	StructureController StructureType = "controller"
	StructureRoad       StructureType = "road"
	StructureWall       StructureType = "wall"
	StructureContainer  StructureType = "container"
)

// Entity is a read-only view of one world object at the current tick.
// Quantities not meaningful for a kind are zero.
type Entity struct {
	ID    EntityID      `json:"id"`
	Kind  Kind          `json:"kind"`
	Type  StructureType `json:"type,omitempty"`
	Pos   Position      `json:"pos"`
	Owned bool          `json:"owned"`

	Hits    int `json:"hits,omitempty"`
	HitsMax int `json:"hits_max,omitempty"`

	// Energy is the stored amount: carried by an agent, held in a structure,
	// remaining in a source, lying in a drop, or left in a container.
	Energy   int `json:"energy"`
	Capacity int `json:"capacity,omitempty"`

	Level    int `json:"level,omitempty"`    // Controller level
	Spawning int `json:"spawning,omitempty"` // Ticks left on a busy spawn
}

// FreeCapacity returns how much more energy the entity can hold.
func (e Entity) FreeCapacity() int {
	free := e.Capacity - e.Energy
	if free < 0 {
		return 0
	}
	return free
}

// HealthRatio returns hits/hitsMax, or 1 for entities without hit points.
func (e Entity) HealthRatio() float64 {
	if e.HitsMax <= 0 {
		return 1
	}
	return float64(e.Hits) / float64(e.HitsMax)
}

// AcceptsEnergy reports whether the entity is a friendly structure that can
// take an energy delivery right now.
func (e Entity) AcceptsEnergy() bool {
	if e.Kind != KindStructure || !e.Owned {
		return false
	}
	switch e.Type {
	case StructureSpawn, StructureExtension, StructureTower:
		return e.FreeCapacity() > 0
	}
	return false
}

// Filter selects entities in a query. A nil Filter accepts everything.
type Filter func(Entity) bool

// Match applies the filter, treating nil as accept-all.
func (f Filter) Match(e Entity) bool {
	return f == nil || f(e)
}

// Terrain is the static ground type of a tile.
type Terrain uint8

const (
	TerrainPlain Terrain = iota
	TerrainSwamp
	TerrainWall
)
