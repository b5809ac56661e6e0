package world

// Queries are the read side of the world engine. Query results reflect the
// current tick; implementations may cache internally but must not let a
// cached answer outlive the state it describes.
type Queries interface {
	// Tick returns the current world step.
	Tick() uint64

	// Rooms lists the rooms currently visible, in a stable order.
	Rooms() []string

	// Get resolves an entity by identity.
	Get(id EntityID) (Entity, bool)

	// FindAll returns every entity of kind in room accepted by filter.
	FindAll(room string, kind Kind, filter Filter) []Entity

	// FindInRange returns every entity of kind within radius of from.
	FindInRange(from Position, kind Kind, radius int) []Entity

	// FindNearestByPath returns the entity of kind accepted by filter with
	// the shortest walkable path from from. Ties break on path order.
	FindNearestByPath(from Position, kind Kind, filter Filter) (Entity, bool)

	// FreeSlots returns how many walkable tiles surround a source.
	FreeSlots(source EntityID) int

	// Terrain returns the ground type at pos. Out-of-bounds tiles are walls.
	Terrain(pos Position) Terrain

	// EnergyAvailable is the spawnable energy currently stored in a room.
	EnergyAvailable(room string) int

	// EnergyCapacity is the maximum spawnable energy a room can store.
	EnergyCapacity(room string) int
}

// Commands are the write side. Each issues one action and reports a Result.
type Commands interface {
	Move(agent EntityID, to Position) Result
	Harvest(agent, source EntityID) Result
	Transfer(agent, to EntityID) Result
	UpgradeController(agent, controller EntityID) Result
	Repair(agent, structure EntityID) Result
	Build(agent, site EntityID) Result
	Pickup(agent, drop EntityID) Result
	Withdraw(agent, container EntityID) Result
	Attack(tower, hostile EntityID) Result
	SpawnCreate(spawn EntityID, body []Part, name string) Result
}

// World is the complete interface the colony core consumes.
type World interface {
	Queries
	Commands
}
