package colony

import (
	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/simworld"
	"github.com/talgya/mini-colony/internal/world"
)

const testRoom = "W1N1"

func at(x, y int) world.Position {
	return world.Position{X: x, Y: y, Room: testRoom}
}

var workerBody = []world.Part{world.PartWork, world.PartCarry, world.PartMove}

// newColony builds a room with a claimed controller and one spawn, and
// registers its colony.
func newColony() (*simworld.World, *Registry, *Colony, world.EntityID) {
	w := simworld.New(1)
	w.AddRoom(testRoom)
	ctrl := w.AddController(at(40, 40), 1)
	spawn := w.AddStructure(world.StructureSpawn, at(25, 25))
	reg := NewRegistry(DefaultTowerRange, DefaultMaxDowntime)
	anchor, _ := w.Get(ctrl)
	c, err := reg.Create(anchor)
	if err != nil {
		panic(err)
	}
	return w, reg, c, spawn
}

func rosterOf(bank *agents.MemoryBank, w *simworld.World, c *Colony, roles ...agents.Role) []*agents.Agent {
	for i, r := range roles {
		name := string(r) + string(rune('a'+i))
		id := w.AddAgent(name, at(5+i, 5), workerBody, true)
		bank.Put(id, agents.Memory{Role: r, Manager: agents.ManagerWorker, Colony: c.ID})
	}
	return c.Roster(w, bank)
}
