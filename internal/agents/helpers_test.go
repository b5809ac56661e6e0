package agents

import (
	"testing"

	"github.com/talgya/mini-colony/internal/simworld"
	"github.com/talgya/mini-colony/internal/world"
)

const testRoom = "W1N1"

func at(x, y int) world.Position {
	return world.Position{X: x, Y: y, Room: testRoom}
}

var testBody = []world.Part{world.PartWork, world.PartCarry, world.PartMove}

type fixture struct {
	w          *simworld.World
	controller world.EntityID
	roster     []*Agent
}

func newFixture() *fixture {
	w := simworld.New(1)
	w.AddRoom(testRoom)
	return &fixture{w: w, controller: w.AddController(at(40, 40), 1)}
}

// agent places an owned worker carrying energy and returns it with fresh memory.
func (f *fixture) agent(name string, role Role, p world.Position, energy int) *Agent {
	id := f.w.AddAgent(name, p, testBody, true)
	f.w.Update(id, func(e *world.Entity) { e.Energy = energy })
	body, _ := f.w.Get(id)
	a := &Agent{ID: id, Body: body, Mem: &Memory{Role: role, Manager: ManagerWorker, Colony: "c1"}}
	f.roster = append(f.roster, a)
	return a
}

// refresh reloads every agent's body view from the world.
func (f *fixture) refresh(t *testing.T) {
	t.Helper()
	for _, a := range f.roster {
		body, ok := f.w.Get(a.ID)
		if !ok {
			t.Fatalf("agent %s vanished", a.ID)
		}
		a.Body = body
	}
}

func (f *fixture) env() *Env {
	return &Env{
		World:           f.w,
		Tick:            f.w.Tick(),
		Room:            testRoom,
		Controller:      f.controller,
		Roster:          f.roster,
		StandbyRetry:    10,
		RepairThreshold: 0.8,
	}
}

func wantTask(t *testing.T, a *Agent, task Task, target world.Target) {
	t.Helper()
	if a.Task() != task || a.Target() != target {
		t.Fatalf("%s: got (%s, %s), want (%s, %s)", a.ID, a.Task(), a.Target(), task, target)
	}
}
