// Core is the per-tick colony decision pass. For every colony, in registry
// order: defense, task scheduling, task execution, population regulation,
// and spawning when a role needs to grow.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/colony"
	"github.com/talgya/mini-colony/internal/config"
	"github.com/talgya/mini-colony/internal/world"
)

// Event is a notable occurrence in a colony.
type Event struct {
	Tick        uint64 `json:"tick" db:"tick"`
	Colony      string `json:"colony" db:"colony"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "colony", "spawn", "defense", "error"
}

// Report summarizes one tick.
type Report struct {
	Tick     uint64           `json:"tick"`
	Pruned   []world.EntityID `json:"pruned,omitempty"`
	Colonies []ColonyReport   `json:"colonies"`
}

// ColonyReport summarizes one colony's tick.
type ColonyReport struct {
	ID             string              `json:"id"`
	Room           string              `json:"room"`
	Agents         int                 `json:"agents"`
	Tasks          map[agents.Task]int `json:"tasks,omitempty"`
	Population     []colony.Stats      `json:"population,omitempty"`
	Energy         int                 `json:"energy"`
	EnergyCapacity int                 `json:"energy_capacity"`
	Downtime       int                 `json:"downtime"`
	Engaged        int                 `json:"engaged,omitempty"`
	Grow           agents.Role         `json:"grow,omitempty"`
	Spawn          string              `json:"spawn,omitempty"`
	Spawned        world.EntityID      `json:"spawned,omitempty"`
	Error          string              `json:"error,omitempty"`
}

// Options wires a Core.
type Options struct {
	World     world.World
	Managers  *agents.Managers
	Bank      *agents.MemoryBank
	Registry  *colony.Registry
	Catalog   colony.Catalog
	Regulator colony.Regulator

	StandbyRetry    uint64
	RepairThreshold float64
}

// OptionsFromConfig builds everything but the world, memory bank and
// registry from configuration. Manager and loadout errors are fatal.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	managers, err := agents.NewManagers(agents.NewWorker())
	if err != nil {
		return Options{}, fmt.Errorf("managers: %w", err)
	}
	catalog, err := colony.NewCatalog(cfg.Loadouts)
	if err != nil {
		return Options{}, fmt.Errorf("loadouts: %w", err)
	}
	return Options{
		Managers: managers,
		Catalog:  catalog,
		Regulator: colony.Regulator{
			GrowEnergyRatio: cfg.GrowEnergyRatio,
			Every:           cfg.PopulationEveryTicks,
		},
		StandbyRetry:    cfg.StandbyRetryTicks,
		RepairThreshold: cfg.RepairThreshold,
	}, nil
}

// Core runs the colony decision pass. It must not be ticked concurrently.
type Core struct {
	world     world.World
	managers  *agents.Managers
	bank      *agents.MemoryBank
	registry  *colony.Registry
	regulator colony.Regulator
	spawner   *colony.SpawnPlanner

	standbyRetry    uint64
	repairThreshold float64

	last   Report
	events []Event
}

// NewCore validates the options and creates a Core.
func NewCore(o Options) (*Core, error) {
	switch {
	case o.World == nil:
		return nil, errors.New("core: world is required")
	case o.Managers == nil:
		return nil, errors.New("core: managers are required")
	case o.Bank == nil:
		return nil, errors.New("core: memory bank is required")
	case o.Registry == nil:
		return nil, errors.New("core: registry is required")
	}
	return &Core{
		world:           o.World,
		managers:        o.Managers,
		bank:            o.Bank,
		registry:        o.Registry,
		regulator:       o.Regulator,
		spawner:         colony.NewSpawnPlanner(o.Managers, o.Catalog, o.Bank),
		standbyRetry:    o.StandbyRetry,
		repairThreshold: o.RepairThreshold,
	}, nil
}

// Tick runs one full decision pass against the world's current state.
func (c *Core) Tick() {
	tick := c.world.Tick()
	rep := Report{Tick: tick}

	rep.Pruned = c.bank.Prune(func(id world.EntityID) bool {
		e, ok := c.world.Get(id)
		return ok && e.Kind == world.KindAgent
	})
	if len(rep.Pruned) > 0 {
		slog.Debug("pruned memory of vanished agents", "count", len(rep.Pruned))
	}

	created, dropped := c.registry.Sync(c.world)
	for _, id := range created {
		c.emit(Event{Tick: tick, Colony: id, Description: "colony founded", Category: "colony"})
	}
	for _, id := range dropped {
		c.emit(Event{Tick: tick, Colony: id, Description: "colony lost its anchor", Category: "colony"})
	}

	for _, col := range c.registry.All() {
		rep.Colonies = append(rep.Colonies, c.tickColony(col, tick))
	}
	c.last = rep
}

// LastReport returns the report of the most recent Tick.
func (c *Core) LastReport() Report {
	return c.last
}

// DrainEvents returns and clears the events collected since the last drain.
func (c *Core) DrainEvents() []Event {
	out := c.events
	c.events = nil
	return out
}

func (c *Core) emit(e Event) {
	c.events = append(c.events, e)
}

// tickColony is the colony boundary: a panic inside is logged and reported,
// and the next colony still runs.
func (c *Core) tickColony(col *colony.Colony, tick uint64) (rep ColonyReport) {
	rep = ColonyReport{ID: col.ID, Room: col.Room}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("colony tick panicked", "colony", col.ID, "tick", tick, "panic", r,
				"stack", string(debug.Stack()))
			rep.Error = fmt.Sprint(r)
			c.emit(Event{Tick: tick, Colony: col.ID, Description: fmt.Sprintf("tick failed: %v", r), Category: "error"})
		}
	}()

	rep.Engaged = col.Defense.Watch(c.world, col.Room, tick)
	rep.Downtime = col.Defense.Downtime()
	if rep.Engaged > 0 {
		c.emit(Event{Tick: tick, Colony: col.ID,
			Description: fmt.Sprintf("%d towers engaged hostiles", rep.Engaged), Category: "defense"})
	}

	roster := col.Roster(c.world, c.bank)
	rep.Agents = len(roster)
	env := &agents.Env{
		World:           c.world,
		Tick:            tick,
		Room:            col.Room,
		Controller:      col.AnchorID,
		Roster:          roster,
		StandbyRetry:    c.standbyRetry,
		RepairThreshold: c.repairThreshold,
	}
	for _, m := range c.managers.All() {
		var managed []*agents.Agent
		for _, a := range roster {
			if a.Mem.Manager == m.ID() {
				managed = append(managed, a)
			}
		}
		if len(managed) == 0 {
			continue
		}
		m.Schedule(env, managed)
		m.Run(env, managed)
	}

	rep.Tasks = make(map[agents.Task]int)
	for _, a := range roster {
		rep.Tasks[a.Task()]++
	}

	if c.regulator.Due(tick) {
		c.regulate(col, roster, tick, &rep)
	}
	rep.Energy = c.world.EnergyAvailable(col.Room)
	rep.EnergyCapacity = c.world.EnergyCapacity(col.Room)
	return rep
}

func (c *Core) regulate(col *colony.Colony, roster []*agents.Agent, tick uint64, rep *ColonyReport) {
	census := c.regulator.Census(c.world, col, roster)
	stats := c.regulator.Stats(census, c.managers.Roles())
	rep.Population = stats
	for _, s := range stats {
		slog.Debug("population", "colony", col.ID, "role", s.Role, "subtotal", s.Subtotal,
			"min", s.Min, "max", s.Max, "delta", s.Delta)
	}
	for _, sp := range col.Spawns(c.world) {
		if sp.Spawning > 0 {
			slog.Debug("spawning in progress", "colony", col.ID, "spawn", sp.ID, "ticks_left", sp.Spawning)
		}
	}

	role, grow := c.regulator.Decide(stats, colony.EnergyRatio(c.world, col.Room))
	if !grow {
		return
	}
	rep.Grow = role

	res, name, err := c.spawner.Spawn(c.world, col, role, tick)
	rep.Spawn = res.String()
	if err != nil {
		slog.Error("spawn aborted", "colony", col.ID, "role", role, "err", err)
		rep.Error = err.Error()
		c.emit(Event{Tick: tick, Colony: col.ID, Description: "spawn aborted: " + err.Error(), Category: "error"})
		return
	}
	if res == colony.SpawnStarted {
		rep.Spawned = name
		c.emit(Event{Tick: tick, Colony: col.ID,
			Description: fmt.Sprintf("spawned %s as %s", name, role), Category: "spawn"})
	}
}
