package colony

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/world"
)

var (
	// ErrUnknownLoadout means a manager has no spawnable body in the catalog.
	ErrUnknownLoadout = errors.New("no loadout for manager")
	// ErrUnmanagedRole means the requested role has no manager.
	ErrUnmanagedRole = errors.New("role has no manager")
)

// Loadout is one spawnable body and its energy cost.
type Loadout struct {
	Body []world.Part
	Cost int
}

// Catalog lists loadouts per manager, costliest first.
type Catalog map[agents.ManagerID][]Loadout

// NewCatalog builds a catalog from raw body lists, rejecting unknown parts.
func NewCatalog(raw map[string][][]world.Part) (Catalog, error) {
	c := make(Catalog, len(raw))
	for id, bodies := range raw {
		loadouts := make([]Loadout, 0, len(bodies))
		for i, body := range bodies {
			if len(body) == 0 {
				return nil, fmt.Errorf("loadout %s[%d]: empty body", id, i)
			}
			for _, p := range body {
				if !world.KnownPart(p) {
					return nil, fmt.Errorf("loadout %s[%d]: unknown part %q", id, i, p)
				}
			}
			loadouts = append(loadouts, Loadout{Body: append([]world.Part(nil), body...), Cost: world.BodyCost(body)})
		}
		sort.SliceStable(loadouts, func(i, j int) bool { return loadouts[i].Cost > loadouts[j].Cost })
		c[agents.ManagerID(id)] = loadouts
	}
	return c, nil
}

// Best returns the costliest loadout for a manager that fits energy. An
// unaffordable request reports ok=false with no error; a manager without any
// loadout is a configuration error.
func (c Catalog) Best(id agents.ManagerID, energy int) (Loadout, bool, error) {
	loadouts := c[id]
	if len(loadouts) == 0 {
		return Loadout{}, false, fmt.Errorf("manager %q: %w", id, ErrUnknownLoadout)
	}
	for _, l := range loadouts {
		if l.Cost <= energy {
			return l, true, nil
		}
	}
	return Loadout{}, false, nil
}

// SpawnResult is what a spawn attempt came to.
type SpawnResult int

const (
	SpawnStarted  SpawnResult = iota // creation issued
	SpawnDeferred                    // not affordable yet
	SpawnNoSpawn                     // every spawn point busy
	SpawnRejected                    // every spawn point refused
)

func (r SpawnResult) String() string {
	switch r {
	case SpawnStarted:
		return "started"
	case SpawnDeferred:
		return "deferred"
	case SpawnNoSpawn:
		return "no_spawn"
	case SpawnRejected:
		return "rejected"
	}
	return "unknown"
}

// SpawnPlanner turns a role to grow into a creation request.
type SpawnPlanner struct {
	managers *agents.Managers
	catalog  Catalog
	bank     *agents.MemoryBank
}

// NewSpawnPlanner creates a planner recording new agents into bank.
func NewSpawnPlanner(managers *agents.Managers, catalog Catalog, bank *agents.MemoryBank) *SpawnPlanner {
	return &SpawnPlanner{managers: managers, catalog: catalog, bank: bank}
}

// Spawn tries each available spawn point of the colony in turn. On success
// the new agent's memory is recorded and its name returned.
func (p *SpawnPlanner) Spawn(w world.World, c *Colony, role agents.Role, tick uint64) (SpawnResult, world.EntityID, error) {
	mgr, ok := p.managers.ForRole(role)
	if !ok {
		return SpawnRejected, "", fmt.Errorf("role %q: %w", role, ErrUnmanagedRole)
	}

	spawns := c.AvailableSpawns(w)
	if len(spawns) == 0 {
		slog.Info("no available spawn", "colony", c.ID)
		return SpawnNoSpawn, "", nil
	}

	for _, spawn := range spawns {
		energy := w.EnergyAvailable(spawn.Pos.Room)
		loadout, affordable, err := p.catalog.Best(mgr.ID(), energy)
		if err != nil {
			return SpawnRejected, "", err
		}
		if !affordable {
			slog.Info("not enough energy to spawn", "colony", c.ID, "role", role,
				"energy", energy, "capacity", w.EnergyCapacity(spawn.Pos.Room))
			return SpawnDeferred, "", nil
		}

		name := p.name(w, role, tick)
		mem := mgr.MemoryFor(c.ID, role)
		res := w.SpawnCreate(spawn.ID, loadout.Body, string(name))
		if res != world.OK {
			slog.Error("spawn rejected", "colony", c.ID, "spawn", spawn.ID, "role", role, "result", res.String())
			continue
		}
		p.bank.Put(name, mem)
		slog.Info("spawning agent", "colony", c.ID, "spawn", spawn.ID, "name", name,
			"role", role, "cost", loadout.Cost)
		return SpawnStarted, name, nil
	}
	return SpawnRejected, "", nil
}

// name returns "<role><tick>", suffixed if that name is already in use.
func (p *SpawnPlanner) name(q world.Queries, role agents.Role, tick uint64) world.EntityID {
	base := fmt.Sprintf("%s%d", role, tick)
	name := world.EntityID(base)
	for i := 2; p.taken(q, name); i++ {
		name = world.EntityID(fmt.Sprintf("%s_%d", base, i))
	}
	return name
}

func (p *SpawnPlanner) taken(q world.Queries, name world.EntityID) bool {
	if p.bank.Has(name) {
		return true
	}
	_, exists := q.Get(name)
	return exists
}
