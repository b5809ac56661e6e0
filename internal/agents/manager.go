package agents

import (
	"errors"
	"fmt"

	"github.com/talgya/mini-colony/internal/world"
)

var (
	// ErrDuplicateManager means two managers claim the same role or ID.
	ErrDuplicateManager = errors.New("role claimed by more than one manager")
	// ErrUnmanagedRole means a role has no manager.
	ErrUnmanagedRole = errors.New("role has no manager")
)

// Env is what a manager sees during one colony's tick.
type Env struct {
	World world.World
	Tick  uint64
	Room  string

	// Controller is the colony anchor, the fallback sink for energy.
	Controller world.EntityID

	// Roster holds every agent of the colony, across all managers.
	Roster []*Agent

	StandbyRetry    uint64
	RepairThreshold float64
}

// Resolves reports whether t points at something that still exists.
func (e *Env) Resolves(t world.Target) bool {
	_, ok := t.Resolve(e.World)
	return ok
}

// Extractors counts roster agents other than self that target source.
func (e *Env) Extractors(source world.EntityID, self *Agent) int {
	n := 0
	for _, a := range e.Roster {
		if a == self {
			continue
		}
		if id, ok := a.Target().Entity(); ok && id == source {
			n++
		}
	}
	return n
}

// Manager schedules and drives the agents of the roles it owns.
type Manager interface {
	ID() ManagerID
	Roles() []Role
	MemoryFor(colony string, role Role) Memory
	Schedule(env *Env, roster []*Agent)
	Run(env *Env, roster []*Agent)
}

// Managers is the static role→manager map, validated when built.
type Managers struct {
	order  []Manager
	byID   map[ManagerID]Manager
	byRole map[Role]Manager
}

// NewManagers builds the map and checks that every role in AllRoles has
// exactly one manager. Run it once at boot; an error is fatal.
func NewManagers(ms ...Manager) (*Managers, error) {
	set := &Managers{
		byID:   make(map[ManagerID]Manager, len(ms)),
		byRole: make(map[Role]Manager),
	}
	for _, m := range ms {
		if _, dup := set.byID[m.ID()]; dup {
			return nil, fmt.Errorf("manager %q: %w", m.ID(), ErrDuplicateManager)
		}
		set.byID[m.ID()] = m
		set.order = append(set.order, m)
		for _, r := range m.Roles() {
			if other, dup := set.byRole[r]; dup {
				return nil, fmt.Errorf("role %q claimed by %q and %q: %w", r, other.ID(), m.ID(), ErrDuplicateManager)
			}
			set.byRole[r] = m
		}
	}
	for _, r := range AllRoles {
		if _, ok := set.byRole[r]; !ok {
			return nil, fmt.Errorf("role %q: %w", r, ErrUnmanagedRole)
		}
	}
	return set, nil
}

// ForRole returns the manager owning a role.
func (s *Managers) ForRole(r Role) (Manager, bool) {
	m, ok := s.byRole[r]
	return m, ok
}

// ByID returns a manager by its ID.
func (s *Managers) ByID(id ManagerID) (Manager, bool) {
	m, ok := s.byID[id]
	return m, ok
}

// All returns managers in registration order.
func (s *Managers) All() []Manager {
	return s.order
}

// Roles returns every managed role, in manager then role order.
func (s *Managers) Roles() []Role {
	var roles []Role
	for _, m := range s.order {
		roles = append(roles, m.Roles()...)
	}
	return roles
}
