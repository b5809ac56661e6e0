// Package agents provides the worker agent model, its persisted memory, and
// the per-tick task scheduler and executor that drive it.
package agents

import (
	"fmt"

	"github.com/talgya/mini-colony/internal/world"
)

// Role is an agent's immutable labor category.
type Role string

const (
	RoleHarvester Role = "harvester"
	RoleUpgrader  Role = "upgrader"
	RoleBuilder   Role = "builder"
	RoleReclaimer Role = "reclaimer"
)

// AllRoles lists every labor role in canonical order.
var AllRoles = []Role{RoleHarvester, RoleUpgrader, RoleBuilder, RoleReclaimer}

// ParseRole converts a stored role name back into a Role.
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Tasks returns the closed set of tasks the role may perform.
func (r Role) Tasks() []Task {
	switch r {
	case RoleHarvester:
		return []Task{TaskHarvest, TaskDropoff, TaskUpgrade, TaskStandby}
	case RoleUpgrader:
		return []Task{TaskHarvest, TaskUpgrade, TaskStandby}
	case RoleBuilder:
		return []Task{TaskHarvest, TaskRepair, TaskBuild, TaskUpgrade, TaskStandby}
	case RoleReclaimer:
		return []Task{TaskReclaim, TaskDropoff, TaskUpgrade, TaskStandby}
	}
	return nil
}

// Permits reports whether t belongs to the role's task set.
func (r Role) Permits(t Task) bool {
	if t == TaskNone {
		return true
	}
	for _, allowed := range r.Tasks() {
		if allowed == t {
			return true
		}
	}
	return false
}

// DefaultTask is what an idle agent of this role retries after standing by.
func (r Role) DefaultTask() Task {
	switch r {
	case RoleHarvester:
		return TaskHarvest
	case RoleUpgrader:
		return TaskUpgrade
	case RoleBuilder:
		return TaskBuild
	case RoleReclaimer:
		return TaskReclaim
	}
	return TaskNone
}

// ConsumesSource reports whether the role extracts from sources itself.
func (r Role) ConsumesSource() bool {
	return r == RoleHarvester || r == RoleUpgrader || r == RoleBuilder
}

// Task is the agent's current activity.
type Task string

const (
	TaskNone    Task = ""
	TaskHarvest Task = "harvest"
	TaskDropoff Task = "dropoff"
	TaskUpgrade Task = "upgrade"
	TaskRepair  Task = "repair"
	TaskBuild   Task = "build"
	TaskReclaim Task = "reclaim"
	TaskStandby Task = "standby"
)

// ParseTask converts a stored task name back into a Task.
func ParseTask(s string) (Task, error) {
	switch t := Task(s); t {
	case TaskNone, TaskHarvest, TaskDropoff, TaskUpgrade, TaskRepair, TaskBuild, TaskReclaim, TaskStandby:
		return t, nil
	}
	return TaskNone, fmt.Errorf("unknown task %q", s)
}

// ManagerID names the manager responsible for a set of roles.
type ManagerID string

const (
	ManagerWorker  ManagerID = "worker"
	ManagerFighter ManagerID = "fighter"
)

// Memory is the persisted per-agent state. The world engine owns the body;
// everything the core decides lives here.
type Memory struct {
	Role           Role         `json:"role"`
	Manager        ManagerID    `json:"manager"`
	Colony         string       `json:"colony"`
	Task           Task         `json:"task,omitempty"`
	Target         world.Target `json:"-"`
	LastTaskChange uint64       `json:"last_task_change"`
}

// Agent pairs a live world body with its memory for the current tick.
type Agent struct {
	ID   world.EntityID
	Body world.Entity
	Mem  *Memory
}

// Role returns the agent's labor role.
func (a *Agent) Role() Role { return a.Mem.Role }

// Task returns the current task.
func (a *Agent) Task() Task { return a.Mem.Task }

// Target returns the current target.
func (a *Agent) Target() world.Target { return a.Mem.Target }

// Pos returns the agent's position.
func (a *Agent) Pos() world.Position { return a.Body.Pos }

// Carried returns the energy the agent holds.
func (a *Agent) Carried() int { return a.Body.Energy }

// FreeCapacity returns how much more the agent can carry.
func (a *Agent) FreeCapacity() int { return a.Body.FreeCapacity() }

// Full reports whether the agent cannot carry any more.
func (a *Agent) Full() bool { return a.Body.FreeCapacity() <= 0 }

// Assign sets the task and target, stamping the change tick only when
// something actually changed. Returns whether it did.
func (a *Agent) Assign(task Task, target world.Target, tick uint64) bool {
	if a.Mem.Task == task && a.Mem.Target == target {
		return false
	}
	a.Mem.Task = task
	a.Mem.Target = target
	a.Mem.LastTaskChange = tick
	return true
}

// Reschedule drops the target so the scheduler picks a new one next pass.
func (a *Agent) Reschedule() {
	a.Mem.Target = world.NoTarget
}

func (a *Agent) String() string {
	return fmt.Sprintf("%s (%s)", a.ID, a.Mem.Role)
}
