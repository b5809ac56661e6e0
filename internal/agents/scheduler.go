// Worker task scheduling. Each tick, before anything acts, every agent's
// task is checked against its role's trigger rules; the first rule that
// fires picks a new task and target.
package agents

import (
	"log/slog"
	"sort"

	"github.com/talgya/mini-colony/internal/world"
)

// Schedule re-evaluates the task of every agent in roster.
func (w *Worker) Schedule(env *Env, roster []*Agent) {
	for _, a := range roster {
		w.scheduleOne(env, a)
	}
}

func (w *Worker) scheduleOne(env *Env, a *Agent) {
	role := a.Role()
	task := a.Task()
	hasTarget := env.Resolves(a.Target())
	full := a.Full()

	switch {
	case role.ConsumesSource() &&
		((a.Carried() == 0 && task != TaskHarvest) || (task == TaskHarvest && !hasTarget)):
		w.scheduleHarvest(env, a)

	case (role == RoleHarvester || role == RoleReclaimer) &&
		((full && task != TaskDropoff) || (task == TaskDropoff && !hasTarget)):
		w.scheduleDropoff(env, a)

	case role == RoleUpgrader &&
		((full && task != TaskUpgrade) || (task == TaskUpgrade && !hasTarget)):
		w.scheduleUpgrade(env, a)

	case role == RoleBuilder &&
		((full && task != TaskRepair && task != TaskBuild) || (task == TaskRepair && !hasTarget)):
		w.scheduleRepair(env, a)

	case role == RoleBuilder &&
		((full && task != TaskRepair && task != TaskBuild) || (task == TaskBuild && !hasTarget)):
		w.scheduleBuild(env, a)

	case role == RoleReclaimer &&
		((a.FreeCapacity() > 0 && task != TaskReclaim) || (task == TaskReclaim && !hasTarget)):
		w.scheduleReclaim(env, a)

	case task != TaskStandby && task != TaskNone && !hasTarget:
		// A task whose target vanished and that no rule above claims.
		slog.Debug("orphaned task, retrying default", "agent", a.ID, "task", task)
		w.retryDefault(env, a)

	case (task == TaskStandby || task == TaskNone) && w.idleExpired(env, a):
		slog.Debug("idle too long, retrying default", "agent", a.ID, "role", role,
			"tick", env.Tick, "last_change", a.Mem.LastTaskChange)
		w.retryDefault(env, a)
	}
}

// idleExpired reports whether the agent has been idle for a full retry
// window. A change tick ahead of the world clock counts as expired, so the
// retry re-stamps it.
func (w *Worker) idleExpired(env *Env, a *Agent) bool {
	last := a.Mem.LastTaskChange
	return last > env.Tick || env.Tick-last >= env.StandbyRetry
}

// retryDefault re-runs target selection for the role's default task. If the
// agent still ends up idle the change tick is re-stamped, so the next retry
// waits a full window.
func (w *Worker) retryDefault(env *Env, a *Agent) {
	switch a.Role().DefaultTask() {
	case TaskHarvest:
		w.scheduleHarvest(env, a)
	case TaskUpgrade:
		w.scheduleUpgrade(env, a)
	case TaskBuild:
		w.scheduleBuild(env, a)
	case TaskReclaim:
		w.scheduleReclaim(env, a)
	default:
		w.standby(env, a)
	}
	if a.Task() == TaskStandby {
		a.Mem.LastTaskChange = env.Tick
	}
}

func (w *Worker) assign(env *Env, a *Agent, task Task, target world.Target) {
	if a.Assign(task, target, env.Tick) {
		slog.Debug("task assigned", "agent", a.ID, "role", a.Role(), "task", task, "target", target.String())
	}
}

func (w *Worker) standby(env *Env, a *Agent) {
	w.assign(env, a, TaskStandby, world.NoTarget)
}

// scheduleHarvest sends the agent to the nearest active source that still
// has a free slot once current extractors are counted.
func (w *Worker) scheduleHarvest(env *Env, a *Agent) {
	src, ok := env.World.FindNearestByPath(a.Pos(), world.KindSource, func(e world.Entity) bool {
		return e.Energy > 0 && env.World.FreeSlots(e.ID)-env.Extractors(e.ID, a) > 0
	})
	if !ok {
		slog.Debug("no uncrowded source", "agent", a.ID)
		w.standby(env, a)
		return
	}
	w.assign(env, a, TaskHarvest, world.EntityRef(src.ID))
}

func (w *Worker) findDropoff(env *Env, a *Agent) (world.Entity, bool) {
	return env.World.FindNearestByPath(a.Pos(), world.KindStructure, func(e world.Entity) bool {
		return e.AcceptsEnergy()
	})
}

// scheduleDropoff delivers to the nearest structure with free input
// capacity, falling back to the controller.
func (w *Worker) scheduleDropoff(env *Env, a *Agent) {
	sink, ok := w.findDropoff(env, a)
	if !ok {
		slog.Debug("no dropoff point, upgrading instead", "agent", a.ID)
		w.upgradeOrStandby(env, a)
		return
	}
	w.assign(env, a, TaskDropoff, world.EntityRef(sink.ID))
}

func (w *Worker) scheduleUpgrade(env *Env, a *Agent) {
	w.upgradeOrStandby(env, a)
}

func (w *Worker) upgradeOrStandby(env *Env, a *Agent) {
	if env.Controller == "" {
		w.standby(env, a)
		return
	}
	if _, ok := env.World.Get(env.Controller); !ok {
		w.standby(env, a)
		return
	}
	w.assign(env, a, TaskUpgrade, world.EntityRef(env.Controller))
}

// scheduleRepair picks the structure with the lowest health ratio under the
// repair threshold. With nothing damaged it falls through to building.
func (w *Worker) scheduleRepair(env *Env, a *Agent) {
	damaged := env.World.FindAll(env.Room, world.KindStructure, func(e world.Entity) bool {
		return e.HitsMax > 0 && e.HealthRatio() < env.RepairThreshold
	})
	if len(damaged) == 0 {
		w.scheduleBuild(env, a)
		return
	}
	sort.SliceStable(damaged, func(i, j int) bool {
		ri, rj := damaged[i].HealthRatio(), damaged[j].HealthRatio()
		if ri != rj {
			return ri < rj
		}
		return damaged[i].ID < damaged[j].ID
	})
	w.assign(env, a, TaskRepair, world.EntityRef(damaged[0].ID))
}

func (w *Worker) scheduleBuild(env *Env, a *Agent) {
	site, ok := env.World.FindNearestByPath(a.Pos(), world.KindSite, func(e world.Entity) bool {
		return e.Owned
	})
	if !ok {
		slog.Debug("nothing to build, upgrading instead", "agent", a.ID)
		w.upgradeOrStandby(env, a)
		return
	}
	w.assign(env, a, TaskBuild, world.EntityRef(site.ID))
}

// scheduleReclaim looks for dropped energy first, then non-empty decay
// containers. Empty-handed with nothing to collect means standby; carrying
// something means it is delivered.
func (w *Worker) scheduleReclaim(env *Env, a *Agent) {
	nonEmpty := func(e world.Entity) bool { return e.Energy > 0 }
	target, ok := env.World.FindNearestByPath(a.Pos(), world.KindDrop, nonEmpty)
	if !ok {
		target, ok = env.World.FindNearestByPath(a.Pos(), world.KindContainer, nonEmpty)
	}
	if ok {
		w.assign(env, a, TaskReclaim, world.EntityRef(target.ID))
		return
	}
	if a.Carried() > 0 {
		w.scheduleDropoff(env, a)
		return
	}
	w.standby(env, a)
}
