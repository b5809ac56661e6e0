package agents

import (
	"log/slog"

	"github.com/talgya/mini-colony/internal/world"
)

// Run issues exactly one world command for every agent's current task.
func (w *Worker) Run(env *Env, roster []*Agent) {
	for _, a := range roster {
		w.runOne(env, a)
	}
}

func (w *Worker) runOne(env *Env, a *Agent) {
	task := a.Task()
	if task == TaskNone || task == TaskStandby {
		return
	}

	// A position carries no command: walk there, then let the scheduler
	// pick a real target.
	if pos, ok := a.Target().Position(); ok {
		if r := a.Pos().Range(pos); r != world.NoRange && r <= 1 {
			slog.Debug("position reached, rescheduling", "agent", a.ID, "task", task, "pos", pos.String())
			a.Reschedule()
			return
		}
		w.move(env, a, pos)
		return
	}

	id, ok := a.Target().Entity()
	if !ok {
		w.handle(env, a, world.Position{}, world.InvalidTarget)
		return
	}
	target, ok := env.World.Get(id)
	if !ok {
		w.handle(env, a, world.Position{}, world.InvalidTarget)
		return
	}

	var res world.Result
	switch task {
	case TaskHarvest:
		res = env.World.Harvest(a.ID, id)
	case TaskDropoff:
		res = env.World.Transfer(a.ID, id)
	case TaskUpgrade:
		res = env.World.UpgradeController(a.ID, id)
	case TaskRepair:
		res = env.World.Repair(a.ID, id)
	case TaskBuild:
		res = env.World.Build(a.ID, id)
	case TaskReclaim:
		if target.Kind == world.KindContainer {
			res = env.World.Withdraw(a.ID, id)
		} else {
			res = env.World.Pickup(a.ID, id)
		}
	default:
		slog.Warn("unknown task", "agent", a.ID, "task", task)
		return
	}
	w.handle(env, a, target.Pos, res)
}

// handle reacts to a command result. Out of range moves; stale targets are
// dropped so the scheduler picks again; anything unexpected is logged and
// the task is retried as-is next tick.
func (w *Worker) handle(env *Env, a *Agent, pos world.Position, res world.Result) {
	switch {
	case res == world.OK || res == world.Busy:
	case res == world.NotInRange:
		w.move(env, a, pos)
	case res.Stale():
		slog.Debug("target stale, rescheduling", "agent", a.ID, "task", a.Task(),
			"target", a.Target().String(), "result", res.String())
		a.Reschedule()
	default:
		slog.Warn("task command failed", "agent", a.ID, "task", a.Task(),
			"target", a.Target().String(), "result", res.String())
	}
}

func (w *Worker) move(env *Env, a *Agent, to world.Position) {
	res := env.World.Move(a.ID, to)
	switch res {
	case world.OK, world.Busy:
	case world.NoPath:
		slog.Debug("target unreachable, rescheduling", "agent", a.ID, "to", to.String())
		a.Reschedule()
	default:
		slog.Warn("move failed", "agent", a.ID, "to", to.String(), "result", res.String())
	}
}
