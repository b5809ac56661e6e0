package agents

// Worker manages every labor role: harvesters, upgraders, builders and
// reclaimers share one body plan and one rule set.
type Worker struct{}

// NewWorker returns the worker manager.
func NewWorker() *Worker {
	return &Worker{}
}

// ID implements Manager.
func (w *Worker) ID() ManagerID { return ManagerWorker }

// Roles implements Manager.
func (w *Worker) Roles() []Role {
	return []Role{RoleHarvester, RoleUpgrader, RoleBuilder, RoleReclaimer}
}

// MemoryFor returns the memory a freshly spawned agent starts with.
func (w *Worker) MemoryFor(colony string, role Role) Memory {
	return Memory{Manager: w.ID(), Role: role, Colony: colony}
}
