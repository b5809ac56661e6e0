package agents

import (
	"sort"

	"github.com/talgya/mini-colony/internal/world"
)

// MemoryBank holds the memory of every managed agent, keyed by agent ID.
// It is owned by the tick pass; nothing else mutates it during a tick.
type MemoryBank struct {
	entries map[world.EntityID]*Memory
}

// NewMemoryBank creates an empty bank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{entries: make(map[world.EntityID]*Memory)}
}

// Get returns the live memory for an agent.
func (b *MemoryBank) Get(id world.EntityID) (*Memory, bool) {
	m, ok := b.entries[id]
	return m, ok
}

// Put stores a copy of mem for id, replacing any previous entry.
func (b *MemoryBank) Put(id world.EntityID, mem Memory) *Memory {
	m := mem
	b.entries[id] = &m
	return &m
}

// Has reports whether id has memory.
func (b *MemoryBank) Has(id world.EntityID) bool {
	_, ok := b.entries[id]
	return ok
}

// Delete forgets an agent.
func (b *MemoryBank) Delete(id world.EntityID) {
	delete(b.entries, id)
}

// Len returns the number of agents with memory.
func (b *MemoryBank) Len() int {
	return len(b.entries)
}

// IDs returns every agent ID in sorted order.
func (b *MemoryBank) IDs() []world.EntityID {
	ids := make([]world.EntityID, 0, len(b.entries))
	for id := range b.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Prune deletes memory for agents that no longer exist in the world and
// returns the IDs removed.
func (b *MemoryBank) Prune(alive func(world.EntityID) bool) []world.EntityID {
	var removed []world.EntityID
	for _, id := range b.IDs() {
		if !alive(id) {
			delete(b.entries, id)
			removed = append(removed, id)
		}
	}
	return removed
}
