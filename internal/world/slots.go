package world

// TerrainReader is anything that can answer terrain lookups.
type TerrainReader interface {
	Terrain(pos Position) Terrain
}

// CountFreeSlots counts the walkable tiles around pos, which is how many
// agents can work a node at once.
func CountFreeSlots(t TerrainReader, pos Position) int {
	free := 0
	for _, n := range pos.Neighbors() {
		if !n.InBounds() {
			continue
		}
		if t.Terrain(n) != TerrainWall {
			free++
		}
	}
	return free
}

// SlotCache memoizes free slot counts per source. Terrain is static, so
// entries stay valid until the owner calls Invalidate (e.g. when the room is
// regenerated). It belongs to a World adapter, never to the core.
type SlotCache struct {
	slots map[EntityID]int
}

// NewSlotCache creates an empty cache.
func NewSlotCache() *SlotCache {
	return &SlotCache{slots: make(map[EntityID]int)}
}

// FreeSlots returns the cached slot count for a source, computing it on first use.
func (c *SlotCache) FreeSlots(t TerrainReader, source Entity) int {
	if n, ok := c.slots[source.ID]; ok {
		return n
	}
	n := CountFreeSlots(t, source.Pos)
	c.slots[source.ID] = n
	return n
}

// Invalidate drops every cached entry.
func (c *SlotCache) Invalidate() {
	clear(c.slots)
}

// Len returns the number of cached sources.
func (c *SlotCache) Len() int {
	return len(c.slots)
}
