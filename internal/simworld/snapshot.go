package simworld

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/talgya/mini-colony/internal/world"
)

// Snapshot is the serializable state of a World.
type Snapshot struct {
	Tick     uint64              `json:"tick"`
	Seq      uint64              `json:"seq"`
	Seed     int64               `json:"seed"`
	Rooms    map[string][]string `json:"rooms"`
	Entities []EntityState       `json:"entities"`
}

// EntityState is one entity plus the engine-private data attached to it.
type EntityState struct {
	world.Entity
	Body []world.Part `json:"body,omitempty"`
	TTL  int          `json:"ttl,omitempty"`
}

var terrainGlyph = map[world.Terrain]byte{
	world.TerrainPlain: '.',
	world.TerrainSwamp: '~',
	world.TerrainWall:  '#',
}

// Snapshot captures the full world state. Terrain rows are encoded one
// glyph per tile.
func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Tick:  w.tick,
		Seq:   w.seq,
		Seed:  w.seed,
		Rooms: make(map[string][]string, len(w.rooms)),
	}
	for name, grid := range w.rooms {
		rows := make([]string, world.RoomSize)
		for y := 0; y < world.RoomSize; y++ {
			var b strings.Builder
			for x := 0; x < world.RoomSize; x++ {
				b.WriteByte(terrainGlyph[grid[x][y]])
			}
			rows[y] = b.String()
		}
		s.Rooms[name] = rows
	}
	for _, id := range w.order {
		st := EntityState{Entity: *w.entities[id]}
		if body, ok := w.bodies[id]; ok {
			st.Body = append([]world.Part(nil), body...)
		}
		st.TTL = w.ttl[id]
		s.Entities = append(s.Entities, st)
	}
	return s
}

// Restore rebuilds a World from a snapshot.
func Restore(s Snapshot) (*World, error) {
	w := New(s.Seed)
	w.tick = s.Tick
	for name, rows := range s.Rooms {
		if len(rows) != world.RoomSize {
			return nil, fmt.Errorf("room %s: %d rows, want %d", name, len(rows), world.RoomSize)
		}
		w.AddRoom(name)
		grid := w.rooms[name]
		for y, row := range rows {
			if len(row) != world.RoomSize {
				return nil, fmt.Errorf("room %s row %d: %d tiles, want %d", name, y, len(row), world.RoomSize)
			}
			for x := 0; x < world.RoomSize; x++ {
				switch row[x] {
				case '.':
					grid[x][y] = world.TerrainPlain
				case '~':
					grid[x][y] = world.TerrainSwamp
				case '#':
					grid[x][y] = world.TerrainWall
				default:
					return nil, fmt.Errorf("room %s (%d,%d): unknown terrain %q", name, x, y, row[x])
				}
			}
		}
	}
	for _, st := range s.Entities {
		if st.ID == "" {
			return nil, fmt.Errorf("entity without id")
		}
		id := w.Add(st.Entity)
		if st.Body != nil {
			w.bodies[id] = append([]world.Part(nil), st.Body...)
		}
		if st.TTL > 0 {
			w.ttl[id] = st.TTL
		}
	}
	w.seq = s.Seq
	return w, nil
}

// MarshalJSON encodes the world as its snapshot.
func (w *World) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Snapshot())
}

// Decode parses JSON produced by MarshalJSON.
func Decode(data []byte) (*World, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode world: %w", err)
	}
	return Restore(s)
}
