// Room generation using layered simplex noise.
// Elevation decides walls, a second layer decides swamp, then the colony
// core (spawn, controller, tower, sources, a few pending sites) is placed
// on cleared ground.
package simworld

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/mini-colony/internal/world"
)

// GenConfig holds room generation parameters.
type GenConfig struct {
	Room        string  // Room name
	Seed        int64   // Random seed (0 = random)
	WallLevel   float64 // Elevation threshold for walls (0.0–1.0)
	SwampLevel  float64 // Wetness threshold for swamp (0.0–1.0)
	Sources     int     // Energy sources to place
	Sites       int     // Extension sites queued at start
	ClearRadius int     // Open ground kept around the spawn
}

// DefaultGenConfig returns a reasonable starting room.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Room:        "W1N1",
		Seed:        0,
		WallLevel:   0.68,
		SwampLevel:  0.72,
		Sources:     2,
		Sites:       3,
		ClearRadius: 5,
	}
}

// Generate creates a world holding one colony room.
func Generate(cfg GenConfig) *World {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	elevNoise := opensimplex.NewNormalized(seed)
	wetNoise := opensimplex.NewNormalized(seed + 1)
	rng := rand.New(rand.NewSource(seed + 100))

	w := New(seed)
	w.AddRoom(cfg.Room)
	grid := w.rooms[cfg.Room]

	center := world.Position{X: world.RoomSize / 2, Y: world.RoomSize / 2, Room: cfg.Room}
	for x := 0; x < world.RoomSize; x++ {
		for y := 0; y < world.RoomSize; y++ {
			p := world.Position{X: x, Y: y, Room: cfg.Room}
			edge := x == 0 || y == 0 || x == world.RoomSize-1 || y == world.RoomSize-1
			switch {
			case edge:
				grid[x][y] = world.TerrainWall
			case p.Range(center) <= cfg.ClearRadius:
				grid[x][y] = world.TerrainPlain
			case octaveNoise(elevNoise, float64(x), float64(y), 4, 0.08, 0.5) > cfg.WallLevel:
				grid[x][y] = world.TerrainWall
			case octaveNoise(wetNoise, float64(x), float64(y), 2, 0.05, 0.5) > cfg.SwampLevel:
				grid[x][y] = world.TerrainSwamp
			default:
				grid[x][y] = world.TerrainPlain
			}
		}
	}

	w.AddStructure(world.StructureSpawn, center)
	controllerPos := world.Position{X: center.X + 4, Y: center.Y - 3, Room: cfg.Room}
	w.AddController(controllerPos, 1)
	w.AddStructure(world.StructureTower, world.Position{X: center.X - 2, Y: center.Y + 2, Room: cfg.Room})

	// A worn road between spawn and controller gives builders repair work.
	for i := 1; i <= 3; i++ {
		id := w.AddStructure(world.StructureRoad, world.Position{X: center.X + i, Y: center.Y - i, Room: cfg.Room})
		w.Update(id, func(e *world.Entity) { e.Hits = e.HitsMax * (50 + 10*i) / 100 })
	}

	ring := []world.Position{
		{X: center.X - 2, Y: center.Y - 2}, {X: center.X, Y: center.Y - 2}, {X: center.X + 2, Y: center.Y},
		{X: center.X, Y: center.Y + 2}, {X: center.X - 2, Y: center.Y},
	}
	for i := 0; i < cfg.Sites && i < len(ring); i++ {
		p := ring[i]
		p.Room = cfg.Room
		w.AddSite(world.StructureExtension, p, 3000)
	}

	placeSources(w, cfg, center, rng)
	return w
}

// placeSources scatters sources on walkable ground away from the spawn and
// from each other, each with at least one free slot.
func placeSources(w *World, cfg GenConfig, center world.Position, rng *rand.Rand) {
	var placed []world.Position
	for attempt := 0; attempt < 5000 && len(placed) < cfg.Sources; attempt++ {
		p := world.Position{
			X:    2 + rng.Intn(world.RoomSize-4),
			Y:    2 + rng.Intn(world.RoomSize-4),
			Room: cfg.Room,
		}
		if w.Terrain(p) == world.TerrainWall || p.Range(center) < 8 {
			continue
		}
		tooClose := false
		for _, q := range placed {
			if p.Range(q) < 6 {
				tooClose = true
				break
			}
		}
		if tooClose || world.CountFreeSlots(w, p) == 0 {
			continue
		}
		if _, reachable := w.firstStep(center, p); !reachable {
			continue
		}
		w.AddSource(p)
		placed = append(placed, p)
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
