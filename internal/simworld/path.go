package simworld

import "github.com/talgya/mini-colony/internal/world"

type distGrid [world.RoomSize][world.RoomSize]int

func (w *World) walkable(p world.Position) bool {
	return p.InBounds() && w.Terrain(p) != world.TerrainWall
}

// distances runs a breadth-first search over walkable tiles from start.
// Unreached tiles hold -1.
func (w *World) distances(start world.Position) *distGrid {
	var dist distGrid
	for x := range dist {
		for y := range dist[x] {
			dist[x][y] = -1
		}
	}
	if !start.InBounds() {
		return &dist
	}
	dist[start.X][start.Y] = 0
	queue := []world.Position{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range cur.Neighbors() {
			if !w.walkable(n) || dist[n.X][n.Y] >= 0 {
				continue
			}
			dist[n.X][n.Y] = dist[cur.X][cur.Y] + 1
			queue = append(queue, n)
		}
	}
	return &dist
}

// pathLength is the number of steps to stand on or next to pos, or -1 if
// pos cannot be reached.
func pathLength(dist *distGrid, pos world.Position) int {
	if !pos.InBounds() {
		return -1
	}
	if d := dist[pos.X][pos.Y]; d >= 0 {
		return d
	}
	best := -1
	for _, n := range pos.Neighbors() {
		if !n.InBounds() {
			continue
		}
		if d := dist[n.X][n.Y]; d >= 0 && (best < 0 || d+1 < best) {
			best = d + 1
		}
	}
	return best
}

// firstStep returns the next tile on a shortest walkable path from start to
// any tile adjacent to goal.
func (w *World) firstStep(start, goal world.Position) (world.Position, bool) {
	if start.Room != goal.Room || !start.InBounds() {
		return world.Position{}, false
	}
	var parent [world.RoomSize][world.RoomSize]world.Position
	var seen [world.RoomSize][world.RoomSize]bool
	seen[start.X][start.Y] = true
	queue := []world.Position{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.Range(goal) <= 1 {
			if cur == start {
				return start, true
			}
			step := cur
			for parent[step.X][step.Y] != start {
				step = parent[step.X][step.Y]
			}
			return step, true
		}
		for _, n := range cur.Neighbors() {
			if !w.walkable(n) || seen[n.X][n.Y] {
				continue
			}
			seen[n.X][n.Y] = true
			parent[n.X][n.Y] = cur
			queue = append(queue, n)
		}
	}
	return world.Position{}, false
}
