// Package world describes the world engine the colony core consumes: entity
// views, positions, targets, result codes, and the World interface itself.
// The core never mutates world state except through World commands.
package world

import "fmt"

// RoomSize is the width and height of a room in tiles.
const RoomSize = 50

// Position is a tile inside a named room.
type Position struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Room string `json:"room"`
}

// NoRange is returned by Range for positions in different rooms.
const NoRange = -1

// NeighborDirections defines the eight neighbor offsets on the tile grid.
var NeighborDirections = [8]Position{
	{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: -1, Y: 0}, {X: 1, Y: 0},
	{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
}

// Neighbors returns the eight adjacent positions, including ones outside the
// room bounds. Callers filter with InBounds.
func (p Position) Neighbors() [8]Position {
	var result [8]Position
	for i, dir := range NeighborDirections {
		result[i] = Position{X: p.X + dir.X, Y: p.Y + dir.Y, Room: p.Room}
	}
	return result
}

// InBounds reports whether the position lies inside the room grid.
func (p Position) InBounds() bool {
	return p.X >= 0 && p.Y >= 0 && p.X < RoomSize && p.Y < RoomSize
}

// Range returns the Chebyshev distance between two positions, or NoRange if
// they are in different rooms.
func (p Position) Range(o Position) int {
	if p.Room != o.Room {
		return NoRange
	}
	dx := p.X - o.X
	dy := p.Y - o.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dy > dx {
		return dy
	}
	return dx
}

// InRangeTo reports whether o is within r tiles of p.
func (p Position) InRangeTo(o Position, r int) bool {
	d := p.Range(o)
	return d != NoRange && d <= r
}

// String returns the position as [room x,y].
func (p Position) String() string {
	return fmt.Sprintf("[%s %d,%d]", p.Room, p.X, p.Y)
}
