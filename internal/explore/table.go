// Package explore tracks which rooms and tiles have been seen, for novelty rewards.
package explore

import (
	"explorerl/internal/env"
)

// Discovery is the outcome of offering a position to a Table
type Discovery int

const (
	DiscoveryNone Discovery = iota
	DiscoveryTile           // new tile in a known room
	DiscoveryRoom           // room never seen before
)

func (d Discovery) String() string {
	switch d {
	case DiscoveryNone:
		return "none"
	case DiscoveryTile:
		return "tile"
	case DiscoveryRoom:
		return "room"
	default:
		return "unknown"
	}
}

type point struct {
	X, Y int
}

// Table maps a room to the points accepted in it. A point is accepted only
// when every point already recorded in the room is farther than the radius.
type Table struct {
	radius float64
	rooms  map[int][]point
	tiles  int
}

// NewTable creates an empty table with the given novelty radius
func NewTable(radius float64) *Table {
	return &Table{
		radius: radius,
		rooms:  make(map[int][]point),
	}
}

// Visit records pos if it is novel and reports what kind of discovery it was.
// A rejected position leaves the table untouched.
func (t *Table) Visit(pos env.Position) Discovery {
	p := point{X: pos.X, Y: pos.Y}
	seen, ok := t.rooms[pos.Room]
	if !ok {
		t.rooms[pos.Room] = []point{p}
		t.tiles++
		return DiscoveryRoom
	}

	r2 := t.radius * t.radius
	for _, q := range seen {
		dx := float64(q.X - p.X)
		dy := float64(q.Y - p.Y)
		if dx*dx+dy*dy <= r2 {
			return DiscoveryNone
		}
	}
	t.rooms[pos.Room] = append(seen, p)
	t.tiles++
	return DiscoveryTile
}

// Has reports whether the room has been recorded
func (t *Table) Has(room int) bool {
	_, ok := t.rooms[room]
	return ok
}

// Rooms returns the number of rooms recorded
func (t *Table) Rooms() int {
	return len(t.rooms)
}

// Tiles returns the number of points recorded across all rooms
func (t *Table) Tiles() int {
	return t.tiles
}

// Reset forgets every room
func (t *Table) Reset() {
	t.rooms = make(map[int][]point)
	t.tiles = 0
}
