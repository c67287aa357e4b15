package world

import "github.com/dgrg/dungeon/internal/core/ecs"

// AOIGrid buckets entities into square cells so range queries only look at
// a 3x3 neighbourhood. Cell size covers the longest trace the player makes.
// Accessed only from the game loop goroutine, no locks.

const cellSize = 8

type cellKey struct {
	cx int
	cy int
}

func toCellCoord(v int) int {
	if v < 0 {
		return (v - cellSize + 1) / cellSize
	}
	return v / cellSize
}

// AOIGrid tracks which entities are in which cells.
type AOIGrid struct {
	cells map[cellKey]map[ecs.EntityID]struct{}
}

func NewAOIGrid() *AOIGrid {
	return &AOIGrid{
		cells: make(map[cellKey]map[ecs.EntityID]struct{}),
	}
}

func (g *AOIGrid) key(x, y int) cellKey {
	return cellKey{cx: toCellCoord(x), cy: toCellCoord(y)}
}

// Add places an entity into the grid.
func (g *AOIGrid) Add(id ecs.EntityID, x, y int) {
	k := g.key(x, y)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

// Remove takes an entity out of the grid.
func (g *AOIGrid) Remove(id ecs.EntityID, x, y int) {
	k := g.key(x, y)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move updates an entity's cell when its tile changes.
func (g *AOIGrid) Move(id ecs.EntityID, oldX, oldY, newX, newY int) {
	if g.key(oldX, oldY) == g.key(newX, newY) {
		return
	}
	g.Remove(id, oldX, oldY)
	g.Add(id, newX, newY)
}

// GetNearby appends every entity in the 3x3 cells around (x, y) to buf.
// Caller does fine-grained filtering.
func (g *AOIGrid) GetNearby(x, y int, buf []ecs.EntityID) []ecs.EntityID {
	cx := toCellCoord(x)
	cy := toCellCoord(y)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for id := range g.cells[cellKey{cx: cx + dx, cy: cy + dy}] {
				buf = append(buf, id)
			}
		}
	}
	return buf
}

// Len returns the number of occupied cells.
func (g *AOIGrid) Len() int { return len(g.cells) }
