// Package spatial buckets entity handles into a uniform grid for
// over-inclusive proximity queries. The grid is rebuilt every tick.
package spatial

import (
	"cmp"
	"math"
	"slices"

	"hordesim.ai/internal/sim/world/logic/mathx"
)

// CellSize is the default cell edge length in world units.
const CellSize = 256.0

type Cell struct {
	X int
	Y int
}

// CellOf floors each axis, so (-1,0) lands in cell (-1,0).
func CellOf(p mathx.Vec2, cellSize float64) Cell {
	return Cell{
		X: int(math.Floor(p.X / cellSize)),
		Y: int(math.Floor(p.Y / cellSize)),
	}
}

type Grid struct {
	size     float64
	cells    map[Cell][]uint32
	occupied int
	count    int

	// walk is scratch for wide queries.
	walk []Cell
}

func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		cellSize = CellSize
	}
	return &Grid{size: cellSize, cells: map[Cell][]uint32{}}
}

func (g *Grid) CellSize() float64 { return g.size }

// Clear empties every cell. Buckets used during the previous build keep their
// backing arrays; buckets that stayed empty are dropped.
func (g *Grid) Clear() {
	for c, hs := range g.cells {
		if len(hs) == 0 {
			delete(g.cells, c)
			continue
		}
		g.cells[c] = hs[:0]
	}
	g.occupied = 0
	g.count = 0
}

func (g *Grid) Insert(h uint32, p mathx.Vec2) {
	c := CellOf(p, g.size)
	hs := g.cells[c]
	if len(hs) == 0 {
		g.occupied++
	}
	g.cells[c] = append(hs, h)
	g.count++
}

// Nearby returns every handle in the 3x3 block of cells around p.
func (g *Grid) Nearby(p mathx.Vec2) []uint32 {
	return g.AppendNearby(nil, p)
}

func (g *Grid) AppendNearby(dst []uint32, p mathx.Vec2) []uint32 {
	return g.appendBlock(dst, CellOf(p, g.size), 1)
}

// InRadius returns every handle in the square block of half-width
// ceil(radius/cellSize)+1 around p. Callers still apply an exact distance test.
func (g *Grid) InRadius(p mathx.Vec2, radius float64) []uint32 {
	return g.AppendInRadius(nil, p, radius)
}

func (g *Grid) AppendInRadius(dst []uint32, p mathx.Vec2, radius float64) []uint32 {
	center := CellOf(p, g.size)
	half := math.Ceil(radius/g.size) + 1
	if half < 0 || math.IsNaN(half) {
		return g.appendBlock(dst, center, 0)
	}
	// A block wider than the occupied set is cheaper to answer by walking
	// the occupied cells. This also covers an infinite radius.
	if side := 2*half + 1; side*side > float64(len(g.cells)) {
		return g.appendWalk(dst, center, half)
	}
	return g.appendBlock(dst, center, int(half))
}

// InCell returns the bucket for c. The slice is only valid until the next Clear.
func (g *Grid) InCell(c Cell) []uint32 { return g.cells[c] }

// CellCount reports cells holding at least one handle.
func (g *Grid) CellCount() int   { return g.occupied }
func (g *Grid) EntityCount() int { return g.count }

// appendWalk matches appendBlock, including its row-major cell order, by
// visiting only occupied cells.
func (g *Grid) appendWalk(dst []uint32, center Cell, half float64) []uint32 {
	g.walk = g.walk[:0]
	for c, hs := range g.cells {
		if len(hs) == 0 {
			continue
		}
		dx := math.Abs(float64(c.X) - float64(center.X))
		dy := math.Abs(float64(c.Y) - float64(center.Y))
		if dx <= half && dy <= half {
			g.walk = append(g.walk, c)
		}
	}
	slices.SortFunc(g.walk, func(a, b Cell) int {
		if a.Y != b.Y {
			return cmp.Compare(a.Y, b.Y)
		}
		return cmp.Compare(a.X, b.X)
	})
	for _, c := range g.walk {
		dst = append(dst, g.cells[c]...)
	}
	return dst
}

func (g *Grid) appendBlock(dst []uint32, center Cell, half int) []uint32 {
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			if hs := g.cells[Cell{X: center.X + dx, Y: center.Y + dy}]; len(hs) > 0 {
				dst = append(dst, hs...)
			}
		}
	}
	return dst
}
