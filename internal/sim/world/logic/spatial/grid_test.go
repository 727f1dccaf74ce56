package spatial

import (
	"math"
	"testing"

	"hordesim.ai/internal/sim/world/logic/mathx"
)

func contains(hs []uint32, h uint32) bool {
	for _, x := range hs {
		if x == h {
			return true
		}
	}
	return false
}

func TestCellOfFloorsNegative(t *testing.T) {
	if c := CellOf(mathx.V(-1, 0), CellSize); c != (Cell{X: -1, Y: 0}) {
		t.Fatalf("expected (-1,0), got %+v", c)
	}
	if c := CellOf(mathx.V(-256, -257), CellSize); c != (Cell{X: -1, Y: -2}) {
		t.Fatalf("expected (-1,-2), got %+v", c)
	}
	if c := CellOf(mathx.V(255.9, 256), CellSize); c != (Cell{X: 0, Y: 1}) {
		t.Fatalf("expected (0,1), got %+v", c)
	}
}

func TestNearby(t *testing.T) {
	g := NewGrid(CellSize)
	g.Insert(1, mathx.V(0, 0))
	g.Insert(2, mathx.V(256, 0))
	g.Insert(3, mathx.V(1000, 1000))

	got := g.Nearby(mathx.V(128, 128))
	if !contains(got, 1) || !contains(got, 2) {
		t.Fatalf("expected handles 1 and 2, got %v", got)
	}
	if contains(got, 3) {
		t.Fatalf("far handle should be excluded, got %v", got)
	}
}

func TestInRadiusHalfWidth(t *testing.T) {
	g := NewGrid(CellSize)
	g.Insert(1, mathx.V(2*256+10, 0)) // cell (2,0)
	g.Insert(2, mathx.V(3*256+10, 0)) // cell (3,0)

	// radius 100 -> half-width ceil(100/256)+1 = 2
	got := g.InRadius(mathx.V(10, 10), 100)
	if !contains(got, 1) {
		t.Fatalf("expected handle in cell 2 away, got %v", got)
	}
	if contains(got, 2) {
		t.Fatalf("handle 3 cells away should be excluded, got %v", got)
	}

	// radius 300 -> half-width 3
	got = g.InRadius(mathx.V(10, 10), 300)
	if !contains(got, 2) {
		t.Fatalf("expected handle 3 cells away, got %v", got)
	}
}

func TestClearAndCounts(t *testing.T) {
	g := NewGrid(0)
	if g.CellSize() != CellSize {
		t.Fatalf("expected default cell size, got %v", g.CellSize())
	}
	g.Insert(1, mathx.V(10, 10))
	g.Insert(2, mathx.V(20, 20))
	g.Insert(3, mathx.V(-20, 20))
	if g.EntityCount() != 3 || g.CellCount() != 2 {
		t.Fatalf("counts: entities=%d cells=%d", g.EntityCount(), g.CellCount())
	}
	if hs := g.InCell(Cell{X: 0, Y: 0}); len(hs) != 2 {
		t.Fatalf("expected 2 handles in origin cell, got %v", hs)
	}

	g.Clear()
	if g.EntityCount() != 0 || g.CellCount() != 0 {
		t.Fatalf("clear left counts: entities=%d cells=%d", g.EntityCount(), g.CellCount())
	}
	if got := g.Nearby(mathx.V(10, 10)); len(got) != 0 {
		t.Fatalf("expected empty query after clear, got %v", got)
	}

	g.Insert(4, mathx.V(10, 10))
	if got := g.Nearby(mathx.V(0, 0)); len(got) != 1 || got[0] != 4 {
		t.Fatalf("expected only the reinserted handle, got %v", got)
	}
}

func TestEmptyRegion(t *testing.T) {
	g := NewGrid(CellSize)
	if got := g.InRadius(mathx.V(5000, 5000), 50); len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}

func TestInRadiusInfiniteAndHuge(t *testing.T) {
	g := NewGrid(CellSize)
	g.Insert(1, mathx.V(0, 0))
	g.Insert(2, mathx.V(2000, 0))
	g.Insert(3, mathx.V(-1e6, 5e5))

	for _, r := range []float64{math.Inf(1), 1e7, 1e300} {
		got := g.InRadius(mathx.V(0, 0), r)
		if len(got) != 3 || !contains(got, 1) || !contains(got, 2) || !contains(got, 3) {
			t.Fatalf("radius %v: expected all handles, got %v", r, got)
		}
	}

	// Negative, NaN and -Inf radii degrade to the centre cell.
	for _, r := range []float64{-1e9, math.NaN(), math.Inf(-1)} {
		got := g.InRadius(mathx.V(0, 0), r)
		if len(got) != 1 || got[0] != 1 {
			t.Fatalf("radius %v: expected only the centre cell, got %v", r, got)
		}
	}
}

func TestWideQueryKeepsBlockOrder(t *testing.T) {
	g := NewGrid(CellSize)
	h := uint32(0)
	for y := -4; y <= 4; y++ {
		for x := -4; x <= 4; x += 2 {
			h++
			g.Insert(h, mathx.V(float64(x)*256+5, float64(y)*256+5))
		}
	}
	center := Cell{X: 1, Y: -1}
	for _, half := range []int{0, 1, 3, 10} {
		block := g.appendBlock(nil, center, half)
		walk := g.appendWalk(nil, center, float64(half))
		if len(block) != len(walk) {
			t.Fatalf("half %d: block=%v walk=%v", half, block, walk)
		}
		for i := range block {
			if block[i] != walk[i] {
				t.Fatalf("half %d: order differs at %d: block=%v walk=%v", half, i, block, walk)
			}
		}
	}
}
