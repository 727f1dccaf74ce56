package mathx

import (
	"math"
	"testing"
)

func TestClamp01(t *testing.T) {
	if got := Clamp01(-0.5); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := Clamp01(1.7); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
	if got := Clamp01(math.NaN()); got != 0 {
		t.Fatalf("expected NaN to clamp to 0, got %v", got)
	}
}

func TestHash2Stable(t *testing.T) {
	a := Hash2(42, 10, -3)
	b := Hash2(42, 10, -3)
	if a != b {
		t.Fatalf("hash not stable: %d vs %d", a, b)
	}
	if Hash2(42, 10, -3) == Hash2(43, 10, -3) {
		t.Fatalf("seed should change hash")
	}
}

func TestVec2MoveToward(t *testing.T) {
	p := V(0, 0).MoveToward(V(10, 0), 4)
	if p != V(4, 0) {
		t.Fatalf("unexpected step: %+v", p)
	}
	p = V(0, 0).MoveToward(V(3, 4), 10)
	if p != V(3, 4) {
		t.Fatalf("expected snap to target, got %+v", p)
	}
	if n := (Vec2{}).Normalize(); n != (Vec2{}) {
		t.Fatalf("zero vector normalize: %+v", n)
	}
	if d := V(0, 0).Dist(V(3, 4)); d != 5 {
		t.Fatalf("dist=%v", d)
	}
}
