package progression

import "testing"

func TestWavesAdvance(t *testing.T) {
	w := NewWaves(0)
	if w.Current != 1 || w.KillsPerWave != KillsPerWave {
		t.Fatalf("unexpected initial waves: %+v", w)
	}
	if w.Advance(49) {
		t.Fatalf("should not advance before 50 kills")
	}
	if !w.Advance(50) || w.Current != 2 {
		t.Fatalf("expected wave 2, got %+v", w)
	}
	if w.Advance(99) {
		t.Fatalf("should need 50 more kills")
	}
	if !w.Advance(180) || w.Current != 3 {
		t.Fatalf("expected single-step advance to wave 3, got %+v", w)
	}
}

func TestWavesOverride(t *testing.T) {
	w := NewWaves(10)
	w.Override(12, 5)
	if w.Current != 12 || !w.Pinned {
		t.Fatalf("override not applied: %+v", w)
	}
	if w.Advance(1000) {
		t.Fatalf("pinned wave must not advance")
	}
	w.Override(0, 1000)
	if w.Pinned {
		t.Fatalf("override not cleared")
	}
	if w.Advance(1005) {
		t.Fatalf("kills before clearing should not count")
	}
	if !w.Advance(1010) || w.Current != 13 {
		t.Fatalf("expected wave 13, got %+v", w)
	}
}

func TestLevelsGrowth(t *testing.T) {
	l := NewLevels()
	if got := l.AddKills(24); got != 0 {
		t.Fatalf("no level expected, got %d", got)
	}
	if got := l.AddKills(1); got != 1 || l.Level != 2 || l.KillsForNext != 30 || l.Kills != 0 {
		t.Fatalf("unexpected after first level: gained=%d %+v", got, l)
	}
	// 30 -> 36 -> 44 (ceil(43.2))
	if got := l.AddKills(30 + 36 + 5); got != 2 || l.Level != 4 || l.KillsForNext != 44 || l.Kills != 5 {
		t.Fatalf("unexpected multi-level: gained=%d %+v", got, l)
	}
	if p := l.Progress(); p <= 0 || p >= 1 {
		t.Fatalf("unexpected progress %v", p)
	}
}
