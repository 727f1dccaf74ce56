package director

import "testing"

func TestTargetEnemyCountTable(t *testing.T) {
	want := []int{15, 25, 40, 60, 85, 115, 150, 190, 235, 285}
	for i, v := range want {
		if got := TargetEnemyCount(i + 1); got != v {
			t.Fatalf("wave %d: want %d got %d", i+1, v, got)
		}
	}
	cases := map[int]int{11: 400, 15: 800, 16: 1000, 20: 1800, 21: 2100, 30: 4800, 31: 5100, 40: 6000}
	for w, v := range cases {
		if got := TargetEnemyCount(w); got != v {
			t.Fatalf("wave %d: want %d got %d", w, v, got)
		}
	}
}

func TestTargetEnemyCountStrictlyIncreasing(t *testing.T) {
	for w := 1; w < 200; w++ {
		if TargetEnemyCount(w) >= TargetEnemyCount(w+1) {
			t.Fatalf("not strictly increasing at wave %d: %d >= %d", w, TargetEnemyCount(w), TargetEnemyCount(w+1))
		}
	}
	if !(TargetEnemyCount(1) < TargetEnemyCount(10) && TargetEnemyCount(10) < TargetEnemyCount(20) && TargetEnemyCount(20) < TargetEnemyCount(30)) {
		t.Fatalf("band ordering violated")
	}
}

func TestEnemiesPerSpawnMinimumsIncrease(t *testing.T) {
	bands := []int{1, 6, 11, 16, 21, 31}
	prev := 0
	for _, w := range bands {
		r := EnemiesPerSpawn(w)
		if r.Min <= prev {
			t.Fatalf("wave %d: min %d not above previous band %d", w, r.Min, prev)
		}
		if r.Max < r.Min {
			t.Fatalf("wave %d: max %d below min %d", w, r.Max, r.Min)
		}
		prev = r.Min
	}
}

func TestEliteChanceAndHPScaleMonotonic(t *testing.T) {
	for w := 1; w < 100; w++ {
		if EliteChance(w+1) < EliteChance(w) {
			t.Fatalf("elite chance decreased at wave %d", w)
		}
		if HPScale(w+1) < HPScale(w) {
			t.Fatalf("hp scale decreased at wave %d", w)
		}
	}
	if EliteChance(3) != 0.02 || EliteChance(8) != 0.05 || EliteChance(12) != 0.10 || EliteChance(18) != 0.15 || EliteChance(50) != 0.20 {
		t.Fatalf("elite chance steps wrong")
	}
	if HPScale(1) != 1.0 || HPScale(0) != 1.0 {
		t.Fatalf("hp scale at wave 1 should be 1.0")
	}
	if got := HPScale(11); got < 1.7999 || got > 1.8001 {
		t.Fatalf("hp scale wave 11: %v", got)
	}
}

func TestRatioModifier(t *testing.T) {
	cases := []struct {
		alive, target int
		want          float64
	}{
		{0, 100, 0.7},
		{49, 100, 0.7},
		{50, 100, 1.0},
		{99, 100, 1.0},
		{100, 100, 1.5},
		{149, 100, 1.5},
		{150, 100, 2.5},
	}
	for _, c := range cases {
		if got := RatioModifier(c.alive, c.target); got != c.want {
			t.Fatalf("alive=%d target=%d: want %v got %v", c.alive, c.target, c.want, got)
		}
	}
}

func TestStressModifierEarlyWavesMuted(t *testing.T) {
	if StressModifier(3, 0.1) != 1.0 {
		t.Fatalf("low stress should not speed up early waves")
	}
	if StressModifier(5, 0.81) != 1.3 {
		t.Fatalf("extreme stress should slow early waves")
	}
	if StressModifier(6, 0.1) != 0.7 || StressModifier(6, 0.5) != 1.0 || StressModifier(6, 0.9) != 1.5 {
		t.Fatalf("late-wave stress modifier wrong")
	}
}
