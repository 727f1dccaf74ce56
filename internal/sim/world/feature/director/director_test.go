package director

import (
	"math"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	d := New()
	if d.EnemiesAlive != 0 || d.SpawnRateModifier != 1.0 || d.PerformanceThrottle != 1.0 {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if d.TotalCreatureHPPercent != 1.0 || d.StressLevel != 0.5 || d.CurrentFPS != 60 {
		t.Fatalf("unexpected defaults: %+v", d)
	}
}

func TestUpdateDPS(t *testing.T) {
	d := New()
	d.RecordDamage(30, 0.0)
	d.RecordDamage(60, 1.0)
	d.UpdateDPS(2.0)
	if d.PlayerDPS != 30 {
		t.Fatalf("expected dps 30, got %v", d.PlayerDPS)
	}
	d.UpdateDPS(3.0)
	if d.PlayerDPS != 20 || d.DamageSamples() != 1 {
		t.Fatalf("expected first sample evicted at age 3.0, dps=%v samples=%d", d.PlayerDPS, d.DamageSamples())
	}
	d.UpdateDPS(10)
	if d.PlayerDPS != 0 {
		t.Fatalf("expected zero dps, got %v", d.PlayerDPS)
	}
}

func TestCalculateStress(t *testing.T) {
	d := New()
	d.CreatureCount = 0
	d.TotalCreatureHPPercent = 0
	d.EnemiesAlive = 5000
	d.CalculateStress()
	if d.StressLevel != 1 {
		t.Fatalf("expected max stress, got %v", d.StressLevel)
	}

	d.CreatureCount = 10
	d.TotalCreatureHPPercent = 1
	d.EnemiesAlive = 0
	d.CalculateStress()
	if math.Abs(d.StressLevel-0.03) > 1e-9 {
		t.Fatalf("expected 0.03, got %v", d.StressLevel)
	}

	d.TotalCreatureHPPercent = 3 // corrupt input still clamps
	d.CalculateStress()
	if d.StressLevel != 0 {
		t.Fatalf("expected clamp to 0, got %v", d.StressLevel)
	}
}

func TestUpdatePerformanceHysteresis(t *testing.T) {
	d := New()
	// 0.5 is exact in binary, so six steps land on 3.0 exactly.
	for i := 0; i < 6; i++ {
		d.UpdatePerformance(15, 0.5)
	}
	if d.LowFPSDuration != LowFPSGraceSecs || d.PerformanceThrottle != ThrottleNone {
		t.Fatalf("exactly 3s of low fps must not throttle, got %v (dur=%v)", d.PerformanceThrottle, d.LowFPSDuration)
	}
	d.UpdatePerformance(15, 0.5)
	if d.PerformanceThrottle != ThrottleSevere {
		t.Fatalf("expected throttle 0.5 after sustained low fps, got %v (dur=%v)", d.PerformanceThrottle, d.LowFPSDuration)
	}
	d.UpdatePerformance(50, 0.02)
	if d.PerformanceThrottle != ThrottleNone || d.LowFPSDuration != 0 {
		t.Fatalf("expected immediate recovery, got throttle=%v dur=%v", d.PerformanceThrottle, d.LowFPSDuration)
	}
}

func TestUpdatePerformanceMildAndDeadBand(t *testing.T) {
	d := New()
	for i := 0; i < 40; i++ {
		d.UpdatePerformance(25, 0.1)
	}
	if d.PerformanceThrottle != ThrottleMild {
		t.Fatalf("expected 0.75, got %v", d.PerformanceThrottle)
	}
	d.UpdatePerformance(40, 0.1)
	if d.PerformanceThrottle != ThrottleMild {
		t.Fatalf("fps between thresholds should keep throttle, got %v", d.PerformanceThrottle)
	}

	fresh := New()
	for i := 0; i < 12; i++ {
		fresh.UpdatePerformance(10, 0.25)
	}
	if fresh.PerformanceThrottle != ThrottleNone {
		t.Fatalf("throttle should not drop at 3s, got %v", fresh.PerformanceThrottle)
	}
	fresh.UpdatePerformance(10, 0.25)
	if fresh.PerformanceThrottle != ThrottleSevere {
		t.Fatalf("throttle should drop past 3s, got %v", fresh.PerformanceThrottle)
	}
}

func TestSpawnIntervalBounds(t *testing.T) {
	d := New()
	throttles := []float64{ThrottleSevere, ThrottleMild, ThrottleNone}
	for wave := 1; wave <= 60; wave++ {
		for _, alive := range []int{0, 10, 100, 1000, 10000} {
			for s := 0.0; s <= 1.0; s += 0.05 {
				for _, th := range throttles {
					d.EnemiesAlive = alive
					d.StressLevel = s
					d.PerformanceThrottle = th
					got := d.SpawnInterval(wave)
					if got < MinInterval || got > MaxInterval {
						t.Fatalf("interval %v out of range (wave=%d alive=%d stress=%v throttle=%v)", got, wave, alive, s, th)
					}
				}
			}
		}
	}
}

func TestSpawnIntervalComposition(t *testing.T) {
	d := New()
	d.EnemiesAlive = 0
	d.StressLevel = 0.5
	// wave 1: 1.5 * 0.7 * 1.0 = 1.05
	if got := d.SpawnInterval(1); math.Abs(got-1.05) > 1e-9 {
		t.Fatalf("expected 1.05, got %v", got)
	}
	d.PerformanceThrottle = ThrottleSevere
	if got := d.SpawnInterval(1); math.Abs(got-2.1) > 1e-9 {
		t.Fatalf("expected throttle to double interval, got %v", got)
	}
	d.SpawnRateModifier = 0
	if got := d.SpawnInterval(1); got != MaxInterval {
		t.Fatalf("zero modifier should stall at max interval, got %v", got)
	}
}

func TestObserve(t *testing.T) {
	d := New()
	d.RecordDamage(90, 0.5)
	d.Observe(Telemetry{Now: 1, DeltaSeconds: 0.016, FPS: 60, AllyCount: 4, AllyHP: 50, AllyMaxHP: 100, EnemiesAlive: 500})
	if d.TotalCreatureHPPercent != 0.5 || d.CreatureCount != 4 || d.EnemiesAlive != 500 {
		t.Fatalf("telemetry not applied: %+v", d)
	}
	// 0.4*0.5 + 0.3*0.25 + 0.3*0.5
	if math.Abs(d.StressLevel-0.425) > 1e-9 {
		t.Fatalf("stress=%v", d.StressLevel)
	}
	if d.PlayerDPS != 30 || d.CurrentFPS != 60 {
		t.Fatalf("dps=%v fps=%v", d.PlayerDPS, d.CurrentFPS)
	}

	d.Observe(Telemetry{Now: 2, AllyCount: 0, EnemiesAlive: 0})
	if d.TotalCreatureHPPercent != 1.0 {
		t.Fatalf("no allies should report full hp, got %v", d.TotalCreatureHPPercent)
	}
}

func TestDecide(t *testing.T) {
	d := New()
	dec := d.Decide(12)
	if dec.Target != 500 || dec.Batch.Min != 10 || dec.EliteChance != 0.10 || dec.Throttle != 1.0 {
		t.Fatalf("unexpected decision: %+v", dec)
	}
}
