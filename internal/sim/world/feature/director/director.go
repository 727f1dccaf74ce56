// Package director adapts hostile spawn pacing to live telemetry: player
// damage output, ally health, hostile population and frame rate.
package director

import (
	"math"

	"hordesim.ai/internal/sim/world/logic/mathx"
	"hordesim.ai/internal/sim/world/logic/rates"
)

const (
	DamageWindowSeconds = 3.0

	LowFPS          = 30.0
	SevereFPS       = 20.0
	RecoveredFPS    = 45.0
	LowFPSGraceSecs = 3.0

	ThrottleNone   = 1.0
	ThrottleMild   = 0.75
	ThrottleSevere = 0.5

	MinInterval = 0.15
	MaxInterval = 3.0

	StressEnemyCap = 1000.0
)

// Director is created once per run and mutated in place by the tick loop.
type Director struct {
	PlayerDPS float64 `json:"player_dps"`

	CreatureCount          int     `json:"creature_count"`
	TotalCreatureHPPercent float64 `json:"total_creature_hp_percent"`
	EnemiesAlive           int     `json:"enemies_alive"`

	StressLevel       float64 `json:"stress_level"`
	SpawnRateModifier float64 `json:"spawn_rate_modifier"`

	CurrentFPS          float64 `json:"current_fps"`
	LowFPSDuration      float64 `json:"low_fps_duration"`
	PerformanceThrottle float64 `json:"performance_throttle"`

	damage rates.Window
}

func New() *Director {
	d := &Director{}
	d.Reset()
	return d
}

// Reset restores run-start values.
func (d *Director) Reset() {
	d.damage.Reset()
	d.PlayerDPS = 0
	d.CreatureCount = 0
	d.TotalCreatureHPPercent = 1.0
	d.EnemiesAlive = 0
	d.StressLevel = 0.5
	d.SpawnRateModifier = 1.0
	d.CurrentFPS = 60
	d.LowFPSDuration = 0
	d.PerformanceThrottle = ThrottleNone
}

// RecordDamage appends one hit. Eviction happens in UpdateDPS.
func (d *Director) RecordDamage(amount, ts float64) {
	d.damage.Push(amount, ts)
}

func (d *Director) DamageSamples() int { return d.damage.Len() }

func (d *Director) UpdateDPS(now float64) {
	d.damage.Evict(now, DamageWindowSeconds)
	dps := d.damage.Sum() / DamageWindowSeconds
	if dps < 0 || math.IsNaN(dps) {
		dps = 0
	}
	d.PlayerDPS = dps
}

func (d *Director) CalculateStress() {
	hpStress := 1 - d.TotalCreatureHPPercent
	creatureStress := 1.0
	if d.CreatureCount > 0 {
		creatureStress = math.Min(1/float64(d.CreatureCount), 1)
	}
	enemyStress := math.Min(float64(d.EnemiesAlive)/StressEnemyCap, 1)
	d.StressLevel = mathx.Clamp01(0.4*hpStress + 0.3*creatureStress + 0.3*enemyStress)
}

// UpdatePerformance degrades slowly and recovers immediately: the throttle
// only drops after LowFPSGraceSecs of sustained low frame rate, but a single
// frame above RecoveredFPS restores it.
func (d *Director) UpdatePerformance(fps, dt float64) {
	d.CurrentFPS = fps
	switch {
	case fps < LowFPS:
		d.LowFPSDuration += dt
		if d.LowFPSDuration > LowFPSGraceSecs {
			if fps < SevereFPS {
				d.PerformanceThrottle = ThrottleSevere
			} else {
				d.PerformanceThrottle = ThrottleMild
			}
		}
	case fps > RecoveredFPS:
		d.LowFPSDuration = 0
		d.PerformanceThrottle = ThrottleNone
	}
}

// SpawnInterval is the number of seconds until the next spawn check.
func (d *Director) SpawnInterval(wave int) float64 {
	if d.SpawnRateModifier <= 0 || d.PerformanceThrottle <= 0 {
		return MaxInterval
	}
	interval := BaseInterval(wave) *
		RatioModifier(d.EnemiesAlive, TargetEnemyCount(wave)) *
		StressModifier(wave, d.StressLevel) /
		d.SpawnRateModifier /
		d.PerformanceThrottle
	if math.IsNaN(interval) {
		return MaxInterval
	}
	return mathx.Clamp(interval, MinInterval, MaxInterval)
}
