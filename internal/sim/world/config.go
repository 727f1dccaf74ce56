package world

import (
	"hordesim.ai/internal/sim/tuning"
	"hordesim.ai/internal/sim/world/logic/spatial"
)

type WorldConfig struct {
	ID         string
	TickRateHz int
	Seed       int64

	CellSize         float64
	ProjectilePool   int
	DamageNumberPool int

	MaxEnemies           int
	KillsPerWave         int
	SpawnRateModifier    float64
	EnemyDespawnDistance float64

	PlayerMaxHP       float64
	PlayerSpeed       float64
	PlayerOrbitRadius float64

	// Ally creature ids present at the start of every run.
	StartingAllies []string

	RateLimits RateLimitConfig
}

type RateLimitConfig struct {
	ControlWindowTicks int
	ControlMax         int
}

// ConfigFromTuning maps a validated tuning file onto a world config.
func ConfigFromTuning(id string, t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:                   id,
		TickRateHz:           t.TickRateHz,
		Seed:                 t.Seed,
		CellSize:             t.CellSize,
		ProjectilePool:       t.ProjectilePool,
		DamageNumberPool:     t.DamageNumberPool,
		MaxEnemies:           t.MaxEnemies,
		KillsPerWave:         t.KillsPerWave,
		SpawnRateModifier:    t.SpawnRateModifier,
		EnemyDespawnDistance: t.EnemyDespawnDistance,
		PlayerMaxHP:          t.PlayerMaxHP,
		PlayerSpeed:          t.PlayerSpeed,
		PlayerOrbitRadius:    t.PlayerOrbitRadius,
		StartingAllies:       append([]string(nil), t.StartingAllies...),
		RateLimits: RateLimitConfig{
			ControlWindowTicks: t.RateLimits.ControlWindowTicks,
			ControlMax:         t.RateLimits.ControlMax,
		},
	}
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "ARENA"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 30
	}
	if c.CellSize <= 0 {
		c.CellSize = spatial.CellSize
	}
	if c.ProjectilePool <= 0 {
		c.ProjectilePool = 5000
	}
	if c.DamageNumberPool <= 0 {
		c.DamageNumberPool = 500
	}
	if c.MaxEnemies <= 0 {
		c.MaxEnemies = 2000
	}
	if c.KillsPerWave <= 0 {
		c.KillsPerWave = 50
	}
	if c.SpawnRateModifier <= 0 {
		c.SpawnRateModifier = 1.0
	}
	if c.EnemyDespawnDistance <= 0 {
		c.EnemyDespawnDistance = 2500
	}
	if c.PlayerMaxHP <= 0 {
		c.PlayerMaxHP = 100
	}
	if c.PlayerSpeed <= 0 {
		c.PlayerSpeed = 300
	}
	if c.PlayerOrbitRadius <= 0 {
		c.PlayerOrbitRadius = 400
	}
	// nil means defaults; an explicit empty list starts with no allies.
	if c.StartingAllies == nil {
		c.StartingAllies = []string{"fire_imp", "ember_hound", "fire_imp"}
	}
	c.RateLimits.applyDefaults()
}

func (rl *RateLimitConfig) applyDefaults() {
	if rl.ControlWindowTicks <= 0 {
		rl.ControlWindowTicks = 30
	}
	if rl.ControlMax <= 0 {
		rl.ControlMax = 10
	}
}
