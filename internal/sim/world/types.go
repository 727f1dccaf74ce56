package world

import (
	"hordesim.ai/internal/sim/catalogs"
	"hordesim.ai/internal/sim/world/feature/combat"
	"hordesim.ai/internal/sim/world/feature/progression"
	"hordesim.ai/internal/sim/world/logic/crit"
	"hordesim.ai/internal/sim/world/logic/mathx"
)

// ActorID is a stable per-run handle for allies and enemies. IDs are never
// reused within a run.
type ActorID uint32

type Player struct {
	Pos    mathx.Vec2 `json:"pos"`
	HP     float64    `json:"hp"`
	MaxHP  float64    `json:"max_hp"`
	Angle  float64    `json:"angle"`
	Invuln float64    `json:"invuln"`
}

type Ally struct {
	ID    ActorID
	DefID uint16
	Def   catalogs.CreatureDef

	Pos   mathx.Vec2
	HP    float64
	MaxHP float64
	Alive bool

	// Damage is the base hit before bonuses; creature levels raise it.
	Damage float64
	XP     progression.CreatureXP

	// Slot is the ally's angle on the ring around the player.
	Slot     float64
	Cooldown combat.Cooldown
	Target   ActorID
}

type Enemy struct {
	ID    ActorID
	DefID uint16
	Def   catalogs.EnemyDef

	Pos    mathx.Vec2
	HP     float64
	MaxHP  float64
	Damage float64
	Elite  bool
	Alive  bool

	// KilledBy is the ally credited with the kill, or 0.
	KilledBy ActorID

	Cooldown combat.Cooldown
}

// Projectile lives in a slab indexed by its pool handle.
type Projectile struct {
	Owner ActorID
	Pos   mathx.Vec2
	Vel   mathx.Vec2
	Life  float64

	Damage      float64
	Chances     [3]float64
	Penetration int
	// Hits lists every enemy this shot already damaged. Its backing array is
	// kept across reuse of the pool slot.
	Hits []ActorID
	Done bool
}

func (p *Projectile) alreadyHit(id ActorID) bool {
	for _, h := range p.Hits {
		if h == id {
			return true
		}
	}
	return false
}

type DamageNumber struct {
	Pos  mathx.Vec2
	Text string
	Tier crit.Tier
	Age  float64
}

// Settings are the runtime knobs adjustable through CONTROL messages.
// They survive run restarts.
type Settings struct {
	SpawnMultiplier float64
	MaxEnemies      int
	Paused          bool
	GodMode         bool
	AllyDamageMul   float64
	EnemyDamageMul  float64
	WaveOverride    int
	// CritBonus is added to an ally's crit chance, indexed by tier (1..3).
	CritBonus [4]float64
}

func defaultSettings(cfg WorldConfig) Settings {
	return Settings{
		SpawnMultiplier: 1,
		MaxEnemies:      cfg.MaxEnemies,
		AllyDamageMul:   1,
		EnemyDamageMul:  1,
	}
}

// RunEvent marks a run-level transition inside a tick.
type RunEvent struct {
	Kind  string  `json:"kind"`
	Wave  int     `json:"wave,omitempty"`
	Level int     `json:"level,omitempty"`
	Value float64 `json:"value,omitempty"`
	// Ref names the creature or artifact involved, if any.
	Ref string `json:"ref,omitempty"`
}

const (
	EventWave      = "WAVE"
	EventLevel     = "LEVEL"
	EventThrottle  = "THROTTLE"
	EventRunStart  = "RUN_START"
	EventRunEnd    = "RUN_END"
	EventArtifact  = "ARTIFACT"
	EventAllyLevel = "ALLY_LEVEL"
	EventEvolve    = "EVOLVE"
)
