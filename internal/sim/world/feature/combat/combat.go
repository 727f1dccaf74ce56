// Package combat holds the per-hit rules shared by ally and hostile attacks.
package combat

import (
	"fmt"

	"hordesim.ai/internal/sim/world/logic/mathx"
)

const (
	MeleeRange    = 50.0
	AssassinRange = 60.0

	EnemyAttackRange  = 40.0
	EnemyContactRange = 35.0
	ContactDamageMul  = 0.5
	InvincibilitySecs = 0.5

	ProjectileSpeed        = 500.0
	ProjectileHitRadius    = 20.0
	ProjectileLifetime     = 1.0
	ProjectileMaxLifetime  = 3.0
	ProjectileDespawnRange = 1200.0

	DamageNumberLifetime = 0.8
	DamageNumberRise     = 60.0

	EliteHPMul     = 3.0
	EliteDamageMul = 1.5
)

// AttackInterval converts attacks per second into seconds between attacks.
// Non-positive rates fall back to one attack per second.
func AttackInterval(attacksPerSecond float64) float64 {
	if attacksPerSecond <= 0 {
		return 1.0
	}
	return 1.0 / attacksPerSecond
}

// RangeFor resolves the effective attack range for an ally role.
func RangeFor(kind string, dataRange float64) float64 {
	switch kind {
	case "melee":
		return MeleeRange
	case "assassin":
		return AssassinRange
	default:
		if dataRange <= 0 {
			return MeleeRange
		}
		return dataRange
	}
}

// ProjectileLifetimeFor gives penetrating shots longer to pass through a crowd.
func ProjectileLifetimeFor(penetration int) float64 {
	if penetration > 1 {
		return ProjectileMaxLifetime
	}
	return ProjectileLifetime
}

// Cooldown is a repeating attack timer.
type Cooldown struct {
	Interval float64 `json:"interval"`
	Elapsed  float64 `json:"elapsed"`
}

func NewCooldown(attacksPerSecond float64) Cooldown {
	return Cooldown{Interval: AttackInterval(attacksPerSecond)}
}

// Tick advances the timer and reports whether it fired this step. At most one
// firing is reported per call; surplus time carries over.
func (c *Cooldown) Tick(dt float64) bool {
	if c.Interval <= 0 {
		c.Interval = 1.0
	}
	c.Elapsed += dt
	if c.Elapsed < c.Interval {
		return false
	}
	c.Elapsed -= c.Interval
	if c.Elapsed > c.Interval {
		c.Elapsed = c.Interval
	}
	return true
}

// Nearest returns the candidate closest to from within maxRange. Spatial
// queries are over-inclusive, so this is the exact distance filter.
func Nearest(from mathx.Vec2, maxRange float64, candidates []uint32, posOf func(uint32) (mathx.Vec2, bool)) (uint32, float64, bool) {
	var (
		best   uint32
		bestD2 float64
		found  bool
	)
	r2 := maxRange * maxRange
	for _, h := range candidates {
		p, ok := posOf(h)
		if !ok {
			continue
		}
		d2 := from.DistSq(p)
		if d2 > r2 {
			continue
		}
		if !found || d2 < bestD2 {
			best, bestD2, found = h, d2, true
		}
	}
	return best, bestD2, found
}

// ScaleEnemy applies wave health scaling and elite multipliers.
func ScaleEnemy(baseHP, baseDamage, hpScale float64, elite bool) (hp, damage float64) {
	hp = baseHP * hpScale
	damage = baseDamage
	if elite {
		hp *= EliteHPMul
		damage *= EliteDamageMul
	}
	return hp, damage
}

// FormatDamage renders a hit for floating combat text.
func FormatDamage(d float64) string {
	switch {
	case d >= 1_000_000:
		return fmt.Sprintf("%.2e", d)
	case d >= 1000:
		return fmt.Sprintf("%.1fk", d/1000)
	default:
		return fmt.Sprintf("%.0f", d)
	}
}
