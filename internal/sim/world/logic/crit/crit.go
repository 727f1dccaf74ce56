// Package crit resolves tiered critical hits for a single damage instance.
package crit

import (
	"math"
	"math/rand/v2"
)

type Tier uint8

const (
	TierNone Tier = iota
	TierNormal
	TierMega
	TierSuper
)

// MaxDamage caps Super crit output.
const MaxDamage = 1e15

func (t Tier) Value() int { return int(t) }

func (t Tier) String() string {
	switch t {
	case TierNormal:
		return "NORMAL"
	case TierMega:
		return "MEGA"
	case TierSuper:
		return "SUPER"
	default:
		return "NONE"
	}
}

type Result struct {
	Tier        Tier    `json:"tier"`
	FinalDamage float64 `json:"final_damage"`
	BaseDamage  float64 `json:"base_damage"`
}

func (r Result) IsCrit() bool { return r.Tier != TierNone }

// Roller yields uniform values in [0,1).
type Roller interface {
	Float64() float64
}

type globalRoller struct{}

func (globalRoller) Float64() float64 { return rand.Float64() }

// Resolve rolls against the process-wide random source.
func Resolve(base, chanceT1, chanceT2, chanceT3 float64) Result {
	return ResolveWith(globalRoller{}, base, chanceT1, chanceT2, chanceT3)
}

// ResolveWith draws three independent percentages and applies the highest
// tier that succeeded. Chances are percentages; any value is accepted.
func ResolveWith(r Roller, base, chanceT1, chanceT2, chanceT3 float64) Result {
	roll1 := r.Float64() * 100
	roll2 := r.Float64() * 100
	roll3 := r.Float64() * 100

	res := Result{Tier: TierNone, FinalDamage: base, BaseDamage: base}
	switch {
	case roll3 < chanceT3:
		res.Tier = TierSuper
		res.FinalDamage = math.Min(base*base*base*base, MaxDamage)
	case roll2 < chanceT2:
		res.Tier = TierMega
		res.FinalDamage = base * base
	case roll1 < chanceT1:
		res.Tier = TierNormal
		res.FinalDamage = base * 2
		if chanceT1 > 100 {
			// Overflow above 100% buys a chance at a second doubling.
			if r.Float64()*100 < chanceT1-100 {
				res.FinalDamage *= 2
			}
		}
	}
	return res
}
