// Package spawns places hostile spawn batches around the player.
package spawns

import (
	"math"

	"hordesim.ai/internal/sim/world/logic/mathx"
)

const (
	MinDistance   = 600.0
	MaxDistance   = 900.0
	ClusterRadius = 80.0
	MinClusters   = 2
	MaxClusters   = 4

	// MinBatch is the floor on a throttled batch (15 enemies/s over 5 checks).
	MinBatch = 3
)

// Rand is the subset of *rand.Rand the planner needs.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// BatchSize rolls a batch in [lo,hi] and scales it by throttle and the
// spawn rate multiplier, never going below MinBatch.
func BatchSize(lo, hi int, throttle, multiplier float64, r Rand) int {
	if hi < lo {
		hi = lo
	}
	n := lo
	if hi > lo {
		n += r.IntN(hi - lo + 1)
	}
	scaled := int(float64(n) * throttle * multiplier)
	if scaled < MinBatch {
		scaled = MinBatch
	}
	return scaled
}

func ClusterCount(r Rand) int {
	return MinClusters + r.IntN(MaxClusters-MinClusters+1)
}

// ClusterCenter picks a point on a random bearing between MinDistance and
// MaxDistance from the player.
func ClusterCenter(player mathx.Vec2, r Rand) mathx.Vec2 {
	angle := r.Float64() * 2 * math.Pi
	dist := MinDistance + r.Float64()*(MaxDistance-MinDistance)
	return player.Add(mathx.FromAngle(angle, dist))
}

func ClusterOffset(center mathx.Vec2, r Rand) mathx.Vec2 {
	angle := r.Float64() * 2 * math.Pi
	return center.Add(mathx.FromAngle(angle, r.Float64()*ClusterRadius))
}

// Plan splits total spawns across 2-4 clusters. Remainders go to the first
// clusters so exactly total positions are returned.
func Plan(player mathx.Vec2, total int, r Rand) []mathx.Vec2 {
	if total <= 0 {
		return nil
	}
	clusters := ClusterCount(r)
	per := total / clusters
	extra := total % clusters

	out := make([]mathx.Vec2, 0, total)
	for c := 0; c < clusters; c++ {
		n := per
		if c < extra {
			n++
		}
		if n == 0 {
			continue
		}
		center := ClusterCenter(player, r)
		for i := 0; i < n; i++ {
			out = append(out, ClusterOffset(center, r))
		}
	}
	return out
}
