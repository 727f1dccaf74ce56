// Package respawn queues fallen allies until their tier-based timer elapses.
package respawn

// TimeForTier returns the respawn delay in seconds for an ally tier.
func TimeForTier(tier int) float64 {
	switch tier {
	case 1:
		return 20
	case 2:
		return 30
	case 3:
		return 45
	default:
		return 60
	}
}

// Delay prefers an explicit per-unit respawn time over the tier default.
func Delay(tier int, override float64) float64 {
	if override > 0 {
		return override
	}
	return TimeForTier(tier)
}

type Entry struct {
	CreatureID string  `json:"creature_id"`
	Tier       int     `json:"tier"`
	Remaining  float64 `json:"remaining"`
}

// Queue holds pending respawns in death order.
type Queue struct {
	entries []Entry
}

func (q *Queue) Push(e Entry) { q.entries = append(q.entries, e) }
func (q *Queue) Len() int     { return len(q.entries) }

// Tick advances every timer by dt and returns the entries that finished, in
// the order they were queued.
func (q *Queue) Tick(dt float64) []Entry {
	if len(q.entries) == 0 {
		return nil
	}
	var done []Entry
	keep := q.entries[:0]
	for _, e := range q.entries {
		e.Remaining -= dt
		if e.Remaining <= 0 {
			done = append(done, e)
			continue
		}
		keep = append(keep, e)
	}
	q.entries = keep
	return done
}

func (q *Queue) Reset() { q.entries = q.entries[:0] }
