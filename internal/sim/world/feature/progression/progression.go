// Package progression tracks wave and level advancement from kill counts.
package progression

import "math"

const (
	KillsPerWave     = 50
	FirstLevelKills  = 25
	LevelKillsGrowth = 1.2
)

// Waves advances the wave counter every KillsPerWave kills.
type Waves struct {
	Current          int    `json:"current"`
	KillsAtWaveStart uint64 `json:"kills_at_wave_start"`
	KillsPerWave     uint64 `json:"kills_per_wave"`

	// Pinned disables kill-driven advancement while a wave override is set.
	Pinned bool `json:"pinned"`
}

func NewWaves(killsPerWave int) Waves {
	if killsPerWave <= 0 {
		killsPerWave = KillsPerWave
	}
	return Waves{Current: 1, KillsPerWave: uint64(killsPerWave)}
}

// Advance moves to the next wave when enough kills accrued since the wave
// started. At most one wave is gained per call.
func (w *Waves) Advance(totalKills uint64) bool {
	if w.Pinned {
		return false
	}
	if totalKills < w.KillsAtWaveStart {
		w.KillsAtWaveStart = totalKills
	}
	if totalKills-w.KillsAtWaveStart < w.KillsPerWave {
		return false
	}
	w.Current++
	w.KillsAtWaveStart = totalKills
	return true
}

// Override pins the wave. A wave <= 0 clears the override and resumes
// kill-driven advancement from the current kill count.
func (w *Waves) Override(wave int, totalKills uint64) {
	if wave <= 0 {
		w.Pinned = false
		w.KillsAtWaveStart = totalKills
		return
	}
	if w.Current != wave {
		w.Current = wave
		w.KillsAtWaveStart = totalKills
	}
	w.Pinned = true
}

// Levels tracks player level; each level costs 20% more kills than the last.
type Levels struct {
	Level        int `json:"level"`
	Kills        int `json:"kills"`
	KillsForNext int `json:"kills_for_next"`
}

func NewLevels() Levels {
	return Levels{Level: 1, KillsForNext: FirstLevelKills}
}

// AddKills credits kills and returns how many levels were gained. Overflow
// kills carry into the next level.
func (l *Levels) AddKills(n int) int {
	if n <= 0 {
		return 0
	}
	if l.KillsForNext <= 0 {
		l.KillsForNext = FirstLevelKills
	}
	l.Kills += n
	gained := 0
	for l.Kills >= l.KillsForNext {
		l.Kills -= l.KillsForNext
		l.Level++
		l.KillsForNext = int(math.Ceil(float64(l.KillsForNext) * LevelKillsGrowth))
		gained++
	}
	return gained
}

// Progress is the fraction of the way to the next level.
func (l Levels) Progress() float64 {
	if l.KillsForNext <= 0 {
		return 0
	}
	return math.Min(float64(l.Kills)/float64(l.KillsForNext), 1)
}
