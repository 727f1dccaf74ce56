package director

// Wave scaling tables. All functions treat wave < 1 as wave 1.

// BatchRange is the inclusive range of enemies spawned per spawn event.
type BatchRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

var earlyTargets = [10]int{15, 25, 40, 60, 85, 115, 150, 190, 235, 285}

func normWave(wave int) int {
	if wave < 1 {
		return 1
	}
	return wave
}

// TargetEnemyCount is the desired live hostile population for a wave.
func TargetEnemyCount(wave int) int {
	w := normWave(wave)
	switch {
	case w <= 10:
		return earlyTargets[w-1]
	case w <= 15:
		return 300 + (w-10)*100
	case w <= 20:
		return 800 + (w-15)*200
	case w <= 30:
		return 1800 + (w-20)*300
	default:
		return 5000 + (w-30)*100
	}
}

func EnemiesPerSpawn(wave int) BatchRange {
	w := normWave(wave)
	switch {
	case w <= 5:
		return BatchRange{Min: 3, Max: 6}
	case w <= 10:
		return BatchRange{Min: 5, Max: 10}
	case w <= 15:
		return BatchRange{Min: 10, Max: 20}
	case w <= 20:
		return BatchRange{Min: 20, Max: 40}
	case w <= 30:
		return BatchRange{Min: 40, Max: 70}
	default:
		return BatchRange{Min: 70, Max: 110}
	}
}

func EliteChance(wave int) float64 {
	w := normWave(wave)
	switch {
	case w <= 5:
		return 0.02
	case w <= 10:
		return 0.05
	case w <= 15:
		return 0.10
	case w <= 20:
		return 0.15
	default:
		return 0.20
	}
}

func HPScale(wave int) float64 {
	return 1.0 + float64(normWave(wave)-1)*0.08
}

// BaseInterval is the unmodified seconds between spawn events for a wave.
func BaseInterval(wave int) float64 {
	w := normWave(wave)
	switch {
	case w <= 5:
		return 1.5
	case w <= 10:
		return 1.0
	case w <= 15:
		return 0.7
	case w <= 20:
		return 0.4
	default:
		return 0.2
	}
}

// RatioModifier slows spawning as the live population approaches or passes target.
func RatioModifier(alive, target int) float64 {
	if target <= 0 {
		return 2.5
	}
	r := float64(alive) / float64(target)
	switch {
	case r < 0.5:
		return 0.7
	case r < 1.0:
		return 1.0
	case r < 1.5:
		return 1.5
	default:
		return 2.5
	}
}

// StressModifier only reacts to extreme stress in the first five waves.
func StressModifier(wave int, stress float64) float64 {
	if normWave(wave) <= 5 {
		if stress > 0.8 {
			return 1.3
		}
		return 1.0
	}
	switch {
	case stress < 0.3:
		return 0.7
	case stress > 0.7:
		return 1.5
	default:
		return 1.0
	}
}
