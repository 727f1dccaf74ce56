package director

// Telemetry is the per-tick snapshot the world hands to the director.
type Telemetry struct {
	Now          float64
	DeltaSeconds float64
	FPS          float64

	AllyCount    int
	AllyHP       float64
	AllyMaxHP    float64
	EnemiesAlive int
}

// Observe runs the telemetry phase of a tick: population and health first,
// then stress, DPS and frame-rate throttling.
func (d *Director) Observe(t Telemetry) {
	d.CreatureCount = t.AllyCount
	if t.AllyMaxHP > 0 {
		d.TotalCreatureHPPercent = t.AllyHP / t.AllyMaxHP
	} else {
		d.TotalCreatureHPPercent = 1.0
	}
	d.EnemiesAlive = t.EnemiesAlive

	d.CalculateStress()
	d.UpdateDPS(t.Now)
	if t.FPS > 0 {
		d.UpdatePerformance(t.FPS, t.DeltaSeconds)
	}
}

// Decision bundles everything the spawner needs for one wave.
type Decision struct {
	Wave        int        `json:"wave"`
	Interval    float64    `json:"interval"`
	Batch       BatchRange `json:"batch"`
	EliteChance float64    `json:"elite_chance"`
	HPScale     float64    `json:"hp_scale"`
	Target      int        `json:"target"`
	Throttle    float64    `json:"throttle"`
}

func (d *Director) Decide(wave int) Decision {
	return Decision{
		Wave:        wave,
		Interval:    d.SpawnInterval(wave),
		Batch:       EnemiesPerSpawn(wave),
		EliteChance: EliteChance(wave),
		HPScale:     HPScale(wave),
		Target:      TargetEnemyCount(wave),
		Throttle:    d.PerformanceThrottle,
	}
}
