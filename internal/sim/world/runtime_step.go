package world

import (
	"time"

	"hordesim.ai/internal/protocol"
	"hordesim.ai/internal/sim/world/feature/director"
	"hordesim.ai/internal/sim/world/logic/pool"
)

// ReferenceFPS is the frame rate a tick loop that keeps up with its ticker
// reports to the director. The director's thresholds are frame-rate based, so
// tick lag is scaled onto this reference.
const ReferenceFPS = 60.0

// TickInput is everything a tick consumes from outside the world.
type TickInput struct {
	// DeltaSeconds defaults to 1/TickRateHz.
	DeltaSeconds float64
	// FPS is the frame rate fed to the director. Zero means ReferenceFPS.
	FPS      float64
	Controls []ControlRequest
}

func (w *World) stepInternal(in TickInput) TickLogEntry {
	stepStart := time.Now()
	nowTick := w.tick.Load()

	dt := in.DeltaSeconds
	if dt <= 0 {
		dt = 1.0 / float64(w.cfg.TickRateHz)
	}
	fps := in.FPS
	if fps <= 0 {
		fps = ReferenceFPS
	}

	// Controls land at the tick boundary, before any system runs.
	controls := w.applyControls(nowTick, in.Controls)

	if !w.settings.Paused {
		w.simTime += dt
		w.systemTelemetry(dt, fps)
		w.systemSpawn(nowTick, dt)
		w.systemMovement(dt)
		w.rebuildSpatial()
		w.systemCombat(nowTick, dt)
		w.systemCleanup(nowTick, dt)
	}

	entry := TickLogEntry{
		RunID:        w.RunID(),
		Tick:         nowTick,
		DeltaSeconds: dt,
		InputFPS:     fps,
		Stats:        w.tickStats(),
		Controls:     controls,
		Events:       w.cur.events,
		Pools:        []pool.Usage{w.projectilePool.Usage(), w.damageNumberPool.Usage()},
	}
	entry.StepMS = float64(time.Since(stepStart).Microseconds()) / 1000.0

	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(entry)
	}
	w.stepObservers(entry)

	nextTick := w.tick.Add(1)
	w.metrics.Store(WorldMetrics{
		Tick:      nextTick,
		RunID:     entry.RunID,
		Wave:      entry.Stats.Wave,
		Level:     entry.Stats.Level,
		Kills:     entry.Stats.Kills,
		Enemies:   entry.Stats.Enemies,
		Allies:    entry.Stats.Allies,
		Observers: len(w.observers),
		Paused:    w.settings.Paused,
		QueueDepths: QueueDepths{
			Controls:      len(w.controls),
			ObserverJoin:  len(w.observerJoin),
			ObserverLeave: len(w.observerLeave),
		},
		StepMS:           entry.StepMS,
		DPS:              entry.Stats.DPS,
		Stress:           entry.Stats.Stress,
		FPS:              entry.Stats.FPS,
		Throttle:         entry.Stats.Throttle,
		SpawnInterval:    entry.Stats.SpawnInterval,
		Pools:            entry.Pools,
		StatsWindowTicks: w.stats.WindowTicks(),
		StatsWindow:      w.stats.Summarize(nowTick),
	})

	w.cur = tickCounters{}
	return entry
}

func (w *World) tickStats() protocol.TickStats {
	d := w.director
	return protocol.TickStats{
		SimTime:             w.simTime,
		Wave:                w.waves.Current,
		Level:               w.levels.Level,
		Kills:               w.kills,
		Paused:              w.settings.Paused,
		Enemies:             len(w.enemies),
		EnemyTarget:         director.TargetEnemyCount(w.waves.Current),
		Allies:              w.aliveAllies(),
		PendingAlly:         w.respawns.Len(),
		PlayerHP:            w.player.HP,
		DPS:                 d.PlayerDPS,
		Stress:              d.StressLevel,
		FPS:                 d.CurrentFPS,
		Throttle:            d.PerformanceThrottle,
		SpawnInterval:       d.SpawnInterval(w.waves.Current),
		Spawned:             w.cur.spawned,
		Despawned:           w.cur.despawned,
		Hits:                w.cur.hits,
		Crits:               w.cur.crits,
		Deaths:              w.cur.deaths,
		ProjectilesActive:   w.projectilePool.ActiveCount(),
		DamageNumbersActive: w.damageNumberPool.ActiveCount(),
		PoolExhausted:       w.cur.poolExhausted,
		GridCells:           w.enemyGrid.CellCount(),
	}
}

func (w *World) aliveAllies() int {
	n := 0
	for _, a := range w.allies {
		if a.Alive {
			n++
		}
	}
	return n
}

// systemTelemetry is phase 1: feed population, health and frame timing to
// the director.
func (w *World) systemTelemetry(dt, fps float64) {
	var hp, maxHP float64
	n := 0
	for _, a := range w.allies {
		if !a.Alive {
			continue
		}
		n++
		hp += a.HP
		maxHP += a.MaxHP
	}
	before := w.director.PerformanceThrottle
	w.director.Observe(director.Telemetry{
		Now:          w.simTime,
		DeltaSeconds: dt,
		FPS:          fps,
		AllyCount:    n,
		AllyHP:       hp,
		AllyMaxHP:    maxHP,
		EnemiesAlive: len(w.enemies),
	})
	if after := w.director.PerformanceThrottle; after != before {
		w.cur.events = append(w.cur.events, RunEvent{Kind: EventThrottle, Value: after})
		w.log.Printf("throttle %.2f -> %.2f fps=%.1f enemies=%d", before, after, fps, len(w.enemies))
	}
}
