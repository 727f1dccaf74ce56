package world

import (
	"hordesim.ai/internal/sim/world/feature/director"
	"hordesim.ai/internal/sim/world/logic/pool"
)

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick  uint64 `json:"tick"`
	RunID string `json:"run_id"`

	Wave      int    `json:"wave"`
	Level     int    `json:"level"`
	Kills     uint64 `json:"kills"`
	Enemies   int    `json:"enemies"`
	Allies    int    `json:"allies"`
	Observers int    `json:"observers"`
	Paused    bool   `json:"paused"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS        float64 `json:"step_ms"`
	DPS           float64 `json:"dps"`
	Stress        float64 `json:"stress"`
	FPS           float64 `json:"fps"`
	Throttle      float64 `json:"throttle"`
	SpawnInterval float64 `json:"spawn_interval"`

	Pools []pool.Usage `json:"pools"`

	StatsWindowTicks uint64               `json:"stats_window_ticks"`
	StatsWindow      director.StatsBucket `json:"stats_window"`
}

type QueueDepths struct {
	Controls      int `json:"controls"`
	ObserverJoin  int `json:"observer_join"`
	ObserverLeave int `json:"observer_leave"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}
