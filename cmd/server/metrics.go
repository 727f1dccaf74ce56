package main

import (
	"fmt"
	"io"

	"hordesim.ai/internal/persistence/indexdb"
	"hordesim.ai/internal/sim/world"
)

// writeMetrics renders a minimal Prometheus exposition of the world metrics.
func writeMetrics(out io.Writer, worldID string, m world.WorldMetrics, idx *indexdb.QueueStats) {
	fmt.Fprintf(out, "# HELP hordesim_world_tick Current world tick.\n")
	fmt.Fprintf(out, "# TYPE hordesim_world_tick gauge\n")
	fmt.Fprintf(out, "hordesim_world_tick{world=%q} %d\n", worldID, m.Tick)

	fmt.Fprintf(out, "# HELP hordesim_run_progress Progress of the current run.\n")
	fmt.Fprintf(out, "# TYPE hordesim_run_progress gauge\n")
	fmt.Fprintf(out, "hordesim_run_progress{world=%q,run=%q,metric=%q} %d\n", worldID, m.RunID, "wave", m.Wave)
	fmt.Fprintf(out, "hordesim_run_progress{world=%q,run=%q,metric=%q} %d\n", worldID, m.RunID, "level", m.Level)
	fmt.Fprintf(out, "hordesim_run_progress{world=%q,run=%q,metric=%q} %d\n", worldID, m.RunID, "kills", m.Kills)

	fmt.Fprintf(out, "# HELP hordesim_world_population Live actors by side.\n")
	fmt.Fprintf(out, "# TYPE hordesim_world_population gauge\n")
	fmt.Fprintf(out, "hordesim_world_population{world=%q,side=%q} %d\n", worldID, "enemy", m.Enemies)
	fmt.Fprintf(out, "hordesim_world_population{world=%q,side=%q} %d\n", worldID, "ally", m.Allies)

	fmt.Fprintf(out, "# HELP hordesim_world_observers Connected observer sessions.\n")
	fmt.Fprintf(out, "# TYPE hordesim_world_observers gauge\n")
	fmt.Fprintf(out, "hordesim_world_observers{world=%q} %d\n", worldID, m.Observers)

	paused := 0
	if m.Paused {
		paused = 1
	}
	fmt.Fprintf(out, "# HELP hordesim_world_paused 1 while the simulation clock is stopped.\n")
	fmt.Fprintf(out, "# TYPE hordesim_world_paused gauge\n")
	fmt.Fprintf(out, "hordesim_world_paused{world=%q} %d\n", worldID, paused)

	fmt.Fprintf(out, "# HELP hordesim_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(out, "# TYPE hordesim_world_queue_depth gauge\n")
	fmt.Fprintf(out, "hordesim_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "controls", m.QueueDepths.Controls)
	fmt.Fprintf(out, "hordesim_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "observer_join", m.QueueDepths.ObserverJoin)
	fmt.Fprintf(out, "hordesim_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "observer_leave", m.QueueDepths.ObserverLeave)

	fmt.Fprintf(out, "# HELP hordesim_world_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(out, "# TYPE hordesim_world_step_ms gauge\n")
	fmt.Fprintf(out, "hordesim_world_step_ms{world=%q} %.3f\n", worldID, m.StepMS)

	fmt.Fprintf(out, "# HELP hordesim_director_metric Adaptive director state.\n")
	fmt.Fprintf(out, "# TYPE hordesim_director_metric gauge\n")
	fmt.Fprintf(out, "hordesim_director_metric{world=%q,metric=%q} %.6f\n", worldID, "dps", m.DPS)
	fmt.Fprintf(out, "hordesim_director_metric{world=%q,metric=%q} %.6f\n", worldID, "stress", m.Stress)
	fmt.Fprintf(out, "hordesim_director_metric{world=%q,metric=%q} %.6f\n", worldID, "fps", m.FPS)
	fmt.Fprintf(out, "hordesim_director_metric{world=%q,metric=%q} %.6f\n", worldID, "throttle", m.Throttle)
	fmt.Fprintf(out, "hordesim_director_metric{world=%q,metric=%q} %.6f\n", worldID, "spawn_interval", m.SpawnInterval)

	fmt.Fprintf(out, "# HELP hordesim_pool_active Active entries per object pool.\n")
	fmt.Fprintf(out, "# TYPE hordesim_pool_active gauge\n")
	for _, p := range m.Pools {
		fmt.Fprintf(out, "hordesim_pool_active{world=%q,pool=%q} %d\n", worldID, p.Kind, p.Active)
	}
	fmt.Fprintf(out, "# HELP hordesim_pool_capacity Capacity per object pool.\n")
	fmt.Fprintf(out, "# TYPE hordesim_pool_capacity gauge\n")
	for _, p := range m.Pools {
		fmt.Fprintf(out, "hordesim_pool_capacity{world=%q,pool=%q} %d\n", worldID, p.Kind, p.Capacity)
	}

	sw := m.StatsWindow
	fmt.Fprintf(out, "# HELP hordesim_stats_window Rolling window combat stats.\n")
	fmt.Fprintf(out, "# TYPE hordesim_stats_window gauge\n")
	fmt.Fprintf(out, "hordesim_stats_window{world=%q,metric=%q} %d\n", worldID, "spawned", sw.Spawned)
	fmt.Fprintf(out, "hordesim_stats_window{world=%q,metric=%q} %d\n", worldID, "kills", sw.Kills)
	fmt.Fprintf(out, "hordesim_stats_window{world=%q,metric=%q} %d\n", worldID, "ally_deaths", sw.AllyDeaths)
	fmt.Fprintf(out, "hordesim_stats_window{world=%q,metric=%q} %.3f\n", worldID, "damage_dealt", sw.DamageDealt)
	fmt.Fprintf(out, "hordesim_stats_window{world=%q,metric=%q} %.3f\n", worldID, "damage_taken", sw.DamageTaken)
	for tier := 1; tier < len(sw.Crits); tier++ {
		fmt.Fprintf(out, "hordesim_stats_window{world=%q,metric=%q} %d\n", worldID, fmt.Sprintf("crits_t%d", tier), sw.Crits[tier])
	}

	fmt.Fprintf(out, "# HELP hordesim_stats_window_ticks Rolling window size in ticks.\n")
	fmt.Fprintf(out, "# TYPE hordesim_stats_window_ticks gauge\n")
	fmt.Fprintf(out, "hordesim_stats_window_ticks{world=%q} %d\n", worldID, m.StatsWindowTicks)

	if idx == nil {
		return
	}
	fmt.Fprintf(out, "# HELP hordesim_index_queue_depth Pending rows for the sqlite index.\n")
	fmt.Fprintf(out, "# TYPE hordesim_index_queue_depth gauge\n")
	fmt.Fprintf(out, "hordesim_index_queue_depth{world=%q} %d\n", worldID, idx.QueueDepth)
	fmt.Fprintf(out, "# HELP hordesim_index_dropped_total Ticks dropped because the index fell behind.\n")
	fmt.Fprintf(out, "# TYPE hordesim_index_dropped_total counter\n")
	fmt.Fprintf(out, "hordesim_index_dropped_total{world=%q} %d\n", worldID, idx.DropTickTotal)
}
