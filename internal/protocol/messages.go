package protocol

// HELLO (client -> server, control channel)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	MaxQueue        int    `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	RunID           string         `json:"run_id"`
	Tick            uint64         `json:"tick"`
	WorldParams     WorldParams    `json:"world_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type WorldParams struct {
	TickRateHz       int     `json:"tick_rate_hz"`
	Seed             int64   `json:"seed"`
	CellSize         float64 `json:"cell_size"`
	MaxEnemies       int     `json:"max_enemies"`
	KillsPerWave     int     `json:"kills_per_wave"`
	ProjectilePool   int     `json:"projectile_pool"`
	DamageNumberPool int     `json:"damage_number_pool"`
}

type CatalogDigests struct {
	CreaturesDigest   string `json:"creatures_digest"`
	EnemiesDigest     string `json:"enemies_digest"`
	ProgressionDigest string `json:"progression_digest,omitempty"`
	TuningDigest      string `json:"tuning_digest,omitempty"`
}

// Control operations.
const (
	OpSetSpawnRate      = "SET_SPAWN_RATE"
	OpSetWave           = "SET_WAVE"
	OpClearWave         = "CLEAR_WAVE_OVERRIDE"
	OpSetMaxEnemies     = "SET_MAX_ENEMIES"
	OpPause             = "PAUSE"
	OpResume            = "RESUME"
	OpSetGodMode        = "SET_GOD_MODE"
	OpSetAllyDamageMul  = "SET_ALLY_DAMAGE_MULTIPLIER"
	OpSetEnemyDamageMul = "SET_ENEMY_DAMAGE_MULTIPLIER"
	OpSetCritBonus      = "SET_CRIT_BONUS"
	OpResetRun          = "RESET_RUN"
)

// CONTROL (client -> server). Which fields matter depends on Op.
type ControlMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ControlID       string  `json:"control_id"`
	Op              string  `json:"op"`
	Value           float64 `json:"value"`
	Tier            int     `json:"tier,omitempty"`
	Enabled         bool    `json:"enabled,omitempty"`
}

// ACK (server -> client). Code is empty on success.
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ControlID       string `json:"control_id"`
	Tick            uint64 `json:"tick"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}

// SUBSCRIBE (observer -> server)
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	EveryNTicks     int    `json:"every_n_ticks,omitempty"`
}

// TELEMETRY (server -> observer)
type TelemetryMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	RunID           string    `json:"run_id"`
	Tick            uint64    `json:"tick"`
	Stats           TickStats `json:"stats"`
}

// TickStats is the per-tick simulation summary shared by telemetry and tick logs.
type TickStats struct {
	SimTime float64 `json:"sim_time"`
	Wave    int     `json:"wave"`
	Level   int     `json:"level"`
	Kills   uint64  `json:"kills"`
	Paused  bool    `json:"paused,omitempty"`

	Enemies     int     `json:"enemies"`
	EnemyTarget int     `json:"enemy_target"`
	Allies      int     `json:"allies"`
	PendingAlly int     `json:"pending_allies"`
	PlayerHP    float64 `json:"player_hp"`

	DPS           float64 `json:"dps"`
	Stress        float64 `json:"stress"`
	FPS           float64 `json:"fps"`
	Throttle      float64 `json:"throttle"`
	SpawnInterval float64 `json:"spawn_interval"`

	Spawned   int    `json:"spawned"`
	Despawned int    `json:"despawned"`
	Hits      int    `json:"hits"`
	Crits     [4]int `json:"crits"`
	Deaths    int    `json:"deaths"`

	ProjectilesActive   int `json:"projectiles_active"`
	DamageNumbersActive int `json:"damage_numbers_active"`
	PoolExhausted       int `json:"pool_exhausted"`
	GridCells           int `json:"grid_cells"`
}

// RUN_EVENT (server -> observer) marks run-level transitions.
type RunEventMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	RunID           string  `json:"run_id"`
	Tick            uint64  `json:"tick"`
	Kind            string  `json:"kind"` // "WAVE","LEVEL","THROTTLE","RUN_START","RUN_END","ARTIFACT","ALLY_LEVEL","EVOLVE"
	Wave            int     `json:"wave,omitempty"`
	Level           int     `json:"level,omitempty"`
	Value           float64 `json:"value,omitempty"`
	Ref             string  `json:"ref,omitempty"`
}
