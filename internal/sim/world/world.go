package world

import (
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"sync/atomic"

	"hordesim.ai/internal/protocol"
	"hordesim.ai/internal/sim/catalogs"
	"hordesim.ai/internal/sim/world/feature/combat"
	"hordesim.ai/internal/sim/world/feature/deck"
	"hordesim.ai/internal/sim/world/feature/director"
	"hordesim.ai/internal/sim/world/feature/progression"
	"hordesim.ai/internal/sim/world/feature/survival/respawn"
	"hordesim.ai/internal/sim/world/logic/mathx"
	"hordesim.ai/internal/sim/world/logic/pool"
	"hordesim.ai/internal/sim/world/logic/spatial"
)

// World is a single-threaded authoritative horde simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs
	log      *log.Logger

	tick    atomic.Uint64
	runNum  uint64
	runID   atomic.Value // string
	simTime float64

	director   *director.Director
	waves      progression.Waves
	levels     progression.Levels
	kills      uint64
	spawnTimer float64
	stats      *director.RunStats
	settings   Settings

	deck      *deck.Deck
	artifacts progression.Artifacts
	affinity  progression.Affinity

	rng *rand.Rand

	player   Player
	allies   []*Ally
	enemies  []*Enemy
	respawns respawn.Queue
	nextID   ActorID

	enemyGrid *spatial.Grid
	allyGrid  *spatial.Grid
	scratch   []uint32
	allyByID  map[ActorID]*Ally

	projectiles      []Projectile
	projectilePool   *pool.Pool
	damageNumbers    []DamageNumber
	damageNumberPool *pool.Pool

	controlLimits map[string]rateWindow

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger TickLogger

	observers map[string]*observerClient

	controls      chan ControlRequest
	controlLeave  chan string
	observerJoin  chan ObserverJoinRequest
	observerSub   chan ObserverSubscribeRequest
	observerLeave chan string
	stop          chan struct{}

	metrics atomic.Value

	// Per-tick accumulators, cleared once the tick entry is emitted.
	cur tickCounters
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	RunID string `json:"run_id"`
	Tick  uint64 `json:"tick"`
	// DeltaSeconds and InputFPS are the tick's inputs, so a log can be
	// stepped again to the same stats.
	DeltaSeconds float64            `json:"dt"`
	InputFPS     float64            `json:"input_fps"`
	Stats        protocol.TickStats `json:"stats"`
	Controls     []RecordedControl  `json:"controls,omitempty"`
	Events       []RunEvent         `json:"events,omitempty"`
	Pools        []pool.Usage       `json:"pools"`
	StepMS       float64            `json:"step_ms"`
}

type RecordedControl struct {
	SessionID string              `json:"session_id"`
	Control   protocol.ControlMsg `json:"control"`
	Code      string              `json:"code,omitempty"`
}

type tickCounters struct {
	spawned       int
	despawned     int
	hits          int
	crits         [4]int
	deaths        int
	poolExhausted int
	events        []RunEvent
}

func New(cfg WorldConfig, cats *catalogs.Catalogs) (*World, error) {
	if cats == nil {
		return nil, fmt.Errorf("world: nil catalogs")
	}
	cfg.applyDefaults()
	for _, id := range cfg.StartingAllies {
		if _, ok := cats.Creatures.Index[id]; !ok {
			return nil, fmt.Errorf("world: unknown starting ally %q", id)
		}
	}
	if len(cats.Enemies.Defs) == 0 {
		return nil, fmt.Errorf("world: enemy catalog is empty")
	}

	w := &World{
		cfg:              cfg,
		catalogs:         cats,
		log:              log.New(log.Writer(), "[world] ", log.LstdFlags|log.Lmicroseconds),
		director:         director.New(),
		stats:            director.NewRunStats(uint64(cfg.TickRateHz), uint64(cfg.TickRateHz)*60),
		settings:         defaultSettings(cfg),
		deck:             deck.New(cats.Progression.Deck),
		affinity:         progression.Affinity{},
		rng:              rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)^0x9e3779b97f4a7c15)),
		enemyGrid:        spatial.NewGrid(cfg.CellSize),
		allyGrid:         spatial.NewGrid(cfg.CellSize),
		allyByID:         map[ActorID]*Ally{},
		projectiles:      make([]Projectile, cfg.ProjectilePool),
		projectilePool:   pool.New("projectile", cfg.ProjectilePool),
		damageNumbers:    make([]DamageNumber, cfg.DamageNumberPool),
		damageNumberPool: pool.New("damage_number", cfg.DamageNumberPool),
		controlLimits:    map[string]rateWindow{},
		observers:        map[string]*observerClient{},
		controls:         make(chan ControlRequest, 256),
		controlLeave:     make(chan string, 64),
		observerJoin:     make(chan ObserverJoinRequest, 64),
		observerSub:      make(chan ObserverSubscribeRequest, 64),
		observerLeave:    make(chan string, 64),
		stop:             make(chan struct{}),
	}
	w.startRun()
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }
func (w *World) SetLogger(l *log.Logger) {
	if l != nil {
		w.log = l
	}
}

func (w *World) Controls() chan<- ControlRequest                   { return w.controls }
func (w *World) ControlLeave() chan<- string                        { return w.controlLeave }
func (w *World) ObserverJoin() chan<- ObserverJoinRequest           { return w.observerJoin }
func (w *World) ObserverSubscribe() chan<- ObserverSubscribeRequest { return w.observerSub }
func (w *World) ObserverLeave() chan<- string                       { return w.observerLeave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }
func (w *World) Config() WorldConfig { return w.cfg }

func (w *World) RunID() string {
	v, _ := w.runID.Load().(string)
	return v
}

func (w *World) Catalogs() *catalogs.Catalogs { return w.catalogs }

// Welcome builds the handshake reply for a control session. Safe to call
// from any goroutine.
func (w *World) Welcome(sessionID, tuningDigest string) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		RunID:           w.RunID(),
		Tick:            w.CurrentTick(),
		WorldParams: protocol.WorldParams{
			TickRateHz:       w.cfg.TickRateHz,
			Seed:             w.cfg.Seed,
			CellSize:         w.cfg.CellSize,
			MaxEnemies:       w.cfg.MaxEnemies,
			KillsPerWave:     w.cfg.KillsPerWave,
			ProjectilePool:   w.cfg.ProjectilePool,
			DamageNumberPool: w.cfg.DamageNumberPool,
		},
		Catalogs: protocol.CatalogDigests{
			CreaturesDigest:   w.catalogs.Creatures.Digest,
			EnemiesDigest:     w.catalogs.Enemies.Digest,
			ProgressionDigest: w.catalogs.Progression.Digest,
			TuningDigest:      tuningDigest,
		},
	}
}

// startRun resets every per-run system. Settings, observers and the tick
// counter carry over.
func (w *World) startRun() {
	w.runNum++
	runID := fmt.Sprintf("%s-r%04d", w.cfg.ID, w.runNum)
	w.runID.Store(runID)

	w.simTime = 0
	w.director.Reset()
	w.director.SpawnRateModifier = w.cfg.SpawnRateModifier
	w.waves = progression.NewWaves(w.cfg.KillsPerWave)
	if w.settings.WaveOverride > 0 {
		w.waves.Override(w.settings.WaveOverride, 0)
	}
	w.levels = progression.NewLevels()
	w.kills = 0
	w.spawnTimer = 0
	w.stats.Reset()
	w.respawns.Reset()
	w.artifacts.Reset()

	w.projectilePool.ForEachActive(func(h pool.Handle) {
		w.projectilePool.Release(h)
	})
	w.damageNumberPool.ForEachActive(func(h pool.Handle) {
		w.damageNumberPool.Release(h)
	})
	clear(w.enemies)
	w.enemies = w.enemies[:0]
	clear(w.allies)
	w.allies = w.allies[:0]
	w.nextID = 0

	w.player = Player{
		Pos:   mathx.V(w.cfg.PlayerOrbitRadius, 0),
		HP:    w.cfg.PlayerMaxHP,
		MaxHP: w.cfg.PlayerMaxHP,
	}
	for _, id := range w.cfg.StartingAllies {
		w.addAlly(w.catalogs.Creatures.Index[id])
	}
	w.enemyGrid.Clear()
	w.allyGrid.Clear()
	w.cur.events = append(w.cur.events, RunEvent{Kind: EventRunStart, Wave: w.waves.Current, Level: w.levels.Level})
}

func (w *World) newActorID() ActorID {
	w.nextID++
	return w.nextID
}

func (w *World) addAlly(defID uint16) *Ally {
	def, ok := w.catalogs.Creatures.Get(defID)
	if !ok {
		return nil
	}
	// Artifact hp and attack speed bonuses apply when the ally is placed.
	b := w.artifacts.Total(def.ID, def.Color, def.Type)
	hp := def.BaseHP * (1 + b.HP/100)
	a := &Ally{
		ID:       w.newActorID(),
		DefID:    defID,
		Def:      def,
		Pos:      w.player.Pos,
		HP:       hp,
		MaxHP:    hp,
		Alive:    true,
		Damage:   def.BaseDamage,
		XP:       progression.NewCreatureXP(def),
		Cooldown: combat.NewCooldown(def.AttackSpeed * (1 + b.AttackSpeed/100)),
	}
	w.allies = append(w.allies, a)
	w.reslotAllies()
	return a
}

// reslotAllies spreads allies evenly around the ring.
func (w *World) reslotAllies() {
	n := len(w.allies)
	for i, a := range w.allies {
		a.Slot = 2 * math.Pi * float64(i) / float64(n)
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
