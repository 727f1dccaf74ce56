package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"hordesim.ai/internal/sim/catalogs"
	"hordesim.ai/internal/sim/tuning"
	"hordesim.ai/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index over the tick stream. The
// JSONL logs remain the source of truth; rows are written by a single
// goroutine and dropped when it falls behind.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick atomic.Uint64
}

type QueueStats struct {
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
	DropTickTotal uint64 `json:"drop_tick_total"`
}

type reqKind int

const (
	reqTick reqKind = iota + 1
)

type req struct {
	kind reqKind
	tick world.TickLogEntry
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Several minutes of ticks at 30Hz.
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			start_tick INTEGER NOT NULL,
			last_tick INTEGER NOT NULL,
			max_wave INTEGER NOT NULL,
			max_level INTEGER NOT NULL,
			kills INTEGER NOT NULL,
			ended INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			wave INTEGER NOT NULL,
			enemies INTEGER NOT NULL,
			allies INTEGER NOT NULL,
			dps REAL NOT NULL,
			stress REAL NOT NULL,
			throttle REAL NOT NULL,
			spawn_interval REAL NOT NULL,
			hits INTEGER NOT NULL,
			step_ms REAL NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ticks_run_tick ON ticks(run_id, tick);`,
		`CREATE TABLE IF NOT EXISTS events (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			run_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			wave INTEGER NOT NULL,
			level INTEGER NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_kind_tick ON events(kind, tick);`,
		`CREATE TABLE IF NOT EXISTS controls (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			control_id TEXT NOT NULL,
			op TEXT NOT NULL,
			value REAL NOT NULL,
			code TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_controls_session_tick ON controls(session_id, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		s.dropTick.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() QueueStats {
	if s == nil {
		return QueueStats{}
	}
	return QueueStats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTickTotal: s.dropTick.Load(),
	}
}

// UpsertCatalogs stores the canonical catalog and tuning values the server
// booted with, keyed by the digests advertised in WELCOME.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil || cats == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if b, _ := json.Marshal(cats.Creatures.Defs); len(b) > 0 {
		rows = append(rows, kv{name: "creatures", digest: cats.Creatures.Digest, json: b})
	}
	if b, _ := json.Marshal(cats.Enemies.Defs); len(b) > 0 {
		rows = append(rows, kv{name: "enemies", digest: cats.Enemies.Digest, json: b})
	}
	if p := cats.Progression; p.Digest != "" {
		b, _ := json.Marshal(struct {
			Artifacts []catalogs.ArtifactDef                   `json:"artifacts"`
			Affinity  map[string][]catalogs.AffinityThreshold `json:"affinity"`
			Deck      []catalogs.DeckCard                     `json:"deck"`
		}{p.Artifacts, p.Affinity, p.Deck})
		rows = append(rows, kv{name: "progression", digest: p.Digest, json: b})
	}
	if b, _ := json.Marshal(tune); len(b) > 0 {
		rows = append(rows, kv{name: "tuning", digest: tuning.Digest(tune), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.digest == "" {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(run_id,tick,wave,enemies,allies,dps,stress,throttle,spawn_interval,hits,step_ms,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`)
	upsertRun, _ := s.db.Prepare(`INSERT INTO runs(run_id,start_tick,last_tick,max_wave,max_level,kills) VALUES(?,?,?,?,?,?)
		ON CONFLICT(run_id) DO UPDATE SET
			last_tick=excluded.last_tick,
			max_wave=max(max_wave, excluded.max_wave),
			max_level=max(max_level, excluded.max_level),
			kills=excluded.kills`)
	endRun, _ := s.db.Prepare(`UPDATE runs SET ended=1, kills=max(kills, ?) WHERE run_id=?`)
	insertEvent, _ := s.db.Prepare(`INSERT OR REPLACE INTO events(tick,seq,run_id,kind,wave,level,value) VALUES(?,?,?,?,?,?,?)`)
	insertControl, _ := s.db.Prepare(`INSERT OR REPLACE INTO controls(tick,seq,session_id,control_id,op,value,code) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, upsertRun, endRun, insertEvent, insertControl} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastRunID string
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil || tx == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		if r.kind != reqTick {
			continue
		}
		e := r.tick
		st := e.Stats
		tick := int64(e.Tick)

		// A tick that ends a run already carries the next run's id, so the
		// RUN_END event closes the previous one.
		for _, ev := range e.Events {
			if ev.Kind == world.EventRunEnd && lastRunID != "" && lastRunID != e.RunID {
				exec(endRun, int(ev.Value), lastRunID)
			}
		}
		lastRunID = e.RunID

		raw, _ := json.Marshal(e)
		if !exec(insertTick, e.RunID, tick, st.Wave, st.Enemies, st.Allies, st.DPS, st.Stress, st.Throttle, st.SpawnInterval, st.Hits, e.StepMS, string(raw)) {
			continue
		}
		if !exec(upsertRun, e.RunID, tick, tick, st.Wave, st.Level, st.Kills) {
			continue
		}
		for i, ev := range e.Events {
			if !exec(insertEvent, tick, i, e.RunID, ev.Kind, ev.Wave, ev.Level, ev.Value) {
				break
			}
		}
		for i, c := range e.Controls {
			if !exec(insertControl, tick, i, c.SessionID, c.Control.ControlID, c.Control.Op, c.Control.Value, c.Code) {
				break
			}
		}

		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
