package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

type dbQuery struct {
	RunID   string
	Kind    string
	Session string
	Limit   int
}

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	runID := fs.String("run", "", "run_id filter (ticks, events)")
	kind := fs.String("kind", "", "event kind filter (events)")
	session := fs.String("session", "", "session_id filter (controls)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "runs"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := queryIndex(db, q, dbQuery{RunID: *runID, Kind: *kind, Session: *session, Limit: *limit}, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, q+":", err)
		os.Exit(1)
	}
}

// queryIndex prints one JSON object per row of the named query.
func queryIndex(db *sql.DB, q string, opt dbQuery, out io.Writer) error {
	if opt.Limit <= 0 {
		opt.Limit = 20
	}
	switch q {
	case "runs":
		rows, err := db.Query(`SELECT run_id,start_tick,last_tick,max_wave,max_level,kills,ended FROM runs ORDER BY start_tick DESC LIMIT ?`, opt.Limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				RunID     string `json:"run_id"`
				StartTick uint64 `json:"start_tick"`
				LastTick  uint64 `json:"last_tick"`
				MaxWave   int    `json:"max_wave"`
				MaxLevel  int    `json:"max_level"`
				Kills     uint64 `json:"kills"`
				Ended     bool   `json:"ended"`
			}
			var ended int
			if err := rows.Scan(&r.RunID, &r.StartTick, &r.LastTick, &r.MaxWave, &r.MaxLevel, &r.Kills, &ended); err != nil {
				return err
			}
			r.Ended = ended != 0
			printJSON(out, r)
		}
		return rows.Err()

	case "ticks":
		where, args := filters(map[string]string{"run_id": opt.RunID})
		rows, err := db.Query(`SELECT run_id,tick,wave,enemies,allies,dps,stress,throttle,spawn_interval,hits,step_ms FROM ticks`+where+` ORDER BY tick DESC LIMIT ?`, append(args, opt.Limit)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				RunID         string  `json:"run_id"`
				Tick          uint64  `json:"tick"`
				Wave          int     `json:"wave"`
				Enemies       int     `json:"enemies"`
				Allies        int     `json:"allies"`
				DPS           float64 `json:"dps"`
				Stress        float64 `json:"stress"`
				Throttle      float64 `json:"throttle"`
				SpawnInterval float64 `json:"spawn_interval"`
				Hits          int     `json:"hits"`
				StepMS        float64 `json:"step_ms"`
			}
			if err := rows.Scan(&r.RunID, &r.Tick, &r.Wave, &r.Enemies, &r.Allies, &r.DPS, &r.Stress, &r.Throttle, &r.SpawnInterval, &r.Hits, &r.StepMS); err != nil {
				return err
			}
			printJSON(out, r)
		}
		return rows.Err()

	case "events":
		where, args := filters(map[string]string{"run_id": opt.RunID, "kind": strings.ToUpper(opt.Kind)})
		rows, err := db.Query(`SELECT tick,seq,run_id,kind,wave,level,value FROM events`+where+` ORDER BY tick DESC, seq LIMIT ?`, append(args, opt.Limit)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick  uint64  `json:"tick"`
				Seq   int     `json:"seq"`
				RunID string  `json:"run_id"`
				Kind  string  `json:"kind"`
				Wave  int     `json:"wave"`
				Level int     `json:"level"`
				Value float64 `json:"value"`
			}
			if err := rows.Scan(&r.Tick, &r.Seq, &r.RunID, &r.Kind, &r.Wave, &r.Level, &r.Value); err != nil {
				return err
			}
			printJSON(out, r)
		}
		return rows.Err()

	case "controls":
		where, args := filters(map[string]string{"session_id": opt.Session})
		rows, err := db.Query(`SELECT tick,seq,session_id,control_id,op,value,code FROM controls`+where+` ORDER BY tick DESC, seq LIMIT ?`, append(args, opt.Limit)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick      uint64  `json:"tick"`
				Seq       int     `json:"seq"`
				SessionID string  `json:"session_id"`
				ControlID string  `json:"control_id"`
				Op        string  `json:"op"`
				Value     float64 `json:"value"`
				Code      string  `json:"code,omitempty"`
			}
			if err := rows.Scan(&r.Tick, &r.Seq, &r.SessionID, &r.ControlID, &r.Op, &r.Value, &r.Code); err != nil {
				return err
			}
			printJSON(out, r)
		}
		return rows.Err()

	case "catalogs":
		rows, err := db.Query(`SELECT name,digest,updated_at FROM catalogs ORDER BY name`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Name      string `json:"name"`
				Digest    string `json:"digest"`
				UpdatedAt string `json:"updated_at"`
			}
			if err := rows.Scan(&r.Name, &r.Digest, &r.UpdatedAt); err != nil {
				return err
			}
			printJSON(out, r)
		}
		return rows.Err()

	default:
		return fmt.Errorf("unknown query (want runs|ticks|events|controls|catalogs)")
	}
}

// filters builds a WHERE clause from the non-empty columns, sorted by name.
func filters(cols map[string]string) (string, []any) {
	names := make([]string, 0, len(cols))
	for c, v := range cols {
		if v != "" {
			names = append(names, c)
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	args := make([]any, 0, len(names))
	for _, c := range names {
		parts = append(parts, c+"=?")
		args = append(args, cols[c])
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}
