package archive

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"hordesim.ai/internal/sim/world"
)

const recordVersion = 1

// Header is the first line of every archived record. It can be read without
// decoding the body.
type Header struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	EndTick uint64 `json:"end_tick"`
}

// RunRecord summarizes one run as seen through its tick log entries.
type RunRecord struct {
	Header

	WorldID      string `json:"world_id"`
	Seed         int64  `json:"seed"`
	TuningDigest string `json:"tuning_digest,omitempty"`

	StartTick uint64 `json:"start_tick"`
	Ticks     uint64 `json:"ticks"`
	Ended     bool   `json:"ended"`

	MaxWave         int       `json:"max_wave"`
	MaxLevel        int       `json:"max_level"`
	Kills           uint64    `json:"kills"`
	PeakEnemies     int       `json:"peak_enemies"`
	PeakAllies      int       `json:"peak_allies"`
	PeakDPS         float64   `json:"peak_dps"`
	MinThrottle     float64   `json:"min_throttle"`
	Hits            uint64    `json:"hits"`
	Crits           [4]uint64 `json:"crits"`
	AllyDeaths      uint64    `json:"ally_deaths"`
	Controls        int       `json:"controls"`
	Rejected        int       `json:"rejected"`
	ThrottleChanges int       `json:"throttle_changes"`

	CreatedAt string `json:"created_at"`
}

// RunArchiver is a tick sink that writes one record per run under
// `worldDir/archives/`. A run is archived when the RUN_END event for it
// arrives, or on Close if it is still running.
type RunArchiver struct {
	dir          string
	worldID      string
	seed         int64
	tuningDigest string

	mu      sync.Mutex
	cur     *RunRecord
	written []string
	now     func() time.Time
}

func NewRunArchiver(worldDir, worldID string, seed int64, tuningDigest string) *RunArchiver {
	return &RunArchiver{
		dir:          filepath.Join(worldDir, "archives"),
		worldID:      worldID,
		seed:         seed,
		tuningDigest: tuningDigest,
		now:          time.Now,
	}
}

func (a *RunArchiver) Dir() string { return a.dir }

// Written lists the record paths produced so far.
func (a *RunArchiver) Written() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.written...)
}

func (a *RunArchiver) WriteTick(e world.TickLogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	// The tick that ends a run is logged under the next run id.
	for _, ev := range e.Events {
		if ev.Kind != world.EventRunEnd || a.cur == nil || a.cur.RunID == e.RunID {
			continue
		}
		a.cur.Ended = true
		a.cur.EndTick = e.Tick
		a.cur.MaxWave = max(a.cur.MaxWave, ev.Wave)
		a.cur.MaxLevel = max(a.cur.MaxLevel, ev.Level)
		if k := uint64(ev.Value); k > a.cur.Kills {
			a.cur.Kills = k
		}
		if err := a.flushLocked(); err != nil {
			firstErr = err
		}
	}

	if a.cur != nil && a.cur.RunID != e.RunID {
		// Run changed without a RUN_END (log started mid-run or a sink dropped ticks).
		if err := a.flushLocked(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.cur == nil {
		a.cur = &RunRecord{
			Header:       Header{Version: recordVersion, RunID: e.RunID},
			WorldID:      a.worldID,
			Seed:         a.seed,
			TuningDigest: a.tuningDigest,
			StartTick:    e.Tick,
			MinThrottle:  e.Stats.Throttle,
		}
	}
	r := a.cur
	s := e.Stats
	r.EndTick = e.Tick
	r.Ticks++
	r.MaxWave = max(r.MaxWave, s.Wave)
	r.MaxLevel = max(r.MaxLevel, s.Level)
	r.Kills = max(r.Kills, s.Kills)
	r.PeakEnemies = max(r.PeakEnemies, s.Enemies)
	r.PeakAllies = max(r.PeakAllies, s.Allies)
	r.PeakDPS = max(r.PeakDPS, s.DPS)
	if s.Throttle > 0 && s.Throttle < r.MinThrottle {
		r.MinThrottle = s.Throttle
	}
	r.Hits += uint64(s.Hits)
	for i := range s.Crits {
		r.Crits[i] += uint64(s.Crits[i])
	}
	r.AllyDeaths += uint64(s.Deaths)
	for _, c := range e.Controls {
		r.Controls++
		if c.Code != "" {
			r.Rejected++
		}
	}
	for _, ev := range e.Events {
		if ev.Kind == world.EventThrottle {
			r.ThrottleChanges++
		}
	}
	return firstErr
}

// Close archives the in-progress run, if any.
func (a *RunArchiver) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cur == nil {
		return nil
	}
	return a.flushLocked()
}

func (a *RunArchiver) flushLocked() error {
	r := a.cur
	a.cur = nil
	if r == nil {
		return nil
	}
	r.CreatedAt = a.now().UTC().Format(time.RFC3339Nano)
	path := a.pathFor(r.RunID)
	if err := WriteRecord(path, *r); err != nil {
		return fmt.Errorf("archive %s: %w", r.RunID, err)
	}
	a.written = append(a.written, path)
	return nil
}

func (a *RunArchiver) pathFor(runID string) string {
	name := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(runID)
	return filepath.Join(a.dir, name+".run.zst")
}

// WriteRecord writes a header line followed by the JSON record, zstd
// compressed. The file is replaced atomically.
func WriteRecord(path string, rec RunRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := writeRecord(f, rec); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeRecord(f *os.File, rec RunRecord) error {
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(enc)

	hb, _ := json.Marshal(rec.Header)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(rec); err != nil {
		enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadRecord decodes a file written by WriteRecord.
func ReadRecord(path string) (RunRecord, error) {
	var rec RunRecord
	f, err := os.Open(path)
	if err != nil {
		return rec, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return rec, err
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return rec, fmt.Errorf("%s: header: %w", path, err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return rec, fmt.Errorf("%s: header: %w", path, err)
	}
	if h.Version != recordVersion {
		return rec, fmt.Errorf("%s: unsupported record version %d", path, h.Version)
	}
	if err := json.NewDecoder(br).Decode(&rec); err != nil {
		return rec, fmt.Errorf("%s: %w", path, err)
	}
	if rec.RunID != h.RunID {
		return rec, fmt.Errorf("%s: header run %q does not match body %q", path, h.RunID, rec.RunID)
	}
	return rec, nil
}

// List reads every archived record in dir, ordered by start tick.
func List(dir string) ([]RunRecord, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.run.zst"))
	if err != nil {
		return nil, err
	}
	out := make([]RunRecord, 0, len(paths))
	for _, p := range paths {
		rec, err := ReadRecord(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartTick != out[j].StartTick {
			return out[i].StartTick < out[j].StartTick
		}
		return out[i].RunID < out[j].RunID
	})
	return out, nil
}
