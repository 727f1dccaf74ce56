package log

import (
	"path/filepath"
	"testing"
	"time"

	"hordesim.ai/internal/protocol"
	"hordesim.ai/internal/sim/world"
)

func TestTickLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	for i := uint64(0); i < 3; i++ {
		e := world.TickLogEntry{
			RunID: "ARENA-r0001",
			Tick:  i,
			Stats: protocol.TickStats{Wave: 1, Level: 1, Enemies: int(i) * 10, Throttle: 1},
		}
		if i == 2 {
			e.Events = []world.RunEvent{{Kind: world.EventWave, Wave: 2}}
		}
		if err := l.WriteTick(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if l.Lines() != 3 {
		t.Fatalf("lines=%d", l.Lines())
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := Files(filepath.Join(dir, "events"), "events")
	if err != nil || len(files) != 1 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	var got []world.TickLogEntry
	if err := ReadTicks(files[0], func(e world.TickLogEntry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 || got[2].Tick != 2 || got[1].Stats.Enemies != 10 {
		t.Fatalf("entries: %+v", got)
	}
	if len(got[2].Events) != 1 || got[2].Events[0].Kind != world.EventWave {
		t.Fatalf("events: %+v", got[2].Events)
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "events")
	clock := time.Date(2026, 1, 2, 3, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	if err := w.Write(map[string]int{"n": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	clock = clock.Add(2 * time.Minute)
	if err := w.Write(map[string]int{"n": 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := Files(dir, "events")
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected two hourly files, got %v", files)
	}
	if filepath.Base(files[0]) != "events-2026-01-02-03.jsonl.zst" || filepath.Base(files[1]) != "events-2026-01-02-04.jsonl.zst" {
		t.Fatalf("names: %v", files)
	}
	for _, f := range files {
		n := 0
		if err := ReadJSONL(f, func([]byte) error { n++; return nil }); err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if n != 1 {
			t.Fatalf("%s: lines=%d", f, n)
		}
	}
}

func TestControlLogger_OnlyRecordsControls(t *testing.T) {
	dir := t.TempDir()
	l := NewControlLogger(dir)
	_ = l.WriteTick(world.TickLogEntry{Tick: 1})
	_ = l.WriteTick(world.TickLogEntry{Tick: 2, RunID: "R", Controls: []world.RecordedControl{
		{SessionID: "S1", Control: protocol.ControlMsg{ControlID: "c1", Op: protocol.OpPause}},
	}})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	files, _ := Files(filepath.Join(dir, "audit"), "controls")
	if len(files) != 1 {
		t.Fatalf("files=%v", files)
	}
	n := 0
	_ = ReadJSONL(files[0], func([]byte) error { n++; return nil })
	if n != 1 {
		t.Fatalf("lines=%d", n)
	}
}
