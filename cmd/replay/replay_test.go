package main

import (
	"bytes"
	"io"
	"log"
	"strings"
	"testing"

	persistlog "hordesim.ai/internal/persistence/log"
	"hordesim.ai/internal/protocol"
	"hordesim.ai/internal/sim/catalogs"
	"hordesim.ai/internal/sim/world"
)

func newWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.New(world.WorldConfig{ID: "RP", TickRateHz: 30, Seed: 5}, catalogs.Defaults())
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	w.SetLogger(log.New(io.Discard, "", 0))
	return w
}

// record runs a world for n ticks with a few controls and returns the log dir.
func record(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	tl := persistlog.NewTickLogger(dir)
	w := newWorld(t)
	w.SetTickLogger(tl)
	for i := 0; i < n; i++ {
		in := world.TickInput{}
		switch i {
		case 10:
			in.Controls = []world.ControlRequest{{SessionID: "C1", Msg: protocol.ControlMsg{ControlID: "w", Op: protocol.OpSetWave, Value: 4}}}
		case 20:
			in.Controls = []world.ControlRequest{{SessionID: "C1", Msg: protocol.ControlMsg{ControlID: "x", Op: "BOGUS"}}}
		case 40:
			in.Controls = []world.ControlRequest{{SessionID: "C2", Msg: protocol.ControlMsg{ControlID: "r", Op: protocol.OpResetRun}}}
		}
		// Uneven frame rates exercise the director's throttle path.
		if i%7 == 0 {
			in.FPS = 25
		}
		w.StepOnce(in)
	}
	if err := tl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return dir + "/events"
}

func readAll(t *testing.T, dir string) []world.TickLogEntry {
	t.Helper()
	files, err := persistlog.Files(dir, "events")
	if err != nil || len(files) == 0 {
		t.Fatalf("files: %v %v", files, err)
	}
	var out []world.TickLogEntry
	for _, f := range files {
		if err := persistlog.ReadTicks(f, func(e world.TickLogEntry) error {
			out = append(out, e)
			return nil
		}); err != nil {
			t.Fatalf("read: %v", err)
		}
	}
	return out
}

func TestReplay_VerifiesRecordedLog(t *testing.T) {
	entries := readAll(t, record(t, 120))
	if len(entries) != 120 {
		t.Fatalf("entries=%d", len(entries))
	}

	r := newReplayer(newWorld(t))
	for _, e := range entries {
		if err := r.apply(e); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
	if r.checked != 120 {
		t.Fatalf("checked=%d", r.checked)
	}
	if len(r.runs) != 2 || !r.runs[0].Ended || r.runs[1].Ended {
		t.Fatalf("runs: %+v %+v", r.runs[0], r.runs[len(r.runs)-1])
	}
	first := r.runs[0]
	if first.RunID != "RP-r0001" || first.MaxWave != 4 || first.Controls != 2 || first.Rejected != 1 {
		t.Fatalf("first run: %+v", first)
	}

	var out bytes.Buffer
	r.report(&out)
	if !strings.Contains(out.String(), "run=RP-r0002") || !strings.Contains(out.String(), "checked=120") {
		t.Fatalf("report:\n%s", out.String())
	}
}

func TestReplay_DetectsDivergence(t *testing.T) {
	entries := readAll(t, record(t, 30))
	entries[15].Stats.Enemies++

	r := newReplayer(newWorld(t))
	var err error
	for _, e := range entries {
		if err = r.apply(e); err != nil {
			break
		}
	}
	if err == nil || !strings.Contains(err.Error(), "tick 15") {
		t.Fatalf("expected divergence at tick 15, got %v", err)
	}
}

func TestReplay_SummaryOnlyStopsAtToTick(t *testing.T) {
	entries := readAll(t, record(t, 30))
	r := newReplayer(nil)
	r.toTick = 9
	var stopped bool
	for _, e := range entries {
		if err := r.apply(e); err == errStop {
			stopped = true
			break
		}
	}
	if !stopped || r.ticks != 10 || r.checked != 0 {
		t.Fatalf("stopped=%v ticks=%d checked=%d", stopped, r.ticks, r.checked)
	}
}

func TestFirstWorldID(t *testing.T) {
	dir := record(t, 3)
	files, _ := persistlog.Files(dir, "events")
	id, err := firstWorldID(files[0])
	if err != nil || id != "RP" {
		t.Fatalf("id=%q err=%v", id, err)
	}
}
