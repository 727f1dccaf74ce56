package main

import (
	"errors"
	"fmt"
	"io"

	"hordesim.ai/internal/sim/world"
)

var errStop = errors.New("stop")

type runSummary struct {
	RunID     string
	FirstTick uint64
	LastTick  uint64
	MaxWave   int
	MaxLevel  int
	Kills     uint64
	Controls  int
	Rejected  int
	Ended     bool
}

// replayer summarizes a tick log and, when it owns a world, steps that world
// with the recorded inputs and requires identical stats on every tick.
type replayer struct {
	w      *world.World
	toTick uint64

	ticks   uint64
	checked uint64
	runs    []*runSummary
	byID    map[string]*runSummary
}

func newReplayer(w *world.World) *replayer {
	return &replayer{w: w, byID: map[string]*runSummary{}}
}

func (r *replayer) apply(e world.TickLogEntry) error {
	if r.toTick != 0 && e.Tick > r.toTick {
		return errStop
	}
	if r.w != nil {
		if err := r.verify(e); err != nil {
			return err
		}
	}
	r.ticks++
	r.summarize(e)
	return nil
}

func (r *replayer) verify(e world.TickLogEntry) error {
	if e.Tick != r.w.CurrentTick() {
		return fmt.Errorf("tick mismatch: want=%d got=%d", r.w.CurrentTick(), e.Tick)
	}
	reqs := make([]world.ControlRequest, 0, len(e.Controls))
	for _, c := range e.Controls {
		reqs = append(reqs, world.ControlRequest{SessionID: c.SessionID, Msg: c.Control})
	}
	got := r.w.StepOnce(world.TickInput{DeltaSeconds: e.DeltaSeconds, FPS: e.InputFPS, Controls: reqs})

	if got.RunID != e.RunID {
		return fmt.Errorf("run mismatch at tick %d: got=%s want=%s", e.Tick, got.RunID, e.RunID)
	}
	for i := range e.Controls {
		if got.Controls[i].Code != e.Controls[i].Code {
			return fmt.Errorf("control %s at tick %d: got code %q want %q", e.Controls[i].Control.ControlID, e.Tick, got.Controls[i].Code, e.Controls[i].Code)
		}
	}
	if got.Stats != e.Stats {
		return fmt.Errorf("stats mismatch at tick %d:\n got=%+v\nwant=%+v", e.Tick, got.Stats, e.Stats)
	}
	r.checked++
	return nil
}

func (r *replayer) summarize(e world.TickLogEntry) {
	// The tick that ends a run is already logged under the next run id.
	for _, ev := range e.Events {
		if ev.Kind != world.EventRunEnd || len(r.runs) == 0 {
			continue
		}
		if prev := r.runs[len(r.runs)-1]; prev.RunID != e.RunID {
			prev.Ended = true
			if k := uint64(ev.Value); k > prev.Kills {
				prev.Kills = k
			}
		}
	}

	s := r.byID[e.RunID]
	if s == nil {
		s = &runSummary{RunID: e.RunID, FirstTick: e.Tick}
		r.byID[e.RunID] = s
		r.runs = append(r.runs, s)
	}
	s.LastTick = e.Tick
	s.MaxWave = max(s.MaxWave, e.Stats.Wave)
	s.MaxLevel = max(s.MaxLevel, e.Stats.Level)
	s.Kills = max(s.Kills, e.Stats.Kills)
	for _, c := range e.Controls {
		s.Controls++
		if c.Code != "" {
			s.Rejected++
		}
	}
}

func (r *replayer) report(out io.Writer) {
	for _, s := range r.runs {
		state := "running"
		if s.Ended {
			state = "ended"
		}
		fmt.Fprintf(out, "run=%s ticks=%d..%d wave=%d level=%d kills=%d controls=%d rejected=%d %s\n",
			s.RunID, s.FirstTick, s.LastTick, s.MaxWave, s.MaxLevel, s.Kills, s.Controls, s.Rejected, state)
	}
	fmt.Fprintf(out, "read=%d checked=%d ticks\n", r.ticks, r.checked)
}
