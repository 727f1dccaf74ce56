package world

import (
	"context"
	"time"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	dt := 1.0 / float64(w.cfg.TickRateHz)
	var pendingControls []ControlRequest
	var last time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.controls:
			pendingControls = append(pendingControls, req)
		case id := <-w.controlLeave:
			w.dropControlSession(id)
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case req := <-w.observerSub:
			w.handleObserverSubscribe(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case now := <-ticker.C:
			// Wall-clock tick spacing drives the director's frame rate;
			// simulation time still advances by a fixed step.
			fps := 0.0
			if !last.IsZero() {
				if gap := now.Sub(last); gap > 0 {
					fps = ReferenceFPS * interval.Seconds() / gap.Seconds()
				}
			}
			last = now
			w.stepInternal(TickInput{DeltaSeconds: dt, FPS: fps, Controls: pendingControls})
			pendingControls = pendingControls[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by a single tick using the same ordering
// semantics as Run. It is primarily intended for batch runs and tests.
func (w *World) StepOnce(in TickInput) TickLogEntry {
	return w.stepInternal(in)
}
