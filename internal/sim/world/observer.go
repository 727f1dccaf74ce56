package world

import (
	"encoding/json"

	"hordesim.ai/internal/protocol"
)

// ObserverJoinRequest registers a read-only observer session that receives
// TELEMETRY every EveryNTicks ticks plus every RUN_EVENT.
//
// All observer state is maintained by the world loop goroutine.
type ObserverJoinRequest struct {
	SessionID   string
	Out         chan []byte
	EveryNTicks int
}

// ObserverSubscribeRequest updates an existing observer session's cadence.
type ObserverSubscribeRequest struct {
	SessionID   string
	EveryNTicks int
}

type observerClient struct {
	id    string
	out   chan []byte
	every uint64
}

func normalizeEvery(n int) uint64 {
	if n <= 0 {
		return 1
	}
	return uint64(n)
}

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.Out == nil {
		return
	}
	w.observers[req.SessionID] = &observerClient{
		id:    req.SessionID,
		out:   req.Out,
		every: normalizeEvery(req.EveryNTicks),
	}
}

func (w *World) handleObserverSubscribe(req ObserverSubscribeRequest) {
	if c := w.observers[req.SessionID]; c != nil {
		c.every = normalizeEvery(req.EveryNTicks)
	}
}

func (w *World) handleObserverLeave(id string) {
	delete(w.observers, id)
}

func (w *World) stepObservers(entry TickLogEntry) {
	if len(w.observers) == 0 {
		return
	}

	events := make([][]byte, 0, len(entry.Events))
	for _, ev := range entry.Events {
		b, err := json.Marshal(protocol.RunEventMsg{
			Type:            protocol.TypeRunEvent,
			ProtocolVersion: protocol.Version,
			RunID:           entry.RunID,
			Tick:            entry.Tick,
			Kind:            ev.Kind,
			Wave:            ev.Wave,
			Level:           ev.Level,
			Value:           ev.Value,
			Ref:             ev.Ref,
		})
		if err == nil {
			events = append(events, b)
		}
	}

	var tel []byte
	for _, c := range w.observers {
		for _, b := range events {
			select {
			case c.out <- b:
			default:
				// Observer is behind; events are best-effort.
			}
		}
		if entry.Tick%c.every != 0 {
			continue
		}
		if tel == nil {
			b, err := json.Marshal(protocol.TelemetryMsg{
				Type:            protocol.TypeTelemetry,
				ProtocolVersion: protocol.Version,
				RunID:           entry.RunID,
				Tick:            entry.Tick,
				Stats:           entry.Stats,
			})
			if err != nil {
				return
			}
			tel = b
		}
		sendLatest(c.out, tel)
	}
}
