package worldtest

import (
	"fmt"
	"testing"

	"hordesim.ai/internal/protocol"
	"hordesim.ai/internal/sim/catalogs"
	world "hordesim.ai/internal/sim/world"
)

// Harness is a small black-box test helper for driving a world via exported APIs:
// - Control() issues one CONTROL via StepOnce() and returns its ACK
// - Step()/StepN() advance the world and keep every tick entry
// - Events()/RunIDs() summarize what the entries recorded
//
// It intentionally avoids touching world internals so tests can live outside the world package.
type Harness struct {
	T    *testing.T
	Cats *catalogs.Catalogs
	W    *world.World

	SessionID string

	entries []world.TickLogEntry
	nextID  int
}

func NewHarness(t *testing.T, cfg world.WorldConfig, cats *catalogs.Catalogs) *Harness {
	t.Helper()

	w, err := world.New(cfg, cats)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return NewHarnessWithWorld(t, w, cats)
}

// NewHarnessWithWorld is like NewHarness, but uses an already-constructed world instance.
func NewHarnessWithWorld(t *testing.T, w *world.World, cats *catalogs.Catalogs) *Harness {
	t.Helper()
	if w == nil {
		t.Fatalf("NewHarnessWithWorld: nil world")
	}
	return &Harness{T: t, Cats: cats, W: w, SessionID: "H1"}
}

// Control applies one control at the next tick boundary and returns the ACK.
func (h *Harness) Control(op string, value float64) protocol.AckMsg {
	h.T.Helper()
	return h.ControlMsg(protocol.ControlMsg{Op: op, Value: value})
}

func (h *Harness) ControlMsg(msg protocol.ControlMsg) protocol.AckMsg {
	h.T.Helper()
	h.nextID++
	msg.Type = protocol.TypeControl
	msg.ProtocolVersion = protocol.Version
	if msg.ControlID == "" {
		msg.ControlID = fmt.Sprintf("h%d", h.nextID)
	}
	resp := make(chan protocol.AckMsg, 1)
	h.Step(world.TickInput{Controls: []world.ControlRequest{{SessionID: h.SessionID, Msg: msg, Resp: resp}}})
	select {
	case ack := <-resp:
		return ack
	default:
		h.T.Fatalf("no ACK for %s", msg.ControlID)
		return protocol.AckMsg{}
	}
}

func (h *Harness) Step(in world.TickInput) world.TickLogEntry {
	e := h.W.StepOnce(in)
	h.entries = append(h.entries, e)
	return e
}

func (h *Harness) StepN(n int) world.TickLogEntry {
	h.T.Helper()
	var e world.TickLogEntry
	for i := 0; i < n; i++ {
		e = h.Step(world.TickInput{})
	}
	return e
}

func (h *Harness) Entries() []world.TickLogEntry { return h.entries }

func (h *Harness) Last() world.TickLogEntry {
	h.T.Helper()
	if len(h.entries) == 0 {
		h.T.Fatalf("no ticks stepped yet")
	}
	return h.entries[len(h.entries)-1]
}

// Events returns every recorded event of kind, in tick order.
func (h *Harness) Events(kind string) []world.RunEvent {
	var out []world.RunEvent
	for _, e := range h.entries {
		for _, ev := range e.Events {
			if ev.Kind == kind {
				out = append(out, ev)
			}
		}
	}
	return out
}

// RunIDs lists the distinct run ids seen, in order.
func (h *Harness) RunIDs() []string {
	var out []string
	for _, e := range h.entries {
		if len(out) == 0 || out[len(out)-1] != e.RunID {
			out = append(out, e.RunID)
		}
	}
	return out
}
