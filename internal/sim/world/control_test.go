package world

import (
	"testing"

	"hordesim.ai/internal/protocol"
)

func controlReq(session, id, op string, value float64, resp chan protocol.AckMsg) ControlRequest {
	return ControlRequest{
		SessionID: session,
		Msg: protocol.ControlMsg{
			Type:            protocol.TypeControl,
			ProtocolVersion: protocol.Version,
			ControlID:       id,
			Op:              op,
			Value:           value,
		},
		Resp: resp,
	}
}

func TestControls_AckAndRateLimit(t *testing.T) {
	w := newTestWorld(t, func(c *WorldConfig) {
		c.RateLimits = RateLimitConfig{ControlWindowTicks: 30, ControlMax: 2}
	})
	resp := make(chan protocol.AckMsg, 4)
	e := w.StepOnce(TickInput{Controls: []ControlRequest{
		controlReq("S1", "c1", protocol.OpSetMaxEnemies, 5, resp),
		controlReq("S1", "c2", protocol.OpSetSpawnRate, 2, resp),
		controlReq("S1", "c3", protocol.OpPause, 0, resp),
	}})

	want := []struct {
		id       string
		accepted bool
		code     string
	}{
		{"c1", true, ""},
		{"c2", true, ""},
		{"c3", false, protocol.ErrRateLimit},
	}
	for _, wnt := range want {
		ack := <-resp
		if ack.ControlID != wnt.id || ack.Accepted != wnt.accepted || ack.Code != wnt.code || ack.Tick != 0 {
			t.Fatalf("ack %s: %+v", wnt.id, ack)
		}
	}
	if w.settings.MaxEnemies != 5 || w.settings.SpawnMultiplier != 2 || w.settings.Paused {
		t.Fatalf("settings: %+v", w.settings)
	}
	if len(e.Controls) != 3 || e.Controls[2].Code != protocol.ErrRateLimit {
		t.Fatalf("recorded controls: %+v", e.Controls)
	}

	// A different session has its own window.
	w.StepOnce(TickInput{Controls: []ControlRequest{controlReq("S2", "d1", protocol.OpPause, 0, resp)}})
	if ack := <-resp; !ack.Accepted || !w.settings.Paused {
		t.Fatalf("S2 pause: %+v", ack)
	}
}

func TestControls_RejectsBadRequests(t *testing.T) {
	w := newTestWorld(t, nil)
	resp := make(chan protocol.AckMsg, 4)
	bonus := controlReq("S1", "b1", protocol.OpSetCritBonus, 10, resp)
	bonus.Msg.Tier = 4
	w.StepOnce(TickInput{Controls: []ControlRequest{
		controlReq("S1", "u1", "LAUNCH", 0, resp),
		controlReq("S1", "w1", protocol.OpSetWave, 0, resp),
		bonus,
	}})
	codes := []string{protocol.ErrUnknownOp, protocol.ErrBadRequest, protocol.ErrInvalidTarget}
	for _, code := range codes {
		if ack := <-resp; ack.Accepted || ack.Code != code || !protocol.IsKnownCode(ack.Code) {
			t.Fatalf("want %s, got %+v", code, ack)
		}
	}
}

func TestControls_PauseFreezesSimulation(t *testing.T) {
	w := newTestWorld(t, nil)
	stepN(w, 3)
	before := w.simTime
	w.StepOnce(TickInput{Controls: []ControlRequest{controlReq("S1", "p", protocol.OpPause, 0, nil)}})
	entries := stepN(w, 10)
	if w.simTime != before {
		t.Fatalf("sim time moved while paused: %v -> %v", before, w.simTime)
	}
	last := entries[len(entries)-1]
	if !last.Stats.Paused || last.Tick != 13 {
		t.Fatalf("paused entry: tick=%d %+v", last.Tick, last.Stats)
	}
	w.StepOnce(TickInput{Controls: []ControlRequest{controlReq("S1", "r", protocol.OpResume, 0, nil)}})
	if w.simTime <= before {
		t.Fatalf("resume did not advance time")
	}
}

func TestControls_WaveOverridePinsWave(t *testing.T) {
	w := newTestWorld(t, nil)
	quiet(w)
	e := w.StepOnce(TickInput{Controls: []ControlRequest{controlReq("S1", "w", protocol.OpSetWave, 7, nil)}})
	if e.Stats.Wave != 7 || !hasEvent(e, EventWave) {
		t.Fatalf("override: %+v", e.Stats)
	}
	w.kills = 500
	if e := w.StepOnce(TickInput{}); e.Stats.Wave != 7 {
		t.Fatalf("pinned wave advanced to %d", e.Stats.Wave)
	}

	// The override survives a run restart.
	w.StepOnce(TickInput{Controls: []ControlRequest{controlReq("S1", "x", protocol.OpResetRun, 0, nil)}})
	if w.waves.Current != 7 || w.RunID() != "TEST-r0002" {
		t.Fatalf("after reset: wave=%d run=%s", w.waves.Current, w.RunID())
	}

	w.StepOnce(TickInput{Controls: []ControlRequest{controlReq("S1", "c", protocol.OpClearWave, 0, nil)}})
	w.kills += 50
	if e := w.StepOnce(TickInput{}); e.Stats.Wave != 8 {
		t.Fatalf("cleared override should resume advancing, wave=%d", e.Stats.Wave)
	}
}

func TestControls_CritBonusAndDamageMultiplier(t *testing.T) {
	w := newTestWorld(t, nil)
	bonus := controlReq("S1", "b", protocol.OpSetCritBonus, 100, nil)
	bonus.Msg.Tier = 1
	w.StepOnce(TickInput{Controls: []ControlRequest{
		bonus,
		controlReq("S1", "d", protocol.OpSetAllyDamageMul, 3, nil),
	}})
	if w.settings.CritBonus[1] != 100 || w.settings.AllyDamageMul != 3 {
		t.Fatalf("settings: %+v", w.settings)
	}
	ch := w.critChances(w.allies[0])
	if ch[0] < 100 {
		t.Fatalf("tier-1 chance should include bonus: %v", ch)
	}
}
