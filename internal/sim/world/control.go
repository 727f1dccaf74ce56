package world

import (
	"fmt"

	"hordesim.ai/internal/protocol"
	"hordesim.ai/internal/sim/world/logic/rates"
)

// ControlRequest carries one CONTROL message from a session into the world
// loop. Resp (optional, buffered) receives the ACK once the control is applied
// at the next tick boundary.
type ControlRequest struct {
	SessionID string
	Msg       protocol.ControlMsg
	Resp      chan protocol.AckMsg
}

type rateWindow struct {
	start uint64
	count int
}

func (w *World) applyControls(nowTick uint64, reqs []ControlRequest) []RecordedControl {
	if len(reqs) == 0 {
		return nil
	}
	recorded := make([]RecordedControl, 0, len(reqs))
	for _, req := range reqs {
		code, msg := w.applyControl(nowTick, req)
		recorded = append(recorded, RecordedControl{SessionID: req.SessionID, Control: req.Msg, Code: code})
		if req.Resp == nil {
			continue
		}
		ack := protocol.AckMsg{
			Type:            protocol.TypeAck,
			ProtocolVersion: protocol.Version,
			ControlID:       req.Msg.ControlID,
			Tick:            nowTick,
			Accepted:        code == "",
			Code:            code,
			Message:         msg,
		}
		select {
		case req.Resp <- ack:
		default:
		}
	}
	return recorded
}

func (w *World) allowControl(nowTick uint64, sessionID string) bool {
	rl := w.cfg.RateLimits
	st := w.controlLimits[sessionID]
	start, count, ok, _ := rates.Allow(nowTick, st.start, st.count, uint64(rl.ControlWindowTicks), rl.ControlMax)
	w.controlLimits[sessionID] = rateWindow{start: start, count: count}
	return ok
}

func (w *World) applyControl(nowTick uint64, req ControlRequest) (code, message string) {
	m := req.Msg
	if !w.allowControl(nowTick, req.SessionID) {
		return protocol.ErrRateLimit, "too many controls"
	}
	s := &w.settings
	switch m.Op {
	case protocol.OpSetSpawnRate:
		if m.Value < 0 {
			return protocol.ErrBadRequest, "value must be >= 0"
		}
		s.SpawnMultiplier = m.Value
	case protocol.OpSetWave:
		wave := int(m.Value)
		if wave < 1 {
			return protocol.ErrBadRequest, "wave must be >= 1"
		}
		s.WaveOverride = wave
		if w.waves.Current != wave {
			w.cur.events = append(w.cur.events, RunEvent{Kind: EventWave, Wave: wave})
		}
		w.waves.Override(wave, w.kills)
	case protocol.OpClearWave:
		s.WaveOverride = 0
		w.waves.Override(0, w.kills)
	case protocol.OpSetMaxEnemies:
		if m.Value < 0 {
			return protocol.ErrBadRequest, "value must be >= 0"
		}
		s.MaxEnemies = int(m.Value)
	case protocol.OpPause:
		s.Paused = true
	case protocol.OpResume:
		s.Paused = false
	case protocol.OpSetGodMode:
		s.GodMode = m.Enabled
	case protocol.OpSetAllyDamageMul:
		if m.Value < 0 {
			return protocol.ErrBadRequest, "value must be >= 0"
		}
		s.AllyDamageMul = m.Value
	case protocol.OpSetEnemyDamageMul:
		if m.Value < 0 {
			return protocol.ErrBadRequest, "value must be >= 0"
		}
		s.EnemyDamageMul = m.Value
	case protocol.OpSetCritBonus:
		if m.Tier < 1 || m.Tier > 3 {
			return protocol.ErrInvalidTarget, fmt.Sprintf("bad crit tier %d", m.Tier)
		}
		s.CritBonus[m.Tier] = m.Value
	case protocol.OpResetRun:
		w.endRun("control")
	default:
		return protocol.ErrUnknownOp, fmt.Sprintf("unknown op %q", m.Op)
	}
	w.log.Printf("control %s op=%s session=%s", m.ControlID, m.Op, req.SessionID)
	return "", ""
}

func (w *World) dropControlSession(sessionID string) {
	delete(w.controlLimits, sessionID)
}
