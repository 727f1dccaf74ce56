package protocol_test

import (
	"encoding/json"
	"testing"

	"hordesim.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	ok := func(name, raw string) {
		t.Helper()
		if err := protocol.ValidateRaw(name, []byte(raw)); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}

	ok("hello.schema.json", `{"type":"HELLO","protocol_version":"1.0","client_name":"watch"}`)
	ok("subscribe.schema.json", `{"type":"SUBSCRIBE","protocol_version":"1.0","every_n_ticks":5}`)
	ok("control.schema.json", `{"type":"CONTROL","protocol_version":"1.0","control_id":"c1","op":"SET_SPAWN_RATE","value":2.5}`)
	ok("control.schema.json", `{"type":"CONTROL","protocol_version":"1.0","control_id":"c2","op":"SET_CRIT_BONUS","tier":2,"value":15}`)
	ok("control.schema.json", `{"type":"CONTROL","protocol_version":"1.0","control_id":"c3","op":"PAUSE"}`)
	ok("ack.schema.json", `{"type":"ACK","protocol_version":"1.0","control_id":"c1","tick":42,"accepted":false,"code":"E_RATE_LIMIT"}`)
	ok("telemetry.schema.json", `{
	  "type":"TELEMETRY","protocol_version":"1.0","run_id":"run_1","tick":30,
	  "stats":{"sim_time":1.0,"wave":1,"level":1,"kills":0,"enemies":4,"allies":3,
	    "dps":12.5,"stress":0.4,"fps":60,"throttle":1,"spawn_interval":1.2,"crits":[3,1,0,0]}
	}`)
}

func TestSchemas_RejectBadControl(t *testing.T) {
	bad := []string{
		`{"type":"CONTROL","protocol_version":"1.0","control_id":"c1","op":"SET_SPAWN_RATE"}`,
		`{"type":"CONTROL","protocol_version":"1.0","control_id":"c1","op":"SET_SPAWN_RATE","value":-1}`,
		`{"type":"CONTROL","protocol_version":"1.0","control_id":"c1","op":"SET_CRIT_BONUS","value":5}`,
		`{"type":"CONTROL","protocol_version":"1.0","control_id":"c1","op":"LAUNCH_NUKES"}`,
		`{"type":"CONTROL","protocol_version":"1.0","op":"PAUSE"}`,
		`{"type":"CONTROL","protocol_version":"1.0","control_id":"c1","op":"PAUSE","extra":1}`,
	}
	for _, raw := range bad {
		if err := protocol.ValidateControl([]byte(raw)); err == nil {
			t.Fatalf("expected rejection: %s", raw)
		}
	}
}

func TestMessages_MatchSchemas(t *testing.T) {
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		ControlID:       "c9",
		Tick:            7,
		Accepted:        true,
	}
	b, _ := json.Marshal(ack)
	if err := protocol.ValidateRaw("ack.schema.json", b); err != nil {
		t.Fatalf("ack: %v", err)
	}

	tel := protocol.TelemetryMsg{
		Type:            protocol.TypeTelemetry,
		ProtocolVersion: protocol.Version,
		RunID:           "run_1",
		Tick:            1,
		Stats: protocol.TickStats{
			Wave:          1,
			Level:         1,
			Throttle:      1,
			SpawnInterval: 1.5,
			Stress:        0.5,
		},
	}
	b, _ = json.Marshal(tel)
	if err := protocol.ValidateRaw("telemetry.schema.json", b); err != nil {
		t.Fatalf("telemetry: %v", err)
	}

	base, err := protocol.DecodeBase(b)
	if err != nil || base.Type != protocol.TypeTelemetry || base.ProtocolVersion != protocol.Version {
		t.Fatalf("DecodeBase: %+v err=%v", base, err)
	}
}

func TestSchema_UnknownName(t *testing.T) {
	if _, err := protocol.Schema("nope.schema.json"); err == nil {
		t.Fatalf("expected error for missing schema")
	}
}
