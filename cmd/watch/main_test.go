package main

import (
	"encoding/json"
	"strings"
	"testing"

	"hordesim.ai/internal/protocol"
)

func TestFormatMessage(t *testing.T) {
	tel, _ := json.Marshal(protocol.TelemetryMsg{
		Type:            protocol.TypeTelemetry,
		ProtocolVersion: protocol.Version,
		RunID:           "ARENA-r0001",
		Tick:            90,
		Stats:           protocol.TickStats{Wave: 2, Level: 1, Kills: 12, Throttle: 1, Crits: [4]int{0, 3, 1, 0}, Paused: true},
	})
	line := formatMessage(tel)
	for _, want := range []string{"ARENA-r0001 t=90", "wave=2", "kills=12", "crits=3/1/0", "PAUSED"} {
		if !strings.Contains(line, want) {
			t.Fatalf("telemetry line %q missing %q", line, want)
		}
	}

	ev, _ := json.Marshal(protocol.RunEventMsg{Type: protocol.TypeRunEvent, RunID: "ARENA-r0001", Tick: 7, Kind: "WAVE", Wave: 3})
	if got := formatMessage(ev); !strings.Contains(got, "EVENT WAVE wave=3") {
		t.Fatalf("event line: %q", got)
	}

	if got := formatMessage([]byte(`{"type":"ACK"}`)); got != "" {
		t.Fatalf("unexpected line for ACK: %q", got)
	}
	if got := formatMessage([]byte(`not json`)); got != "" {
		t.Fatalf("unexpected line for garbage: %q", got)
	}
}
