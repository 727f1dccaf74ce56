package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"hordesim.ai/internal/protocol"
)

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/observe", "observer ws url")
		every = flag.Int("every", 30, "telemetry every N ticks")

		controlURL = flag.String("control_url", "ws://localhost:8080/v1/control", "control ws url (used with -op)")
		op         = flag.String("op", "", "send one CONTROL op before watching, e.g. SET_WAVE")
		value      = flag.Float64("value", 0, "CONTROL value")
		tier       = flag.Int("tier", 0, "CONTROL crit tier (SET_CRIT_BONUS)")
		enabled    = flag.Bool("enabled", false, "CONTROL enabled (SET_GOD_MODE)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lmicroseconds)

	if *op != "" {
		ack, err := sendControl(*controlURL, protocol.ControlMsg{
			Type:            protocol.TypeControl,
			ProtocolVersion: protocol.Version,
			ControlID:       fmt.Sprintf("watch-%d", time.Now().UnixNano()),
			Op:              strings.ToUpper(*op),
			Value:           *value,
			Tier:            *tier,
			Enabled:         *enabled,
		})
		if err != nil {
			logger.Fatalf("control: %v", err)
		}
		logger.Printf("ACK %s accepted=%v tick=%d code=%s %s", ack.ControlID, ack.Accepted, ack.Tick, ack.Code, ack.Message)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub := protocol.SubscribeMsg{Type: protocol.TypeSubscribe, ProtocolVersion: protocol.Version, EveryNTicks: *every}
	if err := conn.WriteJSON(sub); err != nil {
		logger.Fatalf("send SUBSCRIBE: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if line := formatMessage(msg); line != "" {
			logger.Print(line)
		}
	}
}

func sendControl(url string, ctl protocol.ControlMsg) (protocol.AckMsg, error) {
	var ack protocol.AckMsg
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return ack, err
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	hello := protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "watch", MaxQueue: 4}
	if err := conn.WriteJSON(hello); err != nil {
		return ack, err
	}
	var welcome protocol.WelcomeMsg
	if err := conn.ReadJSON(&welcome); err != nil {
		return ack, err
	}
	if welcome.Type != protocol.TypeWelcome {
		return ack, fmt.Errorf("expected WELCOME, got %s", welcome.Type)
	}
	if err := conn.WriteJSON(ctl); err != nil {
		return ack, err
	}
	err = conn.ReadJSON(&ack)
	return ack, err
}

// formatMessage renders one observer message as a log line; unknown
// messages render as "".
func formatMessage(msg []byte) string {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return ""
	}
	switch base.Type {
	case protocol.TypeTelemetry:
		var tel protocol.TelemetryMsg
		if err := json.Unmarshal(msg, &tel); err != nil {
			return ""
		}
		s := tel.Stats
		paused := ""
		if s.Paused {
			paused = " PAUSED"
		}
		return fmt.Sprintf("%s t=%d wave=%d lvl=%d kills=%d enemies=%d/%d allies=%d hp=%.0f dps=%.1f stress=%.2f fps=%.0f throttle=%.2f interval=%.2fs crits=%d/%d/%d%s",
			tel.RunID, tel.Tick, s.Wave, s.Level, s.Kills, s.Enemies, s.EnemyTarget, s.Allies, s.PlayerHP,
			s.DPS, s.Stress, s.FPS, s.Throttle, s.SpawnInterval, s.Crits[1], s.Crits[2], s.Crits[3], paused)
	case protocol.TypeRunEvent:
		var ev protocol.RunEventMsg
		if err := json.Unmarshal(msg, &ev); err != nil {
			return ""
		}
		return fmt.Sprintf("%s t=%d EVENT %s wave=%d lvl=%d value=%g", ev.RunID, ev.Tick, ev.Kind, ev.Wave, ev.Level, ev.Value)
	}
	return ""
}
