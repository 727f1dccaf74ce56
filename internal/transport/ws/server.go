package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"hordesim.ai/internal/protocol"
	"hordesim.ai/internal/sim/world"
)

// Server is the control channel: one HELLO/WELCOME handshake, then CONTROL
// messages answered by ACK once the world applies them at a tick boundary.
type Server struct {
	world        *world.World
	log          *log.Logger
	tuningDigest string

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(w *world.World, tuningDigest string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		world:        w,
		log:          logger,
		tuningDigest: tuningDigest,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, acks := s.handshake(conn)
		if sessionID == "" {
			return
		}
		s.log.Printf("control session %s connected from %s", sessionID, r.RemoteAddr)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case ack := <-acks:
					if err := writeJSON(conn, ack); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			s.handleControl(sessionID, msg, acks)
		}

		// Cleanup.
		select {
		case s.world.ControlLeave() <- sessionID:
		default:
		}
		s.log.Printf("control session %s closed", sessionID)
	}
}

// handleControl validates one inbound frame and forwards it to the world.
// Anything the world never sees is answered here.
func (s *Server) handleControl(sessionID string, msg []byte, acks chan protocol.AckMsg) {
	var ctl protocol.ControlMsg
	_ = json.Unmarshal(msg, &ctl)

	reject := func(code, message string) {
		ack := protocol.AckMsg{
			Type:            protocol.TypeAck,
			ProtocolVersion: protocol.Version,
			ControlID:       ctl.ControlID,
			Tick:            s.world.CurrentTick(),
			Code:            code,
			Message:         message,
		}
		select {
		case acks <- ack:
		default:
		}
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil {
		reject(protocol.ErrProtoBadRequest, "malformed json")
		return
	}
	if base.Type != protocol.TypeControl {
		reject(protocol.ErrProtoBadRequest, fmt.Sprintf("unexpected message type %q", base.Type))
		return
	}
	if base.ProtocolVersion != protocol.Version {
		reject(protocol.ErrProtoBadRequest, "bad protocol_version")
		return
	}
	if err := protocol.ValidateControl(msg); err != nil {
		reject(protocol.ErrProtoBadRequest, err.Error())
		return
	}

	select {
	case s.world.Controls() <- world.ControlRequest{SessionID: sessionID, Msg: ctl, Resp: acks}:
	default:
		reject(protocol.ErrWorldBusy, "control queue full")
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, acks chan protocol.AckMsg) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}
	if base.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}
	if err := protocol.ValidateHello(msg); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad HELLO"), time.Now().Add(time.Second))
		return "", nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}

	sessionID = fmt.Sprintf("C%d", s.nextID.Add(1))
	if err := writeJSON(conn, s.world.Welcome(sessionID, s.tuningDigest)); err != nil {
		return "", nil
	}
	return sessionID, make(chan protocol.AckMsg, maxQ)
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
