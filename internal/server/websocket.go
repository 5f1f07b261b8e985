// Package server implements the websocket transport carrying fan-out
// subscriber messages. The subscriber registry and broadcast live in
// internal/fanout; this package only upgrades HTTP connections, pumps
// bytes, and forwards decoded inbound tags to the fan-out.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dscore/driverstation/internal/fanout"
)

// rejectedLogEveryN throttles the "rate limit exceeded" log line itself:
// a subscriber hammering the limiter must not also flood the process log.
const rejectedLogEveryN = 20

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 65536
)

// inboundMessage is the small tagged record shape of subscriber-to-core
// messages; unrecognized Type values are ignored.
type inboundMessage struct {
	Type      string `json:"type"`
	Joysticks []any  `json:"joysticks"`
}

// WebSocketServer upgrades HTTP connections into Fan-out subscribers and
// runs each connection's read/write pumps.
type WebSocketServer struct {
	fanout      *fanout.Fanout
	upgrader    websocket.Upgrader
	logger      *zap.Logger
	rateLimiter *subscriberRateLimiter
}

// NewWebSocketServer builds a WebSocketServer delivering Fan-out
// broadcasts to every upgraded connection. inboundRatePerMin bounds how
// many inbound messages (joystick_update and any future subscriber
// command) a single subscriber may send per minute before the rest are
// dropped; 0 disables the limit.
func NewWebSocketServer(f *fanout.Fanout, inboundRatePerMin int, logger *zap.Logger) *WebSocketServer {
	return &WebSocketServer{
		fanout: f,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:      logger,
		rateLimiter: newSubscriberRateLimiter(inboundRatePerMin),
	}
}

// HandleWebSocket upgrades the request, attaches a new Fan-out
// subscriber, and starts its read and write pumps.
func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := fanout.NewSubscriber()
	s.fanout.Attach(sub)
	s.logger.Info("subscriber connected", zap.String("id", sub.ID), zap.String("remote_addr", conn.RemoteAddr().String()))

	go s.writePump(conn, sub)
	go s.readPump(conn, sub)
}

func (s *WebSocketServer) readPump(conn *websocket.Conn, sub *fanout.Subscriber) {
	defer func() {
		s.fanout.Detach(sub)
		s.rateLimiter.forget(sub.ID)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	var rejected uint64
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", zap.String("id", sub.ID), zap.Error(err))
			}
			return
		}

		if !s.rateLimiter.allow(sub.ID) {
			rejected++
			if rejected%rejectedLogEveryN == 1 {
				s.logger.Warn("subscriber exceeded inbound rate limit, dropping message",
					zap.String("id", sub.ID), zap.Uint64("rejected_total", rejected))
			}
			continue
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		s.fanout.HandleInbound(msg.Type, msg.Joysticks)
	}
}

func (s *WebSocketServer) writePump(conn *websocket.Conn, sub *fanout.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// HealthHandler is a minimal liveness endpoint for infra probes.
func (s *WebSocketServer) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","service":"driverstation"}`))
}

// WithRequestLogging wraps next with a structured access log entry per
// request. It reports the hub's live subscriber count alongside the usual
// method/path/remote_addr/duration fields, since for this server the
// interesting operational signal is how connection churn on /ws tracks
// request volume on /health, not raw request counting in isolation.
func (s *WebSocketServer) WithRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
			zap.Int("subscriber_count", s.fanout.SubscriberCount()),
		)
	})
}
