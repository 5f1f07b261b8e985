package fanout

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// clientSendBuffer bounds how many pending messages a slow subscriber may
// accumulate before it is dropped.
const clientSendBuffer = 256

// Subscriber is one attached client. Send is the channel the broadcaster
// writes to; a transport (e.g. internal/server's websocket writer) reads
// from it and pushes bytes to the network.
type Subscriber struct {
	ID   string
	Send chan Message
}

// Hub is the subscriber registry and broadcast fan-out: a channel-driven
// event loop (register/unregister/broadcast) instead of a directly-locked
// map, so that registration, removal, and broadcast never interleave
// unsafely. Subscribers that cannot accept a message without blocking
// are dropped.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Subscriber
	register   chan *Subscriber
	unregister chan *Subscriber
	broadcast  chan Message
	logger     *zap.Logger
}

// NewHub constructs a Hub. Run must be called (typically in its own
// goroutine) to start the event loop.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Subscriber),
		register:   make(chan *Subscriber),
		unregister: make(chan *Subscriber),
		broadcast:  make(chan Message, clientSendBuffer),
		logger:     logger,
	}
}

// NewSubscriber allocates a Subscriber with a fresh id.
func NewSubscriber() *Subscriber {
	return &Subscriber{ID: uuid.NewString(), Send: make(chan Message, clientSendBuffer)}
}

// Register adds a subscriber to the hub.
func (h *Hub) Register(s *Subscriber) { h.register <- s }

// Unregister removes a subscriber from the hub.
func (h *Hub) Unregister(s *Subscriber) { h.unregister <- s }

// Broadcast enqueues msg for delivery to every currently registered
// subscriber.
func (h *Hub) Broadcast(msg Message) { h.broadcast <- msg }

// Count returns the number of currently registered subscribers, used for
// the system_stats "connected_clients" field.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run is the Hub's event loop; it must run until the process shuts down.
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.clients[s.ID] = s
			h.mu.Unlock()
		case s := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[s.ID]; ok {
				delete(h.clients, s.ID)
				close(s.Send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, s := range h.clients {
				select {
				case s.Send <- msg:
				default:
					h.logger.Warn("subscriber send buffer full, dropping subscriber", zap.String("id", s.ID))
					go h.Unregister(s)
				}
			}
			h.mu.RUnlock()
		}
	}
}
