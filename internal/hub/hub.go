package hub

import (
	"log/slog"

	"github.com/nfrund/lanstream/internal/metrics"
)

// Session represents a single connected client channel. It contains the
// buffered channel through which the Hub sends outbound frames; the transport
// layer is responsible for draining it.
type Session struct {
	// Send is a buffered channel of outbound frames. The Hub sends frames to
	// this channel, and the owning connection reads from it in order, so a
	// session always observes broadcasts in the order they were issued.
	Send chan []byte
}

// NewSession creates a session with an outbound buffer of the given size.
func NewSession(buffer int) *Session {
	return &Session{Send: make(chan []byte, buffer)}
}

// Hub is the registry of live client sessions. It maintains the set of
// currently connected sessions and broadcasts frames to all of them.
//
// All state is owned by the Run goroutine; register, unregister and broadcast
// are channel sends, so the set can be mutated mid-broadcast without
// corrupting the pass. The Hub is instance-scoped, never a global, so tests
// can run isolated instances.
type Hub struct {
	// Registered sessions.
	sessions map[*Session]bool

	// Broadcast is the channel for frames to be fanned out to every
	// registered session.
	Broadcast chan []byte

	// Register is a channel for new sessions to register with the hub.
	Register chan *Session

	// Unregister is a channel for sessions to unregister from the hub.
	// Unregistering a session that is already gone is a no-op.
	Unregister chan *Session
}

// New creates and returns a new Hub instance.
func New() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte),
		Register:   make(chan *Session),
		Unregister: make(chan *Session),
		sessions:   make(map[*Session]bool),
	}
}

// Run starts the Hub's processing loop. It must be run in a separate
// goroutine. It listens on its channels and orchestrates all fan-out.
func (h *Hub) Run() {
	for {
		select {
		case session := <-h.Register:
			h.sessions[session] = true
			metrics.SessionsConnected.Set(float64(len(h.sessions)))
			slog.Info("Session registered", "total_sessions", len(h.sessions))

		case session := <-h.Unregister:
			if _, ok := h.sessions[session]; ok {
				delete(h.sessions, session)
				close(session.Send)
				metrics.SessionsConnected.Set(float64(len(h.sessions)))
				slog.Info("Session unregistered", "total_sessions", len(h.sessions))
			}

		case frame := <-h.Broadcast:
			slog.Debug("Broadcasting frame", "recipient_count", len(h.sessions))
			for session := range h.sessions {
				// Non-blocking send: one stalled session must not hold up
				// delivery to the others.
				select {
				case session.Send <- frame:
				default:
					// The session's buffer is full. Assume it is dead or
					// stuck, unregister it and keep going; the client can
					// recover the missed state from the history endpoint
					// after it reconnects.
					close(session.Send)
					delete(h.sessions, session)
					metrics.BroadcastsDropped.Inc()
					metrics.SessionsConnected.Set(float64(len(h.sessions)))
					slog.Warn("Unregistering slow session", "total_sessions", len(h.sessions))
				}
			}
		}
	}
}
