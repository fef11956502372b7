package websocket

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/lanstream/internal/hub"
	"github.com/nfrund/lanstream/internal/pubsub"
)

// Time allowed to write a frame to the peer.
const writeWait = 10 * time.Second

// Bridge ties WebSocket connections to the relay: every accepted connection
// becomes a hub session receiving broadcasts, and every frame the client
// sends is published to the inbound bus topic for the router to consume.
type Bridge struct {
	publisher  pubsub.Publisher
	sessions   *hub.Hub
	sendBuffer int
}

// NewBridge initializes a new Bridge, ready to handle connections.
func NewBridge(pub pubsub.Publisher, sessions *hub.Hub, sendBuffer int) *Bridge {
	return &Bridge{
		publisher:  pub,
		sessions:   sessions,
		sendBuffer: sendBuffer,
	}
}

// client pairs one connection with its hub session.
type client struct {
	// id is transient and only used to correlate log lines and inbound
	// frames; the relay keeps no persisted identity for a channel.
	id      string
	conn    *websocket.Conn
	session *hub.Session
}

// Handler returns the echo handler that upgrades a request to a WebSocket
// connection and registers it as a live session.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			// The relay is LAN-local by design and carries no credentials,
			// so cross-origin upgrades are accepted.
			InsecureSkipVerify: true,
		})
		if err != nil {
			slog.Error("Failed to upgrade connection to WebSocket", "error", err)
			return err
		}

		cl := &client{
			id:      uuid.NewString(),
			conn:    conn,
			session: hub.NewSession(b.sendBuffer),
		}
		b.sessions.Register <- cl.session

		// The session is live from this point on: broadcasts may arrive
		// before the client has sent anything.
		go b.writePump(cl)
		go b.readPump(cl)

		return nil
	}
}

// readPump reads frames from the WebSocket connection and publishes them to
// the inbound bus topic. It owns unregistration: when the read side dies for
// any reason, the session is withdrawn from the hub.
func (b *Bridge) readPump(cl *client) {
	defer func() {
		b.sessions.Unregister <- cl.session
		cl.conn.Close(websocket.StatusNormalClosure, "Client disconnected")
	}()

	for {
		// The coder/websocket library manages keep-alives; a read simply
		// fails once the connection is dead.
		_, frame, err := cl.conn.Read(context.Background())
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
				slog.Info("WebSocket closed normally by client", "session_id", cl.id)
			} else if err != io.EOF {
				slog.Error("WebSocket read error", "session_id", cl.id, "error", err)
			}
			return
		}

		msg := pubsub.Message{
			Topic:     pubsub.TopicInbound,
			SessionID: cl.id,
			Payload:   frame,
			Metadata: map[string]string{
				"received_at": time.Now().UTC().Format(time.RFC3339),
			},
		}
		if err := b.publisher.Publish(context.Background(), msg); err != nil {
			slog.Error("Failed to publish inbound frame", "session_id", cl.id, "error", err)
		}
	}
}

// writePump drains the session's send channel into the WebSocket connection,
// preserving broadcast order. It exits when the hub closes the channel or a
// write fails; either way the connection is closed and readPump unwinds.
func (b *Bridge) writePump(cl *client) {
	defer cl.conn.Close(websocket.StatusNormalClosure, "Server-side cleanup")

	for frame := range cl.session.Send {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := cl.conn.Write(ctx, websocket.MessageText, frame)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "session_id", cl.id, "error", err)
			return
		}
	}
}
