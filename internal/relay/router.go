package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/lanstream/internal/domain"
	"github.com/nfrund/lanstream/internal/history"
	"github.com/nfrund/lanstream/internal/hub"
	"github.com/nfrund/lanstream/internal/metrics"
	"github.com/nfrund/lanstream/internal/pubsub"
	"github.com/nfrund/lanstream/internal/storage"
)

// Router is the relay core. It accepts envelopes from any source (the
// websocket bus or HTTP), validates and stamps them, persists them to the
// history log and only then broadcasts the canonical message to every
// registered session.
//
// The mutex serializes the stamp-append-broadcast sequence, so the order
// clients observe live is exactly the order a later history query returns.
type Router struct {
	log      history.Store
	blobs    storage.Store
	sessions *hub.Hub
	validate *validator.Validate

	mu     sync.Mutex
	lastTS time.Time

	// now is the clock, swappable in tests.
	now func() time.Time
}

// New creates a router over the given history log, blob store and session hub.
func New(log history.Store, blobs storage.Store, sessions *hub.Hub) *Router {
	return &Router{
		log:      log,
		blobs:    blobs,
		sessions: sessions,
		validate: newValidator(),
		now:      time.Now,
	}
}

// Start seeds the stamping clock from the newest persisted entry, then
// subscribes the router to the inbound envelope topic so that messages
// arriving over client channels flow through the same Submit path as
// HTTP-sourced ones.
//
// The seeding matters after a restart: lastTS begins at zero, and if the wall
// clock regressed while the relay was down, a fresh stamp could collide with
// or precede the stored history.
func (r *Router) Start(ctx context.Context, sub pubsub.Subscriber) error {
	newest, _, err := r.log.Find(ctx, history.Query{Limit: 1})
	if err != nil {
		return fmt.Errorf("failed to read newest history entry: %w", err)
	}
	if len(newest) > 0 {
		r.mu.Lock()
		if newest[0].Timestamp.After(r.lastTS) {
			r.lastTS = newest[0].Timestamp
		}
		r.mu.Unlock()
	}

	return sub.Subscribe(ctx, pubsub.TopicInbound, r.handleInbound)
}

// handleInbound processes one raw envelope from a client channel. A rejected
// envelope is the sender's problem alone: it is logged and dropped, nothing
// is persisted or broadcast and other sessions never see it.
func (r *Router) handleInbound(ctx context.Context, msg pubsub.Message) error {
	var env Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		// A bare text frame is accepted as a text envelope, which keeps
		// trivial clients (netcat-grade) working.
		env = Envelope{Kind: domain.KindText, Content: string(msg.Payload)}
	}

	if _, err := r.Submit(ctx, env); err != nil {
		slog.Warn("Rejected inbound envelope", "session_id", msg.SessionID, "error", err)
	}
	return nil
}

// Submit validates, stamps, persists and broadcasts one envelope. On success
// the stored canonical message is returned. On validation failure nothing is
// persisted or broadcast; on persistence failure nothing is broadcast, so
// observers can never see state that is absent from the history.
func (r *Router) Submit(ctx context.Context, env Envelope) (*domain.Message, error) {
	if err := validateEnvelope(r.validate, env); err != nil {
		metrics.MessagesRejected.Inc()
		return nil, err
	}
	if env.Kind == domain.KindFile {
		ok, err := r.blobs.Exists(ctx, env.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to check blob for token %q: %w", env.Content, err)
		}
		if !ok {
			metrics.MessagesRejected.Inc()
			return nil, fmt.Errorf("%w: no uploaded content for token %q", domain.ErrValidation, env.Content)
		}
	}

	msg := domain.Message{
		Kind:         env.Kind,
		Content:      env.Content,
		OriginalName: env.OriginalName,
		SizeBytes:    env.SizeBytes,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msg.Timestamp = r.stamp()
	if err := r.log.Append(ctx, &msg); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	r.broadcast(msg)
	metrics.MessagesRelayed.WithLabelValues(string(msg.Kind)).Inc()
	return &msg, nil
}

// stamp returns a strictly increasing server timestamp. Two envelopes landing
// in the same clock instant are separated by a nanosecond, so the timestamp
// is usable as the message identifier. Caller must hold the mutex.
func (r *Router) stamp() time.Time {
	ts := r.now().UTC()
	if !ts.After(r.lastTS) {
		ts = r.lastTS.Add(time.Nanosecond)
	}
	r.lastTS = ts
	return ts
}

// Delete removes one message by its content+timestamp identity. When the
// removed message referenced an uploaded blob, the blob goes with it. On
// success a delete control frame is broadcast so connected clients can drop
// the message live instead of waiting for their next history poll.
func (r *Router) Delete(ctx context.Context, content string, ts time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed, err := r.log.DeleteOne(ctx, content, ts)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if removed == nil {
		return fmt.Errorf("%w: no message with content %q at %s", domain.ErrNotFound, content, ts)
	}

	if removed.Kind == domain.KindFile {
		if err := r.blobs.Delete(ctx, removed.Content); err != nil {
			// The history entry is already gone; an orphaned blob is
			// preferable to a phantom history entry, so log and move on.
			slog.Warn("Failed to delete blob for removed message", "token", removed.Content, "error", err)
		}
	}

	r.broadcast(domain.Message{
		Kind:      domain.KindDelete,
		Content:   removed.Content,
		Timestamp: removed.Timestamp,
	})
	return nil
}

// Clear wipes the entire history and every stored blob, then broadcasts the
// clear control frame instructing clients to drop their local view. The
// frame itself is never persisted.
func (r *Router) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.log.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	if err := r.blobs.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear blobs: %w", err)
	}

	r.broadcast(domain.Message{Kind: domain.KindClear})
	return nil
}

// History exposes paginated reads of the log.
func (r *Router) History(ctx context.Context, q history.Query) ([]domain.Message, int, error) {
	return r.log.Find(ctx, q)
}

// broadcast marshals the message and hands it to the session hub. Per-session
// delivery failures are the hub's concern and never surface here.
func (r *Router) broadcast(msg domain.Message) {
	frame, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal broadcast frame", "kind", msg.Kind, "error", err)
		return
	}
	r.sessions.Broadcast <- frame
}
