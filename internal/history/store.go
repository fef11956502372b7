package history

import (
	"context"
	"time"

	"github.com/nfrund/lanstream/internal/domain"
)

// Query describes one paginated read of the log.
type Query struct {
	// Kind filters the log to one message kind. Empty means no filter.
	Kind domain.Kind
	// Limit caps the page size. Zero or negative means unbounded (the whole
	// matching history), for backward-compatible simple clients.
	Limit int
	// Offset skips that many matching messages from the newest end.
	Offset int
}

// Store is the append-only, time-ordered record of every message ever sent.
// It is the single source of truth: the live broadcast is only a best-effort
// mirror, and a client that missed a broadcast recovers by reading the log.
//
// Implementations must serialize mutation; Append, DeleteOne and ClearAll are
// called under the router's write discipline but must also be safe on their
// own.
type Store interface {
	// Append persists the message, assigning a timestamp if it has none.
	// Persistence failure is returned to the caller, never swallowed.
	Append(ctx context.Context, msg *domain.Message) error

	// Find returns messages in descending timestamp order (most recent
	// first), stable for equal timestamps by insertion sequence, plus the
	// total count of all messages matching the filter.
	Find(ctx context.Context, q Query) (page []domain.Message, total int, err error)

	// DeleteOne removes exactly one message matching the content+timestamp
	// identity. It returns the removed message, or nil when no match was
	// found.
	DeleteOne(ctx context.Context, content string, ts time.Time) (*domain.Message, error)

	// ClearAll removes every message. Idempotent.
	ClearAll(ctx context.Context) error
}
