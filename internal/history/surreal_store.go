package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/lanstream/internal/database"
	"github.com/nfrund/lanstream/internal/domain"
)

// timestampFormat is RFC 3339 in UTC with the nanosecond field zero-padded to
// full width. RFC3339Nano trims trailing zeros, which makes the encoded width
// vary and lexicographic order diverge from chronological order; fixed width
// keeps ORDER BY over the stored strings chronological.
const timestampFormat = "2006-01-02T15:04:05.000000000Z"

// SurrealStore persists the log in a SurrealDB table. Timestamps are stored
// as fixed-width RFC 3339 strings in UTC, so lexicographic ORDER BY matches
// chronological order and the content+timestamp identity can be matched
// exactly.
type SurrealStore struct {
	db *surrealdb.DB

	mu     sync.Mutex
	lastTS time.Time
}

// record is the wire shape of one history row.
type record struct {
	Kind         string `json:"kind"`
	Content      string `json:"content"`
	OriginalName string `json:"original_name,omitempty"`
	SizeBytes    int64  `json:"size_bytes,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// countRow carries the result of a GROUP ALL count.
type countRow struct {
	Total int `json:"total"`
}

// NewSurrealStore creates a store backed by the given connection.
func NewSurrealStore(db *surrealdb.DB) *SurrealStore {
	return &SurrealStore{db: db}
}

func toRecord(msg domain.Message) record {
	return record{
		Kind:         string(msg.Kind),
		Content:      msg.Content,
		OriginalName: msg.OriginalName,
		SizeBytes:    msg.SizeBytes,
		Timestamp:    msg.Timestamp.UTC().Format(timestampFormat),
	}
}

func (r record) toMessage() (domain.Message, error) {
	ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return domain.Message{}, fmt.Errorf("failed to parse stored timestamp %q: %w", r.Timestamp, err)
	}
	return domain.Message{
		Kind:         domain.Kind(r.Kind),
		Content:      r.Content,
		OriginalName: r.OriginalName,
		SizeBytes:    r.SizeBytes,
		Timestamp:    ts,
	}, nil
}

// Append persists the message. A zero timestamp is assigned here, bumped past
// the newest one this store has handed out when the clock has not advanced,
// matching the file backend's strictly-increasing discipline.
func (s *SurrealStore) Append(ctx context.Context, msg *domain.Message) error {
	if msg.IsControl() {
		return fmt.Errorf("%w: control frame %q cannot be persisted", domain.ErrValidation, msg.Kind)
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	s.mu.Lock()
	if !msg.Timestamp.After(s.lastTS) {
		msg.Timestamp = s.lastTS.Add(time.Nanosecond)
	}
	s.lastTS = msg.Timestamp
	s.mu.Unlock()

	query := `
		CREATE history_message CONTENT {
			kind: $kind,
			content: $content,
			original_name: $original_name,
			size_bytes: $size_bytes,
			timestamp: $timestamp
		}
	`
	rec := toRecord(*msg)
	params := map[string]any{
		"kind":          rec.Kind,
		"content":       rec.Content,
		"original_name": rec.OriginalName,
		"size_bytes":    rec.SizeBytes,
		"timestamp":     rec.Timestamp,
	}

	if err := database.Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// Find returns a page in descending timestamp order plus the total matching count.
func (s *SurrealStore) Find(ctx context.Context, q Query) ([]domain.Message, int, error) {
	where := ""
	params := map[string]any{}
	if q.Kind != "" {
		where = " WHERE kind = $kind"
		params["kind"] = string(q.Kind)
	}

	countQuery := "SELECT count() AS total FROM history_message" + where + " GROUP ALL"
	count, err := database.QueryOne[countRow](ctx, s.db, countQuery, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}
	total := 0
	if count != nil {
		total = count.Total
	}

	query := "SELECT * FROM history_message" + where + " ORDER BY timestamp DESC"
	if q.Limit > 0 {
		query += " LIMIT $limit START $offset"
		params["limit"] = q.Limit
		params["offset"] = max(q.Offset, 0)
	} else if q.Offset > 0 {
		// SurrealQL has no START without LIMIT; an unbounded page past an
		// offset still needs an explicit ceiling.
		query += " LIMIT $limit START $offset"
		params["limit"] = total
		params["offset"] = q.Offset
	}

	rows, err := database.Query[record](ctx, s.db, query, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch messages: %w", err)
	}

	page := make([]domain.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := row.toMessage()
		if err != nil {
			return nil, 0, err
		}
		page = append(page, msg)
	}
	return page, total, nil
}

// DeleteOne removes the message matching content+timestamp, if present.
func (s *SurrealStore) DeleteOne(ctx context.Context, content string, ts time.Time) (*domain.Message, error) {
	params := map[string]any{
		"content":   content,
		"timestamp": ts.UTC().Format(timestampFormat),
	}

	existing, err := database.QueryOne[record](ctx, s.db,
		"SELECT * FROM history_message WHERE content = $content AND timestamp = $timestamp", params)
	if err != nil {
		return nil, fmt.Errorf("failed to look up message: %w", err)
	}
	if existing == nil {
		return nil, nil
	}

	err = database.Execute(ctx, s.db,
		"DELETE history_message WHERE content = $content AND timestamp = $timestamp", params)
	if err != nil {
		return nil, fmt.Errorf("failed to delete message: %w", err)
	}
	removed, err := existing.toMessage()
	if err != nil {
		return nil, err
	}
	return &removed, nil
}

// ClearAll removes every message. Idempotent.
func (s *SurrealStore) ClearAll(ctx context.Context) error {
	if err := database.Execute(ctx, s.db, "DELETE history_message", nil); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
