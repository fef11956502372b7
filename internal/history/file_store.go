package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/nfrund/lanstream/internal/domain"
)

// FileStore keeps the log in memory and snapshots it to a JSON file on every
// mutation. It is the default backend: a LAN relay has one process and a
// modest history, so a whole-file snapshot is simpler than an embedded
// database and survives restarts just as well.
//
// The backing filesystem is abstracted through afero so tests run against an
// in-memory filesystem.
type FileStore struct {
	fs   afero.Fs
	path string

	mu       sync.Mutex
	messages []domain.Message // insertion order == chronological order
}

// NewFileStore creates the store and loads any existing snapshot.
func NewFileStore(fs afero.Fs, path string) (*FileStore, error) {
	s := &FileStore{fs: fs, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // first run, empty log
		}
		return fmt.Errorf("failed to read history file: %w", err)
	}
	if err := json.Unmarshal(data, &s.messages); err != nil {
		return fmt.Errorf("failed to parse history file: %w", err)
	}
	return nil
}

// snapshot writes the whole log to disk. Caller must hold the mutex.
func (s *FileStore) snapshot() error {
	data, err := json.MarshalIndent(s.messages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

// Append persists the message. A zero timestamp is assigned here, bumped past
// the last entry when the clock has not advanced, so timestamps stay strictly
// increasing and usable as identifiers. Control frames are broadcast-only and
// never enter the log.
func (s *FileStore) Append(ctx context.Context, msg *domain.Message) error {
	if msg.IsControl() {
		return fmt.Errorf("%w: control frame %q cannot be persisted", domain.ErrValidation, msg.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if n := len(s.messages); n > 0 && !msg.Timestamp.After(s.messages[n-1].Timestamp) {
		msg.Timestamp = s.messages[n-1].Timestamp.Add(time.Nanosecond)
	}

	s.messages = append(s.messages, *msg)
	if err := s.snapshot(); err != nil {
		// The append is not durable; roll the in-memory state back so memory
		// and disk never disagree.
		s.messages = s.messages[:len(s.messages)-1]
		return err
	}
	return nil
}

// Find returns a page in descending timestamp order plus the total matching count.
func (s *FileStore) Find(ctx context.Context, q Query) ([]domain.Message, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Walk newest-first; insertion order already is chronological order.
	matching := make([]domain.Message, 0, len(s.messages))
	for i := len(s.messages) - 1; i >= 0; i-- {
		if q.Kind != "" && s.messages[i].Kind != q.Kind {
			continue
		}
		matching = append(matching, s.messages[i])
	}

	total := len(matching)
	start := min(q.Offset, total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	page := make([]domain.Message, end-start)
	copy(page, matching[start:end])
	return page, total, nil
}

// DeleteOne removes the message matching content+timestamp, if present.
func (s *FileStore) DeleteOne(ctx context.Context, content string, ts time.Time) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, msg := range s.messages {
		if msg.Content == content && msg.Timestamp.Equal(ts) {
			removed := msg
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			if err := s.snapshot(); err != nil {
				// Re-insert at the original position; the delete did not happen.
				s.messages = append(s.messages[:i], append([]domain.Message{removed}, s.messages[i:]...)...)
				return nil, err
			}
			return &removed, nil
		}
	}
	return nil, nil
}

// ClearAll removes every message. Idempotent.
func (s *FileStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	return s.snapshot()
}
