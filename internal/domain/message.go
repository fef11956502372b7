package domain

import "time"

// Kind identifies what a message carries.
type Kind string

const (
	// KindText is a plain UTF-8 text message.
	KindText Kind = "text"
	// KindFile references a previously uploaded blob. Whether a file is an
	// image is inferred from its extension on the client side, not stored.
	KindFile Kind = "file"

	// KindClear is a server-originated control frame telling clients to wipe
	// their local view. It is broadcast but never persisted.
	KindClear Kind = "clear"
	// KindDelete is a server-originated control frame announcing that a single
	// message was removed from the history.
	KindDelete Kind = "delete"
)

// Message is the atomic unit of the relay history.
//
// Timestamp is assigned by the server at ingestion and is strictly increasing
// across the whole log, so it doubles as the message identifier. Messages are
// immutable once persisted; they only ever disappear whole, via a single
// delete or a clear-all.
type Message struct {
	Kind    Kind   `json:"kind"`
	Content string `json:"content"`

	// OriginalName is the client-supplied filename, kept for display and
	// download. Only set for file messages.
	OriginalName string `json:"originalName,omitempty"`
	// SizeBytes is the stored blob size. Only set for file messages.
	SizeBytes int64 `json:"sizeBytes,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// IsControl reports whether the message is a server-originated control frame
// rather than part of the history.
func (m Message) IsControl() bool {
	return m.Kind == KindClear || m.Kind == KindDelete
}
