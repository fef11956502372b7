package pubsub

import (
	"context"
)

// Well-known topics on the relay bus.
const (
	// TopicInbound carries raw envelopes received from client channels,
	// consumed by the message router.
	TopicInbound = "relay.messages.inbound"
)

// Message is the structure passed between components on the bus.
// It is intentionally simple to act as a wrapper for raw data.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g., "relay.messages.inbound").
	Topic string
	// SessionID identifies the client channel the message arrived on.
	SessionID string
	// Payload contains the raw message data (e.g., an envelope as JSON).
	Payload []byte
	// Metadata can contain arbitrary key-value pairs for context (e.g., timestamps).
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the Pub/Sub system.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the Pub/Sub system.
type Subscriber interface {
	// Subscribe starts listening to the given topic, processing messages with
	// the handler. Messages on one topic are handled sequentially, in arrival
	// order.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
