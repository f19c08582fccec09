package ledger

import (
	"context"
	"time"
)

// Network is the slice of the consensus service the message store needs.
type Network interface {
	// CreateTopic submits a topic-creation transaction and returns the new
	// topic id once the receipt confirms it.
	CreateTopic(ctx context.Context, memo string) (string, error)
	// ResolveTopic validates an externally supplied topic id and returns its
	// canonical form.
	ResolveTopic(ctx context.Context, topicID string) (string, error)
	// Submit appends payload to the topic and waits for the receipt.
	Submit(ctx context.Context, topicID string, payload []byte) error
	// Subscribe opens a live query from start. onPayload may be called from
	// another goroutine for every entry.
	Subscribe(ctx context.Context, topicID string, start time.Time, onPayload func([]byte)) (Subscription, error)
}

// Subscription is a live topic query.
type Subscription interface {
	Close()
}
