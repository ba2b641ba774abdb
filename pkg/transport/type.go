package transport

import (
	"context"
	"fmt"
)

// Message is one gossip message as delivered by the network. Timestamp is
// unix milliseconds, zero when the relaying node did not attach one.
type Message struct {
	Payload      []byte `json:"payload"`
	ContentTopic string `json:"contentTopic"`
	Timestamp    int64  `json:"timestamp,omitempty"`
}

// Handler receives messages from a subscription. It runs on the transport's
// delivery goroutine and must not block; hand work off to a channel.
type Handler func(Message)

// Subscription is a live topic subscription. Cancel stops delivery and
// releases the underlying network resources.
type Subscription struct {
	ID     string
	cancel func()
}

func (s *Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Transport is the boundary to the gossip network. Delivery is best-effort:
// arrival order holds per topic, nothing is guaranteed across topics or peers.
type Transport interface {
	// Subscribe delivers every message published on any of the topics to h.
	Subscribe(ctx context.Context, contentTopics []string, h Handler) (*Subscription, error)

	// Send publishes payload on the topic. Failures are reported, not retried.
	Send(ctx context.Context, contentTopic string, payload []byte) error

	// RetrieveHistorical pages through stored messages for the topic. The
	// first call per topic returns messages from a fixed look-back window
	// ending now; subsequent calls return only messages strictly after the
	// last one returned, so a missed subscription window can be recovered
	// without duplicates.
	RetrieveHistorical(ctx context.Context, contentTopic string) ([]Message, error)
}

// Error wraps a failed transport operation. The directory core never retries
// these; retry policy belongs to the caller.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("transport %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }
