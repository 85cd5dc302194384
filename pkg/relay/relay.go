// pkg/relay/relay.go
package relay

import (
	"context"
	"errors"
	"sync/atomic"
)

var ErrMissingTopic = errors.New("relay: missing topic")

// Message is one encoded action bound for a topic.
type Message struct {
	Topic   string
	Type    string
	Body    []byte
	Headers map[string]string
}

// Publisher ships messages downstream.
type Publisher interface {
	Publish(ctx context.Context, m Message) error
}

// Noop accepts and discards messages. It is used when no relay target is
// configured so forwarding effects still complete.
type Noop struct {
	dropped atomic.Int64
}

func (n *Noop) Publish(_ context.Context, m Message) error {
	if m.Topic == "" {
		return ErrMissingTopic
	}
	n.dropped.Add(1)
	return nil
}

// Dropped reports how many messages were discarded.
func (n *Noop) Dropped() int64 { return n.dropped.Load() }
