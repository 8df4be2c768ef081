// Package broker fans tool list snapshots out across server replicas. A
// namespace is an isolated, ordered stream of messages; every subscriber of
// a namespace sees every message published after it subscribed, or after the
// event id it resumes from.
package broker

import (
	"context"
	"errors"
)

// ErrUnknownEventID is returned by Subscribe when a resume id does not name a
// stored message.
var ErrUnknownEventID = errors.New("broker: unknown event id")

// Broker publishes and delivers messages by namespace.
type Broker interface {
	// Publish appends data to namespace and returns the generated event id.
	Publish(ctx context.Context, namespace string, data []byte) (eventID string, err error)

	// Subscribe calls handler for each message of namespace until ctx is done
	// or handler returns an error, which Subscribe then returns. An empty
	// lastEventID starts with the next published message; otherwise delivery
	// resumes after that event.
	Subscribe(ctx context.Context, namespace string, lastEventID string, handler MessageHandler) error

	// Cleanup removes all stored messages of namespace and ends its
	// subscriptions.
	Cleanup(ctx context.Context, namespace string) error
}

// MessageHandler consumes one delivered message.
type MessageHandler func(ctx context.Context, envelope MessageEnvelope) error

// MessageEnvelope wraps a message with its event id.
type MessageEnvelope struct {
	// ID orders messages within a namespace.
	ID   string `json:"id"`
	Data []byte `json:"data"`
}
