// Package memory provides an in-memory broker.Broker for single-node
// deployments and tests.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ggoodman/mcp-methods-go/broker"
)

// Broker keeps every namespace's history in memory. State is local to the
// process.
type Broker struct {
	mu           sync.Mutex
	namespaces   map[string]*namespace
	eventCounter atomic.Int64
}

type namespace struct {
	mu          sync.Mutex
	messages    []broker.MessageEnvelope
	subscribers map[*subscription]struct{}
	closed      bool
}

type subscription struct {
	ch   chan broker.MessageEnvelope
	done chan struct{} // closed by Cleanup
}

// subscriberBuffer bounds undelivered messages per subscriber. Publishing to
// a full subscriber drops the message for that subscriber.
const subscriberBuffer = 100

// New creates an empty broker.
func New() *Broker {
	return &Broker{namespaces: make(map[string]*namespace)}
}

func (b *Broker) namespace(name string) *namespace {
	b.mu.Lock()
	defer b.mu.Unlock()
	ns, ok := b.namespaces[name]
	if !ok {
		ns = &namespace{subscribers: make(map[*subscription]struct{})}
		b.namespaces[name] = ns
	}
	return ns
}

// Publish implements broker.Broker.
func (b *Broker) Publish(ctx context.Context, namespaceName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	env := broker.MessageEnvelope{
		ID:   strconv.FormatInt(b.eventCounter.Add(1), 10),
		Data: append([]byte(nil), data...),
	}

	ns := b.namespace(namespaceName)
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if ns.closed {
		return "", fmt.Errorf("namespace %q has been cleaned up", namespaceName)
	}
	ns.messages = append(ns.messages, env)
	for sub := range ns.subscribers {
		select {
		case sub.ch <- env:
		default:
		}
	}
	return env.ID, nil
}

// Subscribe implements broker.Broker.
func (b *Broker) Subscribe(ctx context.Context, namespaceName string, lastEventID string, handler broker.MessageHandler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ns := b.namespace(namespaceName)

	ns.mu.Lock()
	if ns.closed {
		ns.mu.Unlock()
		return fmt.Errorf("namespace %q has been cleaned up", namespaceName)
	}
	var backlog []broker.MessageEnvelope
	if lastEventID != "" {
		found := false
		for i, msg := range ns.messages {
			if msg.ID == lastEventID {
				backlog = append(backlog, ns.messages[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			ns.mu.Unlock()
			return fmt.Errorf("%w: %q in namespace %q", broker.ErrUnknownEventID, lastEventID, namespaceName)
		}
	}
	sub := &subscription{ch: make(chan broker.MessageEnvelope, subscriberBuffer), done: make(chan struct{})}
	ns.subscribers[sub] = struct{}{}
	ns.mu.Unlock()

	defer func() {
		ns.mu.Lock()
		delete(ns.subscribers, sub)
		ns.mu.Unlock()
	}()

	for _, env := range backlog {
		if err := handler(ctx, env); err != nil {
			return err
		}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.done:
			return nil
		case env := <-sub.ch:
			if err := handler(ctx, env); err != nil {
				return err
			}
		}
	}
}

// Cleanup implements broker.Broker. Active subscriptions return nil.
func (b *Broker) Cleanup(ctx context.Context, namespaceName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	ns, ok := b.namespaces[namespaceName]
	delete(b.namespaces, namespaceName)
	b.mu.Unlock()
	if !ok {
		return nil
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.closed = true
	for sub := range ns.subscribers {
		close(sub.done)
	}
	ns.subscribers = make(map[*subscription]struct{})
	ns.messages = nil
	return nil
}

var _ broker.Broker = (*Broker)(nil)
