// Package brokertest is a conformance suite for broker.Broker
// implementations.
package brokertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ggoodman/mcp-methods-go/broker"
)

// BrokerFactory creates a fresh broker for one test.
type BrokerFactory func(t *testing.T) broker.Broker

// RunBrokerTests runs the suite against brokers produced by factory.
func RunBrokerTests(t *testing.T, factory BrokerFactory) {
	t.Run("PublishAndSubscribe", func(t *testing.T) { testPublishAndSubscribe(t, factory) })
	t.Run("ResumeFromLastEventID", func(t *testing.T) { testResumeFromLastEventID(t, factory) })
	t.Run("MultipleSubscribers", func(t *testing.T) { testMultipleSubscribers(t, factory) })
	t.Run("NamespaceIsolation", func(t *testing.T) { testNamespaceIsolation(t, factory) })
	t.Run("ContextCancellation", func(t *testing.T) { testContextCancellation(t, factory) })
	t.Run("HandlerErrorStopsSubscription", func(t *testing.T) { testHandlerError(t, factory) })
	t.Run("Cleanup", func(t *testing.T) { testCleanup(t, factory) })
	t.Run("ResumeFromUnknownEventID", func(t *testing.T) { testResumeFromUnknownEventID(t, factory) })
}

func snapshot(i int) []byte {
	return []byte(fmt.Sprintf(`[{"name":"tool-%d"}]`, i))
}

// collector records envelopes and cancels once it has seen want of them.
type collector struct {
	mu     sync.Mutex
	got    []broker.MessageEnvelope
	want   int
	cancel context.CancelFunc
}

func (c *collector) handle(_ context.Context, env broker.MessageEnvelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, env)
	if len(c.got) >= c.want {
		c.cancel()
	}
	return nil
}

func (c *collector) envelopes() []broker.MessageEnvelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]broker.MessageEnvelope(nil), c.got...)
}

func subscribe(b broker.Broker, ctx context.Context, ns, last string, h broker.MessageHandler) <-chan error {
	done := make(chan error, 1)
	go func() { done <- b.Subscribe(ctx, ns, last, h) }()
	return done
}

func wait(t *testing.T, done <-chan error, want error) {
	t.Helper()
	select {
	case err := <-done:
		if !errors.Is(err, want) {
			t.Fatalf("subscription ended with %v, want %v", err, want)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("subscription did not complete within timeout")
	}
}

// settle gives subscriptions time to register before publishing.
func settle() { time.Sleep(100 * time.Millisecond) }

func testPublishAndSubscribe(t *testing.T, factory BrokerFactory) {
	b := factory(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	defer cleanup(t, b, "ns-1")

	subCtx, subCancel := context.WithCancel(ctx)
	c := &collector{want: 1, cancel: subCancel}
	done := subscribe(b, subCtx, "ns-1", "", c.handle)
	settle()

	id, err := b.Publish(ctx, "ns-1", snapshot(1))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty event id")
	}
	wait(t, done, context.Canceled)

	got := c.envelopes()
	if len(got) != 1 || got[0].ID != id || string(got[0].Data) != string(snapshot(1)) {
		t.Fatalf("unexpected envelopes %+v", got)
	}
}

func testResumeFromLastEventID(t *testing.T, factory BrokerFactory) {
	b := factory(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	defer cleanup(t, b, "ns-2")

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := b.Publish(ctx, "ns-2", snapshot(i))
		if err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	subCtx, subCancel := context.WithCancel(ctx)
	c := &collector{want: 2, cancel: subCancel}
	wait(t, subscribe(b, subCtx, "ns-2", ids[0], c.handle), context.Canceled)

	got := c.envelopes()
	if len(got) != 2 || got[0].ID != ids[1] || got[1].ID != ids[2] {
		t.Fatalf("expected events %v, got %+v", ids[1:], got)
	}
}

func testMultipleSubscribers(t *testing.T, factory BrokerFactory) {
	b := factory(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	defer cleanup(t, b, "ns-3")

	ctx1, cancel1 := context.WithCancel(ctx)
	ctx2, cancel2 := context.WithCancel(ctx)
	c1 := &collector{want: 2, cancel: cancel1}
	c2 := &collector{want: 2, cancel: cancel2}
	done1 := subscribe(b, ctx1, "ns-3", "", c1.handle)
	done2 := subscribe(b, ctx2, "ns-3", "", c2.handle)
	settle()

	for i := 0; i < 2; i++ {
		if _, err := b.Publish(ctx, "ns-3", snapshot(i)); err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
	}
	wait(t, done1, context.Canceled)
	wait(t, done2, context.Canceled)

	if n1, n2 := len(c1.envelopes()), len(c2.envelopes()); n1 != 2 || n2 != 2 {
		t.Fatalf("expected both subscribers to see 2 messages, got %d and %d", n1, n2)
	}
}

func testNamespaceIsolation(t *testing.T, factory BrokerFactory) {
	b := factory(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	defer cleanup(t, b, "ns-4a", "ns-4b")

	subCtx, subCancel := context.WithCancel(ctx)
	c := &collector{want: 1, cancel: subCancel}
	done := subscribe(b, subCtx, "ns-4a", "", c.handle)
	settle()

	if _, err := b.Publish(ctx, "ns-4b", snapshot(0)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want, err := b.Publish(ctx, "ns-4a", snapshot(1))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	wait(t, done, context.Canceled)

	got := c.envelopes()
	if len(got) != 1 || got[0].ID != want {
		t.Fatalf("expected only %s, got %+v", want, got)
	}
}

func testContextCancellation(t *testing.T, factory BrokerFactory) {
	b := factory(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	defer cleanup(t, b, "ns-5")

	done := subscribe(b, ctx, "ns-5", "", func(context.Context, broker.MessageEnvelope) error { return nil })
	wait(t, done, context.DeadlineExceeded)
}

func testHandlerError(t *testing.T, factory BrokerFactory) {
	b := factory(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	defer cleanup(t, b, "ns-6")

	errHandler := errors.New("handler error")
	done := subscribe(b, ctx, "ns-6", "", func(context.Context, broker.MessageEnvelope) error { return errHandler })
	settle()

	if _, err := b.Publish(ctx, "ns-6", snapshot(0)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	wait(t, done, errHandler)
}

func testCleanup(t *testing.T, factory BrokerFactory) {
	b := factory(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	defer cleanup(t, b, "ns-7")

	id, err := b.Publish(ctx, "ns-7", snapshot(0))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := b.Cleanup(ctx, "ns-7"); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	subCtx, subCancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer subCancel()
	var received int
	err = b.Subscribe(subCtx, "ns-7", id, func(context.Context, broker.MessageEnvelope) error {
		received++
		return nil
	})
	if received != 0 {
		t.Fatalf("received %d messages after cleanup", received)
	}
	// Unknown-id errors and timeouts are both acceptable here.
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		t.Logf("subscription after cleanup returned %v", err)
	}
}

func testResumeFromUnknownEventID(t *testing.T, factory BrokerFactory) {
	b := factory(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	defer cleanup(t, b, "ns-8")

	err := b.Subscribe(ctx, "ns-8", "non-existent-id", func(context.Context, broker.MessageEnvelope) error { return nil })
	if err == nil {
		t.Fatal("expected an error for an unknown event id")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("subscription should fail immediately for an unknown event id")
	}
}

func cleanup(t *testing.T, b broker.Broker, namespaces ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, ns := range namespaces {
		if err := b.Cleanup(ctx, ns); err != nil {
			t.Logf("cleanup %s: %v", ns, err)
		}
	}
}
