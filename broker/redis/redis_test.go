package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ggoodman/mcp-methods-go/broker"
	"github.com/ggoodman/mcp-methods-go/broker/brokertest"
)

func newBroker(t *testing.T) *Broker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := New(Config{Client: client, KeyPrefix: "test:", BlockTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestRedisBroker(t *testing.T) {
	brokertest.RunBrokerTests(t, func(t *testing.T) broker.Broker { return newBroker(t) })
}

func TestStreamKey(t *testing.T) {
	mr := miniredis.RunT(t)
	b := New(Config{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})})
	defer b.Close()

	if _, err := b.Publish(context.Background(), "tools", []byte(`[]`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !mr.Exists(DefaultKeyPrefix + "stream:tools") {
		t.Fatalf("expected stream key %q, have %v", DefaultKeyPrefix+"stream:tools", mr.Keys())
	}
	if err := b.Cleanup(context.Background(), "tools"); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if mr.Exists(DefaultKeyPrefix + "stream:tools") {
		t.Fatal("stream survived cleanup")
	}
}
