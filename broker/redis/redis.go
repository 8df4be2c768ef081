// Package redis provides a broker.Broker backed by Redis Streams, letting
// several server replicas share tool list snapshots.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ggoodman/mcp-methods-go/broker"
)

// DefaultKeyPrefix is used when Config.KeyPrefix is empty.
const DefaultKeyPrefix = "mcp:methods:"

// Broker stores each namespace as a Redis stream.
type Broker struct {
	client    redis.UniversalClient
	keyPrefix string
	block     time.Duration
}

// Config contains configuration options for the Redis broker.
type Config struct {
	// Client is the Redis client to use. If nil, a client for localhost:6379
	// is created.
	Client redis.UniversalClient
	// KeyPrefix is prepended to all keys. Defaults to DefaultKeyPrefix.
	KeyPrefix string
	// BlockTimeout bounds each blocking read so cancellation is observed.
	// Defaults to one second.
	BlockTimeout time.Duration
}

// New creates a Redis-backed broker.
func New(config Config) *Broker {
	client := config.Client
	if client == nil {
		client = redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	}
	keyPrefix := config.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	block := config.BlockTimeout
	if block <= 0 {
		block = time.Second
	}
	return &Broker{client: client, keyPrefix: keyPrefix, block: block}
}

// Close closes the Redis connection.
func (b *Broker) Close() error {
	return b.client.Close()
}

// Publish implements broker.Broker. Event ids are Redis stream ids.
func (b *Broker) Publish(ctx context.Context, namespace string, data []byte) (string, error) {
	streamKey := b.streamKey(namespace)
	eventID, err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]any{"data": data},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish message to stream %s: %w", streamKey, err)
	}
	return eventID, nil
}

// Subscribe implements broker.Broker. Every subscriber reads the whole
// stream; no consumer groups are involved.
func (b *Broker) Subscribe(ctx context.Context, namespace string, lastEventID string, handler broker.MessageHandler) error {
	streamKey := b.streamKey(namespace)

	startID := lastEventID
	if startID == "" {
		// Pin "$" to a concrete id so messages published between reads are
		// not skipped.
		var err error
		if startID, err = b.lastID(ctx, streamKey); err != nil {
			return err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		streams, err := b.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{streamKey, startID},
			Count:   16,
			Block:   b.block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read from stream %s: %w", streamKey, err)
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				startID = message.ID
				data, ok := message.Values["data"].(string)
				if !ok {
					continue
				}
				if err := handler(ctx, broker.MessageEnvelope{ID: message.ID, Data: []byte(data)}); err != nil {
					return err
				}
			}
		}
	}
}

// lastID returns the id of the newest entry of the stream, or "0" when the
// stream is empty or missing.
func (b *Broker) lastID(ctx context.Context, streamKey string) (string, error) {
	msgs, err := b.client.XRevRangeN(ctx, streamKey, "+", "-", 1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to read stream %s: %w", streamKey, err)
	}
	if len(msgs) == 0 {
		return "0", nil
	}
	return msgs[0].ID, nil
}

// Cleanup implements broker.Broker. Subscribers keep polling the deleted
// stream until their context ends.
func (b *Broker) Cleanup(ctx context.Context, namespace string) error {
	streamKey := b.streamKey(namespace)
	if err := b.client.Del(ctx, streamKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to cleanup namespace %s: %w", namespace, err)
	}
	return nil
}

func (b *Broker) streamKey(namespace string) string {
	return b.keyPrefix + "stream:" + namespace
}

var _ broker.Broker = (*Broker)(nil)
