// Package events publishes order lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"salesflow/pkg/order"
)

// DefaultMaxLen bounds the stream length. Trimming is approximate.
const DefaultMaxLen = 10000

// RedisPublisher appends events to a Redis stream.
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

var _ order.Publisher = (*RedisPublisher)(nil)

// NewRedisPublisher creates a publisher writing to stream.
func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream, maxLen: DefaultMaxLen}
}

// Publish adds e to the stream with a fresh event id. The payload field holds
// the JSON encoding of e.
func (p *RedisPublisher) Publish(ctx context.Context, e order.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"id":        uuid.NewString(),
			"type":      string(e.Type),
			"pedido_id": e.OrderID,
			"payload":   payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

// Nop drops every event.
type Nop struct{}

// Publish discards e.
func (Nop) Publish(context.Context, order.Event) error { return nil }
