package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel events are published to.
const DefaultChannel = "nutcracker:events"

// RedisForwarder publishes events as JSON on a Redis channel.
type RedisForwarder struct {
	rdb     *redis.Client
	channel string
}

// NewRedisForwarder wraps an existing client.
func NewRedisForwarder(rdb *redis.Client, channel string) *RedisForwarder {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisForwarder{rdb: rdb, channel: channel}
}

// DialRedis connects to url and verifies the connection.
func DialRedis(ctx context.Context, url, channel string) (*RedisForwarder, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisForwarder(rdb, channel), nil
}

// Forward publishes ev.
func (r *RedisForwarder) Forward(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", r.channel, err)
	}
	return nil
}

// Close releases the client.
func (r *RedisForwarder) Close() error {
	return r.rdb.Close()
}
