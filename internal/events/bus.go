// Package events broadcasts dashboard notifications to subscribers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// TopicSignInOut carries attendance toggles.
const TopicSignInOut = "signin_signout"

const channelPrefix = "hrdash.events."

// Bus publishes payloads on named topics.
type Bus interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Message is one delivered event.
type Message struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("events: bus closed")

// RedisBus fans events out over Redis pub/sub so every instance sees them.
type RedisBus struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisBus wraps client.
func NewRedisBus(client *redis.Client, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{client: client, logger: logger}
}

// Publish encodes payload as JSON and publishes it on topic.
func (b *RedisBus) Publish(ctx context.Context, topic string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", topic, err)
	}
	if err := b.client.Publish(ctx, channelPrefix+topic, raw).Err(); err != nil {
		return fmt.Errorf("events: publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe delivers messages of topics to fn until ctx is cancelled.
func (b *RedisBus) Subscribe(ctx context.Context, fn func(Message), topics ...string) error {
	channels := make([]string, len(topics))
	for i, topic := range topics {
		channels[i] = channelPrefix + topic
	}
	sub := b.client.Subscribe(ctx, channels...)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("events: subscribe: %w", err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if !json.Valid([]byte(msg.Payload)) {
				b.logger.Warn("events: dropping malformed payload", slog.String("channel", msg.Channel))
				continue
			}
			fn(Message{Topic: msg.Channel[len(channelPrefix):], Payload: json.RawMessage(msg.Payload)})
		}
	}
}

// MemoryBus delivers events in process. It backs tests and single node setups
// without Redis.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string][]chan Message
	closed bool
}

// NewMemoryBus constructs an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]chan Message)}
}

// Publish delivers payload to current subscribers of topic. Slow subscribers
// with a full buffer miss the message.
func (b *MemoryBus) Publish(_ context.Context, topic string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", topic, err)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for _, ch := range b.subs[topic] {
		select {
		case ch <- Message{Topic: topic, Payload: raw}:
		default:
		}
	}
	return nil
}

// Subscribe returns a buffered channel receiving messages of topic.
func (b *MemoryBus) Subscribe(topic string, buffer int) <-chan Message {
	ch := make(chan Message, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[topic] = append(b.subs[topic], ch)
	return ch
}

// Close closes every subscriber channel.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, list := range b.subs {
		for _, ch := range list {
			close(ch)
		}
	}
	b.subs = nil
}
