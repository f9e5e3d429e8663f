package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusDeliversToSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	ch := bus.Subscribe(TopicSignInOut, 1)
	other := bus.Subscribe("other", 1)

	require.NoError(t, bus.Publish(context.Background(), TopicSignInOut, map[string]any{"mode": "checked_in"}))

	msg := <-ch
	assert.Equal(t, TopicSignInOut, msg.Topic)
	assert.JSONEq(t, `{"mode":"checked_in"}`, string(msg.Payload))
	select {
	case <-other:
		t.Fatal("unexpected delivery on other topic")
	default:
	}
}

func TestMemoryBusDropsWhenFull(t *testing.T) {
	bus := NewMemoryBus()
	ch := bus.Subscribe(TopicSignInOut, 1)
	require.NoError(t, bus.Publish(context.Background(), TopicSignInOut, 1))
	require.NoError(t, bus.Publish(context.Background(), TopicSignInOut, 2))
	assert.Len(t, ch, 1)
}

func TestMemoryBusClose(t *testing.T) {
	bus := NewMemoryBus()
	ch := bus.Subscribe(TopicSignInOut, 1)
	bus.Close()
	_, ok := <-ch
	assert.False(t, ok)
	assert.ErrorIs(t, bus.Publish(context.Background(), TopicSignInOut, 1), ErrClosed)
}

func TestRedisBusRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	bus := NewRedisBus(client, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- bus.Subscribe(ctx, func(m Message) { got <- m }, TopicSignInOut)
	}()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("*")) > 0
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Publish(context.Background(), TopicSignInOut, map[string]any{"mode": false}))
	select {
	case msg := <-got:
		assert.Equal(t, TopicSignInOut, msg.Topic)
		assert.JSONEq(t, `{"mode":false}`, string(msg.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
