package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalMessageBus(t *testing.T) {
	ctx := context.Background()
	bus := NewLocalMessageBus()

	sub, err := bus.Subscribe(ctx, "requests")
	require.NoError(t, err)
	other, err := bus.Subscribe(ctx, "other")
	require.NoError(t, err)
	defer other.Close()

	require.NoError(t, bus.Publish(ctx, "requests", []byte("hello")))
	select {
	case msg := <-sub.Channel():
		require.Equal(t, "hello", string(msg))
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	require.Len(t, other.Channel(), 0)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	// publishing with no subscribers is not an error
	require.NoError(t, bus.Publish(ctx, "requests", []byte("dropped")))
}

func TestLocalMessageBusCloseUnblocksPublish(t *testing.T) {
	ctx := context.Background()
	bus := NewLocalMessageBus()

	sub, err := bus.Subscribe(ctx, "signals")
	require.NoError(t, err)
	for i := 0; i < cap(sub.Channel()); i++ {
		require.NoError(t, bus.Publish(ctx, "signals", []byte("event")))
	}

	published := make(chan error, 1)
	go func() {
		published <- bus.Publish(ctx, "signals", []byte("overflow"))
	}()

	closed := make(chan struct{})
	go func() {
		_ = sub.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("close blocked behind a pending publish")
	}
	select {
	case err := <-published:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("publish not released by close")
	}
}

func TestLocalMessageBusPublishHonorsContext(t *testing.T) {
	bus := NewLocalMessageBus()
	sub, err := bus.Subscribe(context.Background(), "signals")
	require.NoError(t, err)
	defer sub.Close()
	for i := 0; i < cap(sub.Channel()); i++ {
		require.NoError(t, bus.Publish(context.Background(), "signals", []byte("event")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, bus.Publish(ctx, "signals", []byte("overflow")), context.DeadlineExceeded)
}
