package messaging

import (
	"context"
	"sync"
)

// LocalMessageBus is an in-process MessageBus for tests and single-host use.
type LocalMessageBus struct {
	mu   sync.RWMutex
	subs map[string]map[*localSubscription]struct{}
}

func NewLocalMessageBus() *LocalMessageBus {
	return &LocalMessageBus{
		subs: make(map[string]map[*localSubscription]struct{}),
	}
}

// Publish blocks while a subscriber's buffer is full, until it drains, the
// subscription closes or ctx is done.
func (b *LocalMessageBus) Publish(ctx context.Context, channel string, msg []byte) error {
	b.mu.RLock()
	subs := make([]*localSubscription, 0, len(b.subs[channel]))
	for sub := range b.subs[channel] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.msgs <- msg:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *LocalMessageBus) Subscribe(_ context.Context, channel string) (Subscription, error) {
	sub := &localSubscription{
		bus:     b,
		channel: channel,
		msgs:    make(chan []byte, 100),
		done:    make(chan struct{}),
	}
	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*localSubscription]struct{})
	}
	b.subs[channel][sub] = struct{}{}
	b.mu.Unlock()
	return sub, nil
}

type localSubscription struct {
	bus     *LocalMessageBus
	channel string
	msgs    chan []byte
	done    chan struct{}
	once    sync.Once
}

func (s *localSubscription) Channel() <-chan []byte {
	return s.msgs
}

func (s *localSubscription) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs[s.channel], s)
		s.bus.mu.Unlock()
		close(s.done)
	})
	return nil
}
