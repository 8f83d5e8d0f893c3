package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eapache/channels"
	"github.com/pkg/errors"

	"github.com/corner4world/gstd-1.x/pkg/gstc"
	"github.com/corner4world/gstd-1.x/pkg/logger"
)

var (
	// retryDelay spaces out reconnects after a failed signal read.
	retryDelay      = time.Second
	// idleDelay spaces out reads the daemon answered without an emission.
	idleDelay       = 100 * time.Millisecond
	publishTimeout  = 5 * time.Second
	// maxReadFailures consecutive daemon errors end the watch.
	maxReadFailures = 5
)

type watcher struct {
	key     signalKey
	channel string
	cancel  context.CancelFunc
	// callbacks queue between the signal reader and the publisher
	buffer *channels.InfiniteChannel
}

func (s *Service) watchSignal(args []string) error {
	if len(args) != 3 {
		return errors.Wrapf(ErrMalformedRequest, "%s expects pipeline, element and signal", CommandWatchSignal)
	}
	key := signalKey{pipe: args[0], element: args[1], signal: args[2]}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.watchers[key]; ok {
		return errors.Wrap(ErrAlreadyWatching, key.String())
	}

	ctx, cancel := context.WithCancel(s.ctx)
	w := &watcher{
		key:     key,
		channel: SignalChannel(s.conf.SignalPrefix, key.pipe, key.element, key.signal),
		cancel:  cancel,
		buffer:  channels.NewInfiniteChannel(),
	}
	s.watchers[key] = w

	s.group.Go(func() error {
		s.readSignal(ctx, w)
		return nil
	})
	s.group.Go(func() error {
		s.publishSignal(w)
		return nil
	})
	logger.Infow("watching signal", "signal", key.String(), "channel", w.channel)
	return nil
}

func (s *Service) unwatchSignal(args []string) error {
	if len(args) != 3 {
		return errors.Wrapf(ErrMalformedRequest, "%s expects pipeline, element and signal", CommandUnwatchSignal)
	}
	key := signalKey{pipe: args[0], element: args[1], signal: args[2]}

	s.mu.Lock()
	w, ok := s.watchers[key]
	delete(s.watchers, key)
	s.mu.Unlock()
	if !ok {
		return errors.Wrap(ErrNotWatching, key.String())
	}

	w.cancel()
	// wake a reader parked on the daemon
	if err := s.client.SignalDisconnect(s.ctx, key.pipe, key.element, key.signal); err != nil {
		logger.Infow("could not disconnect signal", "error", err, "signal", key.String())
	}
	logger.Infow("stopped watching signal", "signal", key.String())
	return nil
}

// readSignal connects to the signal over and over, queueing each emission,
// until the watcher is cancelled. Transport failures are retried forever;
// daemon errors (pipeline or element gone) end the watch after
// maxReadFailures in a row.
func (s *Service) readSignal(ctx context.Context, w *watcher) {
	defer w.buffer.Close()
	failures := 0
	for {
		cb, err := s.client.SignalConnect(ctx, w.key.pipe, w.key.element, w.key.signal)
		if ctx.Err() != nil {
			return
		}

		var delay time.Duration
		var de *gstc.DaemonError
		switch {
		case err == nil:
			failures = 0
			w.buffer.In() <- &SignalEvent{
				Pipeline:  w.key.pipe,
				Element:   w.key.element,
				Signal:    w.key.signal,
				Callback:  cb,
				Timestamp: time.Now().UnixNano(),
			}
			continue
		case gstc.IsStatus(err, gstc.StatusTimeout):
			// no emission within the signal timeout, keep waiting
			failures = 0
			delay = idleDelay
		case errors.As(err, &de):
			failures++
			if failures >= maxReadFailures {
				logger.Errorw("giving up on signal", err, "signal", w.key.String(), "failures", failures)
				s.dropWatcher(w)
				return
			}
			delay = retryDelay
		default:
			logger.Errorw("signal read failed", err, "signal", w.key.String())
			delay = retryDelay
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// dropWatcher forgets w unless it was already replaced or unwatched.
func (s *Service) dropWatcher(w *watcher) {
	s.mu.Lock()
	if s.watchers[w.key] == w {
		delete(s.watchers, w.key)
	}
	s.mu.Unlock()
	w.cancel()
}

func (s *Service) publishSignal(w *watcher) {
	for item := range w.buffer.Out() {
		b, err := json.Marshal(item)
		if err != nil {
			logger.Errorw("failed to marshal signal event", err)
			continue
		}
		// a fresh context lets queued events drain after the watcher is cancelled
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err = s.bus.Publish(ctx, w.channel, b)
		cancel()
		if err != nil {
			logger.Errorw("failed to publish signal event", err, "channel", w.channel)
		}
	}
}
