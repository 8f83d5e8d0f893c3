package relay

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/corner4world/gstd-1.x/pkg/config"
	"github.com/corner4world/gstd-1.x/pkg/gstc"
	"github.com/corner4world/gstd-1.x/pkg/logger"
	"github.com/corner4world/gstd-1.x/pkg/messaging"
)

// Service bridges a message bus and gstd: requests arriving on the request
// channel run through the client, answers go to the response channel, and
// watched signals are streamed to their own channels.
type Service struct {
	conf   config.RelayConfig
	client *gstc.Client
	bus    messaging.MessageBus

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	mu       sync.Mutex
	watchers map[signalKey]*watcher

	shutdown chan struct{}
	ready    chan struct{}
}

func NewService(conf *config.Config, client *gstc.Client, bus messaging.MessageBus) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)
	return &Service{
		conf:     conf.Relay,
		client:   client,
		bus:      bus,
		ctx:      ctx,
		cancel:   cancel,
		group:    group,
		watchers: make(map[signalKey]*watcher),
		shutdown: make(chan struct{}, 1),
		ready:    make(chan struct{}),
	}
}

// Run blocks until Stop is called, then waits for every watcher to exit.
func (s *Service) Run() error {
	requests, err := s.bus.Subscribe(s.ctx, s.conf.RequestChannel)
	if err != nil {
		return err
	}
	defer requests.Close()
	close(s.ready)

	logger.Infow("relay waiting for requests", "channel", s.conf.RequestChannel)
	for {
		select {
		case <-s.shutdown:
			logger.Debugw("shutting down relay")
			s.cancel()
			return s.group.Wait()
		case <-s.ctx.Done():
			return s.group.Wait()
		case msg, ok := <-requests.Channel():
			if !ok {
				s.cancel()
				return s.group.Wait()
			}
			s.handleMessage(msg)
		}
	}
}

// Ready is closed once the request subscription is live.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

func (s *Service) Stop() {
	select {
	case s.shutdown <- struct{}{}:
	default:
	}
}

func (s *Service) handleMessage(msg []byte) {
	req := &Request{}
	if err := json.Unmarshal(msg, req); err != nil || req.Command == "" {
		logger.Errorw("failed to read request", ErrMalformedRequest, "payload", string(msg))
		return
	}
	logger.Debugw("request received", "requestID", req.RequestID, "command", req.Command)

	switch req.Command {
	case CommandWatchSignal:
		s.respond(req, nil, s.watchSignal(req.Args))
		return
	case CommandUnwatchSignal:
		s.respond(req, nil, s.unwatchSignal(req.Args))
		return
	}

	verb, ok := gstc.LookupVerb(req.Command)
	if !ok {
		s.respond(req, nil, ErrUnknownCommand)
		return
	}

	if verb.Blocking {
		// blocking verbs must not stall the request loop
		s.group.Go(func() error {
			res, err := verb.Call(s.ctx, s.client, req.Args)
			s.respond(req, res, err)
			return nil
		})
		return
	}

	res, err := verb.Call(s.ctx, s.client, req.Args)
	s.respond(req, res, err)
}

func (s *Service) respond(req *Request, res interface{}, err error) {
	resp := &Response{
		RequestID:   req.RequestID,
		Code:        codeOf(err),
		Description: "Success",
		Response:    res,
	}
	if err != nil {
		logger.Errorw("error handling request", err,
			"requestID", req.RequestID, "command", req.Command)
		resp.Description = err.Error()
		resp.Response = nil
	}

	b, err := json.Marshal(resp)
	if err != nil {
		logger.Errorw("failed to marshal response", err)
		return
	}
	if err = s.bus.Publish(s.ctx, s.conf.ResponseChannel, b); err != nil {
		logger.Errorw("failed to publish response", err, "requestID", req.RequestID)
	}
}

func codeOf(err error) int {
	switch {
	case errors.Is(err, ErrUnknownCommand):
		return int(gstc.BadCommand)
	case errors.Is(err, ErrAlreadyWatching):
		return int(gstc.ExistingResource)
	case errors.Is(err, ErrNotWatching):
		return int(gstc.NoResource)
	default:
		return gstc.Code(err)
	}
}
