package relay

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corner4world/gstd-1.x/pkg/config"
	"github.com/corner4world/gstd-1.x/pkg/gstc"
	"github.com/corner4world/gstd-1.x/pkg/gstc/gstctest"
	"github.com/corner4world/gstd-1.x/pkg/logger"
	"github.com/corner4world/gstd-1.x/pkg/messaging"
)

const testPipeline = "videotestsrc is-live=true ! identity signal-handoffs=true name=identity ! fakesink"

type harness struct {
	ctx       context.Context
	srv       *gstctest.Server
	bus       *messaging.LocalMessageBus
	svc       *Service
	responses messaging.Subscription
	conf      *config.Config
}

func newHarness(t *testing.T) *harness {
	logger.Init("debug")

	srv, err := gstctest.NewServer()
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	conf := config.TestConfig()
	conf.Gstd = srv.TCPConfig()
	client, err := gstc.NewClient(conf.Gstd)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	bus := messaging.NewLocalMessageBus()
	responses, err := bus.Subscribe(ctx, conf.Relay.ResponseChannel)
	require.NoError(t, err)
	t.Cleanup(func() { _ = responses.Close() })

	svc := NewService(conf, client, bus)
	done := make(chan error, 1)
	go func() {
		done <- svc.Run()
	}()
	t.Cleanup(func() {
		svc.Stop()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("relay did not stop")
		}
	})

	select {
	case <-svc.Ready():
	case <-time.After(time.Second):
		t.Fatal("relay not ready")
	}

	return &harness{ctx: ctx, srv: srv, bus: bus, svc: svc, responses: responses, conf: conf}
}

func (h *harness) request(t *testing.T, id, command string, args ...string) *Response {
	b, err := json.Marshal(&Request{RequestID: id, Command: command, Args: args})
	require.NoError(t, err)
	require.NoError(t, h.bus.Publish(h.ctx, h.conf.Relay.RequestChannel, b))

	select {
	case msg := <-h.responses.Channel():
		res := &Response{}
		require.NoError(t, json.Unmarshal(msg, res))
		require.Equal(t, id, res.RequestID)
		return res
	case <-time.After(5 * time.Second):
		t.Fatalf("no response to %s", id)
		return nil
	}
}

func TestRelayCommands(t *testing.T) {
	h := newHarness(t)

	res := h.request(t, "1", "pipeline_create", "p0", testPipeline)
	require.Equal(t, 0, res.Code)
	require.Equal(t, "Success", res.Description)

	res = h.request(t, "2", "pipeline_play", "p0")
	require.Equal(t, 0, res.Code)
	require.Equal(t, "PLAYING", h.srv.State("p0"))

	res = h.request(t, "3", "list_pipelines")
	require.Equal(t, 0, res.Code)
	require.Equal(t, []interface{}{"p0"}, res.Response)

	res = h.request(t, "4", "signal_connect", "p0", "identity", "handoff")
	require.Equal(t, 0, res.Code)
	cb, ok := res.Response.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "handoff", cb["name"])

	res = h.request(t, "5", "pipeline_create", "p0", testPipeline)
	require.Equal(t, int(gstc.ExistingResource), res.Code)

	res = h.request(t, "6", "pipeline_play")
	require.Equal(t, int(gstc.StatusNullArgument), res.Code)

	res = h.request(t, "7", "no_such_command")
	require.Equal(t, int(gstc.BadCommand), res.Code)
}

func TestRelayWatchSignal(t *testing.T) {
	h := newHarness(t)
	h.srv.SetSignalDelay(10 * time.Millisecond)

	require.Equal(t, 0, h.request(t, "1", "pipeline_create", "p0", testPipeline).Code)
	require.Equal(t, 0, h.request(t, "2", "pipeline_play", "p0").Code)

	events, err := h.bus.Subscribe(h.ctx, SignalChannel(h.conf.Relay.SignalPrefix, "p0", "identity", "handoff"))
	require.NoError(t, err)
	defer events.Close()

	require.Equal(t, 0, h.request(t, "3", CommandWatchSignal, "p0", "identity", "handoff").Code)
	require.Equal(t, int(gstc.ExistingResource),
		h.request(t, "4", CommandWatchSignal, "p0", "identity", "handoff").Code)

	for i := 0; i < 3; i++ {
		select {
		case msg := <-events.Channel():
			ev := &SignalEvent{}
			require.NoError(t, json.Unmarshal(msg, ev))
			require.Equal(t, "p0", ev.Pipeline)
			require.Equal(t, "identity", ev.Element)
			require.Equal(t, "handoff", ev.Signal)
			require.Equal(t, "handoff", ev.Callback.Name)
		case <-time.After(5 * time.Second):
			t.Fatal("no signal event")
		}
	}

	require.Equal(t, 0, h.request(t, "5", CommandUnwatchSignal, "p0", "identity", "handoff").Code)
	require.Equal(t, int(gstc.NoResource),
		h.request(t, "6", CommandUnwatchSignal, "p0", "identity", "handoff").Code)
}

func callbackReads(srv *gstctest.Server) int {
	n := 0
	for _, cmd := range srv.Commands() {
		if strings.HasSuffix(cmd, "/callback") {
			n++
		}
	}
	return n
}

func TestRelayWatchIdleSignal(t *testing.T) {
	h := newHarness(t)

	// a pipeline that is not playing answers every callback read at once
	require.Equal(t, 0, h.request(t, "1", "pipeline_create", "p0", testPipeline).Code)
	require.Equal(t, 0, h.request(t, "2", CommandWatchSignal, "p0", "identity", "handoff").Code)

	time.Sleep(3 * idleDelay)
	reads := callbackReads(h.srv)
	require.GreaterOrEqual(t, reads, 1)
	require.LessOrEqual(t, reads, 6)

	require.Equal(t, 0, h.request(t, "3", CommandUnwatchSignal, "p0", "identity", "handoff").Code)
}

func TestRelayWatchGivesUp(t *testing.T) {
	delay := retryDelay
	retryDelay = 5 * time.Millisecond
	defer func() { retryDelay = delay }()

	h := newHarness(t)

	require.Equal(t, 0, h.request(t, "1", CommandWatchSignal, "missing", "identity", "handoff").Code)

	// once the watcher gives up, the same signal can be watched again
	deadline := time.Now().Add(5 * time.Second)
	for i := 2; ; i++ {
		res := h.request(t, strconv.Itoa(i), CommandWatchSignal, "missing", "identity", "handoff")
		if res.Code == 0 {
			break
		}
		require.Equal(t, int(gstc.ExistingResource), res.Code)
		require.True(t, time.Now().Before(deadline), "watcher never gave up")
		time.Sleep(10 * time.Millisecond)
	}
	require.GreaterOrEqual(t, callbackReads(h.srv), maxReadFailures)
}
