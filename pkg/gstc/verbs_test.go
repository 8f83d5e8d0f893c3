package gstc

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corner4world/gstd-1.x/pkg/config"
)

func TestVerbArguments(t *testing.T) {
	verb, ok := LookupVerb("pipeline_create")
	require.True(t, ok)

	args, err := verb.normalize(strings.Fields("p0 videotestsrc ! fakesink"))
	require.NoError(t, err)
	require.Equal(t, []string{"p0", "videotestsrc ! fakesink"}, args)

	_, err = verb.normalize([]string{"p0"})
	require.True(t, IsStatus(err, StatusNullArgument))

	verb, ok = LookupVerb("pipeline_play")
	require.True(t, ok)
	_, err = verb.normalize([]string{"p0", "p1"})
	require.True(t, IsStatus(err, StatusTypeError))

	_, ok = LookupVerb("pipeline_explode")
	require.False(t, ok)
}

func TestVerbCall(t *testing.T) {
	client, srv := newTestClient(t, config.GstdConfig{})
	ctx := context.Background()

	call := func(name string, args ...string) (interface{}, error) {
		verb, ok := LookupVerb(name)
		require.True(t, ok, name)
		return verb.Call(ctx, client, args)
	}

	_, err := call("pipeline_create", append([]string{"p0"}, strings.Fields(testPipeline)...)...)
	require.NoError(t, err)
	_, err = call("pipeline_play", "p0")
	require.NoError(t, err)
	_, err = call("signal_timeout", "p0", "identity", "handoff", "4000000")
	require.NoError(t, err)

	res, err := call("signal_connect", "p0", "identity", "handoff")
	require.NoError(t, err)
	require.Equal(t, "handoff", res.(*SignalCallback).Name)

	res, err = call("list_pipelines")
	require.NoError(t, err)
	require.Equal(t, []string{"p0"}, res)

	_, err = call("signal_timeout", "p0", "identity", "handoff", "soon")
	require.True(t, IsStatus(err, StatusTypeError))

	_, err = call("event_seek", "p0", "2.0")
	require.NoError(t, err)
	require.Contains(t, srv.Commands(), "create /pipelines/p0/event seek 2 3 1 1 0 1 -1")

	_, err = call("event_flush_stop", "p0")
	require.NoError(t, err)
	require.Contains(t, srv.Commands(), "create /pipelines/p0/event flush_stop true")
}
