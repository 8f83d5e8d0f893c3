package gstc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corner4world/gstd-1.x/pkg/gstc/gstctest"
)

func TestSignalTimeout(t *testing.T) {
	srv, err := gstctest.NewServer()
	require.NoError(t, err)
	defer srv.Close()

	conf := srv.TCPConfig()
	conf.LogLevel = "DEBUG"
	client, err := NewClient(conf)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	pipeline := "videotestsrc is-live=true ! identity sleep-time=10000000 signal-handoffs=true name=identity ! xvimagesink"

	require.Equal(t, 0, Code(client.PipelineCreate(ctx, "p0", pipeline)))
	require.Equal(t, 0, Code(client.PipelinePlay(ctx, "p0")))
	require.Equal(t, 0, Code(client.SignalTimeout(ctx, "p0", "identity", "handoff", 4000000)))
	ret, err := client.SignalConnect(ctx, "p0", "identity", "handoff")
	require.NoError(t, err)
	require.Equal(t, "handoff", ret.Name)
}
