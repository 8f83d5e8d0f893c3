package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corner4world/gstd-1.x/pkg/gstc"
)

func TestArgsUsage(t *testing.T) {
	verb, ok := gstc.LookupVerb("event_flush_stop")
	require.True(t, ok)
	require.Equal(t, "<pipeline> [reset]", argsUsage(verb))

	verb, ok = gstc.LookupVerb("signal_timeout")
	require.True(t, ok)
	require.Equal(t, "<pipeline> <element> <signal> <timeout>", argsUsage(verb))
}

func TestCategory(t *testing.T) {
	require.Equal(t, "pipeline", category("pipeline_create"))
	require.Equal(t, "pipeline", category("list_elements"))
	require.Equal(t, "signal", category("signal_connect"))
	require.Equal(t, "", category("ping"))
}

func TestExitCode(t *testing.T) {
	require.Equal(t, int(gstc.ExistingResource), exitCodeFor(int(gstc.ExistingResource)))
	require.Equal(t, 101, exitCodeFor(int(gstc.StatusNullArgument)))
	require.Equal(t, 1, exitCodeFor(0))
}
