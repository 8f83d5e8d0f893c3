package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	conf, err := NewConfig("")
	require.NoError(t, err)
	require.Equal(t, DefaultAddress, conf.Gstd.Address)
	require.Equal(t, TransportTCP, conf.Gstd.Transport)
	require.Zero(t, conf.Gstd.Port)
	require.NoError(t, conf.Gstd.Validate())
	require.Equal(t, DefaultTCPPort, conf.Gstd.Port)
	require.Equal(t, 5*time.Second, conf.Gstd.Timeout())
	require.Equal(t, "gstd_requests", conf.Relay.RequestChannel)
}

func TestParse(t *testing.T) {
	conf, err := NewConfig(`
log_level: debug
gstd:
  address: 10.0.0.2
  transport: HTTP
  timeout_ms: 0
  keep_connection_open: true
redis:
  address: redis:6379
  db: 2
relay:
  signal_prefix: signals
`)
	require.NoError(t, err)
	require.Equal(t, "debug", conf.LogLevel)
	require.Equal(t, "10.0.0.2", conf.Gstd.Address)
	require.Equal(t, TransportHTTP, conf.Gstd.Transport)
	require.NoError(t, conf.Gstd.Validate())
	// http falls back to its own default port
	require.Equal(t, DefaultHTTPPort, conf.Gstd.Port)
	require.Equal(t, time.Duration(0), conf.Gstd.Timeout())
	require.True(t, conf.Gstd.KeepConnectionOpen)
	require.Equal(t, "redis:6379", conf.Redis.Address)
	require.Equal(t, 2, conf.Redis.DB)
	require.Equal(t, "signals", conf.Relay.SignalPrefix)
	require.Equal(t, "gstd_responses", conf.Relay.ResponseChannel)
}

func TestTransportOverride(t *testing.T) {
	conf, err := NewConfig("")
	require.NoError(t, err)
	conf.Gstd.Transport = "HTTP"
	require.NoError(t, conf.Gstd.Validate())
	require.Equal(t, TransportHTTP, conf.Gstd.Transport)
	require.Equal(t, DefaultHTTPPort, conf.Gstd.Port)

	// an explicit port survives a transport change
	conf, err = NewConfig("gstd:\n  port: 6000\n")
	require.NoError(t, err)
	conf.Gstd.Transport = TransportHTTP
	require.NoError(t, conf.Gstd.Validate())
	require.Equal(t, 6000, conf.Gstd.Port)
}

func TestInvalid(t *testing.T) {
	_, err := NewConfig("gstd:\n  transport: udp\n")
	require.Error(t, err)

	_, err = NewConfig("gstd:\n  port: 70000\n")
	require.Error(t, err)

	_, err = NewConfig("gstd: [")
	require.Error(t, err)
}
