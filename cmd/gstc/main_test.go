package main

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/corner4world/gstd-1.x/pkg/config"
)

func runGetConfig(t *testing.T, args ...string) *config.Config {
	var conf *config.Config
	app := &cli.App{
		Name:  "gstc",
		Flags: globalFlags(),
		Commands: []*cli.Command{{
			Name: "show",
			Action: func(c *cli.Context) error {
				var err error
				conf, err = getConfig(c)
				return err
			},
		}},
	}
	require.NoError(t, app.Run(append(append([]string{"gstc"}, args...), "show")))
	require.NotNil(t, conf)
	return conf
}

func TestConfigPrecedence(t *testing.T) {
	conf := runGetConfig(t)
	require.Equal(t, config.TransportTCP, conf.Gstd.Transport)
	require.Equal(t, config.DefaultTCPPort, conf.Gstd.Port)

	// the transport flag picks its own default port
	conf = runGetConfig(t, "--transport", "http")
	require.Equal(t, config.TransportHTTP, conf.Gstd.Transport)
	require.Equal(t, config.DefaultHTTPPort, conf.Gstd.Port)

	conf = runGetConfig(t, "--transport", "http", "--port", "7000")
	require.Equal(t, 7000, conf.Gstd.Port)

	// flags win over the config body, unset flags do not
	conf = runGetConfig(t,
		"--config-body", "gstd:\n  address: 10.0.0.3\n  port: 6000\n  timeout_ms: 100\n",
		"--timeout", "250")
	require.Equal(t, "10.0.0.3", conf.Gstd.Address)
	require.Equal(t, 6000, conf.Gstd.Port)
	require.Equal(t, 250, conf.Gstd.TimeoutMs)
}
