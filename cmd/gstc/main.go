package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/corner4world/gstd-1.x/pkg/config"
	"github.com/corner4world/gstd-1.x/pkg/gstc"
	"github.com/corner4world/gstd-1.x/pkg/logger"
	"github.com/corner4world/gstd-1.x/version"
)

func main() {
	app := &cli.App{
		Name:        "gstc",
		Usage:       "GStreamer Daemon client",
		Description: "controls pipelines running inside gstd",
		Flags:       globalFlags(),
		Commands:    append(verbCommands(), extraCommands()...),
		Version:     version.Version,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to gstc config file",
		},
		&cli.StringFlag{
			Name:    "config-body",
			Usage:   "gstc config in YAML, typically passed in as an env var in a container",
			EnvVars: []string{"GSTC_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "address",
			Aliases: []string{"a"},
			Usage:   "gstd address",
			EnvVars: []string{"GSTD_ADDRESS"},
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "gstd port",
			EnvVars: []string{"GSTD_PORT"},
		},
		&cli.StringFlag{
			Name:  "transport",
			Usage: "tcp or http",
		},
		&cli.IntFlag{
			Name:  "timeout",
			Usage: "request timeout in milliseconds, 0 disables it",
		},
		&cli.BoolFlag{
			Name:  "keep-open",
			Usage: "reuse one connection for every command",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
	}
}

func getConfig(c *cli.Context) (*config.Config, error) {
	configFile := c.String("config")
	configBody := c.String("config-body")
	if configBody == "" && configFile != "" {
		content, err := ioutil.ReadFile(configFile)
		if err != nil {
			return nil, err
		}
		configBody = string(content)
	}

	conf, err := config.NewConfig(configBody)
	if err != nil {
		return nil, err
	}

	if c.IsSet("address") {
		conf.Gstd.Address = c.String("address")
	}
	if c.IsSet("port") {
		conf.Gstd.Port = c.Int("port")
	}
	if c.IsSet("transport") {
		conf.Gstd.Transport = c.String("transport")
	}
	if c.IsSet("timeout") {
		conf.Gstd.TimeoutMs = c.Int("timeout")
	}
	if c.IsSet("keep-open") {
		conf.Gstd.KeepConnectionOpen = c.Bool("keep-open")
	}
	if c.IsSet("log-level") {
		conf.LogLevel = c.String("log-level")
		conf.Gstd.LogLevel = c.String("log-level")
	}
	if err = conf.Gstd.Validate(); err != nil {
		return nil, err
	}

	logger.Init(conf.LogLevel)
	return conf, nil
}

func newClient(c *cli.Context) (*config.Config, *gstc.Client, error) {
	conf, err := getConfig(c)
	if err != nil {
		return nil, nil, err
	}
	client, err := gstc.NewClient(conf.Gstd)
	if err != nil {
		return nil, nil, err
	}
	return conf, client, nil
}

// interruptContext is cancelled on SIGINT/SIGTERM so blocking verbs can be
// abandoned from the terminal.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func printResult(res interface{}) error {
	switch v := res.(type) {
	case nil:
		fmt.Println("Success")
	case string:
		fmt.Println(v)
	case []string:
		for _, s := range v {
			fmt.Println(s)
		}
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
	}
	return nil
}
