package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/corner4world/gstd-1.x/pkg/gstc"
	"github.com/corner4world/gstd-1.x/pkg/logger"
	"github.com/corner4world/gstd-1.x/pkg/messaging"
	"github.com/corner4world/gstd-1.x/pkg/relay"
)

func relayCommands() []*cli.Command {
	redisFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "redis-host",
			Usage:   "host (incl. port) to redis server",
			EnvVars: []string{"REDIS_HOST"},
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "password to redis",
			EnvVars: []string{"REDIS_PASSWORD"},
		},
	}

	return []*cli.Command{
		{
			Name:     "relay",
			Usage:    "bridge gstd to a redis message bus",
			Category: "service",
			Flags:    redisFlags,
			Action:   runRelay,
		},
		{
			Name:      "request",
			Usage:     "send a command through a running relay and print the answer",
			ArgsUsage: "<command> [args...]",
			Category:  "service",
			Flags: append(redisFlags, &cli.DurationFlag{
				Name:  "wait",
				Usage: "how long to wait for the answer",
				Value: 10 * time.Second,
			}),
			Action: runRequest,
		},
	}
}

func newBus(c *cli.Context) (messaging.MessageBus, error) {
	conf, err := getConfig(c)
	if err != nil {
		return nil, err
	}
	if c.IsSet("redis-host") {
		conf.Redis.Address = c.String("redis-host")
	}
	if c.IsSet("redis-password") {
		conf.Redis.Password = c.String("redis-password")
	}
	return messaging.NewMessageBus(conf)
}

func runRelay(c *cli.Context) error {
	conf, client, err := newClient(c)
	if err != nil {
		return err
	}
	defer client.Close()

	if err = client.Ping(context.Background()); err != nil {
		return errors.Wrap(err, "gstd is not answering")
	}

	bus, err := newBus(c)
	if err != nil {
		return err
	}

	svc := relay.NewService(conf, client, bus)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		sig := <-sigChan
		logger.Infow("exit requested, shutting down", "signal", sig)
		svc.Stop()
	}()

	return svc.Run()
}

func runRequest(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("missing command")
	}
	conf, err := getConfig(c)
	if err != nil {
		return err
	}
	bus, err := newBus(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("wait"))
	defer cancel()

	responses, err := bus.Subscribe(ctx, conf.Relay.ResponseChannel)
	if err != nil {
		return err
	}
	defer responses.Close()

	req := &relay.Request{
		RequestID: uuid.NewString(),
		Command:   c.Args().First(),
		Args:      c.Args().Tail(),
	}
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if err = bus.Publish(ctx, conf.Relay.RequestChannel, b); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return cli.Exit("no answer from relay", exitCodeFor(int(gstc.StatusTimeout)))
		case msg, ok := <-responses.Channel():
			if !ok {
				return errors.New("response subscription closed")
			}
			res := &relay.Response{}
			if err := json.Unmarshal(msg, res); err != nil || res.RequestID != req.RequestID {
				continue
			}
			if res.Code != 0 {
				return cli.Exit(res.Description, exitCodeFor(res.Code))
			}
			return printResult(res.Response)
		}
	}
}
