package gstc

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/corner4world/gstd-1.x/pkg/config"
	"github.com/corner4world/gstd-1.x/pkg/logger"
)

// Client issues commands to a running gstd. It is safe for concurrent use;
// with keep_connection_open set, commands are serialized on one socket.
type Client struct {
	conf      config.GstdConfig
	transport Transport
	log       logr.Logger
	timeout   time.Duration
}

type Option func(*Client)

// WithTransport replaces the transport picked from the config.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

func WithLogger(l logr.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

func NewClient(conf config.GstdConfig, opts ...Option) (*Client, error) {
	if err := conf.Validate(); err != nil {
		return nil, newClientError(StatusTypeError, err)
	}

	c := &Client{
		conf:    conf,
		log:     logger.New(conf.LogLevel).WithName("gstc"),
		timeout: conf.Timeout(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		t, err := newTransport(conf)
		if err != nil {
			return nil, err
		}
		c.transport = t
	}

	c.log.Info("starting gstd client",
		"address", conf.Address, "port", conf.Port, "transport", conf.Transport)
	return c, nil
}

func (c *Client) Close() error {
	return c.transport.Close()
}

// Ping checks that the daemon answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.send(ctx, false, Command{Verb: VerbRead, URI: "/"})
	return err
}

// Run sends a raw command line and returns the decoded reply.
func (c *Client) Run(ctx context.Context, line string) (*Result, error) {
	cmd, err := ParseCommand(line)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, false, cmd)
}

// send delivers cmd and checks the reply code. Blocking commands wait on the
// daemon (signals, bus) and are only bounded by ctx.
func (c *Client) send(ctx context.Context, blocking bool, cmd Command) (*Result, error) {
	if !blocking && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	line := cmd.String()
	c.log.V(1).Info("sending command", "command", line)

	raw, err := c.transport.Send(ctx, cmd)
	if err != nil {
		c.log.Error(err, "command failed", "command", line)
		return nil, err
	}

	res, err := parseResult(raw)
	if err != nil {
		c.log.Error(err, "malformed reply", "command", line, "reply", string(raw))
		return nil, err
	}
	c.log.V(1).Info("received reply", "command", line, "code", int(res.Code), "description", res.Description)

	if res.Code != EOK {
		err = &DaemonError{Code: res.Code, Description: res.Description, Command: line}
		c.log.Error(err, "daemon returned an error", "command", line)
		return res, err
	}
	return res, nil
}
