package gstc

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
)

// SignalWaitForever disables the signal timeout.
const SignalWaitForever int64 = -1

// SignalTimeout bounds how long a subsequent SignalConnect waits for the
// signal, in microseconds. SignalWaitForever waits indefinitely.
func (c *Client) SignalTimeout(ctx context.Context, pipe, element, signal string, timeout int64) error {
	if err := checkArgs(pipe, element, signal); err != nil {
		return err
	}
	_, err := c.send(ctx, false, Command{
		Verb: VerbUpdate,
		URI:  signalURI(pipe, element, signal, "timeout"),
		Args: []string{strconv.FormatInt(timeout, 10)},
	})
	return err
}

// SignalConnect blocks until the element emits signal (or the configured
// signal timeout expires on the daemon) and returns the emission.
func (c *Client) SignalConnect(ctx context.Context, pipe, element, signal string) (*SignalCallback, error) {
	if err := checkArgs(pipe, element, signal); err != nil {
		return nil, err
	}
	res, err := c.send(ctx, true, Command{Verb: VerbRead, URI: signalURI(pipe, element, signal, "callback")})
	if err != nil {
		return nil, err
	}
	if res.IsNull() {
		return nil, newClientError(StatusTimeout, errors.Errorf("signal %s on %s did not fire", signal, element))
	}
	cb := &SignalCallback{}
	if err = res.Decode(cb); err != nil {
		return nil, err
	}
	return cb, nil
}

// SignalDisconnect wakes any reader waiting on the signal.
func (c *Client) SignalDisconnect(ctx context.Context, pipe, element, signal string) error {
	if err := checkArgs(pipe, element, signal); err != nil {
		return err
	}
	_, err := c.send(ctx, false, Command{Verb: VerbRead, URI: signalURI(pipe, element, signal, "disconnect")})
	return err
}
