package gstc

import (
	"context"
	"strconv"
	"strings"
)

// BusTimeout sets how long BusRead waits for a message, in nanoseconds.
// A negative value waits forever.
func (c *Client) BusTimeout(ctx context.Context, pipe string, timeout int64) error {
	if err := checkArgs(pipe); err != nil {
		return err
	}
	_, err := c.send(ctx, false, Command{
		Verb: VerbUpdate,
		URI:  pipelineURI(pipe, "bus", "timeout"),
		Args: []string{strconv.FormatInt(timeout, 10)},
	})
	return err
}

// BusFilter restricts BusRead to the given message types, e.g. "eos", "error".
func (c *Client) BusFilter(ctx context.Context, pipe string, types ...string) error {
	if err := checkArgs(pipe); err != nil {
		return err
	}
	if len(types) == 0 {
		return newClientError(StatusNullArgument, ErrNullArgument)
	}
	_, err := c.send(ctx, false, Command{
		Verb: VerbUpdate,
		URI:  pipelineURI(pipe, "bus", "types"),
		Args: []string{strings.Join(types, "+")},
	})
	return err
}

// BusRead waits for the next filtered message. A null reply means the bus
// timeout expired and is reported as StatusBusTimeout.
func (c *Client) BusRead(ctx context.Context, pipe string) (*BusMessage, error) {
	if err := checkArgs(pipe); err != nil {
		return nil, err
	}
	res, err := c.send(ctx, true, Command{Verb: VerbRead, URI: pipelineURI(pipe, "bus", "message")})
	if err != nil {
		return nil, err
	}
	if res.IsNull() {
		return nil, newClientError(StatusBusTimeout, nil)
	}
	msg := &BusMessage{}
	if err = res.Decode(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// BusWait combines filter, timeout and read.
func (c *Client) BusWait(ctx context.Context, pipe, types string, timeout int64) (*BusMessage, error) {
	if err := c.BusFilter(ctx, pipe, types); err != nil {
		return nil, err
	}
	if err := c.BusTimeout(ctx, pipe, timeout); err != nil {
		return nil, err
	}
	return c.BusRead(ctx, pipe)
}
