package gstc

import (
	"context"
	"strconv"
)

// Seek mirrors the arguments of a GStreamer seek event. Formats, flags and
// seek types are the numeric GStreamer enum values.
type Seek struct {
	Rate      float64
	Format    int
	Flags     int
	StartType int
	Start     int64
	StopType  int
	Stop      int64
}

// DefaultSeek is a flushing seek to the start of the stream in time format.
var DefaultSeek = Seek{
	Rate:      1.0,
	Format:    3,
	Flags:     1,
	StartType: 1,
	Start:     0,
	StopType:  1,
	Stop:      -1,
}

func (s Seek) args() string {
	return strconv.FormatFloat(s.Rate, 'f', -1, 64) + " " +
		strconv.Itoa(s.Format) + " " +
		strconv.Itoa(s.Flags) + " " +
		strconv.Itoa(s.StartType) + " " +
		strconv.FormatInt(s.Start, 10) + " " +
		strconv.Itoa(s.StopType) + " " +
		strconv.FormatInt(s.Stop, 10)
}

func (c *Client) EventEOS(ctx context.Context, pipe string) error {
	return c.sendEvent(ctx, pipe, "eos")
}

func (c *Client) EventSeek(ctx context.Context, pipe string, seek Seek) error {
	return c.sendEvent(ctx, pipe, "seek", seek.args())
}

func (c *Client) EventFlushStart(ctx context.Context, pipe string) error {
	return c.sendEvent(ctx, pipe, "flush_start")
}

func (c *Client) EventFlushStop(ctx context.Context, pipe string, reset bool) error {
	return c.sendEvent(ctx, pipe, "flush_stop", formatBool(reset))
}

func (c *Client) sendEvent(ctx context.Context, pipe, event string, args ...string) error {
	if err := checkArgs(pipe); err != nil {
		return err
	}
	_, err := c.send(ctx, false, Command{
		Verb: VerbCreate,
		URI:  pipelineURI(pipe, "event"),
		Args: append([]string{event}, args...),
	})
	return err
}
