package gstc

import (
	"context"
)

func (c *Client) DebugEnable(ctx context.Context, enable bool) error {
	return c.updateDebug(ctx, "enable", formatBool(enable))
}

// DebugThreshold sets GST_DEBUG on the daemon, e.g. "*:3,identity:6".
func (c *Client) DebugThreshold(ctx context.Context, threshold string) error {
	if err := checkArgs(threshold); err != nil {
		return err
	}
	return c.updateDebug(ctx, "threshold", threshold)
}

func (c *Client) DebugColor(ctx context.Context, enable bool) error {
	return c.updateDebug(ctx, "color", formatBool(enable))
}

// DebugReset controls whether a new threshold replaces or extends the old one.
func (c *Client) DebugReset(ctx context.Context, reset bool) error {
	return c.updateDebug(ctx, "reset", formatBool(reset))
}

func (c *Client) updateDebug(ctx context.Context, leaf, value string) error {
	_, err := c.send(ctx, false, Command{Verb: VerbUpdate, URI: "/debug/" + leaf, Args: []string{value}})
	return err
}
