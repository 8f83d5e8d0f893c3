package gstc

import (
	"context"
)

// Pipeline states accepted by the state property.
const (
	StatePlaying = "playing"
	StatePaused  = "paused"
	StateNull    = "null"
)

// PipelineCreate creates a pipeline named name from a gst-launch description.
func (c *Client) PipelineCreate(ctx context.Context, name, description string) error {
	if err := checkArgs(name, description); err != nil {
		return err
	}
	_, err := c.send(ctx, false, Command{Verb: VerbCreate, URI: "/pipelines", Args: []string{name, description}})
	return err
}

func (c *Client) PipelineDelete(ctx context.Context, name string) error {
	if err := checkArgs(name); err != nil {
		return err
	}
	_, err := c.send(ctx, false, Command{Verb: VerbDelete, URI: "/pipelines", Args: []string{name}})
	return err
}

func (c *Client) PipelinePlay(ctx context.Context, name string) error {
	return c.setState(ctx, name, StatePlaying)
}

func (c *Client) PipelinePause(ctx context.Context, name string) error {
	return c.setState(ctx, name, StatePaused)
}

func (c *Client) PipelineStop(ctx context.Context, name string) error {
	return c.setState(ctx, name, StateNull)
}

func (c *Client) setState(ctx context.Context, name, state string) error {
	if err := checkArgs(name); err != nil {
		return err
	}
	_, err := c.send(ctx, false, Command{Verb: VerbUpdate, URI: pipelineURI(name, "state"), Args: []string{state}})
	return err
}

// PipelineGetState returns the current state as reported by gstd (e.g. "PLAYING").
func (c *Client) PipelineGetState(ctx context.Context, name string) (string, error) {
	if err := checkArgs(name); err != nil {
		return "", err
	}
	prop, err := c.readProperty(ctx, pipelineURI(name, "state"))
	if err != nil {
		return "", err
	}
	return prop.String(), nil
}

// PipelineList returns the names of every pipeline the daemon holds.
func (c *Client) PipelineList(ctx context.Context) ([]string, error) {
	return c.readNodes(ctx, "/pipelines")
}

func (c *Client) PipelineListElements(ctx context.Context, name string) ([]string, error) {
	if err := checkArgs(name); err != nil {
		return nil, err
	}
	return c.readNodes(ctx, pipelineURI(name, "elements"))
}

// PipelineGetGraph returns the pipeline topology in DOT format.
func (c *Client) PipelineGetGraph(ctx context.Context, name string) (string, error) {
	if err := checkArgs(name); err != nil {
		return "", err
	}
	prop, err := c.readProperty(ctx, pipelineURI(name, "graph"))
	if err != nil {
		return "", err
	}
	return prop.String(), nil
}

func (c *Client) PipelineVerbose(ctx context.Context, name string, enable bool) error {
	if err := checkArgs(name); err != nil {
		return err
	}
	_, err := c.send(ctx, false, Command{Verb: VerbUpdate, URI: pipelineURI(name, "verbose"), Args: []string{formatBool(enable)}})
	return err
}

func (c *Client) readNodes(ctx context.Context, uri string) ([]string, error) {
	res, err := c.send(ctx, false, Command{Verb: VerbRead, URI: uri})
	if err != nil {
		return nil, err
	}
	list := nodeList{}
	if err = res.Decode(&list); err != nil {
		return nil, err
	}
	return list.names(), nil
}

func (c *Client) readProperty(ctx context.Context, uri string) (*Property, error) {
	res, err := c.send(ctx, false, Command{Verb: VerbRead, URI: uri})
	if err != nil {
		return nil, err
	}
	prop := &Property{}
	if err = res.Decode(prop); err != nil {
		return nil, err
	}
	return prop, nil
}
