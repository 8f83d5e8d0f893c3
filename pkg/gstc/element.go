package gstc

import (
	"context"
)

// ElementGet reads a property of an element inside a pipeline.
func (c *Client) ElementGet(ctx context.Context, pipe, element, property string) (*Property, error) {
	if err := checkArgs(pipe, element, property); err != nil {
		return nil, err
	}
	return c.readProperty(ctx, elementURI(pipe, element, "properties", property))
}

// ElementSet writes a property. value is passed verbatim; gstd parses it
// according to the property type.
func (c *Client) ElementSet(ctx context.Context, pipe, element, property, value string) error {
	if err := checkArgs(pipe, element, property, value); err != nil {
		return err
	}
	_, err := c.send(ctx, false, Command{
		Verb: VerbUpdate,
		URI:  elementURI(pipe, element, "properties", property),
		Args: []string{value},
	})
	return err
}

func (c *Client) ElementPropertiesList(ctx context.Context, pipe, element string) ([]string, error) {
	if err := checkArgs(pipe, element); err != nil {
		return nil, err
	}
	return c.readNodes(ctx, elementURI(pipe, element, "properties"))
}
