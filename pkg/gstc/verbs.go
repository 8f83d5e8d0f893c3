package gstc

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Verb is a named client operation, addressable by the same names gstd's
// interactive client uses (pipeline_create, signal_connect, ...).
type Verb struct {
	Name  string
	Usage string
	Args  []string
	// Required is how many of Args must be present; the rest take defaults.
	Required int
	// Variadic joins any surplus arguments into the last one.
	Variadic bool
	// Blocking verbs wait on the daemon until an event happens.
	Blocking bool
	Run      func(ctx context.Context, c *Client, args []string) (interface{}, error)
}

// Verbs lists every operation in the order they are documented.
var Verbs = []Verb{
	{
		Name: "ping", Usage: "check that gstd answers",
		Run: func(ctx context.Context, c *Client, _ []string) (interface{}, error) {
			return nil, c.Ping(ctx)
		},
	},
	{
		Name: "pipeline_create", Usage: "create a pipeline from a gst-launch description",
		Args: []string{"name", "description"}, Required: 2, Variadic: true,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return nil, c.PipelineCreate(ctx, a[0], a[1])
		},
	},
	{
		Name: "pipeline_delete", Usage: "delete a pipeline",
		Args: []string{"name"}, Required: 1,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return nil, c.PipelineDelete(ctx, a[0])
		},
	},
	{
		Name: "pipeline_play", Usage: "set a pipeline to playing",
		Args: []string{"name"}, Required: 1,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return nil, c.PipelinePlay(ctx, a[0])
		},
	},
	{
		Name: "pipeline_pause", Usage: "set a pipeline to paused",
		Args: []string{"name"}, Required: 1,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return nil, c.PipelinePause(ctx, a[0])
		},
	},
	{
		Name: "pipeline_stop", Usage: "set a pipeline to null",
		Args: []string{"name"}, Required: 1,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return nil, c.PipelineStop(ctx, a[0])
		},
	},
	{
		Name: "pipeline_get_state", Usage: "print the state of a pipeline",
		Args: []string{"name"}, Required: 1,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return c.PipelineGetState(ctx, a[0])
		},
	},
	{
		Name: "pipeline_get_graph", Usage: "print the pipeline graph in DOT format",
		Args: []string{"name"}, Required: 1,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return c.PipelineGetGraph(ctx, a[0])
		},
	},
	{
		Name: "pipeline_verbose", Usage: "toggle verbose property notifications",
		Args: []string{"name", "enable"}, Required: 2,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			enable, err := parseBool(a[1])
			if err != nil {
				return nil, err
			}
			return nil, c.PipelineVerbose(ctx, a[0], enable)
		},
	},
	{
		Name: "list_pipelines", Usage: "list pipelines",
		Run: func(ctx context.Context, c *Client, _ []string) (interface{}, error) {
			return c.PipelineList(ctx)
		},
	},
	{
		Name: "list_elements", Usage: "list the elements of a pipeline",
		Args: []string{"pipeline"}, Required: 1,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return c.PipelineListElements(ctx, a[0])
		},
	},
	{
		Name: "list_properties", Usage: "list the properties of an element",
		Args: []string{"pipeline", "element"}, Required: 2,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return c.ElementPropertiesList(ctx, a[0], a[1])
		},
	},
	{
		Name: "element_get", Usage: "read an element property",
		Args: []string{"pipeline", "element", "property"}, Required: 3,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return c.ElementGet(ctx, a[0], a[1], a[2])
		},
	},
	{
		Name: "element_set", Usage: "write an element property",
		Args: []string{"pipeline", "element", "property", "value"}, Required: 4, Variadic: true,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return nil, c.ElementSet(ctx, a[0], a[1], a[2], a[3])
		},
	},
	{
		Name: "signal_connect", Usage: "wait for an element signal",
		Args: []string{"pipeline", "element", "signal"}, Required: 3, Blocking: true,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return c.SignalConnect(ctx, a[0], a[1], a[2])
		},
	},
	{
		Name: "signal_timeout", Usage: "bound the wait of signal_connect in microseconds, -1 waits forever",
		Args: []string{"pipeline", "element", "signal", "timeout"}, Required: 4,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			timeout, err := parseInt(a[3])
			if err != nil {
				return nil, err
			}
			return nil, c.SignalTimeout(ctx, a[0], a[1], a[2], timeout)
		},
	},
	{
		Name: "signal_disconnect", Usage: "release readers waiting on a signal",
		Args: []string{"pipeline", "element", "signal"}, Required: 3,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return nil, c.SignalDisconnect(ctx, a[0], a[1], a[2])
		},
	},
	{
		Name: "bus_read", Usage: "wait for the next bus message",
		Args: []string{"pipeline"}, Required: 1, Blocking: true,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return c.BusRead(ctx, a[0])
		},
	},
	{
		Name: "bus_filter", Usage: "filter bus messages by type, e.g. eos+error",
		Args: []string{"pipeline", "types"}, Required: 2,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return nil, c.BusFilter(ctx, a[0], a[1])
		},
	},
	{
		Name: "bus_timeout", Usage: "bound the wait of bus_read in nanoseconds",
		Args: []string{"pipeline", "timeout"}, Required: 2,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			timeout, err := parseInt(a[1])
			if err != nil {
				return nil, err
			}
			return nil, c.BusTimeout(ctx, a[0], timeout)
		},
	},
	{
		Name: "event_eos", Usage: "send end-of-stream",
		Args: []string{"pipeline"}, Required: 1,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return nil, c.EventEOS(ctx, a[0])
		},
	},
	{
		Name: "event_seek", Usage: "send a seek event",
		Args:     []string{"pipeline", "rate", "format", "flags", "start_type", "start", "stop_type", "stop"},
		Required: 1,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			seek, err := parseSeek(a[1:])
			if err != nil {
				return nil, err
			}
			return nil, c.EventSeek(ctx, a[0], seek)
		},
	},
	{
		Name: "event_flush_start", Usage: "send flush start",
		Args: []string{"pipeline"}, Required: 1,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return nil, c.EventFlushStart(ctx, a[0])
		},
	},
	{
		Name: "event_flush_stop", Usage: "send flush stop",
		Args: []string{"pipeline", "reset"}, Required: 1,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			reset := true
			if len(a) > 1 {
				var err error
				if reset, err = parseBool(a[1]); err != nil {
					return nil, err
				}
			}
			return nil, c.EventFlushStop(ctx, a[0], reset)
		},
	},
	{
		Name: "debug_enable", Usage: "enable or disable GStreamer debug",
		Args: []string{"enable"}, Required: 1,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			enable, err := parseBool(a[0])
			if err != nil {
				return nil, err
			}
			return nil, c.DebugEnable(ctx, enable)
		},
	},
	{
		Name: "debug_threshold", Usage: "set the debug threshold",
		Args: []string{"threshold"}, Required: 1,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			return nil, c.DebugThreshold(ctx, a[0])
		},
	},
	{
		Name: "debug_color", Usage: "toggle colored debug output",
		Args: []string{"enable"}, Required: 1,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			enable, err := parseBool(a[0])
			if err != nil {
				return nil, err
			}
			return nil, c.DebugColor(ctx, enable)
		},
	},
	{
		Name: "debug_reset", Usage: "replace instead of extending the threshold",
		Args: []string{"reset"}, Required: 1,
		Run: func(ctx context.Context, c *Client, a []string) (interface{}, error) {
			reset, err := parseBool(a[0])
			if err != nil {
				return nil, err
			}
			return nil, c.DebugReset(ctx, reset)
		},
	},
}

func LookupVerb(name string) (Verb, bool) {
	for _, v := range Verbs {
		if v.Name == name {
			return v, true
		}
	}
	return Verb{}, false
}

// Call runs the verb after checking and normalizing its arguments.
func (v Verb) Call(ctx context.Context, c *Client, args []string) (interface{}, error) {
	args, err := v.normalize(args)
	if err != nil {
		return nil, err
	}
	return v.Run(ctx, c, args)
}

func (v Verb) normalize(args []string) ([]string, error) {
	if len(args) < v.Required {
		return nil, newClientError(StatusNullArgument,
			errors.Errorf("%s expects %d arguments (%s), got %d", v.Name, v.Required, strings.Join(v.Args, ", "), len(args)))
	}
	if len(args) > len(v.Args) {
		if !v.Variadic {
			return nil, newClientError(StatusTypeError,
				errors.Errorf("%s takes at most %d arguments, got %d", v.Name, len(v.Args), len(args)))
		}
		last := len(v.Args) - 1
		joined := append([]string{}, args[:last]...)
		args = append(joined, strings.Join(args[last:], " "))
	}
	return args, nil
}

func parseBool(s string) (bool, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, newClientError(StatusTypeError, errors.Wrapf(err, "bad boolean %q", s))
	}
	return b, nil
}

func parseInt(s string) (int64, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, newClientError(StatusTypeError, errors.Wrapf(err, "bad integer %q", s))
	}
	return i, nil
}

func parseSeek(a []string) (Seek, error) {
	seek := DefaultSeek
	if len(a) > 0 {
		rate, err := strconv.ParseFloat(a[0], 64)
		if err != nil {
			return seek, newClientError(StatusTypeError, errors.Wrapf(err, "bad rate %q", a[0]))
		}
		seek.Rate = rate
	}
	ints := []*int{&seek.Format, &seek.Flags, &seek.StartType}
	for i, dst := range ints {
		if len(a) > i+1 {
			n, err := parseInt(a[i+1])
			if err != nil {
				return seek, err
			}
			*dst = int(n)
		}
	}
	if len(a) > 4 {
		n, err := parseInt(a[4])
		if err != nil {
			return seek, err
		}
		seek.Start = n
	}
	if len(a) > 5 {
		n, err := parseInt(a[5])
		if err != nil {
			return seek, err
		}
		seek.StopType = int(n)
	}
	if len(a) > 6 {
		n, err := parseInt(a[6])
		if err != nil {
			return seek, err
		}
		seek.Stop = n
	}
	return seek, nil
}
