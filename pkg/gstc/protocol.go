package gstc

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CRUD verbs understood by gstd's command parser.
const (
	VerbCreate = "create"
	VerbRead   = "read"
	VerbUpdate = "update"
	VerbDelete = "delete"
)

// Result is a decoded gstd reply.
type Result struct {
	Code        ReturnCode      `json:"code"`
	Description string          `json:"description"`
	Response    json.RawMessage `json:"response"`
}

// Decode unmarshals the "response" member into v.
func (r *Result) Decode(v interface{}) error {
	if r.IsNull() {
		return newClientError(StatusMalformed, ErrNoResponse)
	}
	if err := json.Unmarshal(r.Response, v); err != nil {
		return newClientError(StatusMalformed, errors.Wrap(err, "could not decode response"))
	}
	return nil
}

func (r *Result) IsNull() bool {
	s := strings.TrimSpace(string(r.Response))
	return s == "" || s == "null"
}

func parseResult(raw []byte) (*Result, error) {
	res := &Result{}
	if err := json.Unmarshal(raw, res); err != nil {
		return nil, newClientError(StatusMalformed, errors.Wrap(err, "could not parse reply"))
	}
	return res, nil
}

// Command is one line of gstd's CRUD protocol: "<verb> <uri> [args...]".
type Command struct {
	Verb string
	URI  string
	Args []string
}

func (c Command) String() string {
	parts := make([]string, 0, 2+len(c.Args))
	parts = append(parts, c.Verb, c.URI)
	parts = append(parts, c.Args...)
	return strings.Join(parts, " ")
}

// ParseCommand splits a command line into verb, uri and the remaining text.
// The remainder is kept whole in Args[0] and Args[1] for create (name,
// description) and as a single argument otherwise, so pipeline descriptions
// survive the round trip untouched.
func ParseCommand(line string) (Command, error) {
	fields := strings.SplitN(strings.TrimSpace(line), " ", 3)
	if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
		return Command{}, newClientError(StatusMalformed, errors.Errorf("bad command %q", line))
	}
	cmd := Command{Verb: fields[0], URI: fields[1]}
	if len(fields) == 3 {
		rest := strings.TrimSpace(fields[2])
		if cmd.Verb == VerbCreate {
			nd := strings.SplitN(rest, " ", 2)
			cmd.Args = append(cmd.Args, nd...)
		} else if rest != "" {
			cmd.Args = []string{rest}
		}
	}
	switch cmd.Verb {
	case VerbCreate, VerbRead, VerbUpdate, VerbDelete:
	default:
		return Command{}, newClientError(StatusMalformed, errors.Errorf("unknown verb %q", cmd.Verb))
	}
	return cmd, nil
}

func pipelineURI(pipe string, parts ...string) string {
	return strings.Join(append([]string{"/pipelines", pipe}, parts...), "/")
}

func elementURI(pipe, element string, parts ...string) string {
	return pipelineURI(pipe, append([]string{"elements", element}, parts...)...)
}

func signalURI(pipe, element, signal, leaf string) string {
	return elementURI(pipe, element, "signals", signal, leaf)
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

// Node is an entry of a list reply (pipelines, elements, properties).
type Node struct {
	Name string `json:"name"`
}

type nodeList struct {
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
}

func (l nodeList) names() []string {
	names := make([]string, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		names = append(names, n.Name)
	}
	return names
}

// Param describes the GParamSpec behind a property.
type Param struct {
	Description string `json:"description"`
	Type        string `json:"type"`
	Access      string `json:"access"`
}

// Property is the reply to a property or state read.
type Property struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
	Param *Param          `json:"param,omitempty"`
}

// String renders the value, unquoting JSON strings.
func (p *Property) String() string {
	var s string
	if err := json.Unmarshal(p.Value, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(p.Value))
}

// SignalArgument is one parameter delivered with a signal emission.
type SignalArgument struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// SignalCallback is the reply to a signal connect: the signal name and the
// arguments of the emission that woke the reader.
type SignalCallback struct {
	Name      string           `json:"name"`
	Arguments []SignalArgument `json:"arguments"`
}

// BusMessage is a message popped from a pipeline bus.
type BusMessage struct {
	Type      string `json:"type"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Seqnum    int64  `json:"seqnum"`
	Message   string `json:"message,omitempty"`
	Debug     string `json:"debug,omitempty"`
}
