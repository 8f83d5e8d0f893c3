// Package gstctest runs an in-process stand-in for gstd that speaks the
// daemon's TCP and HTTP protocols, for tests of code built on gstc.
package gstctest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Return codes used by the fake, matching gstd's.
const (
	codeOK               = 0
	codeBadDescription   = 2
	codeNoResource       = 6
	codeExistingResource = 8
	codeNoUpdate         = 9
	codeBadCommand       = 10
	codeBadValue         = 13
	codeEventError       = 16
	codeMissingArgument  = 17
)

var descriptions = map[int]string{
	codeOK:               "Success",
	codeBadDescription:   "Bad pipeline description",
	codeNoResource:       "Requested resource was not found",
	codeExistingResource: "Resource already exists",
	codeNoUpdate:         "Cannot update the given property",
	codeBadCommand:       "Unrecognized command",
	codeBadValue:         "Bad parameter value",
	codeEventError:       "Unrecognized event",
	codeMissingArgument:  "Missing argument",
}

type reply struct {
	Code        int         `json:"code"`
	Description string      `json:"description"`
	Response    interface{} `json:"response"`
}

func ok(response interface{}) reply {
	return reply{Code: codeOK, Description: descriptions[codeOK], Response: response}
}

func fail(code int) reply {
	return reply{Code: code, Description: descriptions[code]}
}

func (r reply) encode() []byte {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		panic(err)
	}
	return b
}

type node struct {
	Name string `json:"name"`
}

type list struct {
	Name  string `json:"name"`
	Nodes []node `json:"nodes"`
}

type param struct {
	Description string `json:"description"`
	Type        string `json:"type"`
	Access      string `json:"access"`
}

type property struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
	Param param       `json:"param"`
}

type argument struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type callback struct {
	Name      string     `json:"name"`
	Arguments []argument `json:"arguments"`
}

// BusMessage is queued on a pipeline bus and handed out by bus reads.
type BusMessage struct {
	Type      string `json:"type"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Seqnum    int64  `json:"seqnum"`
	Message   string `json:"message,omitempty"`
	Debug     string `json:"debug,omitempty"`
}

type element struct {
	name    string
	factory string
	props   map[string]string
	// signal name -> timeout
	signals map[string]int64
}

type pipeline struct {
	name        string
	description string
	state       string
	verbose     bool
	elements    []*element
	busTypes    []string
	busTimeout  int64
	bus         []BusMessage
	seqnum      int64
}

func newPipeline(name, description string) (*pipeline, bool) {
	p := &pipeline{name: name, description: description, state: "NULL", busTimeout: -1}
	counts := map[string]int{}
	for _, segment := range strings.Split(description, "!") {
		fields := strings.Fields(segment)
		if len(fields) == 0 {
			return nil, false
		}
		factory := fields[0]
		if strings.Contains(factory, "=") {
			// caps filter, not an element
			continue
		}
		e := &element{
			name:    fmt.Sprintf("%s%d", factory, counts[factory]),
			factory: factory,
			props:   map[string]string{},
			signals: map[string]int64{},
		}
		counts[factory]++
		for _, kv := range fields[1:] {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return nil, false
			}
			e.props[parts[0]] = parts[1]
		}
		if name, ok := e.props["name"]; ok {
			e.name = name
		}
		e.props["name"] = e.name
		p.elements = append(p.elements, e)
	}
	return p, len(p.elements) > 0
}

func (p *pipeline) element(name string) *element {
	for _, e := range p.elements {
		if e.name == name {
			return e
		}
	}
	return nil
}

func (p *pipeline) post(msgType, text string) {
	p.seqnum++
	p.bus = append(p.bus, BusMessage{
		Type:      msgType,
		Source:    p.name,
		Timestamp: "99:99:99.999999999",
		Seqnum:    p.seqnum,
		Message:   text,
	})
}

func (p *pipeline) popBus() *BusMessage {
	for i, msg := range p.bus {
		if len(p.busTypes) == 0 || contains(p.busTypes, msg.Type) {
			p.bus = append(p.bus[:i], p.bus[i+1:]...)
			return &msg
		}
	}
	return nil
}

// daemon holds the fake gstd session shared by both listeners.
type daemon struct {
	mu        sync.Mutex
	pipelines map[string]*pipeline
	order     []string
	commands  []string
	debug     map[string]string
}

func newDaemon() *daemon {
	return &daemon{
		pipelines: map[string]*pipeline{},
		debug:     map[string]string{},
	}
}

// handle executes one CRUD command. args is the raw remainder of the line.
func (d *daemon) handle(verb, uri, args string) reply {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record(verb, uri, args)

	path := strings.Split(strings.Trim(uri, "/"), "/")
	if uri == "/" {
		return ok(list{Name: "", Nodes: []node{{Name: "pipelines"}, {Name: "debug"}}})
	}

	switch {
	case path[0] == "pipelines":
		return d.handlePipelines(verb, path[1:], args)
	case path[0] == "debug" && len(path) == 2 && verb == "update":
		if args == "" {
			return fail(codeMissingArgument)
		}
		d.debug[path[1]] = args
		return ok(nil)
	default:
		return fail(codeBadCommand)
	}
}

func (d *daemon) record(verb, uri, args string) {
	d.commands = append(d.commands, strings.TrimSpace(strings.Join([]string{verb, uri, args}, " ")))
}

// callbackTimeout returns the signal timeout, in microseconds on the wire,
// configured for a callback uri. Unset or negative timeouts wait forever.
func (d *daemon) callbackTimeout(uri string) (time.Duration, bool) {
	path := strings.Split(strings.Trim(uri, "/"), "/")
	if len(path) != 7 || path[0] != "pipelines" || path[2] != "elements" || path[4] != "signals" {
		return 0, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	p, exists := d.pipelines[path[1]]
	if !exists {
		return 0, false
	}
	e := p.element(path[3])
	if e == nil {
		return 0, false
	}
	t, set := e.signals[path[5]]
	if !set || t < 0 {
		return 0, false
	}
	return time.Duration(t) * time.Microsecond, true
}

// expire answers a callback read whose signal timeout ran out.
func (d *daemon) expire(verb, uri, args string) reply {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(verb, uri, args)
	return ok(nil)
}

func (d *daemon) handlePipelines(verb string, path []string, args string) reply {
	if len(path) == 0 {
		switch verb {
		case "create":
			nd := strings.SplitN(args, " ", 2)
			if len(nd) != 2 || nd[0] == "" {
				return fail(codeMissingArgument)
			}
			if _, exists := d.pipelines[nd[0]]; exists {
				return fail(codeExistingResource)
			}
			p, valid := newPipeline(nd[0], nd[1])
			if !valid {
				return fail(codeBadDescription)
			}
			d.pipelines[p.name] = p
			d.order = append(d.order, p.name)
			return ok(nil)
		case "delete":
			if _, exists := d.pipelines[args]; !exists {
				return fail(codeNoResource)
			}
			delete(d.pipelines, args)
			for i, n := range d.order {
				if n == args {
					d.order = append(d.order[:i], d.order[i+1:]...)
					break
				}
			}
			return ok(nil)
		case "read":
			nodes := make([]node, 0, len(d.order))
			for _, n := range d.order {
				nodes = append(nodes, node{Name: n})
			}
			return ok(list{Name: "pipelines", Nodes: nodes})
		}
		return fail(codeBadCommand)
	}

	p, exists := d.pipelines[path[0]]
	if !exists {
		return fail(codeNoResource)
	}
	if len(path) == 1 {
		return fail(codeBadCommand)
	}

	switch path[1] {
	case "state":
		return d.handleState(p, verb, args)
	case "graph":
		if verb != "read" {
			return fail(codeBadCommand)
		}
		return ok(property{Name: "graph", Value: p.graph(), Param: param{Type: "gchararray", Access: "((GstdParamFlags) READ )"}})
	case "verbose":
		if verb != "update" {
			return fail(codeBadCommand)
		}
		b, err := strconv.ParseBool(args)
		if err != nil {
			return fail(codeBadValue)
		}
		p.verbose = b
		return ok(nil)
	case "event":
		return d.handleEvent(p, verb, args)
	case "bus":
		return d.handleBus(p, verb, path[2:], args)
	case "elements":
		return d.handleElements(p, verb, path[2:], args)
	}
	return fail(codeBadCommand)
}

func (d *daemon) handleState(p *pipeline, verb, args string) reply {
	switch verb {
	case "read":
		return ok(property{
			Name:  "state",
			Value: p.state,
			Param: param{Description: "The state of the pipeline", Type: "GstdStateEnum", Access: "((GstdParamFlags) READ | UPDATE)"},
		})
	case "update":
		switch strings.ToLower(args) {
		case "playing", "paused", "null":
			p.state = strings.ToUpper(args)
			return ok(nil)
		}
		return fail(codeBadValue)
	}
	return fail(codeBadCommand)
}

func (d *daemon) handleEvent(p *pipeline, verb, args string) reply {
	if verb != "create" {
		return fail(codeBadCommand)
	}
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return fail(codeMissingArgument)
	}
	switch fields[0] {
	case "eos":
		p.post("eos", "")
	case "seek", "flush_start", "flush_stop":
	default:
		return fail(codeEventError)
	}
	return ok(nil)
}

func (d *daemon) handleBus(p *pipeline, verb string, path []string, args string) reply {
	if len(path) != 1 {
		return fail(codeBadCommand)
	}
	switch {
	case path[0] == "message" && verb == "read":
		if msg := p.popBus(); msg != nil {
			return ok(msg)
		}
		return ok(nil)
	case path[0] == "types" && verb == "update":
		p.busTypes = strings.Split(strings.ToLower(args), "+")
		return ok(nil)
	case path[0] == "timeout" && verb == "update":
		t, err := strconv.ParseInt(args, 10, 64)
		if err != nil {
			return fail(codeBadValue)
		}
		p.busTimeout = t
		return ok(nil)
	}
	return fail(codeBadCommand)
}

func (d *daemon) handleElements(p *pipeline, verb string, path []string, args string) reply {
	if len(path) == 0 {
		if verb != "read" {
			return fail(codeBadCommand)
		}
		nodes := make([]node, 0, len(p.elements))
		for _, e := range p.elements {
			nodes = append(nodes, node{Name: e.name})
		}
		return ok(list{Name: "elements", Nodes: nodes})
	}

	e := p.element(path[0])
	if e == nil {
		return fail(codeNoResource)
	}
	if len(path) < 2 {
		return fail(codeBadCommand)
	}

	switch path[1] {
	case "properties":
		return d.handleProperties(e, verb, path[2:], args)
	case "signals":
		if len(path) != 4 {
			return fail(codeBadCommand)
		}
		return d.handleSignal(p, e, verb, path[2], path[3], args)
	}
	return fail(codeBadCommand)
}

func (d *daemon) handleProperties(e *element, verb string, path []string, args string) reply {
	if len(path) == 0 {
		if verb != "read" {
			return fail(codeBadCommand)
		}
		names := make([]string, 0, len(e.props))
		for k := range e.props {
			names = append(names, k)
		}
		sort.Strings(names)
		nodes := make([]node, 0, len(names))
		for _, n := range names {
			nodes = append(nodes, node{Name: n})
		}
		return ok(list{Name: "properties", Nodes: nodes})
	}

	prop := path[0]
	switch verb {
	case "read":
		v, exists := e.props[prop]
		if !exists {
			return fail(codeNoResource)
		}
		return ok(property{Name: prop, Value: typed(v), Param: param{Type: typeName(v), Access: "((GstdParamFlags) READ | WRITE)"}})
	case "update":
		if args == "" {
			return fail(codeMissingArgument)
		}
		if prop == "name" {
			return fail(codeNoUpdate)
		}
		e.props[prop] = args
		return ok(nil)
	}
	return fail(codeBadCommand)
}

func (d *daemon) handleSignal(p *pipeline, e *element, verb, signal, leaf, args string) reply {
	switch {
	case leaf == "timeout" && verb == "update":
		t, err := strconv.ParseInt(args, 10, 64)
		if err != nil {
			return fail(codeBadValue)
		}
		e.signals[signal] = t
		return ok(nil)
	case leaf == "callback" && verb == "read":
		// only a running pipeline emits, otherwise the wait times out
		if p.state != "PLAYING" {
			return ok(nil)
		}
		return ok(callback{
			Name: signal,
			Arguments: []argument{
				{Type: factoryType(e.factory), Value: fmt.Sprintf("(%s) %s", factoryType(e.factory), e.name)},
				{Type: "GstBuffer", Value: "(GstBuffer) buffer"},
			},
		})
	case leaf == "disconnect" && verb == "read":
		return ok(nil)
	}
	return fail(codeBadCommand)
}

func (p *pipeline) graph() string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", p.name)
	for i, e := range p.elements {
		if i > 0 {
			fmt.Fprintf(&b, "  %s -> %s;\n", p.elements[i-1].name, e.name)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func typed(v string) interface{} {
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}

func typeName(v string) string {
	switch typed(v).(type) {
	case int64:
		return "gint64"
	case bool:
		return "gboolean"
	default:
		return "gchararray"
	}
}

func factoryType(factory string) string {
	if factory == "" {
		return "GstElement"
	}
	return "Gst" + strings.ToUpper(factory[:1]) + factory[1:]
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}
