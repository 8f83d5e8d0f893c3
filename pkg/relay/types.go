package relay

import (
	"strings"

	"github.com/corner4world/gstd-1.x/pkg/gstc"
)

// Relay-only commands, handled by the service rather than a gstc verb.
const (
	CommandWatchSignal   = "watch_signal"
	CommandUnwatchSignal = "unwatch_signal"
)

type Request struct {
	RequestID string   `json:"request_id"`
	Command   string   `json:"command"`
	Args      []string `json:"args,omitempty"`
}

type Response struct {
	RequestID   string      `json:"request_id"`
	Code        int         `json:"code"`
	Description string      `json:"description"`
	Response    interface{} `json:"response,omitempty"`
}

type SignalEvent struct {
	Pipeline  string               `json:"pipeline"`
	Element   string               `json:"element"`
	Signal    string               `json:"signal"`
	Callback  *gstc.SignalCallback `json:"callback"`
	Timestamp int64                `json:"timestamp"`
}

// SignalChannel is where callbacks of one watched signal are published.
func SignalChannel(prefix, pipe, element, signal string) string {
	return strings.Join([]string{prefix, pipe, element, signal}, ".")
}

type signalKey struct {
	pipe, element, signal string
}

func (k signalKey) String() string {
	return k.pipe + "/" + k.element + "/" + k.signal
}
