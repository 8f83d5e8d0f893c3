package gstc

import (
	"fmt"

	"github.com/pkg/errors"
)

// Status is a client-side return code. Failures are negative so they never
// collide with the daemon's ReturnCode values.
type Status int

const (
	StatusOK            Status = 0
	StatusNullArgument  Status = -1
	StatusUnreachable   Status = -2
	StatusTimeout       Status = -3
	StatusOOM           Status = -4
	StatusTypeError     Status = -5
	StatusMalformed     Status = -6
	StatusNotFound      Status = -7
	StatusSendError     Status = -8
	StatusRecvError     Status = -9
	StatusSocketError   Status = -10
	StatusThreadError   Status = -11
	StatusBusTimeout    Status = -12
	StatusSocketTimeout Status = -13
)

var statusNames = map[Status]string{
	StatusOK:            "ok",
	StatusNullArgument:  "null argument",
	StatusUnreachable:   "unreachable",
	StatusTimeout:       "timeout",
	StatusOOM:           "out of memory",
	StatusTypeError:     "type error",
	StatusMalformed:     "malformed response",
	StatusNotFound:      "not found",
	StatusSendError:     "send error",
	StatusRecvError:     "receive error",
	StatusSocketError:   "socket error",
	StatusThreadError:   "thread error",
	StatusBusTimeout:    "bus timeout",
	StatusSocketTimeout: "socket timeout",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ReturnCode is the code gstd puts in the "code" field of every reply.
type ReturnCode int

const (
	EOK                   ReturnCode = 0
	NullArgument          ReturnCode = 1
	BadDescription        ReturnCode = 2
	ExistingName          ReturnCode = 3
	MissingInitialization ReturnCode = 4
	NoPipeline            ReturnCode = 5
	NoResource            ReturnCode = 6
	NoCreate              ReturnCode = 7
	ExistingResource      ReturnCode = 8
	NoUpdate              ReturnCode = 9
	BadCommand            ReturnCode = 10
	NoRead                ReturnCode = 11
	NoConnection          ReturnCode = 12
	BadValue              ReturnCode = 13
	StateError            ReturnCode = 14
	IPCError              ReturnCode = 15
	EventError            ReturnCode = 16
	MissingArgument       ReturnCode = 17
	MissingName           ReturnCode = 18
	NoDelete              ReturnCode = 19
)

var returnCodeNames = map[ReturnCode]string{
	EOK:                   "Success",
	NullArgument:          "Required argument is NULL",
	BadDescription:        "Bad pipeline description",
	ExistingName:          "Name already exists",
	MissingInitialization: "Missing initialization",
	NoPipeline:            "Requested pipeline was not found",
	NoResource:            "Requested resource was not found",
	NoCreate:              "Cannot create a resource in the given property",
	ExistingResource:      "Resource already exists",
	NoUpdate:              "Cannot update the given property",
	BadCommand:            "Unrecognized command",
	NoRead:                "Cannot read the given resource",
	NoConnection:          "Cannot connect",
	BadValue:              "Bad parameter value",
	StateError:            "Failed to change state",
	IPCError:              "Failed to start IPC",
	EventError:            "Unrecognized event",
	MissingArgument:       "Missing argument",
	MissingName:           "Missing name of the pipeline",
	NoDelete:              "Cannot delete the given resource",
}

func (c ReturnCode) String() string {
	if name, ok := returnCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// ClientError is a failure detected on this side of the connection: bad
// arguments, unreachable daemon, broken or malformed replies.
type ClientError struct {
	Status Status
	Err    error
}

func newClientError(status Status, err error) *ClientError {
	return &ClientError{Status: status, Err: err}
}

func (e *ClientError) Error() string {
	if e.Err == nil {
		return "gstc: " + e.Status.String()
	}
	return fmt.Sprintf("gstc: %s: %v", e.Status, e.Err)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// DaemonError is a reply from gstd carrying a non-zero code.
type DaemonError struct {
	Code        ReturnCode
	Description string
	Command     string
}

func (e *DaemonError) Error() string {
	desc := e.Description
	if desc == "" {
		desc = e.Code.String()
	}
	return fmt.Sprintf("gstd: %s (code %d) on %q", desc, int(e.Code), e.Command)
}

var (
	ErrNullArgument = errors.New("required argument is empty")
	ErrNoResponse   = errors.New("reply carries no response")
	ErrClosed       = errors.New("client is closed")
)

// Code flattens an error into the numeric return code convention: 0 on
// success, the daemon code for a DaemonError, the (negative) status for a
// ClientError and StatusSocketError for anything else.
func Code(err error) int {
	if err == nil {
		return 0
	}
	var de *DaemonError
	if errors.As(err, &de) {
		return int(de.Code)
	}
	var ce *ClientError
	if errors.As(err, &ce) {
		return int(ce.Status)
	}
	return int(StatusSocketError)
}

// IsStatus reports whether err is a ClientError with the given status.
func IsStatus(err error, status Status) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Status == status
}

// IsCode reports whether err is a DaemonError with the given code.
func IsCode(err error, code ReturnCode) bool {
	var de *DaemonError
	return errors.As(err, &de) && de.Code == code
}

func checkArgs(args ...string) error {
	for _, a := range args {
		if a == "" {
			return newClientError(StatusNullArgument, ErrNullArgument)
		}
	}
	return nil
}
