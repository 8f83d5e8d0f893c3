package relay

import "github.com/pkg/errors"

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrAlreadyWatching  = errors.New("signal is already watched")
	ErrNotWatching      = errors.New("signal is not watched")
	ErrMalformedRequest = errors.New("malformed request")
)
