package gstc

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/corner4world/gstd-1.x/pkg/config"
)

// Transport carries one command line to gstd and returns the raw JSON reply.
type Transport interface {
	Send(ctx context.Context, cmd Command) ([]byte, error)
	Close() error
}

func newTransport(conf config.GstdConfig) (Transport, error) {
	addr := net.JoinHostPort(conf.Address, strconv.Itoa(conf.Port))
	switch conf.Transport {
	case config.TransportTCP, "":
		return newTCPTransport(addr, conf.KeepConnectionOpen), nil
	case config.TransportHTTP:
		return newHTTPTransport("http://" + addr), nil
	default:
		return nil, newClientError(StatusTypeError, fmt.Errorf("unknown transport %q", conf.Transport))
	}
}
