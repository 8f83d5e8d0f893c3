package gstc

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// replies on the socket are terminated by a NUL byte
const terminator = byte(0)

type tcpConn struct {
	net.Conn
	r *bufio.Reader
}

type tcpTransport struct {
	addr     string
	keepOpen bool
	dialer   net.Dialer

	mu     sync.Mutex
	conn   *tcpConn
	closed bool
}

func newTCPTransport(addr string, keepOpen bool) *tcpTransport {
	return &tcpTransport{
		addr:     addr,
		keepOpen: keepOpen,
	}
}

func (t *tcpTransport) Send(ctx context.Context, cmd Command) ([]byte, error) {
	if !t.keepOpen {
		conn, err := t.dial(ctx)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		return roundTrip(ctx, conn, cmd.String())
	}

	// a kept-open socket carries one exchange at a time
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, newClientError(StatusSocketError, ErrClosed)
	}

	reused := t.conn != nil
	if !reused {
		conn, err := t.dial(ctx)
		if err != nil {
			return nil, err
		}
		t.conn = conn
	}

	resp, err := roundTrip(ctx, t.conn, cmd.String())
	if err == nil {
		return resp, nil
	}

	t.dropConn()
	if !reused || !isBrokenConn(err) {
		return nil, err
	}

	// the daemon may have closed an idle connection, try once on a fresh one
	conn, dErr := t.dial(ctx)
	if dErr != nil {
		return nil, dErr
	}
	t.conn = conn
	resp, err = roundTrip(ctx, conn, cmd.String())
	if err != nil {
		t.dropConn()
	}
	return resp, err
}

func (t *tcpTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.dropConn()
	return nil
}

func (t *tcpTransport) dial(ctx context.Context) (*tcpConn, error) {
	conn, err := t.dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return nil, newClientError(StatusUnreachable, errors.Wrapf(err, "unable to connect to gstd at %s", t.addr))
	}
	return &tcpConn{Conn: conn, r: bufio.NewReader(conn)}, nil
}

func (t *tcpTransport) dropConn() {
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
}

func roundTrip(ctx context.Context, conn *tcpConn, line string) ([]byte, error) {
	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, newClientError(StatusSocketError, err)
	}

	// unblock reads when the context is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetDeadline(time.Unix(1, 0))
		case <-done:
		}
	}()

	if _, err := io.WriteString(conn, line); err != nil {
		return nil, classify(ctx, StatusSendError, err)
	}

	resp, err := conn.r.ReadBytes(terminator)
	if err != nil {
		return nil, classify(ctx, StatusRecvError, err)
	}
	return resp[:len(resp)-1], nil
}

func classify(ctx context.Context, status Status, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return newClientError(StatusTimeout, ctxErr)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return newClientError(StatusSocketTimeout, err)
	}
	return newClientError(status, err)
}

func isBrokenConn(err error) bool {
	var ce *ClientError
	if !errors.As(err, &ce) {
		return false
	}
	if ce.Status != StatusSendError && ce.Status != StatusRecvError {
		return false
	}
	return errors.Is(ce.Err, io.EOF) || errors.Is(ce.Err, io.ErrUnexpectedEOF) || isNetOpError(ce.Err)
}

func isNetOpError(err error) bool {
	var oe *net.OpError
	return errors.As(err, &oe)
}
