package gstc

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// httpTransport speaks gstd's REST surface: the CRUD verb picks the method,
// the URI is the path and the arguments travel as query parameters.
type httpTransport struct {
	base   string
	client *http.Client
}

func newHTTPTransport(base string) *httpTransport {
	return &httpTransport{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{},
	}
}

func (t *httpTransport) Send(ctx context.Context, cmd Command) ([]byte, error) {
	req, err := t.newRequest(ctx, cmd)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newClientError(StatusTimeout, ctxErr)
		}
		return nil, newClientError(StatusUnreachable, errors.Wrap(err, "server did not respond, is it up?"))
	}
	defer resp.Body.Close()

	// 2xx-4xx carry a gstd reply, anything else means no daemon answered
	if resp.StatusCode < 200 || resp.StatusCode >= 500 {
		return nil, newClientError(StatusUnreachable, errors.Errorf("unexpected http status %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newClientError(StatusRecvError, err)
	}
	return body, nil
}

func (t *httpTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

func (t *httpTransport) newRequest(ctx context.Context, cmd Command) (*http.Request, error) {
	var method string
	query := url.Values{}
	switch cmd.Verb {
	case VerbCreate:
		method = http.MethodPost
		if len(cmd.Args) > 0 {
			query.Set("name", cmd.Args[0])
		}
		if len(cmd.Args) > 1 {
			query.Set("description", strings.Join(cmd.Args[1:], " "))
		}
	case VerbRead:
		method = http.MethodGet
	case VerbUpdate:
		method = http.MethodPut
		if len(cmd.Args) > 0 {
			query.Set("name", strings.Join(cmd.Args, " "))
		}
	case VerbDelete:
		method = http.MethodDelete
		if len(cmd.Args) > 0 {
			query.Set("name", cmd.Args[0])
		}
	default:
		return nil, newClientError(StatusTypeError, errors.Errorf("unknown verb %q", cmd.Verb))
	}

	u := t.base + cmd.URI
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, newClientError(StatusTypeError, err)
	}
	return req, nil
}
