package gstctest

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corner4world/gstd-1.x/pkg/config"
)

// Server is a fake gstd listening on loopback TCP and HTTP ports that share
// one session.
type Server struct {
	d    *daemon
	ln   net.Listener
	http *httptest.Server
	wg   sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	signalDelay int64 // nanoseconds
}

// SetSignalDelay makes every signal callback read wait d before answering,
// like an element emitting at a fixed rate. A signal timeout shorter than d
// makes the read expire instead.
func (s *Server) SetSignalDelay(d time.Duration) {
	atomic.StoreInt64(&s.signalDelay, int64(d))
}

// handle runs one command. Callback reads first wait out the signal delay,
// or the element's signal timeout when that is shorter, in which case the
// read expires with a null response as it does on gstd.
func (s *Server) handle(verb, uri, args string) reply {
	if verb == "read" && strings.HasSuffix(uri, "/callback") {
		if d := time.Duration(atomic.LoadInt64(&s.signalDelay)); d > 0 {
			if timeout, ok := s.d.callbackTimeout(uri); ok && timeout < d {
				time.Sleep(timeout)
				return s.d.expire(verb, uri, args)
			}
			time.Sleep(d)
		}
	}
	return s.d.handle(verb, uri, args)
}

func NewServer() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{d: newDaemon(), ln: ln, conns: map[net.Conn]struct{}{}}
	s.http = httptest.NewServer(http.HandlerFunc(s.serveHTTP))

	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Close stops both listeners and waits for open TCP sessions to end.
func (s *Server) Close() {
	_ = s.ln.Close()
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.http.Close()
	s.wg.Wait()
}

// TCPConfig returns a client config pointing at the TCP listener.
func (s *Server) TCPConfig() config.GstdConfig {
	conf := config.DefaultGstdConfig()
	conf.Address, conf.Port = splitAddr(s.ln.Addr().String())
	conf.LogLevel = "debug"
	return conf
}

// HTTPConfig returns a client config pointing at the HTTP listener.
func (s *Server) HTTPConfig() config.GstdConfig {
	conf := config.DefaultGstdConfig()
	conf.Transport = config.TransportHTTP
	conf.Address, conf.Port = splitAddr(strings.TrimPrefix(s.http.URL, "http://"))
	conf.LogLevel = "debug"
	return conf
}

// Commands returns every command line received so far, in order.
func (s *Server) Commands() []string {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return append([]string{}, s.d.commands...)
}

// State returns the pipeline state as gstd reports it, or "" when the
// pipeline does not exist.
func (s *Server) State(pipe string) string {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if p, ok := s.d.pipelines[pipe]; ok {
		return p.state
	}
	return ""
}

// Property returns an element property as last written.
func (s *Server) Property(pipe, element, prop string) (string, bool) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	p, ok := s.d.pipelines[pipe]
	if !ok {
		return "", false
	}
	e := p.element(element)
	if e == nil {
		return "", false
	}
	v, ok := e.props[prop]
	return v, ok
}

// SignalTimeout returns the timeout configured for an element signal.
func (s *Server) SignalTimeout(pipe, element, signal string) (int64, bool) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	p, ok := s.d.pipelines[pipe]
	if !ok {
		return 0, false
	}
	e := p.element(element)
	if e == nil {
		return 0, false
	}
	t, ok := e.signals[signal]
	return t, ok
}

// Debug returns a value written under /debug.
func (s *Server) Debug(key string) string {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.d.debug[key]
}

// Post queues a message on a pipeline bus.
func (s *Server) Post(pipe, msgType, text string) bool {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	p, ok := s.d.pipelines[pipe]
	if !ok {
		return false
	}
	p.post(msgType, text)
	return true
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

// serveConn answers each read as one command, the way gstd's socket
// service does, until the peer hangs up.
func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	buf := make([]byte, 64*1024)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		fields := strings.SplitN(strings.TrimSpace(string(buf[:n])), " ", 3)
		var r reply
		if len(fields) < 2 {
			r = fail(codeBadCommand)
		} else {
			args := ""
			if len(fields) == 3 {
				args = fields[2]
			}
			r = s.handle(fields[0], fields[1], args)
		}
		if _, err = conn.Write(append(r.encode(), 0)); err != nil {
			return
		}
	}
}

func (s *Server) serveHTTP(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	var verb, args string
	switch req.Method {
	case http.MethodPost:
		verb = "create"
		args = strings.TrimSpace(q.Get("name") + " " + q.Get("description"))
	case http.MethodGet:
		verb = "read"
	case http.MethodPut:
		verb = "update"
		args = q.Get("name")
	case http.MethodDelete:
		verb = "delete"
		args = q.Get("name")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r := s.handle(verb, req.URL.Path, args)
	w.Header().Set("Content-Type", "application/json")
	if r.Code != codeOK {
		w.WriteHeader(http.StatusBadRequest)
	}
	_, _ = w.Write(r.encode())
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

// DropConnections closes every open TCP session, as a daemon restart would.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
