package httpx

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"static-webserver/docroot"
	"static-webserver/utils"
)

// Server header values used when Config leaves ServerName empty.
const (
	DefaultServerName = "webserver"
	CompatServerName  = "Windows PC"
)

const maxAcceptDelay = time.Second

// Config is fixed for the life of a Server and shared read-only by every connection.
type Config struct {
	Root        *docroot.Root
	Identity    string
	ServerName  string
	Dialect     Dialect
	ReadTimeout time.Duration // zero means none
	Now         func() time.Time
}

// Server accepts connections and serves one request on each.
type Server struct {
	cfg    Config
	logger *log.Logger

	mu      sync.Mutex
	ln      net.Listener
	closing atomic.Bool
	conns   sync.WaitGroup
}

// NewServer fills defaults into cfg. A nil logger discards output.
func NewServer(cfg Config, logger *log.Logger) (*Server, error) {
	if cfg.Root == nil {
		return nil, errors.New("httpx: no document root")
	}
	if cfg.Identity == "" {
		cfg.Identity = NewIdentity()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = DefaultServerName
		if cfg.Dialect == Compat {
			cfg.ServerName = CompatServerName
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{cfg: cfg, logger: logger}, nil
}

// StartHTTPServer binds addr and serves in the background.
func StartHTTPServer(addr string, cfg Config, opts utils.ListenOptions, logger *log.Logger) (*Server, error) {
	srv, err := NewServer(cfg, logger)
	if err != nil {
		return nil, err
	}
	ln, err := utils.Listen(context.Background(), addr, opts)
	if err != nil {
		return nil, err
	}
	srv.setListener(ln)
	if host, port, err := utils.HostPort(ln.Addr().String()); err == nil {
		srv.logger.Printf("Web Server Running on %s on port %d...", host, port)
	}
	go func() {
		if err := srv.Serve(ln); err != nil {
			srv.logger.Printf("http serve error: %v", err)
		}
	}()
	return srv, nil
}

func (s *Server) setListener(ln net.Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ln = ln
	return !s.closing.Load()
}

// Addr is the bound address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts on ln until Close or Shutdown, handling each connection in
// its own goroutine. Accept errors are retried with backoff.
func (s *Server) Serve(ln net.Listener) error {
	if !s.setListener(ln) {
		ln.Close()
		return nil
	}
	var delay time.Duration
	for {
		rwc, err := ln.Accept()
		if err != nil {
			if s.closing.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay = min(2*delay, maxAcceptDelay)
			}
			s.logger.Printf("http: accept error: %v; retrying in %v", err, delay)
			time.Sleep(delay)
			continue
		}
		delay = 0
		if !s.trackConn() {
			rwc.Close()
			return nil
		}
		go func() {
			defer s.conns.Done()
			s.serveConn(rwc)
		}()
	}
}

// trackConn registers a connection unless the server is closing. Add and
// the closing check share mu with Close, so Shutdown's Wait never races an Add.
func (s *Server) trackConn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing.Load() {
		return false
	}
	s.conns.Add(1)
	return true
}

// Close stops accepting. In-flight connections run to completion.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing.Swap(true) || s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

// Shutdown closes the listener and waits for in-flight connections or ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Close()
	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
