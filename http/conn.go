package httpx

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"net/http"
	"time"

	"static-webserver/docroot"
)

// RequestBufferSize is the most a connection reads. Longer requests are
// truncated and parsed as far as they go.
const RequestBufferSize = 10240

var methodGet = []byte("GET")

// serveConn runs one request/response exchange and closes rwc.
func (s *Server) serveConn(rwc net.Conn) {
	defer func() {
		if err := recover(); err != nil {
			s.logger.Printf("http: panic serving %s: %v", rwc.RemoteAddr(), err)
		}
		rwc.Close()
	}()

	if s.cfg.ReadTimeout > 0 {
		rwc.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}
	buf := make([]byte, RequestBufferSize)
	n, err := rwc.Read(buf)
	if n == 0 {
		if err != nil {
			s.logger.Printf("http: read %s: %v", rwc.RemoteAddr(), err)
		}
		return
	}

	resp, err := s.respond(buf[:n])
	if err != nil {
		s.logger.Printf("http: %s: %v", rwc.RemoteAddr(), err)
		return
	}
	if err := resp.writeTo(bufio.NewWriter(rwc), &s.cfg, s.cfg.Now()); err != nil {
		s.logger.Printf("http: write %s: %v", rwc.RemoteAddr(), err)
	}
}

// respond maps raw request bytes to a response. The only error is a file
// read failure other than not-found.
func (s *Server) respond(raw []byte) (*response, error) {
	req := ParseRequest(raw)
	resp := &response{
		accept:         req.Header.Get("Accept"),
		acceptEncoding: req.Header.Get("Accept-Encoding"),
	}
	if !s.isGet(raw, req) {
		resp.status = http.StatusMethodNotAllowed
		s.logger.Printf("%s %s -> %d", req.Method, req.Path, resp.status)
		return resp, nil
	}

	data, err := s.cfg.Root.ReadFile(req.Path)
	switch {
	case errors.Is(err, docroot.ErrNotFound):
		resp.status = http.StatusNotFound
	case err != nil:
		return nil, err
	default:
		resp.status = http.StatusOK
		resp.body = data
	}
	s.logger.Printf("%s %s -> %d (%d bytes)", req.Method, req.Path, resp.status, len(resp.body))
	return resp, nil
}

func (s *Server) isGet(raw []byte, req *Request) bool {
	if s.cfg.Dialect == Compat {
		return bytes.HasPrefix(raw, methodGet)
	}
	return req.Method == http.MethodGet
}
