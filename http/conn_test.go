package httpx

import (
	"bufio"
	"bytes"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"static-webserver/docroot"
)

func newTestServer(t *testing.T, d Dialect, files map[string]string) *Server {
	t.Helper()
	fs := memfs.New()
	for name, data := range files {
		if err := util.WriteFile(fs, name, []byte(data), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	srv, err := NewServer(Config{
		Root:       docroot.New(fs),
		Identity:   testIdentity,
		ServerName: "test",
		Dialect:    d,
		Now:        func() time.Time { return fixedNow },
	}, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	return srv
}

// exchange feeds raw to one connection handler and returns everything it wrote.
func exchange(t *testing.T, s *Server, raw string) []byte {
	t.Helper()
	client, server := net.Pipe()
	defer client.Close()
	go s.serveConn(server)
	go client.Write([]byte(raw))
	out, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return out
}

func strictExchange(t *testing.T, s *Server, raw string) (*http.Response, string) {
	t.Helper()
	out := exchange(t, s, raw)
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(out)), nil)
	if err != nil {
		t.Fatalf("ReadResponse(%q) error: %v", out, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestServeIndex(t *testing.T) {
	s := newTestServer(t, Strict, map[string]string{"index.html": "<html></html>"})
	resp, body := strictExchange(t, s, "GET / HTTP/1.1\r\nAccept: text/html\r\n\r\n")
	if resp.StatusCode != 200 {
		t.Fatalf("status got=%d want=200", resp.StatusCode)
	}
	if body != "<html></html>" {
		t.Fatalf("body got=%q want=%q", body, "<html></html>")
	}
	if resp.ContentLength != int64(len(body)) {
		t.Fatalf("Content-Length got=%d want=%d", resp.ContentLength, len(body))
	}
	if got := resp.Header.Get("Content-Type"); got != "text/html" {
		t.Fatalf("Content-Type got=%q", got)
	}
}

func TestServeFile(t *testing.T) {
	bin := string([]byte{0, 1, 2, 0xff, '\r', '\n'})
	s := newTestServer(t, Strict, map[string]string{"sub/data.bin": bin})
	resp, body := strictExchange(t, s, "GET /sub/data.bin HTTP/1.1\r\n\r\n")
	if resp.StatusCode != 200 || body != bin {
		t.Fatalf("status=%d body=%q want %q", resp.StatusCode, body, bin)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, Strict, map[string]string{"x": "exists"})
	for _, raw := range []string{
		"POST /x HTTP/1.1\r\n\r\n",
		"PUT /missing HTTP/1.1\r\n\r\n",
		"HEAD / HTTP/1.1\r\n\r\n",
		"GETX /x HTTP/1.1\r\n\r\n",
		"get /x HTTP/1.1\r\n\r\n",
	} {
		resp, body := strictExchange(t, s, raw)
		if resp.StatusCode != 405 || body != "" {
			t.Fatalf("%q: status=%d body=%q want 405 empty", raw, resp.StatusCode, body)
		}
	}
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, Strict, map[string]string{"dir/a.txt": "a"})
	for _, p := range []string{"/missing.txt", "/dir", "/", "/../../etc/passwd"} {
		resp, body := strictExchange(t, s, "GET "+p+" HTTP/1.1\r\n\r\n")
		if resp.StatusCode != 404 || body != "" {
			t.Fatalf("GET %s: status=%d body=%q want 404 empty", p, resp.StatusCode, body)
		}
	}
}

func TestMissingPathServesIndex(t *testing.T) {
	s := newTestServer(t, Strict, map[string]string{"index.html": "root"})
	resp, body := strictExchange(t, s, "GET\r\n\r\n")
	if resp.StatusCode != 200 || body != "root" {
		t.Fatalf("status=%d body=%q", resp.StatusCode, body)
	}
}

func TestTruncatedRequest(t *testing.T) {
	s := newTestServer(t, Strict, map[string]string{"index.html": "ok"})
	raw := "GET / HTTP/1.1\r\nX-Pad: " + strings.Repeat("a", 3*RequestBufferSize) + "\r\n\r\n"
	resp, body := strictExchange(t, s, raw)
	if resp.StatusCode != 200 || body != "ok" {
		t.Fatalf("status=%d body=%q", resp.StatusCode, body)
	}
}

func TestCompatExchange(t *testing.T) {
	s := newTestServer(t, Compat, map[string]string{"index.html": "<html></html>"})
	out := string(exchange(t, s, "GET / HTTP/1.1\r\nAccept-Encoding: gzip\r\n\r\n"))
	head, body, ok := strings.Cut(out, "\r\n\r\n")
	if !ok {
		t.Fatalf("no header terminator in %q", out)
	}
	if !strings.HasPrefix(head, "HTTP/1.1 200 OK\r\nConnection: Keep-Alive\r\n") {
		t.Fatalf("head got=%q", head)
	}
	if !strings.Contains(head, "Content-Encoding: gzip\r\n") || strings.Contains(head, "Content-Length") {
		t.Fatalf("head got=%q", head)
	}
	if body != "<html></html>" {
		t.Fatalf("body got=%q", body)
	}

	// Compat only checks for a "GET" prefix.
	out = string(exchange(t, s, "GETX / HTTP/1.1\r\n\r\n"))
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("GETX in compat got=%q", out)
	}
	out = string(exchange(t, s, "GET /missing.txt HTTP/1.1\r\n\r\n"))
	if !strings.HasPrefix(out, "HTTP/1.1 404 Page Not Found\r\n") || !strings.HasSuffix(out, "\r\n\r\n") {
		t.Fatalf("missing in compat got=%q", out)
	}
	out = string(exchange(t, s, "POST /x HTTP/1.1\r\n\r\n"))
	if !strings.HasPrefix(out, "HTTP/1.1 405 Method Not Allowed\r\n") || !strings.HasSuffix(out, "\r\n\r\n") {
		t.Fatalf("POST in compat got=%q", out)
	}
}

func TestEmptyReadClosesSilently(t *testing.T) {
	s := newTestServer(t, Strict, nil)
	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		s.serveConn(server)
		close(done)
	}()
	client.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("handler did not return after client closed")
	}
}

func TestReadTimeout(t *testing.T) {
	s := newTestServer(t, Strict, nil)
	s.cfg.ReadTimeout = 50 * time.Millisecond
	client, server := net.Pipe()
	defer client.Close()
	go s.serveConn(server)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	out, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("handler did not close a stalled connection: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("stalled connection got response %q", out)
	}
}
