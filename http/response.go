package httpx

import (
	"bufio"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Dialect selects the response header layout.
type Dialect int

const (
	// Strict writes a well-formed HTTP/1.1 header block.
	Strict Dialect = iota
	// Compat reproduces the legacy header block byte for byte, including its
	// unterminated Etag line, fused nosniff/Content-Type line, missing
	// Content-Length and Keep-Alive advertisement.
	Compat
)

// ParseDialect maps a flag value to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "strict", "":
		return Strict, nil
	case "compat":
		return Compat, nil
	}
	return Strict, fmt.Errorf("unknown dialect %q (want strict or compat)", s)
}

func (d Dialect) String() string {
	if d == Compat {
		return "compat"
	}
	return "strict"
}

// compatDateLayout is the legacy Date rendering (US short date, 12-hour clock).
const compatDateLayout = "1/2/2006 3:04:05 PM"

const defaultContentType = "application/octet-stream"

type response struct {
	status         int
	body           []byte
	accept         string // request's Accept
	acceptEncoding string // request's Accept-Encoding
}

func reason(d Dialect, status int) string {
	if d == Compat {
		switch status {
		case http.StatusOK:
			return "OK"
		case http.StatusNotFound:
			return "Page Not Found"
		case http.StatusMethodNotAllowed:
			return "Method Not Allowed"
		}
	}
	return http.StatusText(status)
}

// writeTo writes the status line, header block and body to w and flushes it.
func (resp *response) writeTo(w *bufio.Writer, cfg *Config, now time.Time) error {
	if cfg.Dialect == Compat {
		resp.writeCompatHeader(w, cfg, now)
	} else {
		resp.writeStrictHeader(w, cfg, now)
	}
	if resp.status == http.StatusOK {
		w.Write(resp.body)
	}
	return w.Flush()
}

func (resp *response) writeCompatHeader(w *bufio.Writer, cfg *Config, now time.Time) {
	fmt.Fprintf(w, "HTTP/1.1 %d %s\r\n", resp.status, reason(Compat, resp.status))
	w.WriteString("Connection: Keep-Alive\r\n")
	fmt.Fprintf(w, "Date: %s\r\n", now.UTC().Format(compatDateLayout))
	fmt.Fprintf(w, "Server: %s \r\n", cfg.ServerName)
	fmt.Fprintf(w, "Etag: \"%s\"r\n", cfg.Identity)
	fmt.Fprintf(w, "Content-Encoding: %s\r\n", resp.acceptEncoding)
	w.WriteString("X-Content-Type-Options: nosniff")
	w.WriteString("Content-Type: application/signed-exchange;v=b3\r\n\r\n")
}

func (resp *response) writeStrictHeader(w *bufio.Writer, cfg *Config, now time.Time) {
	fmt.Fprintf(w, "HTTP/1.1 %d %s\r\n", resp.status, reason(Strict, resp.status))
	w.WriteString("Connection: close\r\n")
	fmt.Fprintf(w, "Date: %s\r\n", now.UTC().Format(http.TimeFormat))
	fmt.Fprintf(w, "Server: %s\r\n", cfg.ServerName)
	fmt.Fprintf(w, "Etag: \"%s\"\r\n", cfg.Identity)
	n := 0
	if resp.status == http.StatusOK {
		n = len(resp.body)
	}
	w.WriteString("Content-Length: " + strconv.Itoa(n) + "\r\n")
	if resp.status == http.StatusOK {
		fmt.Fprintf(w, "Content-Type: %s\r\n", contentType(resp.accept))
	}
	w.WriteString("X-Content-Type-Options: nosniff\r\n\r\n")
}

// contentType passes through the first concrete media range of an Accept
// header, without parameters. Wildcards fall back to octet-stream.
func contentType(accept string) string {
	mt, _, _ := strings.Cut(accept, ",")
	mt, _, _ = strings.Cut(mt, ";")
	mt = strings.TrimSpace(mt)
	if mt == "" || strings.Contains(mt, "*") || !strings.Contains(mt, "/") {
		return defaultContentType
	}
	return mt
}
