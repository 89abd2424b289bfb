package httpx

import "strings"

// Header maps header names, in the case received, to their first value.
type Header map[string]string

// Get returns the value of the header named exactly key.
func (h Header) Get(key string) string {
	return h[key]
}

// Request is the best-effort view of one raw request.
type Request struct {
	Method string
	Path   string
	Proto  string
	Header Header
}

// ParseRequest never fails: malformed or truncated input yields
// whatever fields could be recovered. A missing path is "/".
func ParseRequest(raw []byte) *Request {
	lines := strings.Split(strings.ReplaceAll(string(raw), "\r", "\n"), "\n")
	r := &Request{Path: "/", Header: make(Header)}

	tokens := strings.Split(lines[0], " ")
	r.Method = tokens[0]
	if len(tokens) > 1 && tokens[1] != "" {
		r.Path = tokens[1]
	}
	if len(tokens) > 2 {
		r.Proto = tokens[len(tokens)-1]
	}

	for _, line := range lines[1:] {
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		k := strings.TrimSpace(line[:i])
		if k == "" {
			continue
		}
		if _, dup := r.Header[k]; dup {
			continue
		}
		r.Header[k] = strings.TrimSpace(line[i+1:])
	}
	return r
}
