package utils

import (
	"fmt"
	"net"
	"strconv"
)

// HostPort splits addr ("127.0.0.1:5050", ":5050") into its host and numeric port.
// An empty host is reported as "0.0.0.0".
func HostPort(addr string) (string, int, error) {
	h, p, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	v, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	if h == "" {
		h = "0.0.0.0"
	}
	return h, v, nil
}
