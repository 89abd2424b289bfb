package httpx

import (
	"strings"

	"github.com/google/uuid"
)

// NewIdentity returns a fresh opaque server identity: 32 hex digits.
// It is generated once per process and sent as the ETag of every response.
func NewIdentity() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
