// pkg/utils/ids.go
package utils

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewSessionID returns a fresh chat session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// ValidateSessionID reports whether id looks like a session id we issued.
func ValidateSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// NewRequestID returns a short random id for request tracing.
func NewRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// MD5Hash generates MD5 hash of input string
func MD5Hash(input string) string {
	hash := md5.Sum([]byte(input))
	return hex.EncodeToString(hash[:])
}

// NormalizedKey hashes text after case folding and whitespace collapsing, so
// "Visa  rules?" and "visa rules?" share a cache entry.
func NormalizedKey(text string) string {
	return MD5Hash(strings.Join(strings.Fields(strings.ToLower(text)), " "))
}
