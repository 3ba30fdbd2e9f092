package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// NewID returns a best-effort unique identifier.
func NewID() string {
	const size = 12

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}

	// Fallback to timestamp if crypto/rand is unavailable.
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

// ShortID returns a compact identifier suitable for display names.
func ShortID() string {
	const size = 4

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return strconv.FormatInt(time.Now().UnixNano()%0xffff, 16)
}

// MessageID returns an id that is unique and monotonically distinguishable:
// a nanosecond timestamp plus a random suffix. Strict total order across
// producers is not required, only uniqueness.
func MessageID() string {
	ts := strconv.FormatInt(time.Now().UnixNano(), 36)

	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return ts
	}
	return ts + "-" + hex.EncodeToString(buf)
}
