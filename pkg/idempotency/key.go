package idempotency

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrKeyInvalid is returned for keys outside [A-Za-z0-9_-]
	ErrKeyInvalid = errors.New("idempotency key may only contain letters, digits, '-' and '_'")

	// ErrKeyTooLong is returned for keys longer than the configured maximum
	ErrKeyTooLong = errors.New("idempotency key is too long")
)

// ParseKey trims raw and checks it. An empty key with a nil error means the
// request did not ask for idempotency.
func ParseKey(raw string, maxLength int) (string, error) {
	key := strings.TrimSpace(raw)
	if key == "" {
		return "", nil
	}
	if len(key) > maxLength {
		return "", fmt.Errorf("%w: %d characters, at most %d allowed", ErrKeyTooLong, len(key), maxLength)
	}
	for _, r := range key {
		if !keyRune(r) {
			return "", ErrKeyInvalid
		}
	}
	return key, nil
}

func keyRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_'
}

// Fingerprint hashes the parts of a request that must match on retry. JSON
// bodies are compacted first so reformatting between retries is not a change.
func Fingerprint(method, path string, body []byte) string {
	var compact bytes.Buffer
	if len(body) > 0 && json.Compact(&compact, body) == nil {
		body = compact.Bytes()
	}

	h := sha256.New()
	for _, part := range [][]byte{[]byte(method), []byte(path), body} {
		h.Write(part)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
