package models

import (
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Result is the outcome of one counter check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int
	// Degraded is set when the answer came from the in-process fallback.
	Degraded bool
}

// Decide builds a Result for a fixed window whose counter now reads count.
func Decide(count int64, limit int, now, resetAt time.Time) *Result {
	r := &Result{
		Allowed: count <= int64(limit),
		Limit:   limit,
		ResetAt: resetAt,
	}
	if r.Allowed {
		r.Remaining = limit - int(count)
		return r
	}
	r.RetryAfter = int(resetAt.Sub(now).Round(time.Second) / time.Second)
	if r.RetryAfter < 1 {
		r.RetryAfter = 1
	}
	return r
}

// ExceededResponse is the 429 body.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"error_description"`
	RetryAfter int    `json:"retry_after"`
}

// SanitizeKeySegment escapes the key delimiter so a caller-controlled value
// cannot address a neighbouring bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// Key returns the counter key for caller within scope. The caller identifier
// is hashed so raw client addresses never reach the counter store.
func Key(scope, caller string) string {
	sum := blake2b.Sum256([]byte(caller))
	return SanitizeKeySegment(scope) + ":" + hex.EncodeToString(sum[:16])
}
