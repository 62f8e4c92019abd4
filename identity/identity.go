// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// MasterCode is the reserved credential that bypasses single-use enforcement.
// Its uses are tallied separately in settings.master_uses.
const MasterCode = "16888"

// CodeLength is the required length of a normalized staff credential.
const CodeLength = 8

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NormalizeCode trims surrounding whitespace and upper-cases a staff code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsMaster reports whether a normalized code is the reserved master credential.
func IsMaster(code string) bool {
	return code == MasterCode
}

// ValidFormat reports whether a normalized code is well-formed: exactly
// CodeLength characters, or the master code. Allow-list membership is a
// separate, store-backed check owned by the submission pipeline; keeping
// this function pure makes validation idempotent and retryable.
func ValidFormat(code string) bool {
	if IsMaster(code) {
		return true
	}
	return len(code) == CodeLength
}

// Fingerprint derives a stable identity hash from a device signal. The salt
// keeps raw signals (IP addresses, device UUIDs) out of the dedup set.
func Fingerprint(signal, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(signal))
	sum := h.Sum(nil)
	// 64 bits is enough for deduplication
	return hex.EncodeToString(sum[:8])
}

// Resolve derives the submitting device's identity from a request. It prefers
// the X-Device-UUID header, falls back to client IP + user agent, and as a
// last resort mints a fresh random identity so resolution never blocks a
// submission.
func Resolve(r *http.Request, salt string) string {
	if uuid := r.Header.Get("X-Device-UUID"); uuid != "" {
		return Fingerprint("device:"+uuid, salt)
	}

	ip := clientIP(r)
	ua := r.UserAgent()
	if ip != "" || ua != "" {
		return Fingerprint("addr:"+ip+"|"+ua, salt)
	}

	id, err := GenerateID(8)
	if err != nil {
		// rand.Read failing means the process is in serious trouble;
		// still return something usable.
		return "anon"
	}
	return id
}

// clientIP extracts the client IP address, checking X-Forwarded-For and
// X-Real-IP before falling back to RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take first IP in chain
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' || xff[i] == ' ' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Strip port if present
	addr := r.RemoteAddr
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}
