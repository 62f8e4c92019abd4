// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidAdminKey = errors.New("invalid admin key")

// adminKeySubject is the fixed HMAC input for the operator-console key. The
// key is derived from the salt alone, so rotating the salt rotates the key.
const adminKeySubject = "operator-console"

// GenerateAdminKey derives the operator key from the configured salt.
// Deterministic and verifiable.
func GenerateAdminKey(salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(adminKeySubject))
	sum := h.Sum(nil)
	// URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks a presented operator key in constant time.
func ValidateAdminKey(adminKey, salt string) error {
	expected := GenerateAdminKey(salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}
