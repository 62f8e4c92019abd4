// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package identity provides device fingerprinting, credential code handling,
and operator key utilities.

# Device Fingerprints

A fingerprint is the HMAC-SHA256 of a client signal, truncated to 16 hex
characters:

	fp := identity.Fingerprint("device:"+uuid, salt)

Resolve derives a fingerprint straight from a request:

	fp := identity.Resolve(r, salt)

It prefers the X-Device-UUID header; without one it falls back to the
client address and user agent. The raw signal never reaches the database,
only the keyed hash.

# Credential Codes

Staff codes are 8 characters, stored and compared in normalized form:

	code := identity.NormalizeCode(" abcd1234 ")  // "ABCD1234"
	identity.ValidFormat(code)                    // true

The master code (MasterCode) is reserved: it bypasses consumption and
repeat checks and is never accepted into the allow-list.

# Operator Keys

Operator keys use HMAC-SHA256, deterministic from the configured salt:

	key := identity.GenerateAdminKey(salt)
	err := identity.ValidateAdminKey(key, salt)

Validation is constant-time. Since the key is deterministic, it never needs
to be stored.

# ID Generation

Random hex IDs for fallback identities:

	id, err := identity.GenerateID(16)  // 32 hex characters
*/
package identity
