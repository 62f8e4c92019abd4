// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3319)
  - DatabaseURL: SQLite file or PostgreSQL connection string (required)
  - DatabaseType: "sqlite" or "postgres" (default: sqlite)
  - AdminKeySalt: Secret for operator key HMAC (required)
  - FingerprintSalt: Secret for device fingerprinting (required)
  - ShardCount: Tally shards per candidate (default: 10)

# CLI Flags

	-p                Server port
	-d                Database URL
	-t                Database type
	-shards           Shard count
	-admin-salt       Operator key salt
	-fingerprint-salt Fingerprint salt

# Environment Variables

Flags fall back to environment variables:

	PORT             → -p
	DATABASE_URL     → -d
	DATABASE_TYPE    → -t
	SHARD_COUNT      → -shards
	ADMIN_KEY_SALT   → -admin-salt
	FINGERPRINT_SALT → -fingerprint-salt

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - ADMIN_KEY_SALT must be provided
  - FINGERPRINT_SALT must be provided
*/
package cliparse
