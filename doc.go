// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Spring Gala voting API server.

The service tallies audience votes for gala candidates across three award
categories (singing, popularity, costume), with sharded counters for write
throughput, per-device and per-credential duplicate suppression, and a
reversible scaling engine for the results presentation.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=file:gala.db go run main.go

Or with flags:

	go run main.go -p 3319 -d "postgres://..." -t postgres

A .env file in the working directory is loaded automatically if present.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file or PostgreSQL connection string
  - ADMIN_KEY_SALT (-admin-salt): Secret for operator key HMAC
  - FINGERPRINT_SALT (-fingerprint-salt): Secret for device fingerprinting

Optional settings:

  - PORT (-p): Server port (default: 3319)
  - DATABASE_TYPE (-t): "sqlite" or "postgres" (default: sqlite)
  - SHARD_COUNT (-shards): Tally shards per candidate (default: 10)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (voting, results, operator console)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response and domain types
  - identity: Device fingerprinting, credential codes, operator keys
  - vote: The submission pipeline
  - tally: Sharded score counters
  - scaling: Reversible proportional scaling
  - loadgen: Synthetic traffic generation
  - db: Schema creation and settings access
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
