// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database access, schema creation, and settings.

# Opening a Connection

Open selects the driver from the configured database type:

	conn, err := db.Open(cfg)

Both SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq) are supported.
The schema and every query in the codebase are written portably, so the
same statements run on both drivers.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes,
and seeds the single settings row with safe defaults (voting closed,
credential verification on).

# Tables

The schema includes:

  - candidate: Candidate metadata and base score fields
  - shard: Partial counters, one row per (candidate, shard index)
  - credential: Staff code allow-list with used flags
  - ballot: Immutable submission audit records
  - identity: Device-fingerprint dedup set
  - settings: Process-wide flags, exactly one row
  - backup: Pre-scaling snapshot, at most one live row
  - scaling_log: Credentials consumed by a scaling cycle

An aggregated score is base + SUM(shard deltas); only the tally store and
the scaling engine move counters between the two.

# Settings

LoadSettings and the setter functions operate on the single settings row:

	settings, err := db.LoadSettings(ctx, conn)
	err = db.SetVotingOpen(ctx, conn, true)

All settings functions accept the DBTX interface, so they work inside or
outside a transaction.

# DBTX

DBTX is the query surface shared by *sql.DB and *sql.Tx. Functions that
must run under a caller-controlled transaction take a DBTX instead of a
concrete connection.
*/
package db
