// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/cliparse"
)

// Open connects to the configured backing store. The schema is written
// portably, so the same statements run on both drivers.
func Open(cfg cliparse.Config) (*sql.DB, error) {
	driver := ""
	switch cfg.DatabaseType {
	case "postgres":
		driver = "postgres"
	case "sqlite":
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	conn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DatabaseType, err)
	}

	// SQLite serializes writers anyway; a single connection avoids
	// SQLITE_BUSY surfacing as spurious submission failures.
	if driver == "sqlite" {
		conn.SetMaxOpenConns(1)
	}

	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Single settings row, seeded with the safe defaults: voting closed,
	// credential verification on.
	_, err = db.Exec(`
		INSERT INTO settings (id, voting_open, test_mode, require_credential, maintenance, master_uses)
		VALUES (1, FALSE, FALSE, TRUE, FALSE, 0)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	return nil
}

const schema = `
-- Candidates: metadata plus base score fields. Shard deltas live in shard;
-- an aggregated score is base + SUM(shard deltas).
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    song TEXT NOT NULL DEFAULT '',
    image TEXT NOT NULL DEFAULT '',
    video_link TEXT NOT NULL DEFAULT '',
    score_singing INTEGER NOT NULL DEFAULT 0,
    score_popularity INTEGER NOT NULL DEFAULT 0,
    score_costume INTEGER NOT NULL DEFAULT 0,
    vote_count INTEGER NOT NULL DEFAULT 0
);

-- Partial counters. Created lazily on first write, one row per
-- (candidate, shard index); deleted only by reset or collapse.
CREATE TABLE IF NOT EXISTS shard (
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    shard_idx INTEGER NOT NULL,
    score_singing INTEGER NOT NULL DEFAULT 0,
    score_popularity INTEGER NOT NULL DEFAULT 0,
    score_costume INTEGER NOT NULL DEFAULT 0,
    vote_count INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (candidate_id, shard_idx)
);

-- Staff credential allow-list. Codes are stored normalized (upper-case).
CREATE TABLE IF NOT EXISTS credential (
    code TEXT PRIMARY KEY,
    used BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_credential_used ON credential(used);

-- Immutable audit records. cycle_id tags rows written by a scaling cycle so
-- restore can remove exactly what that cycle added.
CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    singing_id TEXT NOT NULL,
    popularity_id TEXT NOT NULL,
    costume_id TEXT NOT NULL,
    identity TEXT NOT NULL,
    synthetic BOOLEAN NOT NULL DEFAULT FALSE,
    cycle_id TEXT,
    submitted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ballot_cycle ON ballot(cycle_id);
CREATE INDEX IF NOT EXISTS idx_ballot_identity ON ballot(identity);

-- Device-fingerprint dedup set. The primary key is the duplicate-vote guard.
CREATE TABLE IF NOT EXISTS identity (
    fingerprint TEXT PRIMARY KEY,
    synthetic BOOLEAN NOT NULL DEFAULT FALSE,
    cycle_id TEXT,
    seen_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_identity_cycle ON identity(cycle_id);

-- Process-wide flags, exactly one row.
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    voting_open BOOLEAN NOT NULL DEFAULT FALSE,
    test_mode BOOLEAN NOT NULL DEFAULT FALSE,
    require_credential BOOLEAN NOT NULL DEFAULT TRUE,
    maintenance BOOLEAN NOT NULL DEFAULT FALSE,
    master_uses INTEGER NOT NULL DEFAULT 0
);

-- Pre-scaling snapshot; at most one live row per voting cycle.
CREATE TABLE IF NOT EXISTS backup (
    cycle_id TEXT PRIMARY KEY,
    taken_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    payload TEXT NOT NULL
);

-- Credentials consumed by the scaling engine, needed for exact reversal.
CREATE TABLE IF NOT EXISTS scaling_log (
    cycle_id TEXT NOT NULL,
    code TEXT NOT NULL,
    PRIMARY KEY (cycle_id, code)
);
`
