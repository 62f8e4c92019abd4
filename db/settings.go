// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/models"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so settings reads can share
// the transaction of the operation consulting them.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LoadSettings reads the single settings row.
func LoadSettings(ctx context.Context, q DBTX) (models.Settings, error) {
	var s models.Settings
	err := q.QueryRowContext(ctx, `
		SELECT voting_open, test_mode, require_credential, maintenance, master_uses
		FROM settings WHERE id = 1
	`).Scan(&s.VotingOpen, &s.TestMode, &s.RequireCredential, &s.Maintenance, &s.MasterUses)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, nil
}

// SetVotingOpen flips the voting-open flag.
func SetVotingOpen(ctx context.Context, q DBTX, open bool) error {
	_, err := q.ExecContext(ctx, `UPDATE settings SET voting_open = $1 WHERE id = 1`, open)
	if err != nil {
		return fmt.Errorf("failed to set voting_open: %w", err)
	}
	return nil
}

// SetTestMode flips the repeat-voting test flag.
func SetTestMode(ctx context.Context, q DBTX, enabled bool) error {
	_, err := q.ExecContext(ctx, `UPDATE settings SET test_mode = $1 WHERE id = 1`, enabled)
	if err != nil {
		return fmt.Errorf("failed to set test_mode: %w", err)
	}
	return nil
}

// SetRequireCredential toggles staff-credential verification.
func SetRequireCredential(ctx context.Context, q DBTX, required bool) error {
	_, err := q.ExecContext(ctx, `UPDATE settings SET require_credential = $1 WHERE id = 1`, required)
	if err != nil {
		return fmt.Errorf("failed to set require_credential: %w", err)
	}
	return nil
}

// SetMaintenance raises or clears the maintenance flag. While raised, live
// submissions are refused so scaling cannot race them.
func SetMaintenance(ctx context.Context, q DBTX, on bool) error {
	_, err := q.ExecContext(ctx, `UPDATE settings SET maintenance = $1 WHERE id = 1`, on)
	if err != nil {
		return fmt.Errorf("failed to set maintenance: %w", err)
	}
	return nil
}
