// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/db"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/identity"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/models"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/tally"
)

// Service validates ballots, enforces one-vote-per-identity, and records the
// ballot plus its shard increments as one atomic operation. Dependencies are
// injected; there is no package-level state.
type Service struct {
	db    *sql.DB
	tally *tally.Store
}

func NewService(conn *sql.DB, store *tally.Store) *Service {
	return &Service{db: conn, tally: store}
}

// Submit runs the full pipeline for one ballot. Preconditions are checked in
// order with short-circuit on first failure; all effects commit together or
// not at all.
//
// Synthetic submissions (load testing) bypass the voting-open gate and all
// dedup/credential constraints: their purpose is exercising the tally store.
func (s *Service) Submit(ctx context.Context, sel models.Selections, credential, fingerprint string, synthetic bool) (models.Receipt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	settings, err := db.LoadSettings(ctx, tx)
	if err != nil {
		return models.Receipt{}, err
	}

	if !synthetic {
		if settings.Maintenance {
			return models.Receipt{}, ErrMaintenance
		}
		if !settings.VotingOpen {
			return models.Receipt{}, ErrVotingClosed
		}
	}

	if !sel.Complete() {
		return models.Receipt{}, ErrIncompleteBallot
	}

	if err := s.checkCandidates(ctx, tx, sel); err != nil {
		return models.Receipt{}, err
	}

	code := identity.NormalizeCode(credential)
	master := identity.IsMaster(code)

	if !synthetic {
		if settings.RequireCredential && !master {
			if err := s.consumeCredential(ctx, tx, code, settings.TestMode); err != nil {
				return models.Receipt{}, err
			}
		}
		if !settings.TestMode && !master {
			if err := s.recordIdentity(ctx, tx, fingerprint); err != nil {
				return models.Receipt{}, err
			}
		}
		if master {
			if _, err := tx.ExecContext(ctx, `UPDATE settings SET master_uses = master_uses + 1 WHERE id = 1`); err != nil {
				return models.Receipt{}, fmt.Errorf("failed to count master-key use: %w", err)
			}
		}
	}

	ballotID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO ballot (id, singing_id, popularity_id, costume_id, identity, synthetic, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ballotID, sel.Singing, sel.Popularity, sel.Costume, fingerprint, synthetic, time.Now().UTC())
	if err != nil {
		return models.Receipt{}, fmt.Errorf("failed to record ballot: %w", err)
	}

	// One increment per category; the same candidate may legitimately be
	// chosen in more than one.
	for _, category := range models.Categories {
		if err := s.tally.Increment(ctx, tx, sel.ByCategory(category), category, 1); err != nil {
			return models.Receipt{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Receipt{}, fmt.Errorf("failed to commit submission: %w", err)
	}

	if !synthetic {
		slog.Info("ballot recorded", "ballot_id", ballotID, "master", master)
	}

	return models.Receipt{BallotID: ballotID, Master: master}, nil
}

// checkCandidates verifies every selected identifier references a real
// candidate. The shard table carries no such guarantee on its own.
func (s *Service) checkCandidates(ctx context.Context, tx *sql.Tx, sel models.Selections) error {
	distinct := map[string]bool{sel.Singing: true, sel.Popularity: true, sel.Costume: true}

	var found int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM candidate WHERE id IN ($1, $2, $3)
	`, sel.Singing, sel.Popularity, sel.Costume).Scan(&found)
	if err != nil {
		return fmt.Errorf("failed to verify candidates: %w", err)
	}

	if found != len(distinct) {
		return ErrCandidateNotFound
	}
	return nil
}

// consumeCredential validates a non-master staff code against the allow-list
// and marks it used. The conditional UPDATE closes the race window between
// two concurrent submissions presenting the same code: only one can flip
// used from FALSE.
//
// In test mode the code must still be well-formed and on the list, but its
// used flag is neither checked nor set, so a demo device can vote repeatedly.
func (s *Service) consumeCredential(ctx context.Context, tx *sql.Tx, code string, testMode bool) error {
	if !identity.ValidFormat(code) {
		return ErrInvalidCredential
	}

	var used bool
	err := tx.QueryRowContext(ctx, `SELECT used FROM credential WHERE code = $1`, code).Scan(&used)
	if err == sql.ErrNoRows {
		return ErrCredentialNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up credential: %w", err)
	}

	if testMode {
		return nil
	}

	if used {
		return ErrCredentialAlreadyUsed
	}

	res, err := tx.ExecContext(ctx, `UPDATE credential SET used = TRUE WHERE code = $1 AND used = FALSE`, code)
	if err != nil {
		return fmt.Errorf("failed to mark credential used: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark credential used: %w", err)
	}
	if affected == 0 {
		// Lost the race to a concurrent submission.
		return ErrCredentialAlreadyUsed
	}
	return nil
}

// recordIdentity inserts the fingerprint into the dedup set. The primary key
// violation is the duplicate-vote guard for races the read check misses.
func (s *Service) recordIdentity(ctx context.Context, tx *sql.Tx, fingerprint string) error {
	var exists bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM identity WHERE fingerprint = $1)
	`, fingerprint).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check dedup set: %w", err)
	}
	if exists {
		return ErrDuplicateDevice
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO identity (fingerprint, synthetic, seen_at) VALUES ($1, FALSE, $2)
	`, fingerprint, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateDevice
		}
		return fmt.Errorf("failed to record identity: %w", err)
	}
	return nil
}
