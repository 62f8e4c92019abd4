// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scaling

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/db"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/models"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/tally"
)

var (
	ErrNoBackupFound        = errors.New("no backup found for the current cycle")
	ErrInsufficientRealData = errors.New("a category has no real votes to scale from")
	ErrInvalidTarget        = errors.New("scaling target must be positive")
	ErrScalingLocked        = errors.New("another scaling operation is in progress")
)

// Jitter bounds for grouped scaling: each share is perturbed by a random
// multiplicative factor of ±2–5% before rounding, for visual variety.
const (
	jitterMin = 0.02
	jitterMax = 0.05
)

// Engine snapshots real tallies, overwrites them with a target-weighted
// proportional redistribution, and can restore the snapshot exactly. It is
// operationally serialized with live voting via the settings maintenance
// flag, which the submission pipeline honors.
type Engine struct {
	db    *sql.DB
	tally *tally.Store
}

func NewEngine(conn *sql.DB, store *tally.Store) *Engine {
	return &Engine{db: conn, tally: store}
}

// snapshotEntry is one candidate's aggregated state inside the backup
// payload. Field order follows candidate ID order and is preserved across
// marshal/unmarshal, which keeps remainder absorption deterministic.
type snapshotEntry struct {
	ID         string `json:"id"`
	Singing    int    `json:"singing"`
	Popularity int    `json:"popularity"`
	Costume    int    `json:"costume"`
	VoteCount  int    `json:"vote_count"`
}

// Summary reports what one ScaleTo call did.
type Summary struct {
	CycleID           string
	Target            int
	SyntheticBallots  int
	CredentialsMarked int
	BackupCreated     bool
}

// ScaleTo redistributes every candidate's per-category score so each category
// sums to exactly target, proportionally to the candidate's real share. The
// real state is captured in a backup before the first mutation of a cycle and
// every repeat call recomputes from that backup, never from prior simulation
// output, so repeated scaling cannot compound.
func (e *Engine) ScaleTo(ctx context.Context, target int, groupedJitter bool) (Summary, error) {
	if target <= 0 {
		return Summary{}, ErrInvalidTarget
	}

	if err := e.lock(ctx); err != nil {
		return Summary{}, err
	}
	defer e.unlock(context.WithoutCancel(ctx))

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cycleID, entries, created, err := e.loadOrCaptureBackup(ctx, tx)
	if err != nil {
		return Summary{}, err
	}

	totals := categoryTotals(entries)
	realVotes := 0
	for _, ent := range entries {
		realVotes += ent.VoteCount
	}
	for _, t := range totals {
		if t == 0 {
			// A proportional share of zero is undefined.
			return Summary{}, ErrInsufficientRealData
		}
	}

	shares := computeShares(entries, totals, target, groupedJitter)

	for i, ent := range entries {
		if err := e.tally.CollapseShards(ctx, tx, ent.ID); err != nil {
			return Summary{}, err
		}
		sh := shares[i]
		_, err = tx.ExecContext(ctx, `
			UPDATE candidate SET
				score_singing = $1, score_popularity = $2, score_costume = $3, vote_count = $4
			WHERE id = $5
		`, sh.Singing, sh.Popularity, sh.Costume, sh.Singing+sh.Popularity+sh.Costume, ent.ID)
		if err != nil {
			return Summary{}, fmt.Errorf("failed to overwrite scores for %s: %w", ent.ID, err)
		}
	}

	deficit := target - realVotes
	if deficit < 0 {
		deficit = 0
	}

	marked, err := e.consumeCredentials(ctx, tx, cycleID, deficit)
	if err != nil {
		return Summary{}, err
	}

	if err := e.writeSyntheticRecords(ctx, tx, cycleID, entries, deficit); err != nil {
		return Summary{}, err
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("failed to commit scaling: %w", err)
	}

	slog.Info("tallies scaled",
		"cycle_id", cycleID,
		"target", target,
		"synthetic_ballots", deficit,
		"credentials_marked", marked,
		"backup_created", created,
	)

	return Summary{
		CycleID:           cycleID,
		Target:            target,
		SyntheticBallots:  deficit,
		CredentialsMarked: marked,
		BackupCreated:     created,
	}, nil
}

// Restore returns aggregated state to exactly its pre-scaling values: base
// scores and shard state from the backup, every consumed credential unmarked,
// and all synthetic records of the cycle removed, then deletes the backup
// itself.
func (e *Engine) Restore(ctx context.Context) error {
	if err := e.lock(ctx); err != nil {
		return err
	}
	defer e.unlock(context.WithoutCancel(ctx))

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var cycleID, payload string
	err = tx.QueryRowContext(ctx, `SELECT cycle_id, payload FROM backup LIMIT 1`).Scan(&cycleID, &payload)
	if err == sql.ErrNoRows {
		return ErrNoBackupFound
	}
	if err != nil {
		return fmt.Errorf("failed to load backup: %w", err)
	}

	var entries []snapshotEntry
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return fmt.Errorf("failed to decode backup payload: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE credential SET used = FALSE
		WHERE code IN (SELECT code FROM scaling_log WHERE cycle_id = $1)
	`, cycleID)
	if err != nil {
		return fmt.Errorf("failed to unmark credentials: %w", err)
	}

	for _, ent := range entries {
		_, err = tx.ExecContext(ctx, `DELETE FROM shard WHERE candidate_id = $1`, ent.ID)
		if err != nil {
			return fmt.Errorf("failed to clear shards for %s: %w", ent.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE candidate SET
				score_singing = $1, score_popularity = $2, score_costume = $3, vote_count = $4
			WHERE id = $5
		`, ent.Singing, ent.Popularity, ent.Costume, ent.VoteCount, ent.ID)
		if err != nil {
			return fmt.Errorf("failed to restore scores for %s: %w", ent.ID, err)
		}
	}

	for _, stmt := range []string{
		`DELETE FROM ballot WHERE cycle_id = $1`,
		`DELETE FROM identity WHERE cycle_id = $1`,
		`DELETE FROM scaling_log WHERE cycle_id = $1`,
		`DELETE FROM backup WHERE cycle_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, cycleID); err != nil {
			return fmt.Errorf("failed to purge cycle %s: %w", cycleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}

	slog.Info("real tallies restored", "cycle_id", cycleID)
	return nil
}

// lock raises the maintenance flag so live submissions are refused while base
// scores are being rewritten. Exactly one scaling operation may hold it.
func (e *Engine) lock(ctx context.Context) error {
	res, err := e.db.ExecContext(ctx, `UPDATE settings SET maintenance = TRUE WHERE id = 1 AND maintenance = FALSE`)
	if err != nil {
		return fmt.Errorf("failed to raise maintenance flag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to raise maintenance flag: %w", err)
	}
	if affected == 0 {
		return ErrScalingLocked
	}
	return nil
}

func (e *Engine) unlock(ctx context.Context) {
	if err := db.SetMaintenance(ctx, e.db, false); err != nil {
		slog.Error("failed to clear maintenance flag", "error", err)
	}
}

// loadOrCaptureBackup returns the live cycle's backup, capturing one from the
// current aggregates if this is the cycle's first scaling operation. Capture
// is the one and only point where real data is preserved.
func (e *Engine) loadOrCaptureBackup(ctx context.Context, tx *sql.Tx) (string, []snapshotEntry, bool, error) {
	var cycleID, payload string
	err := tx.QueryRowContext(ctx, `SELECT cycle_id, payload FROM backup LIMIT 1`).Scan(&cycleID, &payload)
	if err == nil {
		var entries []snapshotEntry
		if err := json.Unmarshal([]byte(payload), &entries); err != nil {
			return "", nil, false, fmt.Errorf("failed to decode backup payload: %w", err)
		}
		return cycleID, entries, false, nil
	}
	if err != sql.ErrNoRows {
		return "", nil, false, fmt.Errorf("failed to load backup: %w", err)
	}

	current, err := e.tally.AggregateAll(ctx, tx)
	if err != nil {
		return "", nil, false, err
	}

	entries := make([]snapshotEntry, len(current))
	for i, c := range current {
		entries[i] = snapshotEntry{
			ID:         c.ID,
			Singing:    c.Singing,
			Popularity: c.Popularity,
			Costume:    c.Costume,
			VoteCount:  c.VoteCount,
		}
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return "", nil, false, fmt.Errorf("failed to encode backup payload: %w", err)
	}

	cycleID = uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO backup (cycle_id, taken_at, payload) VALUES ($1, $2, $3)
	`, cycleID, time.Now().UTC(), string(raw))
	if err != nil {
		return "", nil, false, fmt.Errorf("failed to store backup: %w", err)
	}

	return cycleID, entries, true, nil
}

// consumeCredentials draws up to n unused credentials at random, marks them
// used, and records them in the scaling log for exact reversal. Fewer than n
// available is not an error; the shortfall is logged.
func (e *Engine) consumeCredentials(ctx context.Context, tx *sql.Tx, cycleID string, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT code FROM credential WHERE used = FALSE ORDER BY RANDOM() LIMIT $1
	`, n)
	if err != nil {
		return 0, fmt.Errorf("failed to draw credentials: %w", err)
	}
	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan credential: %w", err)
		}
		codes = append(codes, code)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read credentials: %w", err)
	}

	for _, code := range codes {
		if _, err := tx.ExecContext(ctx, `UPDATE credential SET used = TRUE WHERE code = $1`, code); err != nil {
			return 0, fmt.Errorf("failed to mark credential %s: %w", code, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scaling_log (cycle_id, code) VALUES ($1, $2)
			ON CONFLICT (cycle_id, code) DO NOTHING
		`, cycleID, code); err != nil {
			return 0, fmt.Errorf("failed to log credential %s: %w", code, err)
		}
	}

	if len(codes) < n {
		slog.Warn("not enough unused credentials for the synthetic deficit",
			"wanted", n, "marked", len(codes))
	}

	return len(codes), nil
}

// writeSyntheticRecords generates n synthetic ballots and dedup identities,
// tagged with the cycle ID so restore can remove exactly and only them. The
// ballots do not touch tallies: the shares written above already embody them.
func (e *Engine) writeSyntheticRecords(ctx context.Context, tx *sql.Tx, cycleID string, entries []snapshotEntry, n int) error {
	if n <= 0 || len(entries) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		fingerprint := "sim:" + uuid.NewString()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO identity (fingerprint, synthetic, cycle_id, seen_at) VALUES ($1, TRUE, $2, $3)
		`, fingerprint, cycleID, now)
		if err != nil {
			return fmt.Errorf("failed to record synthetic identity: %w", err)
		}

		pick := func() string { return entries[rand.Intn(len(entries))].ID }
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ballot (id, singing_id, popularity_id, costume_id, identity, synthetic, cycle_id, submitted_at)
			VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7)
		`, uuid.NewString(), pick(), pick(), pick(), fingerprint, cycleID, now)
		if err != nil {
			return fmt.Errorf("failed to record synthetic ballot: %w", err)
		}
	}
	return nil
}

// categoryTotals sums each category's real scores across all entries.
func categoryTotals(entries []snapshotEntry) map[string]int {
	totals := map[string]int{}
	for _, ent := range entries {
		totals[models.CategorySinging] += ent.Singing
		totals[models.CategoryPopularity] += ent.Popularity
		totals[models.CategoryCostume] += ent.Costume
	}
	return totals
}

// computeShares distributes target across entries proportionally to their
// real per-category scores. The last entry absorbs the rounding remainder so
// every category sums to exactly target. With jitter enabled, each share is
// perturbed before rounding; the absorption step still forces the exact
// total, and a running cap keeps every share non-negative.
func computeShares(entries []snapshotEntry, totals map[string]int, target int, jitter bool) []models.Scores {
	shares := make([]models.Scores, len(entries))

	distribute := func(real func(snapshotEntry) int, total int, set func(*models.Scores, int)) {
		running := 0
		for i, ent := range entries {
			var sh int
			if i == len(entries)-1 {
				sh = target - running
			} else {
				f := float64(real(ent)) / float64(total) * float64(target)
				if jitter {
					f *= jitterFactor()
				}
				sh = int(math.Round(f))
				if sh < 0 {
					sh = 0
				}
				if sh > target-running {
					sh = target - running
				}
			}
			set(&shares[i], sh)
			running += sh
		}
	}

	distribute(func(e snapshotEntry) int { return e.Singing }, totals[models.CategorySinging],
		func(s *models.Scores, v int) { s.Singing = v })
	distribute(func(e snapshotEntry) int { return e.Popularity }, totals[models.CategoryPopularity],
		func(s *models.Scores, v int) { s.Popularity = v })
	distribute(func(e snapshotEntry) int { return e.Costume }, totals[models.CategoryCostume],
		func(s *models.Scores, v int) { s.Costume = v })

	return shares
}

// jitterFactor returns a multiplicative perturbation of ±2–5%.
func jitterFactor() float64 {
	magnitude := jitterMin + rand.Float64()*(jitterMax-jitterMin)
	if rand.Intn(2) == 0 {
		magnitude = -magnitude
	}
	return 1 + magnitude
}
