// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/db"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/models"
)

// DefaultShards bounds write contention for bursty voting; the value trades a
// slightly pricier aggregation read for eliminating a single hot row.
const DefaultShards = 10

// Store maintains per-candidate, per-category counters split across a fixed
// number of shards. Every write is a single atomic upsert-add; there is no
// read-before-write window anywhere in this package.
type Store struct {
	shards int
}

// NewStore returns a store with the given shard count (DefaultShards if n <= 0).
func NewStore(n int) *Store {
	if n <= 0 {
		n = DefaultShards
	}
	return &Store{shards: n}
}

// Shards returns the configured shard count.
func (s *Store) Shards() int { return s.shards }

// categoryColumn maps a category name to its counter column. Returning the
// column from a closed set keeps the fmt.Sprintf below injection-free.
func categoryColumn(category string) (string, bool) {
	switch category {
	case models.CategorySinging:
		return "score_singing", true
	case models.CategoryPopularity:
		return "score_popularity", true
	case models.CategoryCostume:
		return "score_costume", true
	}
	return "", false
}

// Increment applies an atomic add to one uniformly chosen shard of the
// candidate's counter for a category, bumping the partial vote count
// alongside. Pass a *sql.Tx to make the increment part of a larger atomic
// operation.
func (s *Store) Increment(ctx context.Context, q db.DBTX, candidateID, category string, amount int) error {
	col, ok := categoryColumn(category)
	if !ok {
		return fmt.Errorf("unknown category %q", category)
	}

	idx := rand.Intn(s.shards)

	query := fmt.Sprintf(`
		INSERT INTO shard (candidate_id, shard_idx, %[1]s, vote_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (candidate_id, shard_idx) DO UPDATE SET
			%[1]s = shard.%[1]s + EXCLUDED.%[1]s,
			vote_count = shard.vote_count + EXCLUDED.vote_count
	`, col)

	_, err := q.ExecContext(ctx, query, candidateID, idx, amount, amount)
	if err != nil {
		return fmt.Errorf("failed to increment %s shard for %s: %w", category, candidateID, err)
	}
	return nil
}

// Aggregate returns a candidate's scores: base fields plus the sum of all
// shard deltas. A read racing concurrent increments may miss ones committed
// after it began, but never double-counts or undercounts a committed one.
func (s *Store) Aggregate(ctx context.Context, q db.DBTX, candidateID string) (models.Scores, error) {
	var sc models.Scores
	err := q.QueryRowContext(ctx, `
		SELECT
			c.score_singing + COALESCE(SUM(sh.score_singing), 0),
			c.score_popularity + COALESCE(SUM(sh.score_popularity), 0),
			c.score_costume + COALESCE(SUM(sh.score_costume), 0),
			c.vote_count + COALESCE(SUM(sh.vote_count), 0)
		FROM candidate c
		LEFT JOIN shard sh ON sh.candidate_id = c.id
		WHERE c.id = $1
		GROUP BY c.id, c.score_singing, c.score_popularity, c.score_costume, c.vote_count
	`, candidateID).Scan(&sc.Singing, &sc.Popularity, &sc.Costume, &sc.VoteCount)
	if err != nil {
		return models.Scores{}, fmt.Errorf("failed to aggregate candidate %s: %w", candidateID, err)
	}
	return sc, nil
}

// AggregateAll returns the aggregated view for every candidate, ordered by
// candidate ID. This is the observer feed and the scaling engine's input.
func (s *Store) AggregateAll(ctx context.Context, q db.DBTX) ([]models.CandidateScores, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			c.id, c.name, c.song, c.image, c.video_link,
			c.score_singing + COALESCE(SUM(sh.score_singing), 0),
			c.score_popularity + COALESCE(SUM(sh.score_popularity), 0),
			c.score_costume + COALESCE(SUM(sh.score_costume), 0),
			c.vote_count + COALESCE(SUM(sh.vote_count), 0)
		FROM candidate c
		LEFT JOIN shard sh ON sh.candidate_id = c.id
		GROUP BY c.id, c.name, c.song, c.image, c.video_link,
		         c.score_singing, c.score_popularity, c.score_costume, c.vote_count
		ORDER BY c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate candidates: %w", err)
	}
	defer rows.Close()

	out := []models.CandidateScores{}
	for rows.Next() {
		var c models.CandidateScores
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Song, &c.Image, &c.VideoLink,
			&c.Singing, &c.Popularity, &c.Costume, &c.VoteCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan candidate row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidate rows: %w", err)
	}
	return out, nil
}

// CollapseShards folds a candidate's shard deltas into its base fields and
// discards the shards. Run inside a transaction: the scaling engine calls
// this before overwriting base scores so stale shard state cannot shadow the
// new values (leaving both live would double count).
func (s *Store) CollapseShards(ctx context.Context, q db.DBTX, candidateID string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE candidate SET
			score_singing = score_singing + COALESCE((SELECT SUM(score_singing) FROM shard WHERE candidate_id = $1), 0),
			score_popularity = score_popularity + COALESCE((SELECT SUM(score_popularity) FROM shard WHERE candidate_id = $1), 0),
			score_costume = score_costume + COALESCE((SELECT SUM(score_costume) FROM shard WHERE candidate_id = $1), 0),
			vote_count = vote_count + COALESCE((SELECT SUM(vote_count) FROM shard WHERE candidate_id = $1), 0)
		WHERE id = $1
	`, candidateID)
	if err != nil {
		return fmt.Errorf("failed to collapse shards for %s: %w", candidateID, err)
	}

	_, err = q.ExecContext(ctx, `DELETE FROM shard WHERE candidate_id = $1`, candidateID)
	if err != nil {
		return fmt.Errorf("failed to discard shards for %s: %w", candidateID, err)
	}
	return nil
}

// ResetAll zeroes every candidate's base fields and discards all shards. Used
// only by the explicit "zero scores" operator action.
func (s *Store) ResetAll(ctx context.Context, q db.DBTX) error {
	_, err := q.ExecContext(ctx, `
		UPDATE candidate SET
			score_singing = 0, score_popularity = 0, score_costume = 0, vote_count = 0
	`)
	if err != nil {
		return fmt.Errorf("failed to zero base scores: %w", err)
	}

	_, err = q.ExecContext(ctx, `DELETE FROM shard`)
	if err != nil {
		return fmt.Errorf("failed to discard shards: %w", err)
	}
	return nil
}
