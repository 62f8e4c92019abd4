// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package loadgen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/models"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/vote"
)

var (
	ErrAlreadyRunning = errors.New("a load test is already running")
	ErrNoCandidates   = errors.New("no candidates to vote for")
)

// DefaultInterval spaces synthetic submissions so a load run resembles a
// burst of real voters rather than a tight loop.
const DefaultInterval = 20 * time.Millisecond

// Report summarizes one load run.
type Report struct {
	Submitted int `json:"submitted"`
	Failed    int `json:"failed"`
}

// Runner fires synthetic ballots at the submission pipeline at a fixed
// interval. It is a thin driver: all correctness machinery lives in the
// pipeline and the tally store underneath it.
type Runner struct {
	db       *sql.DB
	svc      *vote.Service
	interval time.Duration

	running atomic.Bool
	stopped atomic.Bool
}

func NewRunner(conn *sql.DB, svc *vote.Service, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{db: conn, svc: svc, interval: interval}
}

// Running reports whether a load run is in progress.
func (r *Runner) Running() bool { return r.running.Load() }

// Stop requests cooperative cancellation. The check happens once per
// iteration: a submission already in flight completes and is never rolled
// back.
func (r *Runner) Stop() {
	r.stopped.Store(true)
}

// Run submits count synthetic ballots with randomly chosen candidates,
// reporting progress after each one. Individual submission failures are
// counted and logged but do not stop the loop.
func (r *Runner) Run(ctx context.Context, count int, onProgress func(done int, msg string)) (Report, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Report{}, ErrAlreadyRunning
	}
	defer r.running.Store(false)
	r.stopped.Store(false)

	candidates, err := r.candidateIDs(ctx)
	if err != nil {
		return Report{}, err
	}
	if len(candidates) == 0 {
		return Report{}, ErrNoCandidates
	}

	pick := func() string { return candidates[rand.Intn(len(candidates))] }

	var rep Report
	for i := 0; i < count; i++ {
		if r.stopped.Load() || ctx.Err() != nil {
			break
		}

		sel := models.Selections{Singing: pick(), Popularity: pick(), Costume: pick()}
		_, err := r.svc.Submit(ctx, sel, "", "loadgen:"+uuid.NewString(), true)
		if err != nil {
			rep.Failed++
			slog.Warn("synthetic submission failed", "iteration", i+1, "error", err)
		} else {
			rep.Submitted++
		}

		if onProgress != nil {
			onProgress(i+1, fmt.Sprintf("synthetic voter #%s recorded", humanize.Comma(int64(i+1))))
		}

		select {
		case <-ctx.Done():
		case <-time.After(r.interval):
		}
	}

	slog.Info("load run finished",
		"submitted", rep.Submitted,
		"failed", rep.Failed,
		"requested", humanize.Comma(int64(count)),
	)
	return rep, nil
}

func (r *Runner) candidateIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM candidate ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
