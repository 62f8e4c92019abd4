// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"sync"
	"testing"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/models"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/testutil"
)

func TestIncrementAndAggregate(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := NewStore(10)
	ctx := context.Background()

	testutil.CreateTestCandidate(t, conn, "c1", "Candidate One")

	for i := 0; i < 25; i++ {
		if err := store.Increment(ctx, conn, "c1", models.CategorySinging, 1); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}
	if err := store.Increment(ctx, conn, "c1", models.CategoryCostume, 3); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	scores, err := store.Aggregate(ctx, conn, "c1")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if scores.Singing != 25 {
		t.Errorf("Expected singing=25, got %d", scores.Singing)
	}
	if scores.Costume != 3 {
		t.Errorf("Expected costume=3, got %d", scores.Costume)
	}
	if scores.Popularity != 0 {
		t.Errorf("Expected popularity=0, got %d", scores.Popularity)
	}
	if scores.VoteCount != 28 {
		t.Errorf("Expected vote_count=28, got %d", scores.VoteCount)
	}
}

func TestIncrementUnknownCategory(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := NewStore(10)

	testutil.CreateTestCandidate(t, conn, "c1", "Candidate One")

	if err := store.Increment(context.Background(), conn, "c1", "applause", 1); err == nil {
		t.Error("Expected an error for an unknown category")
	}
}

// TestConcurrentIncrements verifies that N concurrent writers lose no
// updates: the aggregated count equals exactly N afterward.
func TestConcurrentIncrements(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := NewStore(10)
	ctx := context.Background()

	testutil.CreateTestCandidate(t, conn, "c1", "Candidate One")

	const writers = 50
	var wg sync.WaitGroup
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Increment(ctx, conn, "c1", models.CategoryPopularity, 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Concurrent increment failed: %v", err)
	}

	scores, err := store.Aggregate(ctx, conn, "c1")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if scores.Popularity != writers {
		t.Errorf("Lost updates: expected popularity=%d, got %d", writers, scores.Popularity)
	}
}

func TestIncrementSpreadsAcrossShards(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := NewStore(10)
	ctx := context.Background()

	testutil.CreateTestCandidate(t, conn, "c1", "Candidate One")

	for i := 0; i < 200; i++ {
		if err := store.Increment(ctx, conn, "c1", models.CategorySinging, 1); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}

	// With 200 uniform writes over 10 shards, more than one shard row is
	// all but certain.
	shards := testutil.CountRows(t, conn, "shard")
	if shards < 2 {
		t.Errorf("Expected writes spread over multiple shards, got %d shard rows", shards)
	}
	if shards > store.Shards() {
		t.Errorf("Shard rows %d exceed configured count %d", shards, store.Shards())
	}
}

func TestCollapseShards(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := NewStore(10)
	ctx := context.Background()

	testutil.CreateTestCandidate(t, conn, "c1", "Candidate One")
	testutil.SetCandidateScores(t, conn, "c1", 5, 0, 0)

	for i := 0; i < 7; i++ {
		if err := store.Increment(ctx, conn, "c1", models.CategorySinging, 1); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}

	if err := store.CollapseShards(ctx, conn, "c1"); err != nil {
		t.Fatalf("CollapseShards failed: %v", err)
	}

	if n := testutil.CountRows(t, conn, "shard"); n != 0 {
		t.Errorf("Expected no shard rows after collapse, got %d", n)
	}

	// Aggregate is unchanged by the collapse
	scores, err := store.Aggregate(ctx, conn, "c1")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if scores.Singing != 12 {
		t.Errorf("Expected singing=12 after collapse, got %d", scores.Singing)
	}
}

func TestResetAll(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := NewStore(10)
	ctx := context.Background()

	testutil.CreateTestCandidate(t, conn, "c1", "Candidate One")
	testutil.CreateTestCandidate(t, conn, "c2", "Candidate Two")
	testutil.SetCandidateScores(t, conn, "c1", 10, 20, 30)

	if err := store.Increment(ctx, conn, "c2", models.CategoryCostume, 4); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	if err := store.ResetAll(ctx, conn); err != nil {
		t.Fatalf("ResetAll failed: %v", err)
	}

	all, err := store.AggregateAll(ctx, conn)
	if err != nil {
		t.Fatalf("AggregateAll failed: %v", err)
	}
	for _, c := range all {
		if c.Singing != 0 || c.Popularity != 0 || c.Costume != 0 || c.VoteCount != 0 {
			t.Errorf("Candidate %s not zeroed: %+v", c.ID, c.Scores)
		}
	}
	if n := testutil.CountRows(t, conn, "shard"); n != 0 {
		t.Errorf("Expected no shard rows after reset, got %d", n)
	}
}

func TestAggregateAllOrdersByID(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := NewStore(10)

	testutil.CreateTestCandidate(t, conn, "b", "Second")
	testutil.CreateTestCandidate(t, conn, "a", "First")

	all, err := store.AggregateAll(context.Background(), conn)
	if err != nil {
		t.Fatalf("AggregateAll failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != "a" || all[1].ID != "b" {
		t.Errorf("Expected candidates ordered by ID, got %+v", all)
	}
}
