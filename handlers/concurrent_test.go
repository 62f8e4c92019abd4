// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/models"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/tally"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/testutil"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/vote"
)

// TestConcurrentVoteSubmissions hammers the submit handler from many
// goroutines, each with a distinct device, and verifies no vote is lost.
func TestConcurrentVoteSubmissions(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	store := tally.NewStore(cfg.ShardCount)
	handler := NewVotingHandler(conn, cfg, vote.NewService(conn, store))

	testutil.CreateTestCandidate(t, conn, "c1", "One")
	testutil.CreateTestCandidate(t, conn, "c2", "Two")
	testutil.OpenVoting(t, conn)

	const voters = 50

	var wg sync.WaitGroup
	var created atomic.Int64
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			handler.SubmitVote(w, voteRequest(models.SubmitVoteRequest{
				Singing: "c1", Popularity: "c2", Costume: "c1",
			}, fmt.Sprintf("device-%d", n)))
			if w.Code == http.StatusCreated {
				created.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if created.Load() != voters {
		t.Errorf("Expected %d created responses, got %d", voters, created.Load())
	}
	if n := testutil.CountRows(t, conn, "ballot"); n != voters {
		t.Errorf("Expected %d ballots, got %d", voters, n)
	}

	scores, err := store.Aggregate(context.Background(), conn, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if scores.Singing != voters || scores.Costume != voters {
		t.Errorf("Lost updates: c1 singing=%d costume=%d, want %d", scores.Singing, scores.Costume, voters)
	}
}

// TestConcurrentSameDevice races the same device across many goroutines:
// exactly one submission may win.
func TestConcurrentSameDevice(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	store := tally.NewStore(cfg.ShardCount)
	handler := NewVotingHandler(conn, cfg, vote.NewService(conn, store))

	testutil.CreateTestCandidate(t, conn, "c1", "One")
	testutil.OpenVoting(t, conn)

	const attempts = 20

	var wg sync.WaitGroup
	var created atomic.Int64
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			handler.SubmitVote(w, voteRequest(models.SubmitVoteRequest{
				Singing: "c1", Popularity: "c1", Costume: "c1",
			}, "shared-device"))
			if w.Code == http.StatusCreated {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("Expected exactly 1 winning submission, got %d", created.Load())
	}
	if n := testutil.CountRows(t, conn, "ballot"); n != 1 {
		t.Errorf("Expected 1 ballot, got %d", n)
	}
}

// TestConcurrentCredentialConsumption races one credential across many
// goroutines: the conditional update lets exactly one through.
func TestConcurrentCredentialConsumption(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	store := tally.NewStore(cfg.ShardCount)
	handler := NewVotingHandler(conn, cfg, vote.NewService(conn, store))

	testutil.CreateTestCandidate(t, conn, "c1", "One")
	testutil.UploadTestCredentials(t, conn, "AAAA1111")
	testutil.SetSettings(t, conn, true, false, true)

	const attempts = 20

	var wg sync.WaitGroup
	var created atomic.Int64
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			handler.SubmitVote(w, voteRequest(models.SubmitVoteRequest{
				Singing: "c1", Popularity: "c1", Costume: "c1", Credential: "AAAA1111",
			}, fmt.Sprintf("device-%d", n)))
			if w.Code == http.StatusCreated {
				created.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("Expected exactly 1 winning submission, got %d", created.Load())
	}
}
