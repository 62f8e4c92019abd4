// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/models"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/tally"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/testutil"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/vote"
)

func voteRequest(body interface{}, device string) *http.Request {
	headers := map[string]string{}
	if device != "" {
		headers["X-Device-UUID"] = device
	}
	return testutil.MakeRequest("POST", "/votes", body, headers)
}

func TestSubmitVoteSuccess(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	store := tally.NewStore(cfg.ShardCount)
	handler := NewVotingHandler(conn, cfg, vote.NewService(conn, store))

	testutil.CreateTestCandidate(t, conn, "c1", "One")
	testutil.CreateTestCandidate(t, conn, "c2", "Two")
	testutil.OpenVoting(t, conn)

	req := voteRequest(models.SubmitVoteRequest{
		Singing: "c1", Popularity: "c2", Costume: "c1",
	}, "device-1")
	w := httptest.NewRecorder()
	handler.SubmitVote(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.SubmitVoteResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.BallotID == "" {
		t.Error("Expected a ballot ID in the response")
	}
}

func TestSubmitVoteErrorMapping(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(conn, cfg, vote.NewService(conn, tally.NewStore(cfg.ShardCount)))

	testutil.CreateTestCandidate(t, conn, "c1", "One")
	testutil.UploadTestCredentials(t, conn, "AAAA1111")

	full := models.SubmitVoteRequest{Singing: "c1", Popularity: "c1", Costume: "c1"}

	tests := []struct {
		name     string
		prepare  func(t *testing.T)
		body     models.SubmitVoteRequest
		device   string
		expected int
	}{
		{
			name:     "voting closed",
			prepare:  func(t *testing.T) { testutil.SetSettings(t, conn, false, false, false) },
			body:     full,
			device:   "d-closed",
			expected: http.StatusConflict,
		},
		{
			name:     "incomplete ballot",
			prepare:  func(t *testing.T) { testutil.OpenVoting(t, conn) },
			body:     models.SubmitVoteRequest{Singing: "c1"},
			device:   "d-incomplete",
			expected: http.StatusBadRequest,
		},
		{
			name:     "unknown candidate",
			prepare:  func(t *testing.T) { testutil.OpenVoting(t, conn) },
			body:     models.SubmitVoteRequest{Singing: "c1", Popularity: "ghost", Costume: "c1"},
			device:   "d-unknown",
			expected: http.StatusBadRequest,
		},
		{
			name:     "malformed credential",
			prepare:  func(t *testing.T) { testutil.SetSettings(t, conn, true, false, true) },
			body:     models.SubmitVoteRequest{Singing: "c1", Popularity: "c1", Costume: "c1", Credential: "nope"},
			device:   "d-malformed",
			expected: http.StatusBadRequest,
		},
		{
			name:     "credential not on list",
			prepare:  func(t *testing.T) { testutil.SetSettings(t, conn, true, false, true) },
			body:     models.SubmitVoteRequest{Singing: "c1", Popularity: "c1", Costume: "c1", Credential: "ZZZZ9999"},
			device:   "d-notfound",
			expected: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepare(t)
			w := httptest.NewRecorder()
			handler.SubmitVote(w, voteRequest(tt.body, tt.device))
			testutil.AssertStatus(t, w, tt.expected)
		})
	}
}

func TestSubmitVoteDuplicateDevice(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(conn, cfg, vote.NewService(conn, tally.NewStore(cfg.ShardCount)))

	testutil.CreateTestCandidate(t, conn, "c1", "One")
	testutil.OpenVoting(t, conn)

	body := models.SubmitVoteRequest{Singing: "c1", Popularity: "c1", Costume: "c1"}

	w := httptest.NewRecorder()
	handler.SubmitVote(w, voteRequest(body, "device-1"))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = httptest.NewRecorder()
	handler.SubmitVote(w, voteRequest(body, "device-1"))
	testutil.AssertStatus(t, w, http.StatusConflict)

	// A different device still votes fine
	w = httptest.NewRecorder()
	handler.SubmitVote(w, voteRequest(body, "device-2"))
	testutil.AssertStatus(t, w, http.StatusCreated)
}

func TestSubmitVoteMaintenance(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(conn, cfg, vote.NewService(conn, tally.NewStore(cfg.ShardCount)))

	testutil.CreateTestCandidate(t, conn, "c1", "One")
	testutil.OpenVoting(t, conn)
	if _, err := conn.Exec(`UPDATE settings SET maintenance = TRUE WHERE id = 1`); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	handler.SubmitVote(w, voteRequest(models.SubmitVoteRequest{
		Singing: "c1", Popularity: "c1", Costume: "c1",
	}, "device-1"))
	testutil.AssertStatus(t, w, http.StatusServiceUnavailable)
}

func TestSubmitVoteInvalidJSON(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(conn, cfg, vote.NewService(conn, tally.NewStore(cfg.ShardCount)))

	req := httptest.NewRequest("POST", "/votes", nil)
	w := httptest.NewRecorder()
	handler.SubmitVote(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestGetOverview(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	store := tally.NewStore(cfg.ShardCount)
	votingHandler := NewVotingHandler(conn, cfg, vote.NewService(conn, store))
	resultsHandler := NewResultsHandler(conn, cfg, store)

	testutil.CreateTestCandidate(t, conn, "c1", "One")
	testutil.CreateTestCandidate(t, conn, "c2", "Two")
	testutil.UploadTestCredentials(t, conn, "AAAA1111", "BBBB2222")
	testutil.SetSettings(t, conn, true, false, true)

	w := httptest.NewRecorder()
	votingHandler.SubmitVote(w, voteRequest(models.SubmitVoteRequest{
		Singing: "c1", Popularity: "c2", Costume: "c1", Credential: "AAAA1111",
	}, "device-1"))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = httptest.NewRecorder()
	resultsHandler.GetOverview(w, testutil.MakeRequest("GET", "/results", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.OverviewResponse
	testutil.AssertJSON(t, w, &resp)

	if len(resp.Candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(resp.Candidates))
	}
	if resp.Candidates[0].ID != "c1" || resp.Candidates[0].Singing != 1 || resp.Candidates[0].Costume != 1 {
		t.Errorf("Unexpected c1 scores: %+v", resp.Candidates[0])
	}
	if resp.Candidates[1].Popularity != 1 {
		t.Errorf("Unexpected c2 scores: %+v", resp.Candidates[1])
	}
	if !resp.Settings.VotingOpen || !resp.Settings.RequireCredential {
		t.Errorf("Unexpected settings: %+v", resp.Settings)
	}
	if resp.Credentials.Authorized != 2 || resp.Credentials.Used != 1 {
		t.Errorf("Unexpected credential stats: %+v", resp.Credentials)
	}
}
