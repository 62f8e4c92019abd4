// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Vote category constants
const (
	CategorySinging    = "singing"
	CategoryPopularity = "popularity"
	CategoryCostume    = "costume"
)

// Categories lists the three award categories in canonical order.
var Categories = []string{CategorySinging, CategoryPopularity, CategoryCostume}

// Request types

type SubmitVoteRequest struct {
	Singing    string `json:"singing"`
	Popularity string `json:"popularity"`
	Costume    string `json:"costume"`
	Credential string `json:"credential,omitempty"`
}

type SetVotingRequest struct {
	Open bool `json:"open"`
}

// Pointer fields so the operator can toggle one flag without touching the other.
type UpdateSettingsRequest struct {
	TestMode          *bool `json:"test_mode,omitempty"`
	RequireCredential *bool `json:"require_credential,omitempty"`
}

type ScaleRequest struct {
	Target        int  `json:"target"`
	GroupedJitter bool `json:"grouped_jitter"`
}

type LoadTestRequest struct {
	Count int `json:"count"`
}

// Response types

type SubmitVoteResponse struct {
	BallotID string `json:"ballot_id"`
	Message  string `json:"message"`
}

type UploadCredentialsResponse struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

type SyncCandidatesResponse struct {
	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
}

type ScaleResponse struct {
	CycleID           string `json:"cycle_id"`
	Target            int    `json:"target"`
	SyntheticBallots  int    `json:"synthetic_ballots"`
	CredentialsMarked int    `json:"credentials_marked"`
	BackupCreated     bool   `json:"backup_created"`
}

type LoadTestResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

type OverviewResponse struct {
	Candidates  []CandidateScores `json:"candidates"`
	Settings    Settings          `json:"settings"`
	Credentials CredentialStats   `json:"credentials"`
}

// Domain types

// Selections holds one candidate identifier per award category.
type Selections struct {
	Singing    string
	Popularity string
	Costume    string
}

// ByCategory returns the selection for a category name, or "".
func (s Selections) ByCategory(category string) string {
	switch category {
	case CategorySinging:
		return s.Singing
	case CategoryPopularity:
		return s.Popularity
	case CategoryCostume:
		return s.Costume
	}
	return ""
}

// Complete reports whether all three categories carry a selection.
func (s Selections) Complete() bool {
	return s.Singing != "" && s.Popularity != "" && s.Costume != ""
}

// Scores is an aggregated view of a candidate's counters: base fields plus
// the sum of all shard deltas at the time of the read.
type Scores struct {
	Singing    int `json:"singing"`
	Popularity int `json:"popularity"`
	Costume    int `json:"costume"`
	VoteCount  int `json:"vote_count"`
}

// CandidateScores pairs candidate metadata with its aggregated scores.
type CandidateScores struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Song      string `json:"song"`
	Image     string `json:"image,omitempty"`
	VideoLink string `json:"video_link,omitempty"`
	Scores
}

// CandidateRow is one parsed row of external candidate metadata. Score fields
// are intentionally absent: ingestion never touches counters.
type CandidateRow struct {
	ID        string
	Name      string
	Song      string
	Image     string
	VideoLink string
}

// Receipt is returned to the caller after a successful submission.
type Receipt struct {
	BallotID string
	Master   bool
}

// Settings is the process-wide configuration consulted on every submission.
// Defaults are the safe ones: voting closed, verification on.
type Settings struct {
	VotingOpen        bool `json:"voting_open"`
	TestMode          bool `json:"test_mode"`
	RequireCredential bool `json:"require_credential"`
	Maintenance       bool `json:"maintenance"`
	MasterUses        int  `json:"master_uses"`
}

type CredentialStats struct {
	Authorized int `json:"authorized"`
	Used       int `json:"used"`
	MasterUses int `json:"master_uses"`
}

// Ballot is an immutable audit record of one submission.
type Ballot struct {
	ID           string    `json:"id"`
	SingingID    string    `json:"singing_id"`
	PopularityID string    `json:"popularity_id"`
	CostumeID    string    `json:"costume_id"`
	Identity     string    `json:"-"` // Never expose in JSON
	Synthetic    bool      `json:"synthetic"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
