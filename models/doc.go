// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - SubmitVoteRequest: singing, popularity, costume, credential
  - SetVotingRequest: open
  - UpdateSettingsRequest: test_mode, require_credential (pointers; only
    present fields are applied)
  - ScaleRequest: target, grouped_jitter
  - LoadTestRequest: count

# Response Types

Types for JSON responses:

  - SubmitVoteResponse: ballot_id, message
  - UploadCredentialsResponse: added, skipped
  - SyncCandidatesResponse: synced, skipped
  - ScaleResponse: cycle_id, target, synthetic_ballots, credentials_marked
  - LoadTestResponse: started, message
  - OverviewResponse: candidates, settings, credentials
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Selections: one candidate per award category
  - Scores: aggregated counters (base + shard deltas)
  - CandidateScores: candidate metadata plus Scores
  - CandidateRow: parsed sheet row, metadata only
  - Receipt: result of a successful submission
  - Settings: process-wide flags consulted on every submission
  - CredentialStats: allow-list size and usage
  - Ballot: immutable audit record

# Categories

The three award categories, in canonical order:

	CategorySinging    = "singing"
	CategoryPopularity = "popularity"
	CategoryCostume    = "costume"

Categories lists them as a slice for iteration.
*/
package models
