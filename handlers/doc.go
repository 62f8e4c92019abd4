// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Spring Gala voting API.

# Handler Types

Each handler is a struct with its dependencies injected:

  - VotingHandler: Ballot submission
  - ResultsHandler: Aggregated results and status
  - AdminHandler: Operator console (settings, credentials, candidates,
    scaling, load testing)

Handlers are created via constructor functions:

	votingHandler := handlers.NewVotingHandler(conn, cfg, svc)

# Voting Flow

	POST /votes → SubmitVote

The device identity comes from the X-Device-UUID header (or the client
address as a fallback). Submission failures map to statuses:

	400 incomplete ballot, malformed credential, unknown candidate
	403 credential not on the list, credential already used
	409 voting closed, duplicate device
	503 scaling in progress

# Results

	GET /results → GetOverview

Returns every candidate's aggregated scores, the current settings, and
credential usage counts.

# Operator Console

All operator endpoints require the X-Admin-Key header:

	POST   /admin/voting            - Open or close voting
	POST   /admin/settings          - Toggle test mode / credential checks
	POST   /admin/credentials       - Upload the staff code allow-list
	POST   /admin/credentials/reset - Clear all used flags
	DELETE /admin/credentials       - Purge the allow-list
	POST   /admin/candidates/sync   - Ingest the candidate sheet (CSV)
	DELETE /admin/candidates/{id}   - Remove a candidate
	POST   /admin/scores/reset      - Zero all counters
	POST   /admin/scale             - Scale scores for presentation
	POST   /admin/restore           - Undo the scaling cycle
	POST   /admin/loadtest          - Start background load generation
	POST   /admin/loadtest/stop     - Request cooperative stop

# Candidate Sheet

SyncCandidates parses CSV with columns (id, name, song, image, videoLink).
Two reserved pseudo-rows carry configuration instead of candidates:
VOTING_STATUS (name OPEN opens voting) and SETTING_MODE (name TEST enables
test mode). Sync never touches score fields.
*/
package handlers
