// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Spring Gala voting API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(conn, cfg)

# Endpoints

Health:

	GET /health

Voting and observation (public):

	POST /votes    - Submit a ballot
	GET  /results  - Aggregated scores, settings, credential stats

Operator console (requires X-Admin-Key):

	POST   /admin/voting            - Open or close voting
	POST   /admin/settings          - Update flags
	POST   /admin/credentials       - Upload allow-list
	POST   /admin/credentials/reset - Reset used flags
	DELETE /admin/credentials       - Purge allow-list
	POST   /admin/candidates/sync   - Ingest candidate sheet
	DELETE /admin/candidates/{id}   - Remove candidate
	POST   /admin/scores/reset      - Zero all counters
	POST   /admin/scale             - Scale for presentation
	POST   /admin/restore           - Undo scaling
	POST   /admin/loadtest          - Start load generation
	POST   /admin/loadtest/stop     - Stop load generation

# Handler Initialization

The router constructs the shared pipeline once and injects it:

	store := tally.NewStore(cfg.ShardCount)
	svc := vote.NewService(conn, store)
	engine := scaling.NewEngine(conn, store)
	runner := loadgen.NewRunner(conn, svc, loadgen.DefaultInterval)

All handlers receive the database connection and configuration.
*/
package router
