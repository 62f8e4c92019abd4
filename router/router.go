// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/cliparse"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/handlers"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/loadgen"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/middleware"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/scaling"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/tally"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/vote"
)

func NewRouter(conn *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Shared dependencies, constructed once and injected
	store := tally.NewStore(cfg.ShardCount)
	svc := vote.NewService(conn, store)
	engine := scaling.NewEngine(conn, store)
	runner := loadgen.NewRunner(conn, svc, loadgen.DefaultInterval)

	votingHandler := handlers.NewVotingHandler(conn, cfg, svc)
	resultsHandler := handlers.NewResultsHandler(conn, cfg, store)
	adminHandler := handlers.NewAdminHandler(conn, cfg, store, engine, runner)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Voting and observation (public)
	mux.HandleFunc("POST /votes", middleware.WithLogging(votingHandler.SubmitVote))
	mux.HandleFunc("GET /results", middleware.WithLogging(resultsHandler.GetOverview))

	// Operator surface (X-Admin-Key gated)
	mux.HandleFunc("POST /admin/voting", middleware.WithLogging(adminHandler.SetVoting))
	mux.HandleFunc("POST /admin/settings", middleware.WithLogging(adminHandler.UpdateSettings))
	mux.HandleFunc("POST /admin/credentials", middleware.WithLogging(adminHandler.UploadCredentials))
	mux.HandleFunc("POST /admin/credentials/reset", middleware.WithLogging(adminHandler.ResetCredentials))
	mux.HandleFunc("DELETE /admin/credentials", middleware.WithLogging(adminHandler.PurgeCredentials))
	mux.HandleFunc("POST /admin/candidates/sync", middleware.WithLogging(adminHandler.SyncCandidates))
	mux.HandleFunc("DELETE /admin/candidates/{id}", middleware.WithLogging(adminHandler.DeleteCandidate))
	mux.HandleFunc("POST /admin/scores/reset", middleware.WithLogging(adminHandler.ResetScores))
	mux.HandleFunc("POST /admin/scale", middleware.WithLogging(adminHandler.Scale))
	mux.HandleFunc("POST /admin/restore", middleware.WithLogging(adminHandler.Restore))
	mux.HandleFunc("POST /admin/loadtest", middleware.WithLogging(adminHandler.StartLoadTest))
	mux.HandleFunc("POST /admin/loadtest/stop", middleware.WithLogging(adminHandler.StopLoadTest))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("spring-gala-vote API v1"))
	})

	return mux
}
