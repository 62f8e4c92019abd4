// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/cliparse"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/db"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/middleware"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/models"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/tally"
)

type ResultsHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	tally *tally.Store
}

func NewResultsHandler(conn *sql.DB, cfg cliparse.Config, store *tally.Store) *ResultsHandler {
	return &ResultsHandler{db: conn, cfg: cfg, tally: store}
}

// GetOverview handles GET /results
// The observer surface: aggregated per-candidate, per-category scores and
// vote counts, the current settings flags, and credential-usage counters.
// Designed to be polled continuously by the live display.
func (h *ResultsHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	candidates, err := h.tally.AggregateAll(ctx, h.db)
	if err != nil {
		slog.Error("failed to aggregate candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	settings, err := db.LoadSettings(ctx, h.db)
	if err != nil {
		slog.Error("failed to load settings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var stats models.CredentialStats
	err = h.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN used THEN 1 ELSE 0 END), 0) FROM credential
	`).Scan(&stats.Authorized, &stats.Used)
	if err != nil {
		slog.Error("failed to count credentials", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	stats.MasterUses = settings.MasterUses

	middleware.JSONResponse(w, http.StatusOK, models.OverviewResponse{
		Candidates:  candidates,
		Settings:    settings,
		Credentials: stats,
	})
}
