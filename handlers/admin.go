// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/cliparse"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/db"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/identity"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/loadgen"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/middleware"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/models"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/scaling"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/tally"
)

type AdminHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	tally  *tally.Store
	engine *scaling.Engine
	runner *loadgen.Runner
}

func NewAdminHandler(conn *sql.DB, cfg cliparse.Config, store *tally.Store, engine *scaling.Engine, runner *loadgen.Runner) *AdminHandler {
	return &AdminHandler{db: conn, cfg: cfg, tally: store, engine: engine, runner: runner}
}

// requireAdmin validates the X-Admin-Key header. Returns false after writing
// the error response.
func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	key := r.Header.Get("X-Admin-Key")
	if key == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Admin-Key header required")
		return false
	}
	if err := identity.ValidateAdminKey(key, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusForbidden, "Invalid admin key")
		return false
	}
	return true
}

// SetVoting handles POST /admin/voting
func (h *AdminHandler) SetVoting(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req models.SetVotingRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := db.SetVotingOpen(r.Context(), h.db, req.Open); err != nil {
		slog.Error("failed to set voting status", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("voting status changed", "open", req.Open)
	middleware.JSONResponse(w, http.StatusOK, map[string]bool{"open": req.Open})
}

// UpdateSettings handles POST /admin/settings
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req models.UpdateSettingsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ctx := r.Context()
	if req.TestMode != nil {
		if err := db.SetTestMode(ctx, h.db, *req.TestMode); err != nil {
			slog.Error("failed to set test mode", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		slog.Info("test mode changed", "enabled", *req.TestMode)
	}
	if req.RequireCredential != nil {
		if err := db.SetRequireCredential(ctx, h.db, *req.RequireCredential); err != nil {
			slog.Error("failed to set credential verification", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		slog.Info("credential verification changed", "required", *req.RequireCredential)
	}

	settings, err := db.LoadSettings(ctx, h.db)
	if err != nil {
		slog.Error("failed to load settings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, settings)
}

// UploadCredentials handles POST /admin/credentials
// Body is a newline-delimited list of 8-character staff codes. Codes are
// normalized before storage; malformed lines are counted and skipped.
func (h *AdminHandler) UploadCredentials(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	r.Body.Close()

	added, skipped := 0, 0
	for _, line := range strings.Split(string(body), "\n") {
		code := identity.NormalizeCode(line)
		if code == "" {
			continue
		}
		if len(code) != identity.CodeLength || identity.IsMaster(code) {
			skipped++
			continue
		}
		_, err := h.db.ExecContext(r.Context(), `
			INSERT INTO credential (code, used) VALUES ($1, FALSE)
			ON CONFLICT (code) DO NOTHING
		`, code)
		if err != nil {
			slog.Error("failed to insert credential", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		added++
	}

	slog.Info("credentials uploaded", "added", added, "skipped", skipped)
	middleware.JSONResponse(w, http.StatusOK, models.UploadCredentialsResponse{
		Added:   added,
		Skipped: skipped,
	})
}

// ResetCredentials handles POST /admin/credentials/reset
// Clears every credential's used flag for a new voting cycle.
func (h *AdminHandler) ResetCredentials(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	if _, err := h.db.ExecContext(r.Context(), `UPDATE credential SET used = FALSE`); err != nil {
		slog.Error("failed to reset credentials", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("credential used flags reset")
	w.WriteHeader(http.StatusNoContent)
}

// PurgeCredentials handles DELETE /admin/credentials
// Removes the entire allow-list and disables credential verification, falling
// back to anonymous-fingerprint mode.
func (h *AdminHandler) PurgeCredentials(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	ctx := r.Context()
	if _, err := h.db.ExecContext(ctx, `DELETE FROM credential`); err != nil {
		slog.Error("failed to purge credentials", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if err := db.SetRequireCredential(ctx, h.db, false); err != nil {
		slog.Error("failed to disable credential verification", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("credential list purged; anonymous mode active")
	w.WriteHeader(http.StatusNoContent)
}

// ResetScores handles POST /admin/scores/reset
// Zeroes every candidate's counters and discards all shards.
func (h *AdminHandler) ResetScores(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	if err := h.tally.ResetAll(r.Context(), tx); err != nil {
		slog.Error("failed to zero scores", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit score reset", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("all scores zeroed")
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCandidate handles DELETE /admin/candidates/{id}
func (h *AdminHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	ctx := r.Context()
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// Shard rows cascade, but not every SQLite deployment has foreign keys
	// enforced, so clear them explicitly.
	if _, err := tx.ExecContext(ctx, `DELETE FROM shard WHERE candidate_id = $1`, id); err != nil {
		slog.Error("failed to delete shards", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM candidate WHERE id = $1`, id)
	if err != nil {
		slog.Error("failed to delete candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit candidate delete", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("candidate deleted", "candidate_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// Scale handles POST /admin/scale
func (h *AdminHandler) Scale(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req models.ScaleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	summary, err := h.engine.ScaleTo(r.Context(), req.Target, req.GroupedJitter)
	switch {
	case errors.Is(err, scaling.ErrInvalidTarget):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, scaling.ErrInsufficientRealData):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, scaling.ErrScalingLocked):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		slog.Error("scaling failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ScaleResponse{
		CycleID:           summary.CycleID,
		Target:            summary.Target,
		SyntheticBallots:  summary.SyntheticBallots,
		CredentialsMarked: summary.CredentialsMarked,
		BackupCreated:     summary.BackupCreated,
	})
}

// Restore handles POST /admin/restore
func (h *AdminHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	err := h.engine.Restore(r.Context())
	switch {
	case errors.Is(err, scaling.ErrNoBackupFound):
		middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, scaling.ErrScalingLocked):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		slog.Error("restore failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StartLoadTest handles POST /admin/loadtest
// The run executes in a background goroutine; progress goes to the log.
func (h *AdminHandler) StartLoadTest(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req models.LoadTestRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Count <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "count must be positive")
		return
	}
	if h.runner.Running() {
		middleware.ErrorResponse(w, http.StatusConflict, "A load test is already running")
		return
	}

	go func() {
		_, err := h.runner.Run(context.Background(), req.Count, func(done int, msg string) {
			if done%100 == 0 {
				slog.Info("load test progress", "done", done)
			}
		})
		if err != nil {
			slog.Error("load test failed to run", "error", err)
		}
	}()

	middleware.JSONResponse(w, http.StatusAccepted, models.LoadTestResponse{
		Started: true,
		Message: "Load test started",
	})
}

// StopLoadTest handles POST /admin/loadtest/stop
func (h *AdminHandler) StopLoadTest(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	h.runner.Stop()
	middleware.JSONResponse(w, http.StatusOK, models.LoadTestResponse{
		Started: false,
		Message: "Stop requested",
	})
}
