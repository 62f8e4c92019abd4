// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/cliparse"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/identity"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/middleware"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/models"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/vote"
)

type VotingHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	svc *vote.Service
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config, svc *vote.Service) *VotingHandler {
	return &VotingHandler{db: db, cfg: cfg, svc: svc}
}

// SubmitVote handles POST /votes
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sel := models.Selections{
		Singing:    req.Singing,
		Popularity: req.Popularity,
		Costume:    req.Costume,
	}

	fingerprint := identity.Resolve(r, h.cfg.FingerprintSalt)

	receipt, err := h.svc.Submit(r.Context(), sel, req.Credential, fingerprint, false)
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitVoteResponse{
		BallotID: receipt.BallotID,
		Message:  "Ballot submitted successfully",
	})
}

// writeSubmitError maps pipeline failure modes to HTTP statuses. Input errors
// are 400, eligibility errors 403/409, maintenance 503; anything unmapped is
// a transient store error and reported as 500 (safe to retry).
func writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vote.ErrIncompleteBallot),
		errors.Is(err, vote.ErrInvalidCredential),
		errors.Is(err, vote.ErrCandidateNotFound):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, vote.ErrCredentialNotFound),
		errors.Is(err, vote.ErrCredentialAlreadyUsed):
		middleware.ErrorResponse(w, http.StatusForbidden, err.Error())
	case errors.Is(err, vote.ErrVotingClosed),
		errors.Is(err, vote.ErrDuplicateDevice):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, vote.ErrMaintenance):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("submission failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}
