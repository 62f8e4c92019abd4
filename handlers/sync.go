// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/db"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/middleware"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/models"
)

// Reserved pseudo-row identifiers in the candidate sheet. They carry
// configuration toggles, not candidates.
const (
	rowVotingStatus = "VOTING_STATUS"
	rowSettingMode  = "SETTING_MODE"
)

// SyncCandidates handles POST /admin/candidates/sync
// Body is CSV text with columns (id, name, song, image, videoLink). The first
// row is a header and is skipped; rows with fewer than three columns or an id
// shorter than two characters are skipped. Score fields are never touched:
// only the tally store and the scaling engine mutate counters.
func (h *AdminHandler) SyncCandidates(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	r.Body.Close()

	synced, skipped, err := h.processCSV(r.Context(), string(body))
	if err != nil {
		slog.Error("candidate sync failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("candidates synced", "synced", synced, "skipped", skipped)
	middleware.JSONResponse(w, http.StatusOK, models.SyncCandidatesResponse{
		Synced:  synced,
		Skipped: skipped,
	})
}

func (h *AdminHandler) processCSV(ctx context.Context, text string) (synced, skipped int, err error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if first {
			// Header row
			first = false
			continue
		}

		if len(record) < 3 {
			skipped++
			continue
		}

		row := models.CandidateRow{
			ID:   strings.TrimSpace(record[0]),
			Name: strings.TrimSpace(record[1]),
			Song: strings.TrimSpace(record[2]),
		}
		if len(record) > 3 {
			row.Image = strings.TrimSpace(record[3])
		}
		if len(record) > 4 {
			row.VideoLink = strings.TrimSpace(record[4])
		}

		switch row.ID {
		case rowVotingStatus:
			if err := db.SetVotingOpen(ctx, h.db, row.Name == "OPEN"); err != nil {
				return synced, skipped, err
			}
			continue
		case rowSettingMode:
			if err := db.SetTestMode(ctx, h.db, row.Name == "TEST"); err != nil {
				return synced, skipped, err
			}
			continue
		}

		if len(row.ID) < 2 {
			skipped++
			continue
		}

		if err := upsertCandidateMetadata(ctx, h.db, row); err != nil {
			return synced, skipped, err
		}
		synced++
	}

	return synced, skipped, nil
}

// upsertCandidateMetadata inserts or updates a candidate's metadata. Counters
// start at zero for new candidates and are left untouched for existing ones.
func upsertCandidateMetadata(ctx context.Context, conn *sql.DB, row models.CandidateRow) error {
	_, err := conn.ExecContext(ctx, `
		INSERT INTO candidate (id, name, song, image, video_link)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			song = EXCLUDED.song,
			image = EXCLUDED.image,
			video_link = EXCLUDED.video_link
	`, row.ID, row.Name, row.Song, row.Image, row.VideoLink)
	if err != nil {
		return fmt.Errorf("failed to upsert candidate %s: %w", row.ID, err)
	}
	return nil
}
