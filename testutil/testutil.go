// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/cliparse"
	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/db"
)

// SetupTestDB creates a fresh test database with the full schema. Each test
// gets its own file under t.TempDir, so tests never share state.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "gala.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Writers are serialized; one connection avoids SQLITE_BUSY under the
	// concurrency tests.
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3319,
		DatabaseType:    "sqlite",
		AdminKeySalt:    "test-admin-salt",
		FingerprintSalt: "test-fingerprint-salt",
		ShardCount:      10,
	}
}

// CreateTestCandidate inserts a candidate with zeroed counters.
func CreateTestCandidate(t *testing.T, conn *sql.DB, id, name string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO candidate (id, name, song) VALUES ($1, $2, 'Test Song')
	`, id, name)
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}
}

// SetCandidateScores writes base scores directly, bypassing the pipeline.
func SetCandidateScores(t *testing.T, conn *sql.DB, id string, singing, popularity, costume int) {
	t.Helper()

	_, err := conn.Exec(`
		UPDATE candidate SET score_singing = $1, score_popularity = $2, score_costume = $3,
			vote_count = $4
		WHERE id = $5
	`, singing, popularity, costume, singing+popularity+costume, id)
	if err != nil {
		t.Fatalf("Failed to set candidate scores: %v", err)
	}
}

// UploadTestCredentials inserts normalized staff codes, all unused.
func UploadTestCredentials(t *testing.T, conn *sql.DB, codes ...string) {
	t.Helper()

	for _, code := range codes {
		_, err := conn.Exec(`INSERT INTO credential (code, used) VALUES ($1, FALSE)`, code)
		if err != nil {
			t.Fatalf("Failed to insert test credential %s: %v", code, err)
		}
	}
}

// SetSettings overwrites the settings row flags.
func SetSettings(t *testing.T, conn *sql.DB, votingOpen, testMode, requireCredential bool) {
	t.Helper()

	_, err := conn.Exec(`
		UPDATE settings SET voting_open = $1, test_mode = $2, require_credential = $3 WHERE id = 1
	`, votingOpen, testMode, requireCredential)
	if err != nil {
		t.Fatalf("Failed to update test settings: %v", err)
	}
}

// OpenVoting opens voting with credential verification off, the common
// arrangement for anonymous-mode tests.
func OpenVoting(t *testing.T, conn *sql.DB) {
	t.Helper()
	SetSettings(t, conn, true, false, false)
}

// CountRows returns the row count of a table.
func CountRows(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
