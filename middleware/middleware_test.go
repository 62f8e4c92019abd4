// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Toroomegg/Q-2026-spring-gala-v3-firebase/models"
)

func TestWithLogging(t *testing.T) {
	handlerCalled := false
	testHandler := func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	}

	wrappedHandler := WithLogging(testHandler)

	req := httptest.NewRequest("GET", "/test-path", nil)
	w := httptest.NewRecorder()

	wrappedHandler(w, req)

	if !handlerCalled {
		t.Error("Expected handler to be called")
	}
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "success" {
		t.Errorf("Expected body 'success', got '%s'", w.Body.String())
	}
}

func TestWithLogging_PreservesResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"Created", http.StatusCreated, `{"ballot_id":"123"}`},
		{"BadRequest", http.StatusBadRequest, `{"error":"bad request"}`},
		{"Conflict", http.StatusConflict, "conflict"},
		{"InternalError", http.StatusInternalServerError, "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/votes", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
		})
	}
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		data       interface{}
		expected   string
	}{
		{
			name:       "simple struct",
			statusCode: http.StatusOK,
			data:       map[string]string{"message": "hello"},
			expected:   `{"message":"hello"}`,
		},
		{
			name:       "error response",
			statusCode: http.StatusBadRequest,
			data:       models.ErrorResponse{Error: "Bad Request", Message: "missing field"},
			expected:   `{"error":"Bad Request","message":"missing field"}`,
		},
		{
			name:       "array data",
			statusCode: http.StatusOK,
			data:       []string{"a", "b", "c"},
			expected:   `["a","b","c"]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			JSONResponse(w, tc.statusCode, tc.data)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}
			body := strings.TrimSpace(w.Body.String())
			if body != tc.expected {
				t.Errorf("Expected body '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	testCases := []struct {
		name          string
		statusCode    int
		message       string
		expectedError string
	}{
		{
			name:          "bad request",
			statusCode:    http.StatusBadRequest,
			message:       "ballot must cover all three categories",
			expectedError: "Bad Request",
		},
		{
			name:          "unauthorized",
			statusCode:    http.StatusUnauthorized,
			message:       "X-Admin-Key header required",
			expectedError: "Unauthorized",
		},
		{
			name:          "forbidden",
			statusCode:    http.StatusForbidden,
			message:       "credential already used",
			expectedError: "Forbidden",
		},
		{
			name:          "conflict",
			statusCode:    http.StatusConflict,
			message:       "voting is closed",
			expectedError: "Conflict",
		},
		{
			name:          "service unavailable",
			statusCode:    http.StatusServiceUnavailable,
			message:       "scaling in progress",
			expectedError: "Service Unavailable",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			ErrorResponse(w, tc.statusCode, tc.message)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Header().Get("Content-Type") != "application/json" {
				t.Error("Expected Content-Type 'application/json'")
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}

			if resp.Error != tc.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectedError, resp.Error)
			}
			if resp.Message != tc.message {
				t.Errorf("Expected message '%s', got '%s'", tc.message, resp.Message)
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		body := `{"singing":"c1","popularity":"c2","costume":"c3"}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.SubmitVoteRequest
		err := ParseJSONBody(req, &parsed)

		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.Singing != "c1" || parsed.Popularity != "c2" || parsed.Costume != "c3" {
			t.Errorf("Unexpected parsed request: %+v", parsed)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{invalid json}`))

		var parsed models.SubmitVoteRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(""))

		var parsed models.SubmitVoteRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for empty body")
		}
	})

	t.Run("extra fields ignored", func(t *testing.T) {
		body := `{"singing":"c1","popularity":"c1","costume":"c1","unknown_field":"ignored"}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.SubmitVoteRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.Singing != "c1" {
			t.Errorf("Expected singing 'c1', got '%s'", parsed.Singing)
		}
	})
}

func TestCORS(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	})

	corsHandler := CORS(nextHandler)

	t.Run("preflight OPTIONS request", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/votes", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if w.Body.String() != "" {
			t.Errorf("Expected empty body for preflight, got '%s'", w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Error("Expected Access-Control-Allow-Origin to match request origin")
		}
		if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Error("Expected Access-Control-Allow-Credentials to be 'true'")
		}
	})

	t.Run("regular request with origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/results", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "https://example.com" {
			t.Error("Expected Access-Control-Allow-Origin to reflect request origin")
		}
	})

	t.Run("request without origin defaults to wildcard", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/results", nil)
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Expected Access-Control-Allow-Origin to default to '*'")
		}
	})

	t.Run("allows custom headers", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/votes", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		allowedHeaders := w.Header().Get("Access-Control-Allow-Headers")

		if !strings.Contains(allowedHeaders, "X-Admin-Key") {
			t.Error("Expected X-Admin-Key in allowed headers")
		}
		if !strings.Contains(allowedHeaders, "X-Device-UUID") {
			t.Error("Expected X-Device-UUID in allowed headers")
		}
		if !strings.Contains(allowedHeaders, "Content-Type") {
			t.Error("Expected Content-Type in allowed headers")
		}
	})
}
