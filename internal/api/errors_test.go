package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lastcall-app/lastcall/internal/middleware"
)

func TestWriteError_Envelope(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, context.Background(), http.StatusGone, ErrCodeVenueDeleted, "This venue is no longer listed")

	if w.Code != http.StatusGone {
		t.Errorf("expected status 410, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("expected JSON content type, got %s", ct)
	}

	// The body must be exactly {"error":{"code","message"}} with nothing else.
	var body map[string]map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v, body: %s", err, w.Body.String())
	}
	if len(body) != 1 {
		t.Errorf("expected a single top-level 'error' key, got %v", body)
	}
	detail, ok := body["error"]
	if !ok {
		t.Fatal("expected top-level 'error' object")
	}
	if len(detail) != 2 {
		t.Errorf("expected exactly code and message fields, got %v", detail)
	}
	if detail["code"] != ErrCodeVenueDeleted {
		t.Errorf("expected code %s, got %s", ErrCodeVenueDeleted, detail["code"])
	}
	if detail["message"] != "This venue is no longer listed" {
		t.Errorf("unexpected message %q", detail["message"])
	}
}

func TestWriteError_DomainCodes(t *testing.T) {
	// Each domain error code paired with the status the handlers use for it.
	tests := []struct {
		code       string
		message    string
		wantStatus int
	}{
		{ErrCodeValidation, "Venue name must not be empty", http.StatusBadRequest},
		{ErrCodeInvalidAttribute, "Unknown genre: Polka", http.StatusBadRequest},
		{ErrCodeInvalidRating, "experience_rating must be between 1 and 10", http.StatusBadRequest},
		{ErrCodeAuthFailed, "Authentication required", http.StatusUnauthorized},
		{ErrCodeForbidden, "You cannot review your own submission", http.StatusForbidden},
		{ErrCodeNotFound, "Venue not found", http.StatusNotFound},
		{ErrCodeAlreadyFavorited, "Venue is already in your favorites", http.StatusConflict},
		{ErrCodeNotPending, "Submission has already been reviewed", http.StatusConflict},
		{ErrCodeVenueDeleted, "This venue is no longer listed", http.StatusGone},
		{ErrCodeRateLimited, "Too many requests", http.StatusTooManyRequests},
		{ErrCodeInternal, "Failed to compute recommendations", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := StatusCodeMapping(tt.code); got != tt.wantStatus {
				t.Errorf("StatusCodeMapping(%s) = %d, want %d", tt.code, got, tt.wantStatus)
			}

			w := httptest.NewRecorder()
			WriteError(w, context.Background(), tt.wantStatus, tt.code, tt.message)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if resp.Error.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, resp.Error.Code)
			}
			if resp.Error.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, resp.Error.Message)
			}
		})
	}
}

func TestStatusCodeMapping_UnknownCode(t *testing.T) {
	if got := StatusCodeMapping("no_such_code"); got != http.StatusInternalServerError {
		t.Errorf("unknown codes should map to 500, got %d", got)
	}
}

func TestWriteError_LoggedByMiddleware(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// The handler chain mirrors cmd/api: RequestID -> Logging -> handler.
	handler := middleware.RequestID(
		middleware.Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeVenueDeleted)
			WriteError(w, ctx, http.StatusGone, ErrCodeVenueDeleted, "This venue is no longer listed")
		})),
	)

	req := httptest.NewRequest(http.MethodGet, "/venues/v-closed", nil)
	req.Header.Set("X-Request-ID", "req-venues-410")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusGone {
		t.Fatalf("expected status 410, got %d", w.Code)
	}

	type logEntry struct {
		Level     string `json:"level"`
		Status    int    `json:"status"`
		ErrorCode string `json:"error_code"`
		RequestID string `json:"request_id"`
	}
	var entry logEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v, log: %s", err, buf.String())
	}

	if entry.Level != "WARN" {
		t.Errorf("expected WARN level for a 4xx response, got %s", entry.Level)
	}
	if entry.Status != http.StatusGone {
		t.Errorf("expected logged status 410, got %d", entry.Status)
	}
	if entry.ErrorCode != ErrCodeVenueDeleted {
		t.Errorf("expected error_code %s in logs, got %s", ErrCodeVenueDeleted, entry.ErrorCode)
	}
	if entry.RequestID != "req-venues-410" {
		t.Errorf("expected request_id req-venues-410 in logs, got %s", entry.RequestID)
	}
}

func TestWriteError_MessageEscaping(t *testing.T) {
	w := httptest.NewRecorder()

	msg := `Venue "The <Loft>" & Co.`
	WriteError(w, context.Background(), http.StatusBadRequest, ErrCodeValidation, msg)

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error.Message != msg {
		t.Errorf("message not round-tripped: got %q", resp.Error.Message)
	}
}
