package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lastcall-app/lastcall/internal/middleware"
	"github.com/lastcall-app/lastcall/internal/user"
	"github.com/lastcall-app/lastcall/internal/venue"
)

// VisitHandlers holds dependencies for visit HTTP handlers.
type VisitHandlers struct {
	visitRepo user.VisitRepository
	venueRepo venue.Repository
}

// NewVisitHandlers creates a new VisitHandlers instance.
func NewVisitHandlers(visitRepo user.VisitRepository, venueRepo venue.Repository) *VisitHandlers {
	return &VisitHandlers{
		visitRepo: visitRepo,
		venueRepo: venueRepo,
	}
}

// LogVisitRequest is the payload for POST /visits.
type LogVisitRequest struct {
	VenueID          string     `json:"venue_id"`
	ExperienceRating int        `json:"experience_rating"`
	Notes            string     `json:"notes,omitempty"`
	VisitedAt        *time.Time `json:"visited_at,omitempty"`
}

// VisitListResponse is the payload for GET /visits.
type VisitListResponse struct {
	Visits []*user.Visit `json:"visits"`
	Count  int           `json:"count"`
}

// LogVisit handles POST /visits - records a visit with an experience rating.
func (h *VisitHandlers) LogVisit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	var req LogVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid request body")
		return
	}
	if req.VenueID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "venue_id is required")
		return
	}

	if _, err := h.venueRepo.GetByID(req.VenueID); err != nil {
		if errors.Is(err, venue.ErrVenueNotFound) || errors.Is(err, venue.ErrVenueDeleted) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Venue not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to look up venue for visit", "error", err, "venue_id", req.VenueID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to log visit")
		return
	}

	visit := &user.Visit{
		UserID:           userID,
		VenueID:          req.VenueID,
		ExperienceRating: req.ExperienceRating,
		Notes:            req.Notes,
	}
	if req.VisitedAt != nil {
		visit.VisitedAt = *req.VisitedAt
	}

	if err := h.visitRepo.Create(visit); err != nil {
		if errors.Is(err, user.ErrInvalidRating) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInvalidRating)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeInvalidRating, "experience_rating must be between 1 and 10")
			return
		}
		slog.ErrorContext(r.Context(), "failed to log visit", "error", err, "user_id", userID, "venue_id", req.VenueID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to log visit")
		return
	}

	writeJSON(w, http.StatusCreated, visit)
}

// ListVisits handles GET /visits - the user's visit history, newest first.
func (h *VisitHandlers) ListVisits(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	visits, err := h.visitRepo.ListByUser(userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list visits", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to list visits")
		return
	}
	if visits == nil {
		visits = []*user.Visit{}
	}

	writeJSON(w, http.StatusOK, VisitListResponse{Visits: visits, Count: len(visits)})
}
