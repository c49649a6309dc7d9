package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lastcall-app/lastcall/internal/middleware"
	"github.com/lastcall-app/lastcall/internal/user"
	"github.com/lastcall-app/lastcall/internal/venue"
)

// ProfileHandlers holds dependencies for profile HTTP handlers.
type ProfileHandlers struct {
	profileRepo user.ProfileRepository
}

// NewProfileHandlers creates a new ProfileHandlers instance.
func NewProfileHandlers(profileRepo user.ProfileRepository) *ProfileHandlers {
	return &ProfileHandlers{profileRepo: profileRepo}
}

// UpsertProfileRequest is the payload for PUT /profile.
type UpsertProfileRequest struct {
	DisplayName        string             `json:"display_name,omitempty"`
	PreferredGenres    []venue.MusicGenre `json:"preferred_genres,omitempty"`
	FirstNeighborhood  string             `json:"first_neighborhood,omitempty"`
	SecondNeighborhood string             `json:"second_neighborhood,omitempty"`
	ThirdNeighborhood  string             `json:"third_neighborhood,omitempty"`
}

// GetProfile handles GET /profile - the authenticated user's preferences.
func (h *ProfileHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	profile, err := h.profileRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, user.ErrProfileNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Profile not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get profile", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to get profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// UpsertProfile handles PUT /profile - creates or replaces the user's
// preferences.
func (h *ProfileHandlers) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	var req UpsertProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid request body")
		return
	}

	for _, g := range req.PreferredGenres {
		if !g.Valid() {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Unknown genre: "+string(g))
			return
		}
	}

	profile := &user.Profile{
		UserID:             userID,
		DisplayName:        req.DisplayName,
		PreferredGenres:    req.PreferredGenres,
		FirstNeighborhood:  req.FirstNeighborhood,
		SecondNeighborhood: req.SecondNeighborhood,
		ThirdNeighborhood:  req.ThirdNeighborhood,
	}

	if err := h.profileRepo.Upsert(profile); err != nil {
		slog.ErrorContext(r.Context(), "failed to upsert profile", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to save profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
