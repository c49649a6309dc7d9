package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lastcall-app/lastcall/internal/middleware"
	"github.com/lastcall-app/lastcall/internal/user"
	"github.com/lastcall-app/lastcall/internal/venue"
)

// FavoriteHandlers holds dependencies for favorite HTTP handlers.
type FavoriteHandlers struct {
	favoriteRepo user.FavoriteRepository
	venueRepo    venue.Repository
}

// NewFavoriteHandlers creates a new FavoriteHandlers instance.
func NewFavoriteHandlers(favoriteRepo user.FavoriteRepository, venueRepo venue.Repository) *FavoriteHandlers {
	return &FavoriteHandlers{
		favoriteRepo: favoriteRepo,
		venueRepo:    venueRepo,
	}
}

// AddFavoriteRequest is the payload for POST /favorites.
type AddFavoriteRequest struct {
	VenueID string `json:"venue_id"`
}

// FavoriteListResponse is the payload for GET /favorites.
type FavoriteListResponse struct {
	Favorites []*user.Favorite `json:"favorites"`
	Count     int              `json:"count"`
}

// AddFavorite handles POST /favorites - saves a venue to the user's favorites.
func (h *FavoriteHandlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	var req AddFavoriteRequest
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

	// The venue must exist (and not be soft-deleted) to be favorited.
	if _, err := h.venueRepo.GetByID(req.VenueID); err != nil {
		if errors.Is(err, venue.ErrVenueNotFound) || errors.Is(err, venue.ErrVenueDeleted) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Venue not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to look up venue for favorite", "error", err, "venue_id", req.VenueID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to add favorite")
		return
	}

	if err := h.favoriteRepo.Add(userID, req.VenueID); err != nil {
		if errors.Is(err, user.ErrAlreadyFavorited) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeAlreadyFavorited)
			WriteError(w, ctx, http.StatusConflict, ErrCodeAlreadyFavorited, "Venue is already in your favorites")
			return
		}
		slog.ErrorContext(r.Context(), "failed to add favorite", "error", err, "user_id", userID, "venue_id", req.VenueID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to add favorite")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"user_id":  userID,
		"venue_id": req.VenueID,
	})
}

// RemoveFavorite handles DELETE /favorites/{venue_id}.
func (h *FavoriteHandlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	venueID := strings.TrimPrefix(r.URL.Path, "/favorites/")
	if venueID == "" || strings.Contains(venueID, "/") {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Venue ID is required")
		return
	}

	if err := h.favoriteRepo.Remove(userID, venueID); err != nil {
		if errors.Is(err, user.ErrFavoriteNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Favorite not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to remove favorite", "error", err, "user_id", userID, "venue_id", venueID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to remove favorite")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFavorites handles GET /favorites - the user's saved venues, newest first.
func (h *FavoriteHandlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	favorites, err := h.favoriteRepo.ListByUser(userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list favorites", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to list favorites")
		return
	}
	if favorites == nil {
		favorites = []*user.Favorite{}
	}

	writeJSON(w, http.StatusOK, FavoriteListResponse{Favorites: favorites, Count: len(favorites)})
}
