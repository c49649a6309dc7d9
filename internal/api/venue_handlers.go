package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lastcall-app/lastcall/internal/middleware"
	"github.com/lastcall-app/lastcall/internal/venue"
)

// VenueHandlers holds dependencies for venue HTTP handlers.
type VenueHandlers struct {
	venueRepo venue.Repository
}

// NewVenueHandlers creates a new VenueHandlers instance.
func NewVenueHandlers(venueRepo venue.Repository) *VenueHandlers {
	return &VenueHandlers{venueRepo: venueRepo}
}

// Pagination bounds for venue listing.
const (
	MaxVenueListLimit     = 100
	DefaultVenueListLimit = 50
)

// VenueListResponse is the payload for GET /venues.
type VenueListResponse struct {
	Venues []*venue.Venue `json:"venues"`
	Count  int            `json:"count"`
}

// ListVenues handles GET /venues - filtered, searchable venue listing.
func (h *VenueHandlers) ListVenues(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := venue.Filter{
		Neighborhood:   strings.TrimSpace(query.Get("neighborhood")),
		Genre:          venue.MusicGenre(strings.TrimSpace(query.Get("genre"))),
		CapacitySize:   venue.CapacitySize(strings.TrimSpace(query.Get("capacity_size"))),
		CoverFrequency: venue.CoverFrequency(strings.TrimSpace(query.Get("cover_frequency"))),
		Query:          strings.TrimSpace(query.Get("q")),
	}

	if filter.Genre != "" && !filter.Genre.Valid() {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Unknown genre: "+string(filter.Genre))
		return
	}
	if !filter.CapacitySize.Valid() {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Unknown capacity_size: "+string(filter.CapacitySize))
		return
	}
	if !filter.CoverFrequency.Valid() {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Unknown cover_frequency: "+string(filter.CoverFrequency))
		return
	}

	boolParams := []struct {
		name   string
		target **bool
	}{
		{"has_patio", &filter.HasPatio},
		{"has_rooftop", &filter.HasRooftop},
		{"has_dancefloor", &filter.HasDancefloor},
		{"serves_food", &filter.ServesFood},
	}
	for _, p := range boolParams {
		raw := query.Get(p.name)
		if raw == "" {
			continue
		}
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, p.name+" must be true or false")
			return
		}
		*p.target = &parsed
	}

	limit := DefaultVenueListLimit
	if limitStr := query.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "limit must be a positive integer")
			return
		}
		limit = parsed
		if limit > MaxVenueListLimit {
			limit = MaxVenueListLimit
		}
	}

	offset := 0
	if offsetStr := query.Get("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil || parsed < 0 {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "offset must be a non-negative integer")
			return
		}
		offset = parsed
	}

	venues, err := h.venueRepo.List(filter, limit, offset)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list venues", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to list venues")
		return
	}
	if venues == nil {
		venues = []*venue.Venue{}
	}

	writeJSON(w, http.StatusOK, VenueListResponse{Venues: venues, Count: len(venues)})
}

// GetVenue handles GET /venues/{id} - venue detail.
func (h *VenueHandlers) GetVenue(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/venues/")
	if id == "" || strings.Contains(id, "/") {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Venue ID is required")
		return
	}

	v, err := h.venueRepo.GetByID(id)
	if err != nil {
		switch {
		case errors.Is(err, venue.ErrVenueDeleted):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeVenueDeleted)
			WriteError(w, ctx, http.StatusGone, ErrCodeVenueDeleted, "Venue has been removed")
		case errors.Is(err, venue.ErrVenueNotFound):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Venue not found")
		default:
			slog.ErrorContext(r.Context(), "failed to get venue", "error", err, "venue_id", id)
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to get venue")
		}
		return
	}

	writeJSON(w, http.StatusOK, v)
}
