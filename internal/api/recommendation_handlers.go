package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lastcall-app/lastcall/internal/middleware"
	"github.com/lastcall-app/lastcall/internal/recs"
	"github.com/lastcall-app/lastcall/internal/tracing"
	"github.com/lastcall-app/lastcall/internal/user"
	"github.com/lastcall-app/lastcall/internal/venue"
)

// RecommendationHandlers holds dependencies for recommendation HTTP handlers.
type RecommendationHandlers struct {
	venueRepo    venue.Repository
	profileRepo  user.ProfileRepository
	favoriteRepo user.FavoriteRepository
	visitRepo    user.VisitRepository
	weights      *recs.Weights
	maxLimit     int
}

// NewRecommendationHandlers creates a new RecommendationHandlers instance.
// weights may be nil to use the default scoring weights. maxLimit caps the
// per-request limit parameter; values <= 0 fall back to recs.DefaultLimit.
func NewRecommendationHandlers(
	venueRepo venue.Repository,
	profileRepo user.ProfileRepository,
	favoriteRepo user.FavoriteRepository,
	visitRepo user.VisitRepository,
	weights *recs.Weights,
	maxLimit int,
) *RecommendationHandlers {
	if maxLimit <= 0 {
		maxLimit = recs.DefaultLimit
	}
	return &RecommendationHandlers{
		venueRepo:    venueRepo,
		profileRepo:  profileRepo,
		favoriteRepo: favoriteRepo,
		visitRepo:    visitRepo,
		weights:      weights,
		maxLimit:     maxLimit,
	}
}

// RecommendationsResponse is the payload for GET /recommendations.
type RecommendationsResponse struct {
	AlgorithmVersion string       `json:"algorithm_version"`
	Recommendations  []recs.Score `json:"recommendations"`
	Message          string       `json:"message,omitempty"`
}

// GetRecommendations handles GET /recommendations - returns personalized
// venue recommendations for the authenticated user.
func (h *RecommendationHandlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	limit := recs.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "limit must be a positive integer")
			return
		}
		limit = parsed
		if limit > h.maxLimit {
			limit = h.maxLimit
		}
	}

	profile, err := h.profileRepo.GetByUserID(userID)
	if err != nil && !errors.Is(err, user.ErrProfileNotFound) {
		slog.ErrorContext(r.Context(), "failed to load profile for recommendations", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load profile")
		return
	}

	favorites, err := h.favoriteRepo.ListByUser(userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load favorites for recommendations", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load favorites")
		return
	}

	visits, err := h.visitRepo.ListByUser(userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load visits for recommendations", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load visit history")
		return
	}

	highRated, err := h.visitRepo.ListHighRatedByUser(userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load visits for recommendations", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load visit history")
		return
	}

	// Venues the user has already favorited or visited are excluded from the
	// candidate pool: recommending a venue the user already knows adds no
	// discovery value.
	excludeSeen := make(map[string]bool, len(favorites)+len(visits))
	exclude := make([]string, 0, len(favorites)+len(visits))
	favoriteVenues := make([]*venue.Venue, 0, len(favorites))
	for _, f := range favorites {
		if !excludeSeen[f.VenueID] {
			excludeSeen[f.VenueID] = true
			exclude = append(exclude, f.VenueID)
		}
		v, err := h.venueRepo.GetByID(f.VenueID)
		if err != nil {
			// Favorite may point at a soft-deleted venue; skip it as a signal
			// rather than failing the whole request.
			continue
		}
		favoriteVenues = append(favoriteVenues, v)
	}
	for _, visit := range visits {
		if !excludeSeen[visit.VenueID] {
			excludeSeen[visit.VenueID] = true
			exclude = append(exclude, visit.VenueID)
		}
	}

	seen := make(map[string]bool, len(highRated))
	highRatedVenues := make([]*venue.Venue, 0, len(highRated))
	for _, visit := range highRated {
		if seen[visit.VenueID] {
			continue
		}
		seen[visit.VenueID] = true
		v, err := h.venueRepo.GetByID(visit.VenueID)
		if err != nil {
			continue
		}
		highRatedVenues = append(highRatedVenues, v)
	}

	candidates, err := h.venueRepo.ListCandidates(exclude)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load candidate venues", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load venues")
		return
	}

	if len(candidates) == 0 {
		writeJSON(w, http.StatusOK, RecommendationsResponse{
			AlgorithmVersion: recs.Version,
			Recommendations:  []recs.Score{},
			Message:          "No venues available to recommend yet. Check back soon!",
		})
		return
	}

	scores, err := h.score(r.Context(), recs.Input{
		Profile:         profile,
		Favorites:       favoriteVenues,
		HighRatedVisits: highRatedVenues,
		Candidates:      candidates,
		Limit:           limit,
	})
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to compute recommendations")
		return
	}
	if scores == nil {
		scores = []recs.Score{}
	}

	writeJSON(w, http.StatusOK, RecommendationsResponse{
		AlgorithmVersion: recs.Version,
		Recommendations:  scores,
	})
}

// score runs the scorer with panic recovery. A bug in scoring must surface as
// a 500 on this request, not take down the server.
func (h *RecommendationHandlers) score(ctx context.Context, in recs.Input) (scores []recs.Score, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "score_candidates")
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "recommendation scoring panicked", "panic", rec)
			scores = nil
			err = errScoringPanic
		}
		endSpan(err)
	}()
	tracing.SetAttributes(ctx,
		attribute.Int("recs.candidates", len(in.Candidates)),
		attribute.Int("recs.limit", in.Limit),
	)
	return recs.Recommend(in, h.weights), nil
}

var errScoringPanic = errors.New("scoring panicked")

// writeJSON encodes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
