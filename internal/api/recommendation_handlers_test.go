package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lastcall-app/lastcall/internal/middleware"
	"github.com/lastcall-app/lastcall/internal/recs"
	"github.com/lastcall-app/lastcall/internal/user"
	"github.com/lastcall-app/lastcall/internal/venue"
)

// newRecommendationFixture wires in-memory repositories into a handler set.
func newRecommendationFixture() (*RecommendationHandlers, venue.Repository, user.ProfileRepository, user.FavoriteRepository, user.VisitRepository) {
	venueRepo := venue.NewInMemoryRepository()
	profileRepo := user.NewInMemoryProfileRepository()
	favoriteRepo := user.NewInMemoryFavoriteRepository()
	visitRepo := user.NewInMemoryVisitRepository()
	handlers := NewRecommendationHandlers(venueRepo, profileRepo, favoriteRepo, visitRepo, nil, 50)
	return handlers, venueRepo, profileRepo, favoriteRepo, visitRepo
}

// authedRequest builds a GET request with the user ID placed in context the
// way the auth middleware does.
func authedRequest(method, target, userID string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := middleware.SetUserID(req.Context(), userID)
	return req.WithContext(ctx)
}

func TestGetRecommendations_RequiresAuth(t *testing.T) {
	handlers, _, _, _, _ := newRecommendationFixture()

	req := httptest.NewRequest(http.MethodGet, "/recommendations", nil)
	w := httptest.NewRecorder()

	handlers.GetRecommendations(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.Error.Code != ErrCodeAuthFailed {
		t.Errorf("expected code %q, got %q", ErrCodeAuthFailed, errResp.Error.Code)
	}
}

func TestGetRecommendations_EmptyCatalog(t *testing.T) {
	handlers, _, _, _, _ := newRecommendationFixture()

	req := authedRequest(http.MethodGet, "/recommendations", "user-1")
	w := httptest.NewRecorder()

	handlers.GetRecommendations(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp RecommendationsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %d", len(resp.Recommendations))
	}
	if resp.Message == "" {
		t.Error("expected an explanatory message for an empty catalog")
	}
	if resp.AlgorithmVersion != recs.Version {
		t.Errorf("expected algorithm_version %q, got %q", recs.Version, resp.AlgorithmVersion)
	}
}

func TestGetRecommendations_NoProfileStillScores(t *testing.T) {
	handlers, venueRepo, _, _, _ := newRecommendationFixture()

	if err := venueRepo.Create(&venue.Venue{Name: "The Night Owl", Neighborhood: "Downtown"}); err != nil {
		t.Fatalf("failed to seed venue: %v", err)
	}

	req := authedRequest(http.MethodGet, "/recommendations", "user-1")
	w := httptest.NewRecorder()

	handlers.GetRecommendations(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp RecommendationsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(resp.Recommendations))
	}
	if resp.Recommendations[0].Venue.Name != "The Night Owl" {
		t.Errorf("expected venue 'The Night Owl', got %q", resp.Recommendations[0].Venue.Name)
	}
}

func TestGetRecommendations_PreferredGenreRanksHigher(t *testing.T) {
	handlers, venueRepo, profileRepo, _, _ := newRecommendationFixture()

	if err := profileRepo.Upsert(&user.Profile{
		UserID:          "user-1",
		PreferredGenres: []venue.MusicGenre{venue.GenreHouse},
	}); err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}

	houseClub := &venue.Venue{ID: "v-house", Name: "Bassline", MusicGenres: []venue.MusicGenre{venue.GenreHouse}}
	rockBar := &venue.Venue{ID: "v-rock", Name: "Amp Room", MusicGenres: []venue.MusicGenre{venue.GenreRock}}
	for _, v := range []*venue.Venue{houseClub, rockBar} {
		if err := venueRepo.Create(v); err != nil {
			t.Fatalf("failed to seed venue: %v", err)
		}
	}

	req := authedRequest(http.MethodGet, "/recommendations", "user-1")
	w := httptest.NewRecorder()

	handlers.GetRecommendations(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp RecommendationsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(resp.Recommendations))
	}
	if resp.Recommendations[0].Venue.ID != "v-house" {
		t.Errorf("expected genre-matched venue first, got %q", resp.Recommendations[0].Venue.ID)
	}
	if resp.Recommendations[0].TotalScore <= resp.Recommendations[1].TotalScore {
		t.Errorf("expected matched venue to outscore: %v vs %v",
			resp.Recommendations[0].TotalScore, resp.Recommendations[1].TotalScore)
	}
}

func TestGetRecommendations_ExcludesFavorites(t *testing.T) {
	handlers, venueRepo, _, favoriteRepo, _ := newRecommendationFixture()

	saved := &venue.Venue{ID: "v-saved", Name: "Old Haunt"}
	fresh := &venue.Venue{ID: "v-fresh", Name: "New Spot"}
	for _, v := range []*venue.Venue{saved, fresh} {
		if err := venueRepo.Create(v); err != nil {
			t.Fatalf("failed to seed venue: %v", err)
		}
	}
	if err := favoriteRepo.Add("user-1", "v-saved"); err != nil {
		t.Fatalf("failed to seed favorite: %v", err)
	}

	req := authedRequest(http.MethodGet, "/recommendations", "user-1")
	w := httptest.NewRecorder()

	handlers.GetRecommendations(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp RecommendationsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, rec := range resp.Recommendations {
		if rec.Venue.ID == "v-saved" {
			t.Error("favorited venue should not appear in recommendations")
		}
	}
	if len(resp.Recommendations) != 1 {
		t.Errorf("expected 1 recommendation, got %d", len(resp.Recommendations))
	}
}

func TestGetRecommendations_ExcludesVisited(t *testing.T) {
	handlers, venueRepo, _, _, visitRepo := newRecommendationFixture()

	visited := &venue.Venue{ID: "v-visited", Name: "Been There"}
	fresh := &venue.Venue{ID: "v-fresh", Name: "New Spot"}
	for _, v := range []*venue.Venue{visited, fresh} {
		if err := venueRepo.Create(v); err != nil {
			t.Fatalf("failed to seed venue: %v", err)
		}
	}
	// A middling rating still marks the venue as already known.
	if err := visitRepo.Create(&user.Visit{UserID: "user-1", VenueID: "v-visited", ExperienceRating: 6}); err != nil {
		t.Fatalf("failed to seed visit: %v", err)
	}

	req := authedRequest(http.MethodGet, "/recommendations", "user-1")
	w := httptest.NewRecorder()

	handlers.GetRecommendations(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp RecommendationsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(resp.Recommendations))
	}
	if resp.Recommendations[0].Venue.ID != "v-fresh" {
		t.Errorf("expected only the unvisited venue, got %q", resp.Recommendations[0].Venue.ID)
	}
}

func TestGetRecommendations_LimitParam(t *testing.T) {
	handlers, venueRepo, _, _, _ := newRecommendationFixture()

	names := []string{"Alpha Bar", "Beta Club", "Gamma Lounge", "Delta Hall"}
	for i, name := range names {
		if err := venueRepo.Create(&venue.Venue{ID: names[i], Name: name}); err != nil {
			t.Fatalf("failed to seed venue: %v", err)
		}
	}

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCount  int
	}{
		{"default limit", "/recommendations", http.StatusOK, 4},
		{"explicit limit", "/recommendations?limit=2", http.StatusOK, 2},
		{"limit above max is capped", "/recommendations?limit=9999", http.StatusOK, 4},
		{"zero limit rejected", "/recommendations?limit=0", http.StatusBadRequest, 0},
		{"negative limit rejected", "/recommendations?limit=-1", http.StatusBadRequest, 0},
		{"non-numeric limit rejected", "/recommendations?limit=abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authedRequest(http.MethodGet, tt.target, "user-1")
			w := httptest.NewRecorder()

			handlers.GetRecommendations(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp RecommendationsResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if len(resp.Recommendations) != tt.wantCount {
				t.Errorf("expected %d recommendations, got %d", tt.wantCount, len(resp.Recommendations))
			}
		})
	}
}
