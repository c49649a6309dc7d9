package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lastcall-app/lastcall/internal/venue"
)

func seedVenues(t *testing.T, repo venue.Repository, venues ...*venue.Venue) {
	t.Helper()
	for _, v := range venues {
		if err := repo.Create(v); err != nil {
			t.Fatalf("failed to seed venue %q: %v", v.Name, err)
		}
	}
}

func TestListVenues_Empty(t *testing.T) {
	handlers := NewVenueHandlers(venue.NewInMemoryRepository())

	req := httptest.NewRequest(http.MethodGet, "/venues", nil)
	w := httptest.NewRecorder()

	handlers.ListVenues(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp VenueListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("expected count 0, got %d", resp.Count)
	}
	if resp.Venues == nil {
		t.Error("expected venues to be an empty array, not null")
	}
}

func TestListVenues_Filters(t *testing.T) {
	repo := venue.NewInMemoryRepository()
	handlers := NewVenueHandlers(repo)

	seedVenues(t, repo,
		&venue.Venue{ID: "v-1", Name: "Bassline", Neighborhood: "Downtown", MusicGenres: []venue.MusicGenre{venue.GenreHouse}, HasPatio: true},
		&venue.Venue{ID: "v-2", Name: "Amp Room", Neighborhood: "Riverside", MusicGenres: []venue.MusicGenre{venue.GenreRock}},
		&venue.Venue{ID: "v-3", Name: "Velvet Lounge", Neighborhood: "Downtown", MusicGenres: []venue.MusicGenre{venue.GenreJazz}, ServesFood: true},
	)

	tests := []struct {
		name      string
		target    string
		wantIDs   []string
		wantError bool
	}{
		{"by neighborhood", "/venues?neighborhood=Downtown", []string{"v-1", "v-3"}, false},
		{"by genre", "/venues?genre=Rock", []string{"v-2"}, false},
		{"by feature", "/venues?has_patio=true", []string{"v-1"}, false},
		{"feature false", "/venues?serves_food=false", []string{"v-2", "v-1"}, false},
		{"text search", "/venues?q=velvet", []string{"v-3"}, false},
		{"combined", "/venues?neighborhood=Downtown&serves_food=true", []string{"v-3"}, false},
		{"unknown genre", "/venues?genre=Polka", nil, true},
		{"unknown capacity", "/venues?capacity_size=gigantic", nil, true},
		{"bad bool", "/venues?has_patio=maybe", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()

			handlers.ListVenues(w, req)

			if tt.wantError {
				if w.Code != http.StatusBadRequest {
					t.Fatalf("expected status 400, got %d", w.Code)
				}
				return
			}
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}

			var resp VenueListResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			got := make(map[string]bool, len(resp.Venues))
			for _, v := range resp.Venues {
				got[v.ID] = true
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("expected %d venues, got %d", len(tt.wantIDs), len(resp.Venues))
			}
			for _, id := range tt.wantIDs {
				if !got[id] {
					t.Errorf("expected venue %q in results", id)
				}
			}
		})
	}
}

func TestListVenues_Pagination(t *testing.T) {
	repo := venue.NewInMemoryRepository()
	handlers := NewVenueHandlers(repo)

	seedVenues(t, repo,
		&venue.Venue{ID: "v-a", Name: "Alpha"},
		&venue.Venue{ID: "v-b", Name: "Beta"},
		&venue.Venue{ID: "v-c", Name: "Gamma"},
	)

	req := httptest.NewRequest(http.MethodGet, "/venues?limit=1&offset=1", nil)
	w := httptest.NewRecorder()

	handlers.ListVenues(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp VenueListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected 1 venue, got %d", resp.Count)
	}
	// Listing is ordered by name, so offset 1 lands on Beta.
	if resp.Venues[0].ID != "v-b" {
		t.Errorf("expected venue v-b, got %q", resp.Venues[0].ID)
	}
}

func TestGetVenue(t *testing.T) {
	repo := venue.NewInMemoryRepository()
	handlers := NewVenueHandlers(repo)

	seedVenues(t, repo, &venue.Venue{ID: "v-1", Name: "Bassline", Neighborhood: "Downtown"})

	req := httptest.NewRequest(http.MethodGet, "/venues/v-1", nil)
	w := httptest.NewRecorder()

	handlers.GetVenue(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var got venue.Venue
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Name != "Bassline" {
		t.Errorf("expected name 'Bassline', got %q", got.Name)
	}
}

func TestGetVenue_NotFound(t *testing.T) {
	handlers := NewVenueHandlers(venue.NewInMemoryRepository())

	req := httptest.NewRequest(http.MethodGet, "/venues/nonexistent", nil)
	w := httptest.NewRecorder()

	handlers.GetVenue(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.Error.Code != ErrCodeNotFound {
		t.Errorf("expected code %q, got %q", ErrCodeNotFound, errResp.Error.Code)
	}
}

func TestGetVenue_SoftDeleted(t *testing.T) {
	repo := venue.NewInMemoryRepository()
	handlers := NewVenueHandlers(repo)

	seedVenues(t, repo, &venue.Venue{ID: "v-1", Name: "Bassline"})
	if err := repo.Delete("v-1"); err != nil {
		t.Fatalf("failed to delete venue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/venues/v-1", nil)
	w := httptest.NewRecorder()

	handlers.GetVenue(w, req)

	// Soft-deleted venues are hidden from reads.
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
