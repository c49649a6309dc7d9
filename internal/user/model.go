// Package user provides models and repositories for user profiles,
// favorited venues, and logged visits.
package user

import (
	"errors"
	"time"

	"github.com/lastcall-app/lastcall/internal/venue"
)

// HighRatedThreshold is the minimum self-reported experience rating
// (1-10 scale) for a visit to count as a "liked venue" in recommendations.
const HighRatedThreshold = 7

// Common errors for user operations.
var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrInvalidRating    = errors.New("experience rating must be between 1 and 10")
	ErrAlreadyFavorited = errors.New("venue already favorited")
	ErrFavoriteNotFound = errors.New("favorite not found")
)

// Profile holds a user's recommendation preferences: preferred music
// genres and up to three ranked neighborhood choices.
type Profile struct {
	UserID          string             `json:"user_id"`
	DisplayName     string             `json:"display_name,omitempty"`
	PreferredGenres []venue.MusicGenre `json:"preferred_genres,omitempty"`

	// Neighborhood choices in priority order. Empty means no preference
	// at that rank.
	FirstNeighborhood  string `json:"first_neighborhood,omitempty"`
	SecondNeighborhood string `json:"second_neighborhood,omitempty"`
	ThirdNeighborhood  string `json:"third_neighborhood,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Favorite marks a venue the user has explicitly saved.
type Favorite struct {
	UserID    string    `json:"user_id"`
	VenueID   string    `json:"venue_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Visit records a logged visit to a venue with a self-reported
// experience rating on a 1-10 scale.
type Visit struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	VenueID          string    `json:"venue_id"`
	ExperienceRating int       `json:"experience_rating"`
	Notes            string    `json:"notes,omitempty"`
	VisitedAt        time.Time `json:"visited_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// Validate checks the visit's experience rating is within the 1-10 scale.
func (v *Visit) Validate() error {
	if v.ExperienceRating < 1 || v.ExperienceRating > 10 {
		return ErrInvalidRating
	}
	return nil
}

// HighRated reports whether the visit counts toward "liked venues".
func (v *Visit) HighRated() bool {
	return v.ExperienceRating >= HighRatedThreshold
}
