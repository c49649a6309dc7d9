// Package venue provides models and repository for the venue catalog:
// bars and clubs with music, capacity, cover, and feature attributes.
package venue

import (
	"time"
)

// MusicGenre is a closed set of music genre tags a venue can carry.
type MusicGenre string

// Supported music genres.
const (
	GenreHouse   MusicGenre = "House"
	GenreEDM     MusicGenre = "EDM"
	GenreTechno  MusicGenre = "Techno"
	GenreHipHop  MusicGenre = "Hip-Hop"
	GenreTop40   MusicGenre = "Top 40"
	GenreLatin   MusicGenre = "Latin"
	GenreRnB     MusicGenre = "R&B"
	GenreRock    MusicGenre = "Rock"
	GenreIndie   MusicGenre = "Indie"
	GenreJazz    MusicGenre = "Jazz"
	GenreCountry MusicGenre = "Country"
	GenreMixed   MusicGenre = "Mixed"
)

// AllGenres lists every valid genre, in display order.
var AllGenres = []MusicGenre{
	GenreHouse, GenreEDM, GenreTechno, GenreHipHop, GenreTop40,
	GenreLatin, GenreRnB, GenreRock, GenreIndie, GenreJazz,
	GenreCountry, GenreMixed,
}

// Valid reports whether g is one of the supported genres.
func (g MusicGenre) Valid() bool {
	for _, known := range AllGenres {
		if g == known {
			return true
		}
	}
	return false
}

// CapacitySize is an ordered bucket describing how large a venue is.
type CapacitySize string

// Capacity buckets, smallest to largest.
const (
	CapacityIntimate CapacitySize = "intimate" // < 50
	CapacitySmall    CapacitySize = "small"    // 50-150
	CapacityMedium   CapacitySize = "medium"   // 150-400
	CapacityLarge    CapacitySize = "large"    // 400-1000
	CapacityMassive  CapacitySize = "massive"  // 1000+
)

// AllCapacities lists every valid capacity bucket in ascending order.
var AllCapacities = []CapacitySize{
	CapacityIntimate, CapacitySmall, CapacityMedium, CapacityLarge, CapacityMassive,
}

// Valid reports whether c is one of the supported capacity buckets.
// The empty string is valid and means the capacity is unknown.
func (c CapacitySize) Valid() bool {
	if c == "" {
		return true
	}
	for _, known := range AllCapacities {
		if c == known {
			return true
		}
	}
	return false
}

// CoverFrequency describes how often a venue charges cover.
type CoverFrequency string

// Cover charge frequency buckets.
const (
	CoverNever         CoverFrequency = "never"
	CoverWeekends      CoverFrequency = "weekends"
	CoverSpecialEvents CoverFrequency = "special_events"
	CoverAlways        CoverFrequency = "always"
)

// AllCoverFrequencies lists every valid cover frequency bucket.
var AllCoverFrequencies = []CoverFrequency{
	CoverNever, CoverWeekends, CoverSpecialEvents, CoverAlways,
}

// Valid reports whether f is one of the supported cover frequency buckets.
// The empty string is valid and means the cover policy is unknown.
func (f CoverFrequency) Valid() bool {
	if f == "" {
		return true
	}
	for _, known := range AllCoverFrequencies {
		if f == known {
			return true
		}
	}
	return false
}

// Venue represents a bar or club in the catalog.
//
// Neighborhood is intentionally a free-form string rather than a closed
// enum: the neighborhood list is city-specific catalog data, and the
// scorer only ever compares it for equality.
type Venue struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Neighborhood string       `json:"neighborhood,omitempty"`
	MusicGenres  []MusicGenre `json:"music_genres,omitempty"`

	// ServiceRating is the community-sourced rating on a 1-10 scale.
	// Zero means no ratings have been recorded yet.
	ServiceRating float64 `json:"service_rating,omitempty"`

	HasPatio      bool `json:"has_patio"`
	HasRooftop    bool `json:"has_rooftop"`
	HasDancefloor bool `json:"has_dancefloor"`
	ServesFood    bool `json:"serves_food"`

	CapacitySize   CapacitySize   `json:"capacity_size,omitempty"`
	CoverFrequency CoverFrequency `json:"cover_frequency,omitempty"`
	CoverAmount    float64        `json:"cover_amount,omitempty"`

	TypicalVibe   string   `json:"typical_vibe,omitempty"`
	LiveMusicDays []string `json:"live_music_days,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// HasGenre reports whether the venue lists the given genre.
func (v *Venue) HasGenre(g MusicGenre) bool {
	for _, genre := range v.MusicGenres {
		if genre == g {
			return true
		}
	}
	return false
}

// HasLiveMusic reports whether the venue has any live music days listed.
func (v *Venue) HasLiveMusic() bool {
	return len(v.LiveMusicDays) > 0
}

// ValidateAttributes checks every enum-typed attribute on the venue.
// Returns the first invalid attribute found as an error, or nil.
func (v *Venue) ValidateAttributes() error {
	for _, g := range v.MusicGenres {
		if !g.Valid() {
			return &InvalidAttributeError{Field: "music_genres", Value: string(g)}
		}
	}
	if !v.CapacitySize.Valid() {
		return &InvalidAttributeError{Field: "capacity_size", Value: string(v.CapacitySize)}
	}
	if !v.CoverFrequency.Valid() {
		return &InvalidAttributeError{Field: "cover_frequency", Value: string(v.CoverFrequency)}
	}
	return nil
}

// InvalidAttributeError reports an enum attribute that is not in its closed set.
type InvalidAttributeError struct {
	Field string
	Value string
}

func (e *InvalidAttributeError) Error() string {
	return "invalid " + e.Field + ": " + e.Value
}
