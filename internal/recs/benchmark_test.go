package recs

import (
	"strconv"
	"testing"

	"github.com/lastcall-app/lastcall/internal/user"
	"github.com/lastcall-app/lastcall/internal/venue"
)

// BenchmarkRecommend measures scoring a realistic candidate set.
func BenchmarkRecommend(b *testing.B) {
	profile := &user.Profile{
		PreferredGenres:    []venue.MusicGenre{venue.GenreHouse, venue.GenreTechno},
		FirstNeighborhood:  "King West",
		SecondNeighborhood: "Queen West",
	}
	liked := []*venue.Venue{
		{HasPatio: true, CapacitySize: venue.CapacitySmall, TypicalVibe: "divey"},
		{HasDancefloor: true, HasRooftop: true, CapacitySize: venue.CapacityLarge, TypicalVibe: "upscale"},
	}
	candidates := make([]*venue.Venue, 200)
	for i := range candidates {
		candidates[i] = &venue.Venue{
			ID:            strconv.Itoa(i),
			Name:          "Venue " + strconv.Itoa(i),
			Neighborhood:  []string{"King West", "Queen West", "Ossington", ""}[i%4],
			MusicGenres:   []venue.MusicGenre{venue.AllGenres[i%len(venue.AllGenres)]},
			ServiceRating: float64(i%10) + 0.5,
			HasPatio:      i%2 == 0,
			HasDancefloor: i%3 == 0,
			CapacitySize:  venue.AllCapacities[i%len(venue.AllCapacities)],
		}
	}
	in := Input{Profile: profile, Favorites: liked, Candidates: candidates, Limit: 10}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Recommend(in, nil)
	}
}
