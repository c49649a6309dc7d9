package recs

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lastcall-app/lastcall/internal/user"
	"github.com/lastcall-app/lastcall/internal/venue"
)

// Version identifies the scoring algorithm revision. It is returned with
// every recommendation response so downstream consumers can detect when
// the scoring logic changes.
const Version = "2024.1"

// DefaultLimit is the number of recommendations returned when the caller
// does not supply a limit.
const DefaultLimit = 10

// neutralScore is returned by a component that lacks the data to judge a
// venue. Distinct from the mismatch score of 4: neutral means "no data",
// while 4 means "judged and different, small credit for exploration".
const neutralScore = 5.0

// Score is one scored, annotated recommendation.
type Score struct {
	Venue *venue.Venue `json:"venue"`

	MusicScore        float64 `json:"music_score"`
	NeighborhoodScore float64 `json:"neighborhood_score"`
	SimilarityScore   float64 `json:"similarity_score"`
	ExplorationScore  float64 `json:"exploration_score"`
	CommunityScore    float64 `json:"community_score"`

	// TotalScore is the weighted sum of the five components, rounded to
	// one decimal place.
	TotalScore float64 `json:"total_score"`

	// Reasoning holds human-readable explanations in fixed component
	// order: music, neighborhood, similarity, exploration, community.
	Reasoning []string `json:"reasoning"`
}

// Input bundles everything the scorer needs for one request. The caller is
// responsible for authentication, for pre-filtering visits to experience
// rating >= 7, and for excluding already-known venues from Candidates.
type Input struct {
	Profile         *user.Profile
	Favorites       []*venue.Venue
	HighRatedVisits []*venue.Venue
	Candidates      []*venue.Venue
	Limit           int
}

// component is the result of a single scoring component: a score and the
// reasoning strings it produced. Components never share state; the
// aggregator concatenates reasons in fixed component order.
type component struct {
	score   float64
	reasons []string
}

// Recommend scores every candidate venue for the user and returns the
// results sorted descending by total score, truncated to the limit
// (DefaultLimit when zero or negative). Ties keep the original candidate
// order via a stable sort, so output is deterministic for a fixed input.
//
// Pass nil weights to use DefaultWeights. The function is pure: it mutates
// none of its inputs and performs no I/O.
func Recommend(in Input, weights *Weights) []Score {
	if weights == nil {
		weights = DefaultWeights()
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	// Favorites and high-rated visits are treated uniformly as liked venues.
	liked := make([]*venue.Venue, 0, len(in.Favorites)+len(in.HighRatedVisits))
	liked = append(liked, in.Favorites...)
	liked = append(liked, in.HighRatedVisits...)

	scores := make([]Score, 0, len(in.Candidates))
	for _, candidate := range in.Candidates {
		scores = append(scores, ScoreVenue(candidate, in.Profile, liked, weights))
	}

	// Stable sort preserves candidate order on equal totals.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})

	if len(scores) > limit {
		scores = scores[:limit]
	}
	return scores
}

// ScoreVenue computes all five component scores for a single candidate and
// combines them into a total. Components are evaluated in fixed order and
// their reasoning strings concatenated in that same order.
func ScoreVenue(v *venue.Venue, profile *user.Profile, liked []*venue.Venue, weights *Weights) Score {
	if weights == nil {
		weights = DefaultWeights()
	}

	var preferred []venue.MusicGenre
	if profile != nil {
		preferred = profile.PreferredGenres
	}

	music := musicMatch(preferred, v)
	neighborhood := neighborhoodMatch(profile, v)
	similar := similarity(v, liked)
	explore := exploration(v, liked)
	comm := community(v)

	total := music.score*weights.Music +
		neighborhood.score*weights.Neighborhood +
		similar.score*weights.Similarity +
		explore.score*weights.Exploration +
		comm.score*weights.Community

	var reasoning []string
	reasoning = append(reasoning, music.reasons...)
	reasoning = append(reasoning, neighborhood.reasons...)
	reasoning = append(reasoning, similar.reasons...)
	reasoning = append(reasoning, explore.reasons...)
	reasoning = append(reasoning, comm.reasons...)

	return Score{
		Venue:             v,
		MusicScore:        music.score,
		NeighborhoodScore: neighborhood.score,
		SimilarityScore:   similar.score,
		ExplorationScore:  explore.score,
		CommunityScore:    comm.score,
		TotalScore:        roundToTenth(total),
		Reasoning:         reasoning,
	}
}

// musicMatch scores genre overlap between the user's preferred genres and
// the venue's genres. Range 4-10, or neutral 5 when either side lists none.
func musicMatch(preferred []venue.MusicGenre, v *venue.Venue) component {
	if len(preferred) == 0 || len(v.MusicGenres) == 0 {
		return component{score: neutralScore}
	}

	var matching []string
	for _, g := range preferred {
		if v.HasGenre(g) {
			matching = append(matching, string(g))
		}
	}
	matchPercentage := float64(len(matching)) / float64(len(preferred))

	switch {
	case matchPercentage >= 0.5:
		return component{
			score:   8 + matchPercentage*2,
			reasons: []string{"Great music match: " + strings.Join(matching, ", ")},
		}
	case matchPercentage > 0:
		return component{
			score:   6 + matchPercentage*2,
			reasons: []string{"Some music overlap: " + strings.Join(matching, ", ")},
		}
	default:
		venueGenres := make([]string, len(v.MusicGenres))
		for i, g := range v.MusicGenres {
			venueGenres[i] = string(g)
		}
		return component{
			score:   4,
			reasons: []string{"Different music style for exploration (" + strings.Join(venueGenres, ", ") + ")"},
		}
	}
}

// neighborhoodMatch scores the venue's neighborhood against the user's
// ranked choices. 10/8/6 for first/second/third choice, 4 with no
// reasoning on mismatch (still some points for exploration), neutral 5
// when the venue has no neighborhood.
func neighborhoodMatch(profile *user.Profile, v *venue.Venue) component {
	if v.Neighborhood == "" {
		return component{score: neutralScore}
	}
	if profile == nil {
		return component{score: 4}
	}

	switch v.Neighborhood {
	case profile.FirstNeighborhood:
		return component{
			score:   10,
			reasons: []string{"Located in your primary area: " + v.Neighborhood},
		}
	case profile.SecondNeighborhood:
		return component{
			score:   8,
			reasons: []string{"Located in your secondary area: " + v.Neighborhood},
		}
	case profile.ThirdNeighborhood:
		return component{
			score:   6,
			reasons: []string{"Located in your third preferred area: " + v.Neighborhood},
		}
	default:
		return component{score: 4}
	}
}

// similarity scores feature overlap with the user's liked venues. Each
// liked venue contributes a 0-4 match count (patio, rooftop, dancefloor,
// same capacity bucket); the counts are averaged and mapped onto 4-10.
// One reasoning line is emitted per liked venue with any match, so the
// same features can appear on multiple lines. Neutral 5 when the user has
// no liked venues yet.
func similarity(v *venue.Venue, liked []*venue.Venue) component {
	if len(liked) == 0 {
		return component{score: neutralScore}
	}

	var reasons []string
	totalMatches := 0
	for _, l := range liked {
		count := 0
		var labels []string
		if v.HasPatio && l.HasPatio {
			count++
			labels = append(labels, "patio")
		}
		if v.HasRooftop && l.HasRooftop {
			count++
			labels = append(labels, "rooftop")
		}
		if v.HasDancefloor && l.HasDancefloor {
			count++
			labels = append(labels, "dancefloor")
		}
		if v.CapacitySize != "" && v.CapacitySize == l.CapacitySize {
			count++
			labels = append(labels, "similar size")
		}
		if count > 0 {
			reasons = append(reasons, "Similar features to your favorites: "+strings.Join(labels, ", "))
		}
		totalMatches += count
	}

	avgSimilarity := float64(totalMatches) / float64(len(liked))
	return component{
		score:   math.Min(avgSimilarity*2+4, 10),
		reasons: reasons,
	}
}

// exploration rewards venues unlike what the user already likes: +2 for an
// unfamiliar vibe, +1 for a new capacity bucket, +1 for a first rooftop,
// +1 for first live music, on a base of 5, capped at 10. With no liked
// venues there is nothing to be novel against, so it stays at the neutral
// baseline with no bonuses.
func exploration(v *venue.Venue, liked []*venue.Venue) component {
	if len(liked) == 0 {
		return component{score: neutralScore}
	}

	likedVibes := make(map[string]bool)
	likedSizes := make(map[venue.CapacitySize]bool)
	likedRooftop := false
	likedLiveMusic := false
	for _, l := range liked {
		if l.TypicalVibe != "" {
			likedVibes[l.TypicalVibe] = true
		}
		if l.CapacitySize != "" {
			likedSizes[l.CapacitySize] = true
		}
		if l.HasRooftop {
			likedRooftop = true
		}
		if l.HasLiveMusic() {
			likedLiveMusic = true
		}
	}

	score := 5.0
	var reasons []string

	if v.TypicalVibe != "" && !likedVibes[v.TypicalVibe] {
		score += 2
		reasons = append(reasons, "New experience: "+v.TypicalVibe)
	}
	if v.CapacitySize != "" && !likedSizes[v.CapacitySize] {
		score++
	}
	if v.HasRooftop && !likedRooftop {
		score++
		reasons = append(reasons, "New feature: rooftop")
	}
	if v.HasLiveMusic() && !likedLiveMusic {
		score++
		reasons = append(reasons, "New feature: live music")
	}

	return component{
		score:   math.Min(score, 10),
		reasons: reasons,
	}
}

// community passes through the venue's raw service rating, defaulting to 5
// when no ratings exist. The rating is not clamped. Reasoning is only
// emitted for highly rated venues (>= 8).
func community(v *venue.Venue) component {
	rating := v.ServiceRating
	if rating == 0 {
		rating = neutralScore
	}

	var reasons []string
	if rating >= 8 {
		reasons = []string{"Highly rated by community (" + formatRating(rating) + "/10)"}
	}
	return component{score: rating, reasons: reasons}
}

// formatRating renders a rating without trailing zeros (9 not 9.0, 8.5 stays 8.5).
func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// roundToTenth rounds half-up to one decimal place.
func roundToTenth(x float64) float64 {
	return math.Round(x*10) / 10
}
