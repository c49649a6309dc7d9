// Package recs provides the personalized venue recommendation scorer
// with calibration support for deploy-time weight tuning.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	weights, err := recs.LoadCalibration("configs/recs.calibration.json")
//	if err != nil {
//		log.Warn("using default weights", "error", err)
//	}
//
//	// Score candidates for a user
//	scores := recs.Recommend(recs.Input{
//		Profile:         profile,
//		Favorites:       favoritedVenues,
//		HighRatedVisits: highRatedVenues,
//		Candidates:      candidateVenues,
//		Limit:           10,
//	}, weights)
//
// Component Scores:
//
// Each candidate venue receives five independent component scores (music
// match, neighborhood match, similarity to liked venues, exploration bonus,
// community rating), each nominally on a 0-10 scale. Components that lack
// the data to judge a venue return a neutral 5 rather than failing, so
// incomplete venue or profile data degrades to "average" relevance.
//
// Every component also produces zero or more human-readable reasoning
// strings explaining its contribution. Reasons are concatenated in fixed
// component order and returned alongside the scores, never reordered or
// deduplicated.
//
// Calibration:
//
// The calibration system allows deploy-time tuning of component weights via
// JSON configuration files loaded at startup. The default weights sum to
// 1.0 and match the published scoring algorithm revision (see Version);
// overriding them changes observable totals, so bump Version when shipping
// a recalibration.
package recs
