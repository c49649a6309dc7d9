package recs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Weights defines how much each component score contributes to the total.
type Weights struct {
	Music        float64 `json:"music"`        // Music genre overlap (default: 0.30)
	Neighborhood float64 `json:"neighborhood"` // Neighborhood preference match (default: 0.25)
	Similarity   float64 `json:"similarity"`   // Feature similarity to liked venues (default: 0.20)
	Exploration  float64 `json:"exploration"`  // Novelty bonus (default: 0.15)
	Community    float64 `json:"community"`    // Community service rating (default: 0.10)
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configuration
}

// DefaultWeights returns the default component weight configuration.
// The weights sum to 1.0, so the total score stays on the same 0-10 scale
// as the components:
//
//	total = music*0.30 + neighborhood*0.25 + similarity*0.20 + exploration*0.15 + community*0.10
//
// Music overlap dominates because genre fit is the strongest predictor of
// whether someone enjoys a night out; community rating is deliberately the
// smallest slice so popular venues don't drown out personal fit.
func DefaultWeights() *Weights {
	return &Weights{
		Music:        0.30,
		Neighborhood: 0.25,
		Similarity:   0.20,
		Exploration:  0.15,
		Community:    0.10,
	}
}

// LoadCalibration loads component weights from a JSON calibration file.
// If the file doesn't exist or can't be parsed, returns default weights
// with an error so the caller can log and continue.
// Partial configurations are merged with defaults for graceful degradation.
func LoadCalibration(filePath string) (*Weights, error) {
	// Return defaults if no file path provided
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights with base weights.
// Only non-zero values from the override are applied, which allows
// partial overrides in the calibration file.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	// Guard against nil base to avoid panics; fall back to defaults.
	if base == nil {
		return DefaultWeights()
	}

	// If there is no override provided, return a copy of the base.
	if override == nil {
		result := *base
		return &result
	}

	result := *base // Copy base

	if override.Music != 0 {
		result.Music = override.Music
	}
	if override.Neighborhood != 0 {
		result.Neighborhood = override.Neighborhood
	}
	if override.Similarity != 0 {
		result.Similarity = override.Similarity
	}
	if override.Exploration != 0 {
		result.Exploration = override.Exploration
	}
	if override.Community != 0 {
		result.Community = override.Community
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	if loaded.Music != defaults.Music {
		overrides = append(overrides, fmt.Sprintf("music: %.2f -> %.2f",
			defaults.Music, loaded.Music))
	}
	if loaded.Neighborhood != defaults.Neighborhood {
		overrides = append(overrides, fmt.Sprintf("neighborhood: %.2f -> %.2f",
			defaults.Neighborhood, loaded.Neighborhood))
	}
	if loaded.Similarity != defaults.Similarity {
		overrides = append(overrides, fmt.Sprintf("similarity: %.2f -> %.2f",
			defaults.Similarity, loaded.Similarity))
	}
	if loaded.Exploration != defaults.Exploration {
		overrides = append(overrides, fmt.Sprintf("exploration: %.2f -> %.2f",
			defaults.Exploration, loaded.Exploration))
	}
	if loaded.Community != defaults.Community {
		overrides = append(overrides, fmt.Sprintf("community: %.2f -> %.2f",
			defaults.Community, loaded.Community))
	}

	if len(overrides) > 0 {
		slog.Info("loaded recommendation calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded recommendation calibration (using all defaults)")
	}
}
