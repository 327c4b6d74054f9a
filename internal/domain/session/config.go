package session

import (
	"math"
	"time"

	"poise/pkg/errors"
)

// weightTolerance is the allowed deviation of the fusion weight sum from 1.0
const weightTolerance = 1e-2

// FusionWeights are the per-component weights of the overall score
type FusionWeights struct {
	Body    float64 `json:"body"`
	Vocal   float64 `json:"vocal"`
	Content float64 `json:"content"`
}

// Sum returns the total weight
func (w FusionWeights) Sum() float64 {
	return w.Body + w.Vocal + w.Content
}

// Config is the per-session pipeline configuration. Zero values are filled
// from platform defaults before validation.
type Config struct {
	Weights           FusionWeights
	CalibrationFrames map[Modality]int
	AnalysisInterval  time.Duration
	PassTimeout       time.Duration

	// Outbound event shaping
	FeedbackEventRate  float64
	FeedbackEventBurst int
}

// Validate rejects misconfigured sessions at start, never at runtime
func (c Config) Validate() error {
	if diff := math.Abs(c.Weights.Sum() - 1.0); diff > weightTolerance {
		return errors.Wrapf(errors.ErrInvalidConfiguration,
			"fusion weights must sum to 1.0, got %.3f", c.Weights.Sum())
	}
	if c.Weights.Body < 0 || c.Weights.Vocal < 0 || c.Weights.Content < 0 {
		return errors.Wrapf(errors.ErrInvalidConfiguration, "fusion weights must be non-negative")
	}
	for m, k := range c.CalibrationFrames {
		if k < 0 {
			return errors.Wrapf(errors.ErrInvalidConfiguration,
				"calibration frames for %s must be >= 0, got %d", m, k)
		}
	}
	if c.AnalysisInterval <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfiguration,
			"analysis interval must be positive, got %v", c.AnalysisInterval)
	}
	if c.PassTimeout <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfiguration,
			"pass timeout must be positive, got %v", c.PassTimeout)
	}
	return nil
}
