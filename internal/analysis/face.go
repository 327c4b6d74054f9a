package analysis

import (
	"time"

	"poise/internal/domain/perception"
	"poise/internal/domain/session"
)

// Facial tuning constants
const (
	gazeSlope = 200.0

	blinkRateLow   = 8.0  // blinks per minute
	blinkRateHigh  = 25.0
	blinkRateSlope = 3.0

	smileLow   = 0.15
	smileHigh  = 0.75
	smileSlope = 120.0

	varietySlope = 400.0
)

// Indices into the face feature vector, matching FaceFeatures.Vector
const (
	faceVecGaze = iota
	faceVecEyeOpen
	faceVecBlink
	faceVecSmile
	faceVecBrow
)

var faceTips = map[string]tipTexts{
	"eye_contact": {
		low:  "Look toward the camera to hold eye contact",
		high: "Strong eye contact, well done",
	},
	"blink_rate": {
		low:  "Relax your eyes, your blink rate is off its natural range",
		high: "",
	},
	"smile": {
		low:  "Let some warmth show, a light smile helps",
		high: "Warm, engaging expression",
	},
	"expression_variety": {
		low:  "Vary your expression to match what you are saying",
		high: "Expressive and lively delivery",
	},
}

// FaceScorer scores eye contact and expressiveness from facial features.
// The analysis interval sets the time base for blink rate.
type FaceScorer struct {
	interval time.Duration
}

func NewFaceScorer(interval time.Duration) *FaceScorer {
	if interval <= 0 {
		interval = time.Second
	}
	return &FaceScorer{interval: interval}
}

func (s *FaceScorer) Modality() session.Modality { return session.ModalityFace }

func (s *FaceScorer) Score(in Input) (map[string]float64, []session.Tip) {
	face, ok := in.Features.(perception.FaceFeatures)
	if !ok {
		return nil, nil
	}

	scores := map[string]float64{
		"eye_contact":        s.eyeContact(face, in.Baseline),
		"blink_rate":         s.blinkRate(in.History),
		"smile":              bandScore(face.SmileIntensity, smileLow, smileHigh, smileSlope),
		"expression_variety": s.variety(in.History),
	}
	return scores, selectTips(session.ModalityFace, scores, faceTips)
}

// eyeContact inverts the gaze offset from center, relative to the
// person's calibrated resting gaze when available.
func (s *FaceScorer) eyeContact(face perception.FaceFeatures, baseline []float64) float64 {
	offset := face.GazeOffset
	if len(baseline) > faceVecGaze {
		offset -= baseline[faceVecGaze]
	}
	return deviationScore(offset, gazeSlope)
}

// blinkRate converts the blink flags in the rolling window into blinks
// per minute. Short windows score neutral.
func (s *FaceScorer) blinkRate(history [][]float64) float64 {
	blinks := column(history, faceVecBlink)
	if len(blinks) < 5 {
		return ScoreGood
	}
	windowMinutes := float64(len(blinks)) * s.interval.Minutes()
	if windowMinutes <= 0 {
		return ScoreGood
	}
	var count float64
	for _, b := range blinks {
		if b > 0.5 {
			count++
		}
	}
	perMinute := count / windowMinutes
	return bandScore(perMinute, blinkRateLow, blinkRateHigh, blinkRateSlope)
}

// variety rewards movement in smile and brow across the window. A flat
// face scores low, a lively one high.
func (s *FaceScorer) variety(history [][]float64) float64 {
	if len(history) < 3 {
		return ScoreGood
	}
	spread := stddev(column(history, faceVecSmile)) + stddev(column(history, faceVecBrow))
	return clamp(spread * varietySlope)
}
