package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poise/internal/domain/perception"
)

func TestFaceScorer_DirectGaze(t *testing.T) {
	s := NewFaceScorer(time.Second)
	face := perception.FaceFeatures{GazeOffset: 0, SmileIntensity: 0.3, DetectionScore: 0.9}

	scores, _ := s.Score(Input{Features: face})
	require.NotNil(t, scores)
	assert.Equal(t, 100.0, scores["eye_contact"])
	assert.Equal(t, 100.0, scores["smile"])
	// Short windows keep the temporal sub-scores neutral
	assert.Equal(t, ScoreGood, scores["blink_rate"])
	assert.Equal(t, ScoreGood, scores["expression_variety"])
}

func TestFaceScorer_GazeRelativeToBaseline(t *testing.T) {
	s := NewFaceScorer(time.Second)
	// Person habitually sits slightly off-center
	face := perception.FaceFeatures{GazeOffset: 0.2}

	noBase, _ := s.Score(Input{Features: face})
	assert.InDelta(t, 60.0, noBase["eye_contact"], 1e-9)

	withBase, _ := s.Score(Input{Features: face, Baseline: []float64{0.2, 0.8, 0, 0.3, 0.1}})
	assert.Equal(t, 100.0, withBase["eye_contact"])
}

func TestFaceScorer_BlinkRate(t *testing.T) {
	s := NewFaceScorer(time.Second)

	// 12 one-second samples with 3 blinks is 15 blinks/min, in range
	normal := make([][]float64, 12)
	for i := range normal {
		vec := []float64{0, 0.8, 0, 0.3, 0.1}
		if i%4 == 0 {
			vec[faceVecBlink] = 1
		}
		normal[i] = vec
	}
	scores, _ := s.Score(Input{Features: perception.FaceFeatures{}, History: normal})
	assert.Equal(t, 100.0, scores["blink_rate"])

	// Blinking every sample is 60/min, far over the band
	rapid := make([][]float64, 12)
	for i := range rapid {
		rapid[i] = []float64{0, 0.8, 1, 0.3, 0.1}
	}
	scores, _ = s.Score(Input{Features: perception.FaceFeatures{}, History: rapid})
	assert.Equal(t, 0.0, scores["blink_rate"])
}

func TestFaceScorer_ExpressionVariety(t *testing.T) {
	s := NewFaceScorer(time.Second)

	flat := [][]float64{
		{0, 0.8, 0, 0.30, 0.10},
		{0, 0.8, 0, 0.30, 0.10},
		{0, 0.8, 0, 0.30, 0.10},
	}
	scores, _ := s.Score(Input{Features: perception.FaceFeatures{}, History: flat})
	assert.InDelta(t, 0.0, scores["expression_variety"], 1e-9)

	lively := [][]float64{
		{0, 0.8, 0, 0.10, 0.05},
		{0, 0.8, 0, 0.60, 0.30},
		{0, 0.8, 0, 0.25, 0.15},
	}
	scores, _ = s.Score(Input{Features: perception.FaceFeatures{}, History: lively})
	assert.Greater(t, scores["expression_variety"], 50.0)
}

func TestFaceScorer_WrongFeatureType(t *testing.T) {
	scores, tips := NewFaceScorer(time.Second).Score(Input{Features: SpeechFeatures{}})
	assert.Nil(t, scores)
	assert.Nil(t, tips)
}
