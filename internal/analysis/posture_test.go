package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poise/internal/domain/perception"
)

// idealPose is an upright, open stance with level shoulders
func idealPose() perception.PoseFeatures {
	return perception.PoseFeatures{
		Landmarks: map[string]perception.Point3{
			perception.LandmarkNose:          {X: 0.50, Y: 0.20},
			perception.LandmarkLeftShoulder:  {X: 0.40, Y: 0.35},
			perception.LandmarkRightShoulder: {X: 0.60, Y: 0.35},
			perception.LandmarkLeftElbow:     {X: 0.35, Y: 0.50},
			perception.LandmarkRightElbow:    {X: 0.65, Y: 0.50},
			perception.LandmarkLeftWrist:     {X: 0.38, Y: 0.62},
			perception.LandmarkRightWrist:    {X: 0.62, Y: 0.62},
			perception.LandmarkLeftHip:       {X: 0.43, Y: 0.70},
			perception.LandmarkRightHip:      {X: 0.57, Y: 0.70},
		},
		DetectionScore: 0.95,
	}
}

func TestPostureScorer_IdealPose(t *testing.T) {
	s := NewPostureScorer()
	scores, _ := s.Score(Input{Features: idealPose()})
	require.NotNil(t, scores)

	assert.Equal(t, 100.0, scores["shoulder_level"])
	assert.Equal(t, 100.0, scores["spine_straightness"])
	assert.Equal(t, 100.0, scores["head_level"])
	// Wrist separation 0.24 over shoulder width 0.2 lands in the open band
	assert.Equal(t, 100.0, scores["openness"])
	// No motion history yet, stability stays neutral
	assert.Equal(t, ScoreGood, scores["stability"])
}

func TestPostureScorer_TiltedShoulders(t *testing.T) {
	pose := idealPose()
	lm := pose.Landmarks
	p := lm[perception.LandmarkLeftShoulder]
	p.Y += 0.05
	lm[perception.LandmarkLeftShoulder] = p

	scores, tips := NewPostureScorer().Score(Input{Features: pose})
	require.NotNil(t, scores)
	assert.InDelta(t, 50.0, scores["shoulder_level"], 1e-9)

	// A sub-score below fair yields a corrective tip
	var corrective bool
	for _, tip := range tips {
		if !tip.Positive && tip.Text == "Level your shoulders, one side is dipping" {
			corrective = true
		}
	}
	assert.True(t, corrective)
}

func TestPostureScorer_HeadLevelUsesBaseline(t *testing.T) {
	pose := idealPose()
	lm := pose.Landmarks
	nose := lm[perception.LandmarkNose]
	nose.X = 0.55 // habitual off-center head
	lm[perception.LandmarkNose] = nose

	s := NewPostureScorer()

	// Without a baseline the offset is penalized
	noBase, _ := s.Score(Input{Features: pose})
	assert.Less(t, noBase["head_level"], 100.0)

	// A baseline capturing the same resting offset neutralizes it
	baseline := pose.Vector()
	withBase, _ := s.Score(Input{Features: pose, Baseline: baseline})
	assert.Equal(t, 100.0, withBase["head_level"])
}

func TestPostureScorer_StabilityPenalizesMotion(t *testing.T) {
	s := NewPostureScorer()

	still := [][]float64{{0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5}}
	stillScores, _ := s.Score(Input{Features: idealPose(), History: still})
	assert.Equal(t, 100.0, stillScores["stability"])

	fidgety := [][]float64{{0.5, 0.5}, {0.55, 0.45}, {0.48, 0.52}}
	fidgetScores, _ := s.Score(Input{Features: idealPose(), History: fidgety})
	assert.Less(t, fidgetScores["stability"], 100.0)
	assert.GreaterOrEqual(t, fidgetScores["stability"], 0.0)
}

func TestPostureScorer_MissingLandmarksStayNeutral(t *testing.T) {
	pose := perception.PoseFeatures{
		Landmarks: map[string]perception.Point3{
			perception.LandmarkNose: {X: 0.5, Y: 0.2},
		},
	}
	scores, _ := NewPostureScorer().Score(Input{Features: pose})
	require.NotNil(t, scores)
	assert.Equal(t, ScoreGood, scores["shoulder_level"])
	assert.Equal(t, ScoreGood, scores["spine_straightness"])
	assert.Equal(t, ScoreGood, scores["openness"])
}

func TestPostureScorer_WrongFeatureType(t *testing.T) {
	scores, tips := NewPostureScorer().Score(Input{Features: perception.VoiceFeatures{}})
	assert.Nil(t, scores)
	assert.Nil(t, tips)
}

func TestPostureScorer_ScoresStayInRange(t *testing.T) {
	// Adversarial landmark values must never escape [0, 100]
	pose := perception.PoseFeatures{
		Landmarks: map[string]perception.Point3{
			perception.LandmarkNose:          {X: 50, Y: -50},
			perception.LandmarkLeftShoulder:  {X: -10, Y: 90},
			perception.LandmarkRightShoulder: {X: 10, Y: -90},
			perception.LandmarkLeftWrist:     {X: -100, Y: 0},
			perception.LandmarkRightWrist:    {X: 100, Y: 0},
			perception.LandmarkLeftHip:       {X: 40, Y: 1},
			perception.LandmarkRightHip:      {X: -40, Y: 1},
		},
	}
	history := [][]float64{{0}, {1000}, {-1000}}
	scores, _ := NewPostureScorer().Score(Input{Features: pose, History: history})
	require.NotNil(t, scores)
	for name, v := range scores {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 100.0, name)
	}
}
