package analysis

import (
	"math"

	"poise/internal/domain/perception"
	"poise/internal/domain/session"
)

// Posture tuning constants. Landmark coordinates are normalized to the
// frame, so slopes are large.
const (
	shoulderLevelSlope = 1000.0
	spineLeanSlope     = 800.0
	headTiltSlope      = 600.0
	motionSlope        = 2500.0

	opennessLow   = 0.8
	opennessHigh  = 2.0
	opennessSlope = 60.0
)

var postureTips = map[string]tipTexts{
	"shoulder_level": {
		low:  "Level your shoulders, one side is dipping",
		high: "Great shoulder posture, keep it up",
	},
	"spine_straightness": {
		low:  "Straighten up, you are leaning to one side",
		high: "Excellent upright posture",
	},
	"head_level": {
		low:  "Keep your head level and facing forward",
		high: "Nice steady head position",
	},
	"openness": {
		low:  "Open up your gestures, avoid crossing your arms",
		high: "Great open body language",
	},
	"stability": {
		low:  "Try to reduce fidgeting and stay grounded",
		high: "Very composed, minimal fidgeting",
	},
}

// PostureScorer scores body posture and movement from pose landmarks.
type PostureScorer struct{}

func NewPostureScorer() *PostureScorer { return &PostureScorer{} }

func (s *PostureScorer) Modality() session.Modality { return session.ModalityPosture }

func (s *PostureScorer) Score(in Input) (map[string]float64, []session.Tip) {
	pose, ok := in.Features.(perception.PoseFeatures)
	if !ok {
		return nil, nil
	}

	scores := map[string]float64{
		"shoulder_level":     s.shoulderLevel(pose),
		"spine_straightness": s.spineStraightness(pose),
		"head_level":         s.headLevel(pose, in.Baseline),
		"openness":           s.openness(pose),
		"stability":          s.stability(in.History),
	}
	return scores, selectTips(session.ModalityPosture, scores, postureTips)
}

func (s *PostureScorer) shoulderLevel(pose perception.PoseFeatures) float64 {
	ls, okL := pose.Landmark(perception.LandmarkLeftShoulder)
	rs, okR := pose.Landmark(perception.LandmarkRightShoulder)
	if !okL || !okR {
		return ScoreGood
	}
	return deviationScore(ls.Y-rs.Y, shoulderLevelSlope)
}

func (s *PostureScorer) spineStraightness(pose perception.PoseFeatures) float64 {
	ls, okL := pose.Landmark(perception.LandmarkLeftShoulder)
	rs, okR := pose.Landmark(perception.LandmarkRightShoulder)
	lh, okLH := pose.Landmark(perception.LandmarkLeftHip)
	rh, okRH := pose.Landmark(perception.LandmarkRightHip)
	if !okL || !okR || !okLH || !okRH {
		return ScoreGood
	}
	shoulderMid := (ls.X + rs.X) / 2
	hipMid := (lh.X + rh.X) / 2
	return deviationScore(shoulderMid-hipMid, spineLeanSlope)
}

// headLevel measures the nose offset from the shoulder midpoint. With a
// calibrated baseline the deviation is taken against the person's own
// resting head position instead of the geometric center.
func (s *PostureScorer) headLevel(pose perception.PoseFeatures, baseline []float64) float64 {
	nose, okN := pose.Landmark(perception.LandmarkNose)
	ls, okL := pose.Landmark(perception.LandmarkLeftShoulder)
	rs, okR := pose.Landmark(perception.LandmarkRightShoulder)
	if !okN || !okL || !okR {
		return ScoreGood
	}
	offset := nose.X - (ls.X+rs.X)/2
	// Baseline vector layout starts with the nose, then shoulders.
	if len(baseline) >= 9 {
		baseOffset := baseline[0] - (baseline[3]+baseline[6])/2
		offset -= baseOffset
	}
	return deviationScore(offset, headTiltSlope)
}

// openness relates wrist separation to shoulder width. A ratio near 1
// means hands hang naturally; much below means closed-off arms.
func (s *PostureScorer) openness(pose perception.PoseFeatures) float64 {
	lw, okLW := pose.Landmark(perception.LandmarkLeftWrist)
	rw, okRW := pose.Landmark(perception.LandmarkRightWrist)
	ls, okL := pose.Landmark(perception.LandmarkLeftShoulder)
	rs, okR := pose.Landmark(perception.LandmarkRightShoulder)
	if !okLW || !okRW || !okL || !okR {
		return ScoreGood
	}
	shoulderWidth := math.Abs(ls.X - rs.X)
	if shoulderWidth < 1e-6 {
		return ScoreGood
	}
	ratio := math.Abs(lw.X-rw.X) / shoulderWidth
	return bandScore(ratio, opennessLow, opennessHigh, opennessSlope)
}

// stability inverts the mean frame-to-frame landmark motion over the
// rolling window. A single frame of history scores neutral.
func (s *PostureScorer) stability(history [][]float64) float64 {
	if len(history) < 2 {
		return ScoreGood
	}
	var total float64
	var steps int
	for i := 1; i < len(history); i++ {
		prev, cur := history[i-1], history[i]
		if len(prev) != len(cur) || len(cur) == 0 {
			continue
		}
		var sum float64
		for j := range cur {
			d := cur[j] - prev[j]
			sum += d * d
		}
		total += math.Sqrt(sum / float64(len(cur)))
		steps++
	}
	if steps == 0 {
		return ScoreGood
	}
	return deviationScore(total/float64(steps), motionSlope)
}
