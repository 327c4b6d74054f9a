package analysis

import (
	"math"
	"sort"

	"poise/internal/domain/perception"
	"poise/internal/domain/session"
)

// Score thresholds shared by all modalities
const (
	ScoreExcellent = 85.0
	ScoreGood      = 70.0
	ScoreFair      = 55.0
)

// Input carries everything a scorer needs for one pass of one modality.
type Input struct {
	// Features is the modality's per-pass feature struct. Each scorer
	// asserts its own concrete type.
	Features perception.FeatureVector

	// Baseline is the calibrated personal baseline vector, nil when the
	// modality does not calibrate.
	Baseline []float64

	// History is the rolling window of recent feature vectors, newest
	// last and including the current pass.
	History [][]float64
}

// Scorer turns one modality's features into named 0-100 sub-scores and
// at most one positive plus one corrective tip. Implementations hold the
// tuning constants; orchestration stays formula-free.
type Scorer interface {
	Modality() session.Modality
	Score(in Input) (map[string]float64, []session.Tip)
}

// clamp limits v to [0, 100]
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// bandScore gives full marks inside [lo, hi] and a linear falloff of
// slope points per unit outside the band.
func bandScore(v, lo, hi, slope float64) float64 {
	switch {
	case v < lo:
		return clamp(100 - (lo-v)*slope)
	case v > hi:
		return clamp(100 - (v-hi)*slope)
	default:
		return 100
	}
}

// deviationScore inverts a distance: zero distance scores 100, each unit
// of distance costs slope points.
func deviationScore(dist, slope float64) float64 {
	return clamp(100 - math.Abs(dist)*slope)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// column extracts one component across a window of feature vectors,
// skipping vectors that are too short.
func column(history [][]float64, idx int) []float64 {
	out := make([]float64, 0, len(history))
	for _, vec := range history {
		if idx < len(vec) {
			out = append(out, vec[idx])
		}
	}
	return out
}

// tipTexts maps a sub-score name to its corrective and positive messages
type tipTexts struct {
	low  string
	high string
}

// selectTips picks at most one positive and one corrective tip from the
// sub-scores. The corrective tip targets the lowest sub-score under the
// fair threshold; the positive tip the highest at or above excellent.
// Names are scanned in sorted order so ties resolve deterministically.
func selectTips(m session.Modality, scores map[string]float64, texts map[string]tipTexts) []session.Tip {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		worstName, bestName string
		worst               = math.Inf(1)
		best                = math.Inf(-1)
	)
	for _, name := range names {
		if _, ok := texts[name]; !ok {
			continue
		}
		v := scores[name]
		if v < worst {
			worst, worstName = v, name
		}
		if v > best {
			best, bestName = v, name
		}
	}

	var tips []session.Tip
	if bestName != "" && best >= ScoreExcellent && texts[bestName].high != "" {
		tips = append(tips, session.Tip{
			Text:     texts[bestName].high,
			Modality: m,
			Positive: true,
		})
	}
	if worstName != "" && worst < ScoreFair && texts[worstName].low != "" {
		tips = append(tips, session.Tip{
			Text:     texts[worstName].low,
			Modality: m,
			Priority: ScoreGood - worst,
		})
	}
	return tips
}
