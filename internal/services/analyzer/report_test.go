package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poise/internal/domain/session"
)

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   session.Trend
	}{
		{
			name:   "too few frames always stable",
			series: []float64{10, 90, 10, 90, 10},
			want:   session.TrendStable,
		},
		{
			name:   "clear improvement",
			series: []float64{50, 50, 50, 70, 70, 70},
			want:   session.TrendImproving,
		},
		{
			name:   "clear decline",
			series: []float64{80, 80, 80, 60, 60, 60},
			want:   session.TrendDeclining,
		},
		{
			name:   "small drift stays stable",
			series: []float64{70, 71, 70, 72, 71, 72},
			want:   session.TrendStable,
		},
		{
			name:   "long session compares the last two windows",
			series: flatThenRise(30),
			want:   session.TrendImproving,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyTrend(tt.series))
		})
	}
}

// flatThenRise builds n frames where the final ten sit well above the rest
func flatThenRise(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i >= n-10 {
			out[i] = 85
		} else {
			out[i] = 60
		}
	}
	return out
}

func TestAggregate(t *testing.T) {
	empty := aggregate(nil)
	assert.Equal(t, 0.0, empty.Average)
	assert.Equal(t, session.TrendStable, empty.Trend)

	steady := aggregate([]float64{80, 80, 80})
	assert.Equal(t, 80.0, steady.Average)
	assert.Equal(t, 100.0, steady.Consistency)

	// Wild swings cost consistency
	wild := aggregate([]float64{20, 90, 20, 90})
	assert.Less(t, wild.Consistency, steady.Consistency)
}

func TestScoredFrames(t *testing.T) {
	history := []session.AnalysisFrame{
		frameWith(map[session.Modality]session.ModalityResult{
			session.ModalityPosture: session.SuccessResult(map[string]float64{"a": 80}, nil),
			session.ModalityVoice:   session.CalibratingResult(0.5),
		}),
		frameWith(map[session.Modality]session.ModalityResult{
			session.ModalityPosture: session.CalibratingResult(0.8),
			session.ModalityVoice:   session.CalibratingResult(0.8),
		}),
		frameWith(map[session.Modality]session.ModalityResult{
			session.ModalityVoice: session.ErrorResult("boom"),
		}),
	}
	// Only the first frame has any scored modality
	assert.Equal(t, 1, scoredFrames(history))
}

func TestPersonalize_Thresholds(t *testing.T) {
	report := session.Report{
		OverallScore:   62,
		BodyLanguage:   session.ComponentScore{Average: 85},
		VocalDelivery:  session.ComponentScore{Average: 62},
		ContentQuality: session.ComponentScore{Average: 40},
	}

	fb := personalize(report)
	// Strong body, mid vocal, weak content
	assert.Contains(t, fb.Strengths, feedbackTemplates[componentBody].strength)
	assert.Contains(t, fb.SpecificSuggestions, feedbackTemplates[componentVocal].suggestion)
	assert.Contains(t, fb.AreasForImprovement, feedbackTemplates[componentContent].improvement)

	// The weakest failing component takes priority focus
	assert.Equal(t, componentContent, fb.PriorityFocus)
	assert.Len(t, fb.NextSteps, 2)
}

func TestPersonalize_PriorityFocusLadder(t *testing.T) {
	mid := session.Report{
		OverallScore:   65,
		BodyLanguage:   session.ComponentScore{Average: 65},
		VocalDelivery:  session.ComponentScore{Average: 65},
		ContentQuality: session.ComponentScore{Average: 65},
	}
	assert.Equal(t, focusOverall, personalize(mid).PriorityFocus)

	strong := session.Report{
		OverallScore:   88,
		BodyLanguage:   session.ComponentScore{Average: 88},
		VocalDelivery:  session.ComponentScore{Average: 88},
		ContentQuality: session.ComponentScore{Average: 88},
	}
	assert.Equal(t, focusAdvanced, personalize(strong).PriorityFocus)
}

func TestBuildPlan_TimelineBuckets(t *testing.T) {
	mk := func(overall float64) session.Report {
		r := session.Report{
			OverallScore:   overall,
			BodyLanguage:   session.ComponentScore{Average: overall},
			VocalDelivery:  session.ComponentScore{Average: overall},
			ContentQuality: session.ComponentScore{Average: overall},
		}
		r.Feedback = personalize(r)
		return r
	}

	excellent := buildPlan(mk(90))
	assert.Equal(t, "1-2 weeks", excellent.Timeline)
	assert.Equal(t, "refinement", excellent.FocusArea)

	good := buildPlan(mk(75))
	assert.Equal(t, "2-4 weeks", good.Timeline)
	assert.Equal(t, "enhancement", good.FocusArea)

	weak := buildPlan(mk(50))
	assert.Equal(t, "4-8 weeks", weak.Timeline)
	assert.Equal(t, "fundamental improvement", weak.FocusArea)
}

func TestBuildPlan_SuccessTargetsCapped(t *testing.T) {
	report := session.Report{
		OverallScore:   92,
		BodyLanguage:   session.ComponentScore{Average: 95},
		VocalDelivery:  session.ComponentScore{Average: 60},
		ContentQuality: session.ComponentScore{Average: 88},
	}
	report.Feedback = personalize(report)

	plan := buildPlan(report)
	assert.Equal(t, 100.0, plan.SuccessMetrics.TargetOverall) // 92+15 capped
	assert.Equal(t, 100.0, plan.SuccessMetrics.TargetBody)    // 95+10 capped
	assert.Equal(t, 70.0, plan.SuccessMetrics.TargetVocal)
	assert.Equal(t, 98.0, plan.SuccessMetrics.TargetContent)
	assert.Equal(t, 70.0, plan.SuccessMetrics.SuccessThreshold)

	require.Len(t, plan.WeeklyGoals, 2)
	assert.Contains(t, plan.WeeklyGoals[1].Target, "100")
}

func TestBuildPlan_ResourcesFollowFocus(t *testing.T) {
	report := session.Report{
		OverallScore:   50,
		BodyLanguage:   session.ComponentScore{Average: 40},
		VocalDelivery:  session.ComponentScore{Average: 70},
		ContentQuality: session.ComponentScore{Average: 70},
	}
	report.Feedback = personalize(report)

	plan := buildPlan(report)
	assert.Equal(t, componentBody, plan.PriorityComponent)
	require.NotEmpty(t, plan.Resources)
	assert.Equal(t, "Posture reset drill", plan.Resources[0].Title)
}
