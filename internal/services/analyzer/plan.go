package analyzer

import (
	"fmt"

	"poise/internal/analysis"
	"poise/internal/domain/session"
)

// componentFeedback holds the template text for one scoring component
type componentFeedback struct {
	strength    string
	improvement string
	suggestion  string
}

var feedbackTemplates = map[string]componentFeedback{
	componentBody: {
		strength:    "Strong, composed body language throughout the session",
		improvement: "Body language needs attention, posture and gestures are undermining your message",
		suggestion:  "Practice in front of a mirror focusing on level shoulders and open gestures",
	},
	componentVocal: {
		strength:    "Clear, confident vocal delivery",
		improvement: "Vocal delivery is inconsistent, volume and pitch are working against you",
		suggestion:  "Record yourself and listen for volume drops and pitch swings, then re-record",
	},
	componentContent: {
		strength:    "Well structured, engaging content",
		improvement: "Content needs more structure and cleaner delivery",
		suggestion:  "Outline three key points before speaking and link them with explicit transitions",
	},
}

// personalize classifies each component against the shared thresholds
// and emits the matching template text.
func personalize(report session.Report) session.PersonalizedFeedback {
	components := []struct {
		name  string
		score float64
	}{
		{componentBody, report.BodyLanguage.Average},
		{componentVocal, report.VocalDelivery.Average},
		{componentContent, report.ContentQuality.Average},
	}

	fb := session.PersonalizedFeedback{}
	lowest := components[0]
	for _, c := range components {
		if c.score < lowest.score {
			lowest = c
		}
		t := feedbackTemplates[c.name]
		switch {
		case c.score >= analysis.ScoreGood:
			fb.Strengths = append(fb.Strengths, t.strength)
		case c.score < analysis.ScoreFair:
			fb.AreasForImprovement = append(fb.AreasForImprovement, t.improvement)
			fb.SpecificSuggestions = append(fb.SpecificSuggestions, t.suggestion)
		default:
			fb.SpecificSuggestions = append(fb.SpecificSuggestions, t.suggestion)
		}
	}

	switch {
	case lowest.score < analysis.ScoreFair:
		fb.PriorityFocus = lowest.name
	case report.OverallScore < analysis.ScoreGood:
		fb.PriorityFocus = focusOverall
	default:
		fb.PriorityFocus = focusAdvanced
	}

	fb.NextSteps = []string{
		fmt.Sprintf("Run another session this week and compare against today's %.0f overall", report.OverallScore),
		fmt.Sprintf("Spend two short practice blocks on: %s", fb.PriorityFocus),
	}
	return fb
}

// buildPlan derives the structured practice plan from the report scores
func buildPlan(report session.Report) session.ImprovementPlan {
	plan := session.ImprovementPlan{
		PriorityComponent: report.Feedback.PriorityFocus,
	}

	switch {
	case report.OverallScore >= analysis.ScoreExcellent:
		plan.Timeline = "1-2 weeks"
		plan.FocusArea = "refinement"
	case report.OverallScore >= analysis.ScoreGood:
		plan.Timeline = "2-4 weeks"
		plan.FocusArea = "enhancement"
	default:
		plan.Timeline = "4-8 weeks"
		plan.FocusArea = "fundamental improvement"
	}

	plan.SuccessMetrics = session.SuccessMetrics{
		TargetOverall:    capTarget(report.OverallScore, 15),
		TargetBody:       capTarget(report.BodyLanguage.Average, 10),
		TargetVocal:      capTarget(report.VocalDelivery.Average, 10),
		TargetContent:    capTarget(report.ContentQuality.Average, 10),
		SuccessThreshold: analysis.ScoreGood,
	}

	plan.WeeklyGoals = []session.WeeklyGoal{
		{
			Week:   1,
			Goal:   fmt.Sprintf("Stabilize your weakest area: %s", plan.PriorityComponent),
			Target: "Two practice sessions with no sub-score below 55",
			Activities: []string{
				"Daily 10-minute focused drill",
				"One full recorded run-through",
			},
		},
		{
			Week:   2,
			Goal:   "Carry the improvement into a full presentation",
			Target: fmt.Sprintf("Overall score at or above %.0f", plan.SuccessMetrics.TargetOverall),
			Activities: []string{
				"Full-length session with live feedback enabled",
				"Review the session report and compare trends",
			},
		},
	}

	plan.Resources = planResources(report.Feedback.PriorityFocus)
	return plan
}

func planResources(focus string) []session.Resource {
	switch focus {
	case componentBody:
		return []session.Resource{
			{Type: "exercise", Title: "Posture reset drill", Description: "Shoulder and spine alignment routine before each session", Duration: "5 min"},
			{Type: "video", Title: "Open gestures on camera", Description: "Framing and gesture space for seated presentations", Duration: "12 min"},
		}
	case componentVocal:
		return []session.Resource{
			{Type: "exercise", Title: "Breath support warmup", Description: "Diaphragmatic breathing for steady volume", Duration: "5 min"},
			{Type: "video", Title: "Pitch control basics", Description: "Keeping a calm pitch under pressure", Duration: "10 min"},
		}
	case componentContent:
		return []session.Resource{
			{Type: "article", Title: "Signposting your talk", Description: "Transition phrases that hold a structure together", Duration: "8 min"},
			{Type: "exercise", Title: "Filler word fast", Description: "Replace fillers with silent pauses in daily speech", Duration: "ongoing"},
		}
	default:
		return []session.Resource{
			{Type: "article", Title: "Advanced delivery techniques", Description: "Pacing, pauses and audience engagement", Duration: "15 min"},
		}
	}
}

func capTarget(current, delta float64) float64 {
	t := current + delta
	if t > 100 {
		t = 100
	}
	return t
}
