package session

import "time"

// LiveFeedback is the real-time result of one analysis pass
type LiveFeedback struct {
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`

	BodyLanguageScore   float64 `json:"body_language_score"`
	VocalDeliveryScore  float64 `json:"vocal_delivery_score"`
	ContentQualityScore float64 `json:"content_quality_score"`
	OverallScore        float64 `json:"overall_score"`
	OverallConfidence   float64 `json:"overall_confidence"`
	EngagementScore     float64 `json:"engagement_score"`

	// At most 3 deduplicated tips, highest priority first
	LiveTips []string `json:"live_tips"`

	// Raw per-sub-metric values from this pass
	Metrics map[string]float64 `json:"metrics"`
}

// Trend classifies how a score moved over the session
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// ComponentScore is one component's session-level aggregate
type ComponentScore struct {
	Average     float64 `json:"average"`
	Consistency float64 `json:"consistency"` // 100 - stddev of per-frame scores
	Trend       Trend   `json:"trend"`
}

// PersonalizedFeedback holds the templated feedback sections of a report
type PersonalizedFeedback struct {
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	SpecificSuggestions []string `json:"specific_suggestions"`
	NextSteps           []string `json:"next_steps"`
	PriorityFocus       string   `json:"priority_focus"`
}

// WeeklyGoal is one week's improvement goal in the plan
type WeeklyGoal struct {
	Week       int      `json:"week"`
	Goal       string   `json:"goal"`
	Target     string   `json:"target"`
	Activities []string `json:"activities"`
}

// Resource is a recommended learning resource
type Resource struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
}

// SuccessMetrics are numeric targets for the next sessions, capped at 100
type SuccessMetrics struct {
	TargetOverall    float64 `json:"target_overall"`
	TargetBody       float64 `json:"target_body"`
	TargetVocal      float64 `json:"target_vocal"`
	TargetContent    float64 `json:"target_content"`
	SuccessThreshold float64 `json:"success_threshold"`
}

// ImprovementPlan is the structured practice plan in a report
type ImprovementPlan struct {
	Timeline          string         `json:"timeline"`
	FocusArea         string         `json:"focus_area"`
	PriorityComponent string         `json:"priority_component"`
	WeeklyGoals       []WeeklyGoal   `json:"weekly_goals"`
	Resources         []Resource     `json:"recommended_resources"`
	SuccessMetrics    SuccessMetrics `json:"success_metrics"`
}

// Report is the final, immutable session summary produced once at session
// end from the full analysis history. An empty session yields a fully
// zeroed report with FramesAnalyzed == 0, never an ambiguous empty object.
type Report struct {
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`

	OverallScore float64 `json:"overall_score"`

	BodyLanguage   ComponentScore `json:"body_language"`
	VocalDelivery  ComponentScore `json:"vocal_delivery"`
	ContentQuality ComponentScore `json:"content_quality"`
	Confidence     float64        `json:"confidence"`
	Engagement     float64        `json:"engagement"`

	// Session-wide averages per sub-metric, keyed "modality.metric"
	DetailedMetrics map[string]float64 `json:"detailed_metrics"`

	Feedback PersonalizedFeedback `json:"personalized_feedback"`
	Plan     ImprovementPlan      `json:"improvement_plan"`

	FramesAnalyzed  int           `json:"frames_analyzed"`
	SessionDuration time.Duration `json:"session_duration"`
	DurationText    string        `json:"duration_text"`

	// Transcript aggregates from the speech modality
	TotalWords       int     `json:"total_words"`
	TotalFillerWords int     `json:"total_filler_words"`
	FillerPercent    float64 `json:"filler_percent"`
	FullTranscript   string  `json:"full_transcript"`
}
