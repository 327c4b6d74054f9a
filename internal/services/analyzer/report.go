package analyzer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"poise/internal/analysis"
	"poise/internal/domain/session"
)

// Trend classification: recent window vs the one before it
const (
	trendWindow    = 10
	trendThreshold = 5.0
	minTrendFrames = 6
)

// Component display names used across feedback and plan templates
const (
	componentBody    = "Body Language"
	componentVocal   = "Vocal Delivery"
	componentContent = "Content Quality"

	focusOverall  = "Overall Presentation Performance"
	focusAdvanced = "Advanced Techniques"
)

// buildReport synthesizes the final report from the full session history.
// Called with the session mutex held. A session with no scored frames
// yields a fully zeroed report, never an ambiguous empty object.
func (s *Service) buildReport(sess *session.Session, now time.Time) session.Report {
	report := session.Report{
		SessionID:       sess.ID,
		Timestamp:       now,
		SessionDuration: sess.Duration(now),
	}
	report.DurationText = humanize.RelTime(now.Add(-report.SessionDuration), now, "", "")

	bodySeries := componentSeries(sess.History, session.ModalityPosture)
	vocalSeries := componentSeries(sess.History, session.ModalityVoice)
	contentSeries := componentSeries(sess.History, session.ModalitySpeech)

	report.FramesAnalyzed = scoredFrames(sess.History)
	if report.FramesAnalyzed == 0 {
		report.BodyLanguage = aggregate(nil)
		report.VocalDelivery = aggregate(nil)
		report.ContentQuality = aggregate(nil)
		report.Feedback = emptySessionFeedback()
		return report
	}

	report.BodyLanguage = aggregate(bodySeries)
	report.VocalDelivery = aggregate(vocalSeries)
	report.ContentQuality = aggregate(contentSeries)

	w := sess.Config.Weights
	report.OverallScore = clamp100(report.BodyLanguage.Average*w.Body +
		report.VocalDelivery.Average*w.Vocal +
		report.ContentQuality.Average*w.Content)
	report.Confidence = clamp100((report.BodyLanguage.Average + report.VocalDelivery.Average) / 2)
	report.Engagement = clamp100((report.BodyLanguage.Average + report.ContentQuality.Average) / 2)

	report.DetailedMetrics = averageMetrics(sess.History)
	report.Feedback = personalize(report)
	report.Plan = buildPlan(report)

	fillTranscript(&report, sess.Transcript)
	return report
}

// componentSeries extracts one modality's per-frame composite scores,
// skipping frames where the modality did not score.
func componentSeries(history []session.AnalysisFrame, m session.Modality) []float64 {
	series := make([]float64, 0, len(history))
	for _, frame := range history {
		if res, ok := frame.Results[m]; ok && res.Scored() {
			series = append(series, clamp100(res.Composite()))
		}
	}
	return series
}

// scoredFrames counts frames where at least one modality scored
func scoredFrames(history []session.AnalysisFrame) int {
	var n int
	for _, frame := range history {
		for _, res := range frame.Results {
			if res.Scored() {
				n++
				break
			}
		}
	}
	return n
}

// aggregate folds a score series into a session-level component score.
// Consistency is 100 minus the spread of per-frame scores.
func aggregate(series []float64) session.ComponentScore {
	if len(series) == 0 {
		return session.ComponentScore{Trend: session.TrendStable}
	}
	return session.ComponentScore{
		Average:     meanOf(series),
		Consistency: clamp100(100 - stddevOf(series)),
		Trend:       classifyTrend(series),
	}
}

// classifyTrend compares the recent window against the one before it
func classifyTrend(series []float64) session.Trend {
	if len(series) < minTrendFrames {
		return session.TrendStable
	}
	recent := series
	if len(recent) > trendWindow {
		recent = series[len(series)-trendWindow:]
	}
	prior := series[:len(series)-len(recent)]
	if len(prior) > trendWindow {
		prior = prior[len(prior)-trendWindow:]
	}
	if len(prior) == 0 {
		half := len(series) / 2
		prior, recent = series[:half], series[half:]
	}

	switch diff := meanOf(recent) - meanOf(prior); {
	case diff > trendThreshold:
		return session.TrendImproving
	case diff < -trendThreshold:
		return session.TrendDeclining
	default:
		return session.TrendStable
	}
}

// emptySessionFeedback is the neutral text for sessions that ended
// before any pass scored a frame.
func emptySessionFeedback() session.PersonalizedFeedback {
	return session.PersonalizedFeedback{
		SpecificSuggestions: []string{
			"No analysis data was captured this session, present for at least one full analysis interval",
		},
		NextSteps: []string{
			"Run another session with camera and microphone active to get scored feedback",
		},
		PriorityFocus: focusOverall,
	}
}

// averageMetrics averages every sub-metric over the frames where its
// modality scored, keyed "modality.metric". The facial modality shows up
// here even though it stays out of the overall fusion.
func averageMetrics(history []session.AnalysisFrame) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, frame := range history {
		for m, res := range frame.Results {
			if !res.Scored() {
				continue
			}
			for name, v := range res.Scores {
				key := fmt.Sprintf("%s.%s", m, name)
				sums[key] += v
				counts[key]++
			}
		}
	}
	out := make(map[string]float64, len(sums))
	for key, sum := range sums {
		out[key] = sum / float64(counts[key])
	}
	return out
}

// fillTranscript aggregates the speech segments into the report
func fillTranscript(report *session.Report, segments []session.TranscriptSegment) {
	if len(segments) == 0 {
		return
	}
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, seg.Text)
	}
	report.FullTranscript = strings.Join(parts, " ")

	stats := analysis.SummarizeTranscript(report.FullTranscript)
	report.TotalWords = stats.Words
	report.TotalFillerWords = stats.Fillers
	if stats.Words > 0 {
		report.FillerPercent = float64(stats.Fillers) / float64(stats.Words) * 100
	}
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddevOf(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := meanOf(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
