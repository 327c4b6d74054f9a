package analyzer

import (
	"fmt"
	"sort"

	"poise/internal/domain/session"
)

// neutralScore is what an unavailable modality contributes to fusion, so
// live feedback degrades instead of collapsing to zero.
const neutralScore = 70.0

// maxLiveTips bounds per-pass tip volume for the listener
const maxLiveTips = 3

// component returns a modality's composite score for fusion, neutral
// when the modality did not score this pass.
func component(frame session.AnalysisFrame, m session.Modality) float64 {
	res, ok := frame.Results[m]
	if !ok || !res.Scored() {
		return neutralScore
	}
	return clamp100(res.Composite())
}

// fuse combines one analysis frame into live feedback. Overall is the
// weighted sum of body, vocal and content; the facial modality feeds
// tips and detailed metrics only.
func fuse(sessionID string, frame session.AnalysisFrame, w session.FusionWeights) session.LiveFeedback {
	body := component(frame, session.ModalityPosture)
	vocal := component(frame, session.ModalityVoice)
	content := component(frame, session.ModalitySpeech)

	fb := session.LiveFeedback{
		SessionID: sessionID,
		Timestamp: frame.Timestamp,

		BodyLanguageScore:   body,
		VocalDeliveryScore:  vocal,
		ContentQualityScore: content,
		OverallScore:        clamp100(body*w.Body + vocal*w.Vocal + content*w.Content),
		OverallConfidence:   clamp100((body + vocal) / 2),
		EngagementScore:     clamp100((body + content) / 2),

		LiveTips: selectLiveTips(frame),
		Metrics:  flattenMetrics(frame),
	}
	return fb
}

// selectLiveTips gathers one candidate tip per modality and keeps the
// three most urgent. Corrective tips outrank positive ones; ties break
// on the fixed modality order.
func selectLiveTips(frame session.AnalysisFrame) []string {
	type candidate struct {
		tip  session.Tip
		rank int // index into session.Modalities, lower wins ties
	}

	var candidates []candidate
	for rank, m := range session.Modalities {
		res, ok := frame.Results[m]
		if !ok || len(res.Tips) == 0 {
			continue
		}
		best := res.Tips[0]
		for _, t := range res.Tips[1:] {
			if t.Priority > best.Priority {
				best = t
			}
		}
		candidates = append(candidates, candidate{tip: best, rank: rank})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].tip.Priority != candidates[j].tip.Priority {
			return candidates[i].tip.Priority > candidates[j].tip.Priority
		}
		return candidates[i].rank < candidates[j].rank
	})

	seen := make(map[string]bool, maxLiveTips)
	tips := make([]string, 0, maxLiveTips)
	for _, c := range candidates {
		if len(tips) == maxLiveTips {
			break
		}
		if seen[c.tip.Text] {
			continue
		}
		seen[c.tip.Text] = true
		tips = append(tips, c.tip.Text)
	}
	return tips
}

// flattenMetrics exposes every sub-score of the pass as "modality.metric"
func flattenMetrics(frame session.AnalysisFrame) map[string]float64 {
	out := make(map[string]float64)
	for m, res := range frame.Results {
		if !res.Scored() {
			continue
		}
		for name, v := range res.Scores {
			out[fmt.Sprintf("%s.%s", m, name)] = v
		}
	}
	return out
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
