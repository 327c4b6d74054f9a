package analysis

import (
	"strings"
	"time"

	"poise/internal/domain/session"
)

// Speech tuning constants
const (
	paceLow   = 140.0 // words per minute
	paceHigh  = 160.0
	paceSlope = 1.2

	diversitySlope  = 160.0
	fillerSlope     = 1000.0
	transitionLow   = 0.2 // transitions per sentence
	transitionHigh  = 1.0
	transitionSlope = 80.0
	relevanceSlope  = 900.0
)

// fillerWords are penalized per occurrence relative to total word count
var fillerWords = map[string]bool{
	"um": true, "uh": true, "er": true, "ah": true,
	"like": true, "so": true, "actually": true, "basically": true,
	"literally": true, "right": true, "well": true, "okay": true,
}

// transitionWords signal explicit structure between ideas
var transitionWords = map[string]bool{
	"first": true, "second": true, "third": true, "finally": true,
	"however": true, "therefore": true, "moreover": true, "furthermore": true,
	"additionally": true, "next": true, "then": true, "consequently": true,
	"meanwhile": true, "similarly": true, "conversely": true,
}

var speechTips = map[string]tipTexts{
	"pace": {
		low:  "Adjust your pace, aim for a comfortable 140-160 words per minute",
		high: "Great speaking pace",
	},
	"vocabulary": {
		low:  "Vary your word choice to keep listeners engaged",
		high: "Rich, varied vocabulary",
	},
	"filler_words": {
		low:  "Pause silently instead of using filler words",
		high: "Very clean delivery, almost no fillers",
	},
	"structure": {
		low:  "Use transition words to signpost your structure",
		high: "Well structured, easy to follow",
	},
	"relevance": {
		low:  "Bring the talk back to your core topic",
		high: "Sharply on topic",
	},
}

// SpeechFeatures is the content modality's per-pass feature struct,
// built from the transcription of one audio window.
type SpeechFeatures struct {
	Text     string
	Duration time.Duration
}

// Vector summarizes the window for the rolling history
func (f SpeechFeatures) Vector() []float64 {
	st := analyzeText(f.Text)
	wpm := 0.0
	if mins := f.Duration.Minutes(); mins > 0 {
		wpm = float64(st.words) / mins
	}
	return []float64{float64(st.words), wpm, st.fillerRatio()}
}

// TranscriptStats summarizes a full session transcript for reporting
type TranscriptStats struct {
	Words       int
	UniqueWords int
	Fillers     int
}

// SummarizeTranscript counts words, distinct words and filler words
func SummarizeTranscript(text string) TranscriptStats {
	st := analyzeText(text)
	return TranscriptStats{Words: st.words, UniqueWords: st.unique, Fillers: st.fillers}
}

type textStats struct {
	words       int
	unique      int
	fillers     int
	transitions int
	sentences   int
}

func (s textStats) fillerRatio() float64 {
	if s.words == 0 {
		return 0
	}
	return float64(s.fillers) / float64(s.words)
}

func analyzeText(text string) textStats {
	var st textStats
	seen := make(map[string]bool)
	for _, raw := range strings.Fields(strings.ToLower(text)) {
		word := strings.Trim(raw, ".,;:!?\"'()-")
		if word == "" {
			continue
		}
		st.words++
		if !seen[word] {
			seen[word] = true
			st.unique++
		}
		if fillerWords[word] {
			st.fillers++
		}
		if transitionWords[word] {
			st.transitions++
		}
	}
	st.sentences = strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	if st.sentences == 0 && st.words > 0 {
		st.sentences = 1
	}
	return st
}

// SpeechScorer scores the spoken content of one transcription window.
// Keywords anchor the relevance sub-score; with none configured the
// sub-score stays neutral.
type SpeechScorer struct {
	keywords map[string]bool
}

func NewSpeechScorer(keywords []string) *SpeechScorer {
	kw := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kw[k] = true
		}
	}
	return &SpeechScorer{keywords: kw}
}

func (s *SpeechScorer) Modality() session.Modality { return session.ModalitySpeech }

func (s *SpeechScorer) Score(in Input) (map[string]float64, []session.Tip) {
	feats, ok := in.Features.(SpeechFeatures)
	if !ok {
		return nil, nil
	}
	st := analyzeText(feats.Text)
	if st.words == 0 {
		return nil, nil
	}

	scores := map[string]float64{
		"pace":         s.pace(st, feats.Duration),
		"vocabulary":   clamp(float64(st.unique) / float64(st.words) * diversitySlope),
		"filler_words": clamp(100 - st.fillerRatio()*fillerSlope),
		"structure":    bandScore(float64(st.transitions)/float64(st.sentences), transitionLow, transitionHigh, transitionSlope),
		"relevance":    s.relevance(feats.Text, st),
	}
	return scores, selectTips(session.ModalitySpeech, scores, speechTips)
}

func (s *SpeechScorer) pace(st textStats, dur time.Duration) float64 {
	mins := dur.Minutes()
	if mins <= 0 {
		return ScoreGood
	}
	return bandScore(float64(st.words)/mins, paceLow, paceHigh, paceSlope)
}

// relevance rewards keyword hits proportional to window length
func (s *SpeechScorer) relevance(text string, st textStats) float64 {
	if len(s.keywords) == 0 {
		return ScoreGood
	}
	lower := strings.ToLower(text)
	var hits int
	for k := range s.keywords {
		hits += strings.Count(lower, k)
	}
	return clamp(float64(hits) / float64(st.words) * relevanceSlope)
}
