package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeText(t *testing.T) {
	st := analyzeText("First, we ship. Then we, um, iterate. We ship again!")

	assert.Equal(t, 10, st.words)
	// "we" and "ship" repeat
	assert.Equal(t, 7, st.unique)
	assert.Equal(t, 1, st.fillers)     // um
	assert.Equal(t, 2, st.transitions) // first, then
	assert.Equal(t, 3, st.sentences)
}

func TestAnalyzeText_NoTerminatorCountsOneSentence(t *testing.T) {
	st := analyzeText("no punctuation here at all")
	assert.Equal(t, 1, st.sentences)
}

func TestSummarizeTranscript(t *testing.T) {
	stats := SummarizeTranscript("So basically we, um, tried it.")
	assert.Equal(t, 6, stats.Words)
	assert.Equal(t, 3, stats.Fillers) // so, basically, um
}

func TestSpeechFeatures_Vector(t *testing.T) {
	f := SpeechFeatures{Text: "one two three four five six", Duration: 3 * time.Second}
	vec := f.Vector()
	require.Len(t, vec, 3)
	assert.Equal(t, 6.0, vec[0])
	assert.InDelta(t, 120.0, vec[1], 1e-9) // 6 words in 3s
	assert.Equal(t, 0.0, vec[2])
}

func TestSpeechScorer_EmptyTextScoresNothing(t *testing.T) {
	s := NewSpeechScorer(nil)
	scores, tips := s.Score(Input{Features: SpeechFeatures{Text: "   ", Duration: time.Second}})
	assert.Nil(t, scores)
	assert.Nil(t, tips)
}

func TestSpeechScorer_Pace(t *testing.T) {
	s := NewSpeechScorer(nil)

	// 150 words in one minute sits in the ideal band
	text := strings.Repeat("word ", 150)
	scores, _ := s.Score(Input{Features: SpeechFeatures{Text: text, Duration: time.Minute}})
	require.NotNil(t, scores)
	assert.Equal(t, 100.0, scores["pace"])

	// 250 wpm is rushing
	fast := strings.Repeat("word ", 250)
	scores, _ = s.Score(Input{Features: SpeechFeatures{Text: fast, Duration: time.Minute}})
	assert.Less(t, scores["pace"], 100.0)
}

func TestSpeechScorer_FillerPenalty(t *testing.T) {
	s := NewSpeechScorer(nil)

	clean := "We measured throughput across three regions and compared latency under sustained load."
	scores, _ := s.Score(Input{Features: SpeechFeatures{Text: clean, Duration: 6 * time.Second}})
	require.NotNil(t, scores)
	assert.Equal(t, 100.0, scores["filler_words"])

	sloppy := "Um so like basically um we like tried it."
	scores, tips := s.Score(Input{Features: SpeechFeatures{Text: sloppy, Duration: 4 * time.Second}})
	assert.Equal(t, 0.0, scores["filler_words"])

	var corrective bool
	for _, tip := range tips {
		if tip.Text == "Pause silently instead of using filler words" {
			corrective = true
			assert.Greater(t, tip.Priority, 0.0)
		}
	}
	assert.True(t, corrective)
}

func TestSpeechScorer_RelevanceNeutralWithoutKeywords(t *testing.T) {
	s := NewSpeechScorer(nil)
	scores, _ := s.Score(Input{Features: SpeechFeatures{Text: "completely off topic rambling.", Duration: 2 * time.Second}})
	require.NotNil(t, scores)
	assert.Equal(t, ScoreGood, scores["relevance"])
}

func TestSpeechScorer_RelevanceWithKeywords(t *testing.T) {
	s := NewSpeechScorer([]string{"Latency", " throughput "})

	onTopic := "Latency dropped while throughput held, and latency stayed flat."
	scores, _ := s.Score(Input{Features: SpeechFeatures{Text: onTopic, Duration: 4 * time.Second}})
	require.NotNil(t, scores)
	assert.Greater(t, scores["relevance"], ScoreGood)

	offTopic := "The weather was nice and we went for a long walk outside today."
	scores, _ = s.Score(Input{Features: SpeechFeatures{Text: offTopic, Duration: 4 * time.Second}})
	assert.Equal(t, 0.0, scores["relevance"])
}

func TestSpeechScorer_ScoresStayInRange(t *testing.T) {
	s := NewSpeechScorer([]string{"go"})
	text := strings.Repeat("go go go. ", 200)
	scores, _ := s.Score(Input{Features: SpeechFeatures{Text: text, Duration: time.Millisecond}})
	require.NotNil(t, scores)
	for name, v := range scores {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 100.0, name)
	}
}
