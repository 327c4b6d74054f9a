package analysis

import (
	"math"

	"poise/internal/domain/perception"
	"poise/internal/domain/session"
)

// Vocal tuning constants. RMS is normalized amplitude, pitch is Hz.
const (
	volumeLow   = 0.05
	volumeHigh  = 0.40
	volumeSlope = 600.0

	volumeVarSlope = 1500.0

	pitchDriftSlope = 250.0 // per unit of relative drift from baseline
)

// Emotional tone labels derived from coarse acoustic cues
const (
	ToneConfident    = "confident"
	ToneCalm         = "calm"
	ToneEnthusiastic = "enthusiastic"
	ToneNervous      = "nervous"
)

// toneScores maps each tone to a presentation appropriateness score
var toneScores = map[string]float64{
	ToneConfident:    90,
	ToneEnthusiastic: 85,
	ToneCalm:         75,
	ToneNervous:      40,
}

// Indices into the voice feature vector, matching VoiceFeatures.Vector
const (
	voiceVecRMS = iota
	voiceVecPitch
	voiceVecZCR
	voiceVecCentroid
	voiceVecVoiced
)

var voiceTips = map[string]tipTexts{
	"volume": {
		low:  "Project your voice a bit more",
		high: "Great vocal projection",
	},
	"volume_consistency": {
		low:  "Keep your volume steady, it is swinging a lot",
		high: "Nice, even volume",
	},
	"pitch_stability": {
		low:  "Steady your pitch, take a breath between phrases",
		high: "Very controlled pitch",
	},
	"tone": {
		low:  "You sound tense, slow down and breathe",
		high: "Confident, engaging tone",
	},
}

// VoiceScorer scores vocal delivery from acoustic features.
type VoiceScorer struct{}

func NewVoiceScorer() *VoiceScorer { return &VoiceScorer{} }

func (s *VoiceScorer) Modality() session.Modality { return session.ModalityVoice }

func (s *VoiceScorer) Score(in Input) (map[string]float64, []session.Tip) {
	voice, ok := in.Features.(perception.VoiceFeatures)
	if !ok {
		return nil, nil
	}

	basePitch := 0.0
	if len(in.Baseline) > voiceVecPitch {
		basePitch = in.Baseline[voiceVecPitch]
	}
	_, toneScore := ClassifyTone(voice, basePitch)

	scores := map[string]float64{
		"volume":             bandScore(voice.RMS, volumeLow, volumeHigh, volumeSlope),
		"volume_consistency": s.volumeConsistency(in.History),
		"pitch_stability":    s.pitchStability(voice.Pitch, basePitch, in.History),
		"tone":               toneScore,
	}
	return scores, selectTips(session.ModalityVoice, scores, voiceTips)
}

func (s *VoiceScorer) volumeConsistency(history [][]float64) float64 {
	rms := column(history, voiceVecRMS)
	if len(rms) < 3 {
		return ScoreGood
	}
	return deviationScore(stddev(rms), volumeVarSlope)
}

// pitchStability measures relative drift from the calibrated resting
// pitch, falling back to window spread when no baseline exists.
func (s *VoiceScorer) pitchStability(pitch, basePitch float64, history [][]float64) float64 {
	if basePitch > 0 && pitch > 0 {
		drift := math.Abs(pitch-basePitch) / basePitch
		return deviationScore(drift, pitchDriftSlope)
	}
	pitches := column(history, voiceVecPitch)
	voiced := pitches[:0:0]
	for _, p := range pitches {
		if p > 0 {
			voiced = append(voiced, p)
		}
	}
	if len(voiced) < 3 {
		return ScoreGood
	}
	m := mean(voiced)
	if m <= 0 {
		return ScoreGood
	}
	return deviationScore(stddev(voiced)/m, pitchDriftSlope)
}

// ClassifyTone maps coarse acoustic cues onto one of four emotional tone
// labels and its appropriateness score. High pitch drift with choppy
// voicing reads as nervous; strong steady projection as confident.
func ClassifyTone(voice perception.VoiceFeatures, basePitch float64) (string, float64) {
	drift := 0.0
	if basePitch > 0 && voice.Pitch > 0 {
		drift = math.Abs(voice.Pitch-basePitch) / basePitch
	}

	var tone string
	switch {
	case drift > 0.25 && voice.VoicedRatio < 0.5:
		tone = ToneNervous
	case voice.RMS >= 0.15 && drift > 0.12:
		tone = ToneEnthusiastic
	case voice.RMS >= 0.10:
		tone = ToneConfident
	default:
		tone = ToneCalm
	}
	return tone, toneScores[tone]
}
