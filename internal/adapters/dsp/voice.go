// Package dsp computes acoustic voice features directly from PCM. It is
// the AudioFeatureProvider used in every deployment; the measurements
// are cheap enough to run inline with each analysis pass.
package dsp

import (
	"context"
	"math"
	"time"

	"poise/internal/domain/perception"
	"poise/internal/metrics"
	"poise/pkg/errors"
)

// Energy gate below which a window counts as silence
const (
	speechThresholdDB = -40.0
	frameMillis       = 30

	// Plausible fundamental frequency band for speech
	pitchMinHz = 60.0
	pitchMaxHz = 400.0
)

// Provider implements perception.AudioFeatureProvider with an
// energy-gated feature pass over the raw samples.
type Provider struct{}

// NewProvider creates the DSP feature provider
func NewProvider() *Provider {
	return &Provider{}
}

// ExtractVoice computes acoustic features over one audio window.
// Windows with no frame above the energy gate return ErrNotDetected.
func (p *Provider) ExtractVoice(ctx context.Context, audio perception.AudioChunk) (perception.VoiceFeatures, error) {
	if err := ctx.Err(); err != nil {
		return perception.VoiceFeatures{}, err
	}
	start := time.Now()

	if audio.Empty() || audio.SampleRate <= 0 {
		return perception.VoiceFeatures{}, errors.Wrap(errors.ErrInvalidInput, "empty audio chunk")
	}

	frameLen := audio.SampleRate * frameMillis / 1000
	if frameLen <= 0 {
		frameLen = len(audio.PCM)
	}

	var voicedFrames, totalFrames int
	for i := 0; i+frameLen <= len(audio.PCM); i += frameLen {
		totalFrames++
		if energyDB(audio.PCM[i:i+frameLen]) >= speechThresholdDB {
			voicedFrames++
		}
	}
	if totalFrames == 0 {
		totalFrames = 1
		if energyDB(audio.PCM) >= speechThresholdDB {
			voicedFrames = 1
		}
	}

	features := perception.VoiceFeatures{
		RMS:              rms(audio.PCM),
		ZeroCrossingRate: zeroCrossingRate(audio.PCM),
		SpectralCentroid: spectralCentroidHz(audio.PCM, audio.SampleRate),
		VoicedRatio:      float64(voicedFrames) / float64(totalFrames),
		Duration:         audio.Duration(),
	}
	features.Pitch = estimatePitch(audio.PCM, audio.SampleRate)

	metrics.RecordProviderCall("dsp", time.Since(start), nil)

	if voicedFrames == 0 {
		return perception.VoiceFeatures{}, errors.Wrapf(errors.ErrNotDetected,
			"no speech energy above %.0f dB", speechThresholdDB)
	}
	return features, nil
}

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func energyDB(samples []float64) float64 {
	r := rms(samples)
	if r < 1e-10 {
		return -100
	}
	return 20 * math.Log10(r)
}

func zeroCrossingRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	var crossings int
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples))
}

// spectralCentroidHz approximates brightness from the zero-crossing
// rate. A full FFT is not worth the cost for a coarse tone cue.
func spectralCentroidHz(samples []float64, sampleRate int) float64 {
	return zeroCrossingRate(samples) * float64(sampleRate) / 2
}

// estimatePitch finds the fundamental via normalized autocorrelation
// over the plausible speech band. Returns 0 for unvoiced audio.
func estimatePitch(samples []float64, sampleRate int) float64 {
	minLag := int(float64(sampleRate) / pitchMaxHz)
	maxLag := int(float64(sampleRate) / pitchMinHz)
	if maxLag >= len(samples) {
		maxLag = len(samples) - 1
	}
	if minLag < 1 || minLag >= maxLag {
		return 0
	}

	var energy float64
	for _, s := range samples {
		energy += s * s
	}
	if energy < 1e-10 {
		return 0
	}

	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i+lag < len(samples); i++ {
			corr += samples[i] * samples[i+lag]
		}
		corr /= energy
		if corr > bestCorr {
			bestCorr, bestLag = corr, lag
		}
	}

	// Weak periodicity means unvoiced
	if bestLag == 0 || bestCorr < 0.3 {
		return 0
	}
	return float64(sampleRate) / float64(bestLag)
}
