// Package transcribe converts session audio to text through the OpenAI
// transcription API.
package transcribe

import (
	"bytes"
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"poise/internal/domain/perception"
	"poise/internal/metrics"
	"poise/pkg/errors"
	"poise/pkg/logger"
)

// OpenAIProvider implements speech transcription using the official
// OpenAI Go SDK.
type OpenAIProvider struct {
	client  openai.Client
	model   openai.AudioModel
	timeout time.Duration
	log     *logger.Logger
}

// NewOpenAIProvider creates a new transcription provider
func NewOpenAIProvider(apiKey string, model string, timeout time.Duration) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "openai API key is required")
	}
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAIProvider{
		client:  client,
		model:   openai.AudioModel(model),
		timeout: timeout,
		log:     logger.Get().With("component", "openai_transcribe", "model", model),
	}, nil
}

// Transcribe converts one audio window to text
func (p *OpenAIProvider) Transcribe(ctx context.Context, audio perception.AudioChunk) (perception.Transcript, error) {
	if audio.Empty() || audio.SampleRate <= 0 {
		return perception.Transcript{}, errors.Wrapf(errors.ErrInvalidInput, "empty audio chunk")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	wav := encodeWAV(audio.PCM, audio.SampleRate)

	start := time.Now()
	response, err := p.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
		Model: p.model,
	})
	metrics.RecordProviderCall("openai_transcribe", time.Since(start), err)
	if err != nil {
		return perception.Transcript{}, errors.Wrap(err, "transcription request failed")
	}

	return perception.Transcript{
		Text:     response.Text,
		Duration: audio.Duration(),
	}, nil
}
