package onnx

import (
	"context"
	"time"

	onnxruntime "github.com/yalue/onnxruntime_go"

	"poise/internal/domain/perception"
	"poise/internal/metrics"
	"poise/pkg/errors"
)

// Face model contract: input "input" is a normalized [1,3,128,128] RGB
// tensor; output "measurements" is [1,6] rows of (face_prob,
// gaze_offset, eye_openness, blink_prob, smile, brow_raise).
const (
	faceInputSize = 128
	faceOutputLen = 6
	faceMinScore  = 0.5
	blinkCutoff   = 0.5
)

// Expression labels derived from smile and brow intensity
const (
	expressionNeutral  = "neutral"
	expressionHappy    = "happy"
	expressionSurprise = "surprised"
)

// FaceProvider extracts facial measurements with an ONNX face model
type FaceProvider struct {
	session *onnxruntime.DynamicAdvancedSession
}

// NewFaceProvider loads the face model from file
func NewFaceProvider(modelPath string) (*FaceProvider, error) {
	session, err := newSession(modelPath, []string{"input"}, []string{"measurements"})
	if err != nil {
		return nil, err
	}
	return &FaceProvider{session: session}, nil
}

// DetectFace runs face inference on one frame
func (p *FaceProvider) DetectFace(ctx context.Context, frame perception.VideoFrame) (perception.FaceFeatures, error) {
	if err := ctx.Err(); err != nil {
		return perception.FaceFeatures{}, err
	}
	start := time.Now()

	input, err := frameToTensor(frame, faceInputSize)
	if err != nil {
		return perception.FaceFeatures{}, err
	}

	inputTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, 3, faceInputSize, faceInputSize), input)
	if err != nil {
		return perception.FaceFeatures{}, errors.Wrap(err, "failed to create input tensor")
	}
	defer inputTensor.Destroy()

	out := make([]float32, faceOutputLen)
	outTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, faceOutputLen), out)
	if err != nil {
		return perception.FaceFeatures{}, errors.Wrap(err, "failed to create output tensor")
	}
	defer outTensor.Destroy()

	err = p.session.Run(
		[]onnxruntime.Value{inputTensor},
		[]onnxruntime.Value{outTensor},
	)
	metrics.RecordProviderCall("face_model", time.Since(start), err)
	if err != nil {
		return perception.FaceFeatures{}, errors.Wrap(err, "face inference failed")
	}

	if float64(out[0]) < faceMinScore {
		return perception.FaceFeatures{}, errors.Wrapf(errors.ErrNotDetected,
			"face score %.2f below threshold", out[0])
	}

	features := perception.FaceFeatures{
		DetectionScore: float64(out[0]),
		GazeOffset:     float64(out[1]),
		EyeOpenness:    float64(out[2]),
		Blink:          float64(out[3]) > blinkCutoff,
		SmileIntensity: float64(out[4]),
		BrowRaise:      float64(out[5]),
	}
	features.Expression = classifyExpression(features)
	return features, nil
}

// classifyExpression maps smile and brow intensity to a coarse label
func classifyExpression(f perception.FaceFeatures) string {
	switch {
	case f.SmileIntensity > 0.5:
		return expressionHappy
	case f.BrowRaise > 0.6:
		return expressionSurprise
	default:
		return expressionNeutral
	}
}

// Close destroys the underlying session
func (p *FaceProvider) Close() {
	if p.session != nil {
		p.session.Destroy()
		p.session = nil
	}
}
