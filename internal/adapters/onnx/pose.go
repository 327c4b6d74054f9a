package onnx

import (
	"context"
	"time"

	onnxruntime "github.com/yalue/onnxruntime_go"

	"poise/internal/domain/perception"
	"poise/internal/metrics"
	"poise/pkg/errors"
)

// Pose model contract: input "input" is a normalized [1,3,256,256] RGB
// tensor; output "landmarks" is [1,9,4] rows of (x, y, z, visibility)
// in the fixed landmark order below, output "score" is [1] person
// presence probability.
const (
	poseInputSize     = 256
	poseLandmarkCount = 9
	poseMinScore      = 0.4
	poseMinVisibility = 0.3
)

// poseLandmarkOrder fixes the model's output row order
var poseLandmarkOrder = []string{
	perception.LandmarkNose,
	perception.LandmarkLeftShoulder,
	perception.LandmarkRightShoulder,
	perception.LandmarkLeftElbow,
	perception.LandmarkRightElbow,
	perception.LandmarkLeftWrist,
	perception.LandmarkRightWrist,
	perception.LandmarkLeftHip,
	perception.LandmarkRightHip,
}

// PoseProvider extracts body landmarks with an ONNX pose model
type PoseProvider struct {
	session *onnxruntime.DynamicAdvancedSession
}

// NewPoseProvider loads the pose model from file
func NewPoseProvider(modelPath string) (*PoseProvider, error) {
	session, err := newSession(modelPath, []string{"input"}, []string{"landmarks", "score"})
	if err != nil {
		return nil, err
	}
	return &PoseProvider{session: session}, nil
}

// DetectPose runs pose inference on one frame
func (p *PoseProvider) DetectPose(ctx context.Context, frame perception.VideoFrame) (perception.PoseFeatures, error) {
	if err := ctx.Err(); err != nil {
		return perception.PoseFeatures{}, err
	}
	start := time.Now()

	input, err := frameToTensor(frame, poseInputSize)
	if err != nil {
		return perception.PoseFeatures{}, err
	}

	inputTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, 3, poseInputSize, poseInputSize), input)
	if err != nil {
		return perception.PoseFeatures{}, errors.Wrap(err, "failed to create input tensor")
	}
	defer inputTensor.Destroy()

	landmarks := make([]float32, poseLandmarkCount*4)
	landmarkTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, poseLandmarkCount, 4), landmarks)
	if err != nil {
		return perception.PoseFeatures{}, errors.Wrap(err, "failed to create landmark tensor")
	}
	defer landmarkTensor.Destroy()

	score := make([]float32, 1)
	scoreTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1), score)
	if err != nil {
		return perception.PoseFeatures{}, errors.Wrap(err, "failed to create score tensor")
	}
	defer scoreTensor.Destroy()

	err = p.session.Run(
		[]onnxruntime.Value{inputTensor},
		[]onnxruntime.Value{landmarkTensor, scoreTensor},
	)
	metrics.RecordProviderCall("pose_model", time.Since(start), err)
	if err != nil {
		return perception.PoseFeatures{}, errors.Wrap(err, "pose inference failed")
	}

	if float64(score[0]) < poseMinScore {
		return perception.PoseFeatures{}, errors.Wrapf(errors.ErrNotDetected,
			"pose score %.2f below threshold", score[0])
	}

	features := perception.PoseFeatures{
		Landmarks:      make(map[string]perception.Point3, poseLandmarkCount),
		DetectionScore: float64(score[0]),
	}
	for i, name := range poseLandmarkOrder {
		row := landmarks[i*4 : i*4+4]
		if float64(row[3]) < poseMinVisibility {
			continue
		}
		features.Landmarks[name] = perception.Point3{
			X: float64(row[0]),
			Y: float64(row[1]),
			Z: float64(row[2]),
		}
	}
	if len(features.Landmarks) == 0 {
		return perception.PoseFeatures{}, errors.Wrap(errors.ErrNotDetected, "no visible landmarks")
	}
	return features, nil
}

// Close destroys the underlying session
func (p *PoseProvider) Close() {
	if p.session != nil {
		p.session.Destroy()
		p.session = nil
	}
}
