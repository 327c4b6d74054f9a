// Package stub provides deterministic perception providers for local
// development when no vision models or transcription key are configured.
// Features are derived from the raw input bytes so repeated input gives
// repeated output.
package stub

import (
	"context"
	"fmt"
	"hash/fnv"

	"poise/internal/domain/perception"
)

// PoseProvider emits a plausible, slightly jittered standing pose
type PoseProvider struct{}

func NewPoseProvider() *PoseProvider { return &PoseProvider{} }

func (p *PoseProvider) DetectPose(ctx context.Context, frame perception.VideoFrame) (perception.PoseFeatures, error) {
	j := jitter(frame.Data, 0.01)
	return perception.PoseFeatures{
		DetectionScore: 0.9,
		Landmarks: map[string]perception.Point3{
			perception.LandmarkNose:          {X: 0.50 + j, Y: 0.20},
			perception.LandmarkLeftShoulder:  {X: 0.40, Y: 0.35 + j},
			perception.LandmarkRightShoulder: {X: 0.60, Y: 0.35 - j},
			perception.LandmarkLeftElbow:     {X: 0.35, Y: 0.50},
			perception.LandmarkRightElbow:    {X: 0.65, Y: 0.50},
			perception.LandmarkLeftWrist:     {X: 0.33, Y: 0.62 + j},
			perception.LandmarkRightWrist:    {X: 0.67, Y: 0.62 - j},
			perception.LandmarkLeftHip:       {X: 0.43, Y: 0.70},
			perception.LandmarkRightHip:      {X: 0.57, Y: 0.70},
		},
	}, nil
}

// FaceProvider emits neutral facial measurements with input jitter
type FaceProvider struct{}

func NewFaceProvider() *FaceProvider { return &FaceProvider{} }

func (p *FaceProvider) DetectFace(ctx context.Context, frame perception.VideoFrame) (perception.FaceFeatures, error) {
	j := jitter(frame.Data, 0.1)
	return perception.FaceFeatures{
		DetectionScore: 0.9,
		GazeOffset:     0.05 + j/10,
		EyeOpenness:    0.30,
		Blink:          j > 0.08,
		SmileIntensity: 0.35 + j,
		BrowRaise:      0.20 + j,
		Expression:     "neutral",
	}, nil
}

// TranscriptionProvider emits a fixed phrase sized to the audio window
type TranscriptionProvider struct{}

func NewTranscriptionProvider() *TranscriptionProvider { return &TranscriptionProvider{} }

func (p *TranscriptionProvider) Transcribe(ctx context.Context, audio perception.AudioChunk) (perception.Transcript, error) {
	secs := audio.Duration().Seconds()
	words := int(secs * 2.5)
	text := ""
	for i := 0; i < words; i++ {
		text += fmt.Sprintf("practice point %d. ", i+1)
	}
	return perception.Transcript{
		Text:     text,
		Language: "en",
		Duration: audio.Duration(),
	}, nil
}

// jitter maps input bytes onto a small deterministic offset in
// [0, scale)
func jitter(data []byte, scale float64) float64 {
	h := fnv.New32a()
	h.Write(data)
	return float64(h.Sum32()%1000) / 1000 * scale
}
