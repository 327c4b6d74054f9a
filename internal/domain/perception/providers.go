package perception

import "context"

// PoseProvider extracts body landmarks from a video frame.
// Implementations return errors.ErrNotDetected when no person is visible.
type PoseProvider interface {
	DetectPose(ctx context.Context, frame VideoFrame) (PoseFeatures, error)
}

// FaceProvider extracts facial measurements from a video frame.
// Implementations return errors.ErrNotDetected when no face is visible.
type FaceProvider interface {
	DetectFace(ctx context.Context, frame VideoFrame) (FaceFeatures, error)
}

// AudioFeatureProvider computes acoustic measurements over an audio window.
// Implementations return errors.ErrNotDetected when the window carries no
// speech energy.
type AudioFeatureProvider interface {
	ExtractVoice(ctx context.Context, audio AudioChunk) (VoiceFeatures, error)
}

// TranscriptionProvider converts an audio window to text.
type TranscriptionProvider interface {
	Transcribe(ctx context.Context, audio AudioChunk) (Transcript, error)
}
