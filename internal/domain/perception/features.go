package perception

import "time"

// VideoFrame is a single decoded camera frame. Data layout is provider
// specific (typically RGB24 row-major) and opaque to the domain.
type VideoFrame struct {
	Data   []byte
	Width  int
	Height int
}

// Empty reports whether the frame carries no pixel data.
func (f VideoFrame) Empty() bool {
	return len(f.Data) == 0 || f.Width <= 0 || f.Height <= 0
}

// AudioChunk is a mono PCM segment normalized to [-1, 1].
type AudioChunk struct {
	PCM        []float64
	SampleRate int
}

// Duration returns the playback length of the chunk.
func (c AudioChunk) Duration() time.Duration {
	if c.SampleRate <= 0 || len(c.PCM) == 0 {
		return 0
	}
	return time.Duration(float64(len(c.PCM)) / float64(c.SampleRate) * float64(time.Second))
}

// Empty reports whether the chunk carries no samples.
func (c AudioChunk) Empty() bool {
	return len(c.PCM) == 0
}

// Concat joins chunks into one contiguous buffer. The sample rate of the
// first non-empty chunk wins; mismatched chunks are assumed pre-resampled
// by the capture layer.
func Concat(chunks []AudioChunk) AudioChunk {
	var out AudioChunk
	for _, c := range chunks {
		if c.Empty() {
			continue
		}
		if out.SampleRate == 0 {
			out.SampleRate = c.SampleRate
		}
		out.PCM = append(out.PCM, c.PCM...)
	}
	return out
}

// Point3 is a normalized landmark coordinate. X and Y are in [0, 1]
// relative to the frame, Z is relative depth.
type Point3 struct {
	X float64
	Y float64
	Z float64
}

// FeatureVector is implemented by per-modality feature structs so the
// calibration layer can average them without knowing the modality.
type FeatureVector interface {
	Vector() []float64
}

// Pose landmark names used by the posture baseline vector.
const (
	LandmarkNose          = "nose"
	LandmarkLeftShoulder  = "left_shoulder"
	LandmarkRightShoulder = "right_shoulder"
	LandmarkLeftElbow     = "left_elbow"
	LandmarkRightElbow    = "right_elbow"
	LandmarkLeftWrist     = "left_wrist"
	LandmarkRightWrist    = "right_wrist"
	LandmarkLeftHip       = "left_hip"
	LandmarkRightHip      = "right_hip"
)

// PoseFeatures holds body landmarks detected in a single frame.
type PoseFeatures struct {
	Landmarks map[string]Point3
	// DetectionScore is the model's confidence that a person is present.
	DetectionScore float64
}

// poseVectorLandmarks fixes the landmark order of the baseline vector.
var poseVectorLandmarks = []string{
	LandmarkNose,
	LandmarkLeftShoulder,
	LandmarkRightShoulder,
	LandmarkLeftElbow,
	LandmarkRightElbow,
	LandmarkLeftWrist,
	LandmarkRightWrist,
	LandmarkLeftHip,
	LandmarkRightHip,
}

// Vector flattens the landmarks into a fixed-order x/y/z sequence.
// Missing landmarks contribute zeros so the vector length is stable.
func (p PoseFeatures) Vector() []float64 {
	out := make([]float64, 0, len(poseVectorLandmarks)*3)
	for _, name := range poseVectorLandmarks {
		pt := p.Landmarks[name]
		out = append(out, pt.X, pt.Y, pt.Z)
	}
	return out
}

// Landmark returns the named landmark and whether it was detected.
func (p PoseFeatures) Landmark(name string) (Point3, bool) {
	pt, ok := p.Landmarks[name]
	return pt, ok
}

// FaceFeatures holds per-frame facial measurements.
type FaceFeatures struct {
	// GazeOffset is the horizontal distance of the gaze point from frame
	// center, normalized to [0, 1].
	GazeOffset float64
	// EyeOpenness is the mean eye aspect ratio.
	EyeOpenness float64
	// Blink marks a blink event in this frame.
	Blink bool
	// SmileIntensity is in [0, 1].
	SmileIntensity float64
	// BrowRaise is in [0, 1].
	BrowRaise float64
	// Expression is the dominant expression label for the frame.
	Expression     string
	DetectionScore float64
}

// Vector flattens the scalar measurements for calibration averaging.
func (f FaceFeatures) Vector() []float64 {
	blink := 0.0
	if f.Blink {
		blink = 1
	}
	return []float64{f.GazeOffset, f.EyeOpenness, blink, f.SmileIntensity, f.BrowRaise}
}

// VoiceFeatures holds acoustic measurements over one audio window.
type VoiceFeatures struct {
	// RMS is the root mean square amplitude in [0, 1].
	RMS float64
	// Pitch is the estimated fundamental frequency in Hz, 0 when unvoiced.
	Pitch float64
	// ZeroCrossingRate is crossings per sample.
	ZeroCrossingRate float64
	// SpectralCentroid is in Hz.
	SpectralCentroid float64
	// VoicedRatio is the fraction of the window with speech energy.
	VoicedRatio float64
	Duration    time.Duration
}

// Vector flattens the measurements for calibration averaging.
func (v VoiceFeatures) Vector() []float64 {
	return []float64{v.RMS, v.Pitch, v.ZeroCrossingRate, v.SpectralCentroid, v.VoicedRatio}
}

// Transcript is the text recognized from one audio window.
type Transcript struct {
	Text     string
	Language string
	// Confidence is the recognizer's overall confidence in [0, 1].
	Confidence float64
	Duration   time.Duration
}

// Empty reports whether no speech was recognized.
func (t Transcript) Empty() bool {
	return t.Text == ""
}
