package session

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"poise/internal/domain/perception"
)

// Status defines the session lifecycle state
type Status string

const (
	StatusCreated     Status = "created"
	StatusCalibrating Status = "calibrating"
	StatusActive      Status = "active"
	StatusEnded       Status = "ended"
	StatusError       Status = "error"
)

// Valid checks if the status is a known lifecycle state
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusCalibrating, StatusActive, StatusEnded, StatusError:
		return true
	}
	return false
}

// Terminal reports whether the session can no longer accept frames
func (s Status) Terminal() bool {
	return s == StatusEnded || s == StatusError
}

// CanTransitionTo checks the allowed lifecycle order:
// Created -> Calibrating -> Active -> Ended. Error is reachable from any
// state, and a session may end from any non-terminal state.
func (s Status) CanTransitionTo(next Status) bool {
	if next == StatusError {
		return true
	}
	switch s {
	case StatusCreated:
		return next == StatusCalibrating || next == StatusEnded
	case StatusCalibrating:
		return next == StatusActive || next == StatusEnded
	case StatusActive:
		return next == StatusEnded
	}
	return false
}

// Modality identifies one independent analysis channel
type Modality string

const (
	ModalityPosture Modality = "posture"
	ModalityFace    Modality = "face"
	ModalityVoice   Modality = "voice"
	ModalitySpeech  Modality = "speech"
)

// Modalities lists all channels in tip-priority order (body > vocal > content > face)
var Modalities = [4]Modality{ModalityPosture, ModalityVoice, ModalitySpeech, ModalityFace}

// TimedVideo is a buffered video frame with its capture timestamp
type TimedVideo struct {
	Timestamp time.Time
	Frame     perception.VideoFrame
}

// TimedAudio is a buffered audio chunk with its capture timestamp
type TimedAudio struct {
	Timestamp time.Time
	Chunk     perception.AudioChunk
}

// TranscriptSegment is one transcribed speech segment
type TranscriptSegment struct {
	Timestamp time.Time
	Text      string
	Duration  time.Duration
}

// Session holds all state for one analysis session. The store hands out
// *Session values; the pipeline serializes access through Mu, which also
// guarantees in-order history appends and that EndSession waits for any
// in-flight analysis pass.
type Session struct {
	Mu sync.Mutex

	ID     string
	Status Status
	Config Config

	CreatedAt      time.Time
	EndedAt        time.Time
	LastAnalysisAt time.Time

	// Ingestion buffers, trimmed to a short tail after each pass
	VideoBuffer []TimedVideo
	AudioBuffer []TimedAudio

	// Append-only analysis history for the whole session
	History []AnalysisFrame

	// Per-modality personal baselines
	Calibrations map[Modality]*Calibration

	// Rolling feature-vector windows per modality, for temporal sub-scores
	FeatureHistory map[Modality][][]float64

	// Accumulated speech transcript
	Transcript []TranscriptSegment

	// Counters
	FramesProcessed int64
	ErrorCount      int64

	// Bounds outbound live-feedback events, independent of the analysis interval
	FeedbackLimiter *rate.Limiter
}

// bufferTail is how many buffered items survive a pass, for continuity context
const bufferTail = 5

// maxFeatureHistory caps the rolling feature window per modality
const maxFeatureHistory = 30

// New creates a session in the Created state with calibration trackers
// sized from the config.
func New(id string, cfg Config, now time.Time) *Session {
	s := &Session{
		ID:             id,
		Status:         StatusCreated,
		Config:         cfg,
		CreatedAt:      now,
		LastAnalysisAt: now,
		Calibrations:   make(map[Modality]*Calibration, len(Modalities)),
		FeatureHistory: make(map[Modality][][]float64, len(Modalities)),
	}
	for _, m := range Modalities {
		s.Calibrations[m] = NewCalibration(cfg.CalibrationFrames[m])
	}
	if cfg.FeedbackEventRate > 0 {
		s.FeedbackLimiter = rate.NewLimiter(rate.Limit(cfg.FeedbackEventRate), cfg.FeedbackEventBurst)
	}
	return s
}

// PushMedia appends a video/audio pair to the ingestion buffers.
// Must be called with Mu held.
func (s *Session) PushMedia(ts time.Time, video perception.VideoFrame, audio perception.AudioChunk) {
	s.VideoBuffer = append(s.VideoBuffer, TimedVideo{Timestamp: ts, Frame: video})
	s.AudioBuffer = append(s.AudioBuffer, TimedAudio{Timestamp: ts, Chunk: audio})
}

// TrimBuffers keeps only the most recent tail of each buffer after a pass.
// Must be called with Mu held.
func (s *Session) TrimBuffers() {
	if n := len(s.VideoBuffer); n > bufferTail {
		s.VideoBuffer = append(s.VideoBuffer[:0:0], s.VideoBuffer[n-bufferTail:]...)
	}
	if n := len(s.AudioBuffer); n > bufferTail {
		s.AudioBuffer = append(s.AudioBuffer[:0:0], s.AudioBuffer[n-bufferTail:]...)
	}
}

// AppendFeatures records a modality's feature vector in its rolling window.
// Must be called with Mu held.
func (s *Session) AppendFeatures(m Modality, vec []float64) {
	hist := append(s.FeatureHistory[m], vec)
	if len(hist) > maxFeatureHistory {
		hist = hist[len(hist)-maxFeatureHistory:]
	}
	s.FeatureHistory[m] = hist
}

// AllCalibrated reports whether every modality with a nonzero threshold
// has finished calibrating.
func (s *Session) AllCalibrated() bool {
	for _, c := range s.Calibrations {
		if !c.Done() {
			return false
		}
	}
	return true
}

// Duration returns the session length so far (or final length once ended)
func (s *Session) Duration(now time.Time) time.Duration {
	if !s.EndedAt.IsZero() {
		return s.EndedAt.Sub(s.CreatedAt)
	}
	return now.Sub(s.CreatedAt)
}
