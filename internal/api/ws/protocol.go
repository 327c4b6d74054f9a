package ws

import (
	"encoding/base64"
	"encoding/binary"
	"time"

	"poise/internal/domain/perception"
	"poise/internal/domain/session"
	"poise/pkg/errors"
)

// Client message types
const (
	MsgStartSession = "start_session"
	MsgFrame        = "frame"
	MsgEndSession   = "end_session"
	MsgGetMetrics   = "get_metrics"
)

// Server message types
const (
	MsgSessionStarted = "session_started"
	MsgLiveFeedback   = "live_feedback"
	MsgReport         = "report"
	MsgMetrics        = "metrics"
	MsgError          = "error"
)

// ClientMessage is the envelope of every inbound frame
type ClientMessage struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Config    *SessionConfig `json:"config,omitempty"`
	Timestamp int64          `json:"timestamp,omitempty"` // unix millis
	Video     *VideoPayload  `json:"video,omitempty"`
	Audio     *AudioPayload  `json:"audio,omitempty"`
}

// SessionConfig is the wire form of a per-session configuration.
// Omitted fields fall back to platform defaults.
type SessionConfig struct {
	Weights            *session.FusionWeights `json:"weights,omitempty"`
	CalibrationFrames  map[string]int         `json:"calibration_frames,omitempty"`
	AnalysisIntervalMS int64                  `json:"analysis_interval_ms,omitempty"`
	PassTimeoutMS      int64                  `json:"pass_timeout_ms,omitempty"`
}

// Domain converts the wire config to the domain config
func (c *SessionConfig) Domain() session.Config {
	var cfg session.Config
	if c == nil {
		return cfg
	}
	if c.Weights != nil {
		cfg.Weights = *c.Weights
	}
	if len(c.CalibrationFrames) > 0 {
		cfg.CalibrationFrames = make(map[session.Modality]int, len(c.CalibrationFrames))
		for k, v := range c.CalibrationFrames {
			cfg.CalibrationFrames[session.Modality(k)] = v
		}
	}
	if c.AnalysisIntervalMS > 0 {
		cfg.AnalysisInterval = time.Duration(c.AnalysisIntervalMS) * time.Millisecond
	}
	if c.PassTimeoutMS > 0 {
		cfg.PassTimeout = time.Duration(c.PassTimeoutMS) * time.Millisecond
	}
	return cfg
}

// VideoPayload carries one base64 RGB24 frame
type VideoPayload struct {
	Data   string `json:"data"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Decode converts the payload to a domain video frame
func (v *VideoPayload) Decode() (perception.VideoFrame, error) {
	if v == nil {
		return perception.VideoFrame{}, nil
	}
	data, err := base64.StdEncoding.DecodeString(v.Data)
	if err != nil {
		return perception.VideoFrame{}, errors.Wrap(errors.ErrInvalidInput, "invalid video encoding")
	}
	return perception.VideoFrame{Data: data, Width: v.Width, Height: v.Height}, nil
}

// AudioPayload carries base64 little-endian int16 PCM
type AudioPayload struct {
	PCM        string `json:"pcm"`
	SampleRate int    `json:"sample_rate"`
}

// Decode converts the payload to a normalized domain audio chunk
func (a *AudioPayload) Decode() (perception.AudioChunk, error) {
	if a == nil {
		return perception.AudioChunk{}, nil
	}
	raw, err := base64.StdEncoding.DecodeString(a.PCM)
	if err != nil {
		return perception.AudioChunk{}, errors.Wrap(errors.ErrInvalidInput, "invalid audio encoding")
	}
	samples := make([]float64, len(raw)/2)
	for i := range samples {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768.0
	}
	return perception.AudioChunk{PCM: samples, SampleRate: a.SampleRate}, nil
}

// ServerMessage is the envelope of every outbound frame
type ServerMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Code      string      `json:"code,omitempty"`
	Message   string      `json:"message,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

// errorCode maps domain sentinels onto stable wire codes
func errorCode(err error) string {
	switch {
	case errors.Is(err, errors.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, errors.ErrDuplicateSession):
		return "duplicate_session"
	case errors.Is(err, errors.ErrInvalidTransition), errors.Is(err, errors.ErrSessionEnded):
		return "invalid_transition"
	case errors.Is(err, errors.ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, errors.ErrInvalidInput), errors.Is(err, errors.ErrEmptyBuffer):
		return "invalid_input"
	default:
		return "internal"
	}
}
