package session

import "time"

// ResultStatus tags the outcome of one modality for one analysis pass.
// Exactly one variant is active per modality per pass.
type ResultStatus string

const (
	ResultSuccess     ResultStatus = "success"
	ResultNotDetected ResultStatus = "not_detected"
	ResultCalibrating ResultStatus = "calibrating"
	ResultError       ResultStatus = "error"
)

// Tip is a short actionable message tied to one modality
type Tip struct {
	Text     string
	Modality Modality
	Positive bool
	// Priority is how far the underlying sub-score sits below its "good"
	// threshold; higher means more urgent. Positive tips carry 0.
	Priority float64
}

// ModalityResult is the closed tagged result of a single modality pass
type ModalityResult struct {
	Status ResultStatus

	// Success fields
	Scores map[string]float64
	Tips   []Tip

	// Calibrating field
	Progress float64

	// NotDetected prompt or Error message
	Message string
}

// SuccessResult builds a Success variant
func SuccessResult(scores map[string]float64, tips []Tip) ModalityResult {
	return ModalityResult{Status: ResultSuccess, Scores: scores, Tips: tips}
}

// NotDetectedResult builds a NotDetected variant with a generic prompt tip
func NotDetectedResult(m Modality, prompt string) ModalityResult {
	return ModalityResult{
		Status:  ResultNotDetected,
		Message: prompt,
		Tips:    []Tip{{Text: prompt, Modality: m, Priority: 0}},
	}
}

// CalibratingResult builds a Calibrating variant
func CalibratingResult(progress float64) ModalityResult {
	if progress > 1 {
		progress = 1
	}
	return ModalityResult{Status: ResultCalibrating, Progress: progress}
}

// ErrorResult builds an Error variant
func ErrorResult(message string) ModalityResult {
	return ModalityResult{Status: ResultError, Message: message}
}

// Composite returns the mean of all sub-scores, or 0 for non-success variants
func (r ModalityResult) Composite() float64 {
	if r.Status != ResultSuccess || len(r.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range r.Scores {
		sum += v
	}
	return sum / float64(len(r.Scores))
}

// Scored reports whether this result contributes to averages
func (r ModalityResult) Scored() bool {
	return r.Status == ResultSuccess
}

// AnalysisFrame is one completed analysis pass: a timestamp and one result
// per modality. Frames are appended to session history and never mutated.
type AnalysisFrame struct {
	Timestamp time.Time
	Results   map[Modality]ModalityResult
}
