package session

// Calibration tracks a per-modality personal baseline built from the first
// Required feature vectors of a session. The baseline is an equal-weight
// online average: each new sample is averaged with the previous baseline,
// never recomputed from scratch once calibration completes.
type Calibration struct {
	Frames   int
	Required int
	Baseline []float64
}

// NewCalibration creates a tracker that needs the given number of frames.
// A zero or negative requirement means the modality skips calibration.
func NewCalibration(required int) *Calibration {
	if required < 0 {
		required = 0
	}
	return &Calibration{Required: required}
}

// Observe folds one feature vector into the running baseline and advances
// the counter. Vectors of unexpected length are ignored so a single bad
// sample cannot corrupt the baseline shape.
func (c *Calibration) Observe(vec []float64) {
	if len(vec) == 0 {
		return
	}
	if c.Baseline == nil {
		c.Baseline = append([]float64(nil), vec...)
		c.Frames++
		return
	}
	if len(vec) != len(c.Baseline) {
		return
	}
	for i, v := range vec {
		c.Baseline[i] = (c.Baseline[i] + v) / 2
	}
	c.Frames++
}

// Done reports whether enough frames have been observed
func (c *Calibration) Done() bool {
	return c.Frames >= c.Required
}

// Progress returns the calibration completion fraction in [0, 1]
func (c *Calibration) Progress() float64 {
	if c.Required <= 0 {
		return 1
	}
	p := float64(c.Frames) / float64(c.Required)
	if p > 1 {
		p = 1
	}
	return p
}
