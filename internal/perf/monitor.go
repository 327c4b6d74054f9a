// Package perf tracks analysis pipeline health independent of scoring
// correctness. It never sits on the scoring path; recording is a short
// critical section and sampling happens from a background worker.
package perf

import (
	"fmt"
	"sync"
	"time"
)

// defaultWindow is how many recent passes feed the moving averages
const defaultWindow = 120

// sample is one completed analysis pass
type sample struct {
	at      time.Time
	latency time.Duration
	errors  int
}

// sessionStats accumulates per-session totals for scoped snapshots
type sessionStats struct {
	passes       int64
	errors       int64
	totalLatency time.Duration
}

// Snapshot is a point-in-time view of pipeline health
type Snapshot struct {
	SessionID       string        `json:"session_id,omitempty"`
	Passes          int64         `json:"passes"`
	AvgLatency      time.Duration `json:"avg_latency"`
	Throughput      float64       `json:"throughput"` // passes per second over the window
	ErrorRate       float64       `json:"error_rate"` // modality errors per pass
	Recommendations []string      `json:"recommendations"`
}

// Monitor records pass latencies and modality error counts in a rolling
// window and derives moving averages plus textual recommendations.
type Monitor struct {
	mu sync.Mutex

	window  []sample
	next    int
	filled  bool
	passes  int64
	perSess map[string]*sessionStats

	targetLatency time.Duration
	maxErrorRate  float64
}

// NewMonitor creates a monitor that flags passes slower than the target
// latency. A zero target disables the latency recommendation.
func NewMonitor(targetLatency time.Duration) *Monitor {
	return &Monitor{
		window:        make([]sample, defaultWindow),
		perSess:       make(map[string]*sessionStats),
		targetLatency: targetLatency,
		maxErrorRate:  0.5,
	}
}

// RecordPass registers one completed analysis pass with its wall-clock
// duration and how many of its modalities errored.
func (m *Monitor) RecordPass(sessionID string, latency time.Duration, modalityErrors int) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.window[m.next] = sample{at: now, latency: latency, errors: modalityErrors}
	m.next++
	if m.next == len(m.window) {
		m.next = 0
		m.filled = true
	}
	m.passes++

	st := m.perSess[sessionID]
	if st == nil {
		st = &sessionStats{}
		m.perSess[sessionID] = st
	}
	st.passes++
	st.errors += int64(modalityErrors)
	st.totalLatency += latency
}

// Forget drops per-session accumulators. Safe to call for unknown IDs.
func (m *Monitor) Forget(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.perSess, sessionID)
}

// Snapshot returns the global moving averages and recommendations
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.next
	if m.filled {
		n = len(m.window)
	}
	snap := Snapshot{Passes: m.passes}
	if n == 0 {
		return snap
	}

	var (
		totalLatency time.Duration
		totalErrors  int
		oldest       = time.Now()
		newest       time.Time
	)
	for i := 0; i < n; i++ {
		s := m.window[i]
		totalLatency += s.latency
		totalErrors += s.errors
		if s.at.Before(oldest) {
			oldest = s.at
		}
		if s.at.After(newest) {
			newest = s.at
		}
	}

	snap.AvgLatency = totalLatency / time.Duration(n)
	snap.ErrorRate = float64(totalErrors) / float64(n)
	if span := newest.Sub(oldest); span > 0 && n > 1 {
		snap.Throughput = float64(n-1) / span.Seconds()
	}
	snap.Recommendations = m.recommend(snap)
	return snap
}

// SessionSnapshot returns lifetime averages scoped to one session.
// Unknown sessions yield a zero snapshot.
func (m *Monitor) SessionSnapshot(sessionID string) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{SessionID: sessionID}
	st := m.perSess[sessionID]
	if st == nil || st.passes == 0 {
		return snap
	}
	snap.Passes = st.passes
	snap.AvgLatency = st.totalLatency / time.Duration(st.passes)
	snap.ErrorRate = float64(st.errors) / float64(st.passes)
	snap.Recommendations = m.recommend(snap)
	return snap
}

// recommend derives threshold-based advice. Called with mu held.
func (m *Monitor) recommend(snap Snapshot) []string {
	var recs []string
	if m.targetLatency > 0 && snap.AvgLatency > m.targetLatency {
		recs = append(recs, fmt.Sprintf(
			"analysis latency %v exceeds target %v, consider lighter models or a longer interval",
			snap.AvgLatency.Round(time.Millisecond), m.targetLatency))
	}
	if snap.ErrorRate > m.maxErrorRate {
		recs = append(recs, fmt.Sprintf(
			"modality error rate %.2f per pass is high, check perception providers",
			snap.ErrorRate))
	}
	return recs
}
