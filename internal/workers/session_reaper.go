package workers

import (
	"context"
	"time"

	"poise/internal/services/analyzer"
)

// SessionReaperWorker ends sessions whose clients stopped pushing frames
// without calling end_session, so abandoned sessions still produce a
// report and release their state.
type SessionReaperWorker struct {
	*BaseWorker
	service     *analyzer.Service
	idleTimeout time.Duration
}

// NewSessionReaperWorker creates the session reaper
func NewSessionReaperWorker(service *analyzer.Service, interval, idleTimeout time.Duration) *SessionReaperWorker {
	return &SessionReaperWorker{
		BaseWorker:  NewBaseWorker("session_reaper", interval, true),
		service:     service,
		idleTimeout: idleTimeout,
	}
}

// Run reaps idle sessions once
func (w *SessionReaperWorker) Run(ctx context.Context) error {
	start := time.Now()

	if reaped := w.service.ReapIdle(ctx, w.idleTimeout); reaped > 0 {
		w.Log().Infow("Reaped idle sessions", "count", reaped)
	}

	w.RecordRun(time.Since(start))
	return nil
}
