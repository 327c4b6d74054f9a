// Package analyzer orchestrates the scoring pipeline: session lifecycle,
// per-pass modality scoring, fusion into live feedback and end-of-session
// report synthesis.
package analyzer

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"poise/internal/analysis"
	"poise/internal/domain/perception"
	"poise/internal/domain/session"
	"poise/internal/metrics"
	"poise/internal/perf"
	sessionstore "poise/internal/services/session"
	"poise/pkg/errors"
	"poise/pkg/logger"
)

// Providers groups the perception capabilities the pipeline consumes.
// The pipeline never runs models itself.
type Providers struct {
	Pose       perception.PoseProvider
	Face       perception.FaceProvider
	Audio      perception.AudioFeatureProvider
	Transcribe perception.TranscriptionProvider
}

// EventPublisher pushes session lifecycle and feedback events downstream
type EventPublisher interface {
	SessionStarted(ctx context.Context, sessionID string, at time.Time) error
	FeedbackEvent(ctx context.Context, fb session.LiveFeedback) error
	SessionEnded(ctx context.Context, report session.Report) error
}

// ReportSink persists final session reports
type ReportSink interface {
	SaveReport(ctx context.Context, report session.Report) error
}

// FrameSink records per-pass feedback rows for offline analytics
type FrameSink interface {
	WriteFeedback(fb session.LiveFeedback) error
}

// Deps are the collaborators of the pipeline. Publisher and sinks are
// optional; nil disables them.
type Deps struct {
	Store     *sessionstore.Store
	Providers Providers
	Scorers   []analysis.Scorer
	Monitor   *perf.Monitor
	Publisher EventPublisher
	Reports   ReportSink
	Frames    FrameSink
}

// Service implements the four pipeline operations. One instance serves
// all sessions; per-session state lives in the store and is serialized
// by each session's own mutex.
type Service struct {
	log       *logger.Logger
	store     *sessionstore.Store
	providers Providers
	scorers   map[session.Modality]analysis.Scorer
	monitor   *perf.Monitor
	publisher EventPublisher
	reports   ReportSink
	frames    FrameSink

	defaults session.Config

	// Bounds concurrent analysis passes across all sessions
	passSem *semaphore.Weighted
}

// New creates the pipeline service. defaults fill any zero-valued fields
// of per-session configs; maxConcurrentPasses bounds cross-session
// analysis capacity.
func New(deps Deps, defaults session.Config, maxConcurrentPasses int64) *Service {
	if maxConcurrentPasses <= 0 {
		maxConcurrentPasses = 1
	}
	scorers := make(map[session.Modality]analysis.Scorer, len(deps.Scorers))
	for _, sc := range deps.Scorers {
		scorers[sc.Modality()] = sc
	}
	return &Service{
		log:       logger.Get().With("component", "analyzer"),
		store:     deps.Store,
		providers: deps.Providers,
		scorers:   scorers,
		monitor:   deps.Monitor,
		publisher: deps.Publisher,
		reports:   deps.Reports,
		frames:    deps.Frames,
		defaults:  defaults,
		passSem:   semaphore.NewWeighted(maxConcurrentPasses),
	}
}

// StartSession registers a new session. An empty ID gets a generated
// UUID. The effective session ID is returned. Misconfigured sessions are
// rejected here, never mid-session.
func (s *Service) StartSession(ctx context.Context, id string, cfg session.Config) (string, error) {
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	cfg = s.applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		metrics.SessionsStarted.WithLabelValues("rejected").Inc()
		return "", err
	}

	sess := session.New(id, cfg, time.Now())
	if err := s.store.Create(sess); err != nil {
		metrics.SessionsStarted.WithLabelValues("rejected").Inc()
		return "", err
	}

	metrics.SessionsStarted.WithLabelValues("success").Inc()
	metrics.SessionsActive.Set(float64(s.store.Count()))
	s.log.Infow("Session started", "session_id", id, "interval", cfg.AnalysisInterval)

	if s.publisher != nil {
		if err := s.publisher.SessionStarted(ctx, id, sess.CreatedAt); err != nil {
			s.log.Warnw("Failed to publish session started event", "session_id", id, "error", err)
		}
	}
	return id, nil
}

// ProcessFrame ingests one video/audio pair. When the analysis interval
// has elapsed it runs a full four-modality pass and returns live
// feedback; otherwise it only buffers and returns nil.
func (s *Service) ProcessFrame(ctx context.Context, id string, video perception.VideoFrame, audio perception.AudioChunk, ts time.Time) (*session.LiveFeedback, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.Mu.Lock()
	defer sess.Mu.Unlock()

	if sess.Status.Terminal() {
		return nil, errors.Wrapf(errors.ErrInvalidTransition, "session %s already %s", id, sess.Status)
	}
	if sess.Status == session.StatusCreated {
		sess.Status = session.StatusCalibrating
	}

	sess.PushMedia(ts, video, audio)

	if ts.Sub(sess.LastAnalysisAt) < sess.Config.AnalysisInterval {
		return nil, nil
	}
	if !ts.After(sess.LastAnalysisAt) {
		return nil, nil
	}

	if err := s.passSem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "acquire analysis capacity")
	}
	defer s.passSem.Release(1)

	return s.runPass(ctx, sess, ts)
}

// EndSession marks the session ended, synthesizes the final report from
// the full history and releases the session. The Ended mark happens
// under the session mutex, so any in-flight pass has completed and no
// new frames can slip in.
func (s *Service) EndSession(ctx context.Context, id string) (session.Report, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return session.Report{}, err
	}

	sess.Mu.Lock()
	if !sess.Status.CanTransitionTo(session.StatusEnded) {
		sess.Mu.Unlock()
		return session.Report{}, errors.Wrapf(errors.ErrSessionEnded, "session %s", id)
	}
	now := time.Now()
	sess.Status = session.StatusEnded
	sess.EndedAt = now

	report := s.buildReport(sess, now)
	sess.Mu.Unlock()

	s.store.Delete(id)
	s.monitor.Forget(id)
	metrics.SessionsActive.Set(float64(s.store.Count()))
	metrics.SessionDuration.Observe(report.SessionDuration.Seconds())
	s.log.Infow("Session ended",
		"session_id", id,
		"frames", report.FramesAnalyzed,
		"overall", report.OverallScore,
		"duration", report.DurationText)

	if s.reports != nil {
		start := time.Now()
		err := s.reports.SaveReport(ctx, report)
		metrics.RecordSinkWrite("redis", time.Since(start), err)
		if err != nil {
			s.log.ErrorWithContext(ctx, err, map[string]string{"session_id": id, "sink": "report"})
		}
	}
	if s.publisher != nil {
		if err := s.publisher.SessionEnded(ctx, report); err != nil {
			s.log.Warnw("Failed to publish session ended event", "session_id", id, "error", err)
		}
	}
	return report, nil
}

// PerformanceMetrics returns pipeline health, scoped to one session when
// an ID is given and global otherwise.
func (s *Service) PerformanceMetrics(sessionID string) perf.Snapshot {
	if sessionID != "" {
		return s.monitor.SessionSnapshot(sessionID)
	}
	return s.monitor.Snapshot()
}

// Cleanup releases all state of a session without producing a report.
// Idempotent: unknown IDs are a no-op.
func (s *Service) Cleanup(id string) {
	sess, err := s.store.Get(id)
	if err == nil {
		sess.Mu.Lock()
		if !sess.Status.Terminal() {
			sess.Status = session.StatusEnded
			sess.EndedAt = time.Now()
		}
		sess.Mu.Unlock()
	}
	s.store.Delete(id)
	s.monitor.Forget(id)
	metrics.SessionsActive.Set(float64(s.store.Count()))
}

// ReapIdle ends sessions that have not received a frame within the idle
// timeout. Returns how many sessions were reaped.
func (s *Service) ReapIdle(ctx context.Context, idleTimeout time.Duration) int {
	if idleTimeout <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-idleTimeout)

	var stale []string
	s.store.Range(func(sess *session.Session) {
		sess.Mu.Lock()
		idle := sess.LastAnalysisAt.Before(cutoff) && sess.CreatedAt.Before(cutoff)
		sess.Mu.Unlock()
		if idle {
			stale = append(stale, sess.ID)
		}
	})

	for _, id := range stale {
		s.log.Warnw("Reaping idle session", "session_id", id)
		if _, err := s.EndSession(ctx, id); err != nil {
			s.Cleanup(id)
		}
	}
	return len(stale)
}

// applyDefaults fills zero-valued per-session config fields from the
// platform defaults.
func (s *Service) applyDefaults(cfg session.Config) session.Config {
	if cfg.Weights == (session.FusionWeights{}) {
		cfg.Weights = s.defaults.Weights
	}
	if cfg.CalibrationFrames == nil {
		cfg.CalibrationFrames = s.defaults.CalibrationFrames
	}
	if cfg.AnalysisInterval == 0 {
		cfg.AnalysisInterval = s.defaults.AnalysisInterval
	}
	if cfg.PassTimeout == 0 {
		cfg.PassTimeout = s.defaults.PassTimeout
	}
	if cfg.FeedbackEventRate == 0 {
		cfg.FeedbackEventRate = s.defaults.FeedbackEventRate
	}
	if cfg.FeedbackEventBurst == 0 {
		cfg.FeedbackEventBurst = s.defaults.FeedbackEventBurst
	}
	return cfg
}
