package analyzer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poise/internal/analysis"
	"poise/internal/domain/perception"
	"poise/internal/domain/session"
	"poise/internal/perf"
	sessionstore "poise/internal/services/session"
	"poise/pkg/errors"
)

// Provider fakes. Each returns fixed features or a fixed error so tests
// can steer individual modalities.

type fakePoseProvider struct {
	feats perception.PoseFeatures
	err   error
}

func (f *fakePoseProvider) DetectPose(ctx context.Context, frame perception.VideoFrame) (perception.PoseFeatures, error) {
	return f.feats, f.err
}

type fakeFaceProvider struct {
	feats perception.FaceFeatures
	err   error
}

func (f *fakeFaceProvider) DetectFace(ctx context.Context, frame perception.VideoFrame) (perception.FaceFeatures, error) {
	return f.feats, f.err
}

type fakeAudioProvider struct {
	feats perception.VoiceFeatures
	err   error
}

func (f *fakeAudioProvider) ExtractVoice(ctx context.Context, chunk perception.AudioChunk) (perception.VoiceFeatures, error) {
	return f.feats, f.err
}

type fakeTranscriptionProvider struct {
	transcript perception.Transcript
	err        error
}

func (f *fakeTranscriptionProvider) Transcribe(ctx context.Context, chunk perception.AudioChunk) (perception.Transcript, error) {
	return f.transcript, f.err
}

type fakePublisher struct {
	mu       sync.Mutex
	started  int
	feedback int
	ended    int
}

func (p *fakePublisher) SessionStarted(ctx context.Context, sessionID string, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started++
	return nil
}

func (p *fakePublisher) FeedbackEvent(ctx context.Context, fb session.LiveFeedback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.feedback++
	return nil
}

func (p *fakePublisher) SessionEnded(ctx context.Context, report session.Report) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ended++
	return nil
}

func (p *fakePublisher) feedbackCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.feedback
}

type fakeReportSink struct {
	mu    sync.Mutex
	saved []session.Report
}

func (s *fakeReportSink) SaveReport(ctx context.Context, report session.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, report)
	return nil
}

func goodProviders() Providers {
	return Providers{
		Pose: &fakePoseProvider{feats: perception.PoseFeatures{
			Landmarks: map[string]perception.Point3{
				perception.LandmarkNose:          {X: 0.50, Y: 0.20},
				perception.LandmarkLeftShoulder:  {X: 0.40, Y: 0.35},
				perception.LandmarkRightShoulder: {X: 0.60, Y: 0.35},
				perception.LandmarkLeftWrist:     {X: 0.38, Y: 0.62},
				perception.LandmarkRightWrist:    {X: 0.62, Y: 0.62},
				perception.LandmarkLeftHip:       {X: 0.43, Y: 0.70},
				perception.LandmarkRightHip:      {X: 0.57, Y: 0.70},
			},
			DetectionScore: 0.9,
		}},
		Face: &fakeFaceProvider{feats: perception.FaceFeatures{
			GazeOffset:     0.02,
			EyeOpenness:    0.8,
			SmileIntensity: 0.3,
			DetectionScore: 0.9,
		}},
		Audio: &fakeAudioProvider{feats: perception.VoiceFeatures{
			RMS:         0.12,
			Pitch:       180,
			VoicedRatio: 0.85,
			Duration:    time.Second,
		}},
		Transcribe: &fakeTranscriptionProvider{transcript: perception.Transcript{
			Text:     "First we measured throughput. Then we compared latency across regions.",
			Duration: 4 * time.Second,
		}},
	}
}

func testScorers() []analysis.Scorer {
	return []analysis.Scorer{
		analysis.NewPostureScorer(),
		analysis.NewFaceScorer(time.Second),
		analysis.NewVoiceScorer(),
		analysis.NewSpeechScorer(nil),
	}
}

func testDefaults(calibration map[session.Modality]int) session.Config {
	return session.Config{
		Weights:           session.FusionWeights{Body: 0.35, Vocal: 0.35, Content: 0.30},
		CalibrationFrames: calibration,
		AnalysisInterval:  time.Second,
		PassTimeout:       5 * time.Second,
	}
}

func noCalibration() map[session.Modality]int {
	return map[session.Modality]int{
		session.ModalityPosture: 0,
		session.ModalityFace:    0,
		session.ModalityVoice:   0,
	}
}

type testEnv struct {
	service   *Service
	store     *sessionstore.Store
	publisher *fakePublisher
	reports   *fakeReportSink
}

func newTestEnv(t *testing.T, providers Providers, defaults session.Config) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     sessionstore.NewStore(),
		publisher: &fakePublisher{},
		reports:   &fakeReportSink{},
	}
	env.service = New(Deps{
		Store:     env.store,
		Providers: providers,
		Scorers:   testScorers(),
		Monitor:   perf.NewMonitor(time.Second),
		Publisher: env.publisher,
		Reports:   env.reports,
	}, defaults, 4)
	return env
}

func testMedia() (perception.VideoFrame, perception.AudioChunk) {
	video := perception.VideoFrame{Data: []byte{1, 2, 3}, Width: 2, Height: 2}
	audio := perception.AudioChunk{PCM: make([]float64, 1600), SampleRate: 16000}
	return video, audio
}

func TestStartSession_GeneratesID(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))

	id, err := env.service.StartSession(context.Background(), "", session.Config{})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, env.store.Count())
	assert.Equal(t, 1, env.publisher.started)
}

func TestStartSession_RejectsBadWeights(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))

	cfg := session.Config{Weights: session.FusionWeights{Body: 0.4, Vocal: 0.4, Content: 0.4}}
	_, err := env.service.StartSession(context.Background(), "s1", cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))
	assert.Equal(t, 0, env.store.Count())
}

func TestStartSession_Duplicate(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))
	ctx := context.Background()

	_, err := env.service.StartSession(ctx, "dup", session.Config{})
	require.NoError(t, err)

	_, err = env.service.StartSession(ctx, "dup", session.Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateSession))
}

func TestProcessFrame_UnknownSession(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))
	video, audio := testMedia()

	_, err := env.service.ProcessFrame(context.Background(), "ghost", video, audio, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSessionNotFound))
}

// Calibration gates live feedback: nothing is emitted until every
// modality finishes its baseline, and once active the session never
// falls back to calibrating.
func TestProcessFrame_CalibrationGate(t *testing.T) {
	calibration := map[session.Modality]int{
		session.ModalityPosture: 2,
		session.ModalityFace:    3,
		session.ModalityVoice:   2,
	}
	env := newTestEnv(t, goodProviders(), testDefaults(calibration))
	ctx := context.Background()
	video, audio := testMedia()

	_, err := env.service.StartSession(ctx, "s1", session.Config{})
	require.NoError(t, err)

	base := time.Now()
	var firstActive int
	for i := 1; i <= 8; i++ {
		fb, err := env.service.ProcessFrame(ctx, "s1", video, audio, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		if fb != nil && firstActive == 0 {
			firstActive = i
		}
		if firstActive > 0 && i > firstActive {
			// Once live feedback starts it never stops again
			require.NotNil(t, fb, "pass %d", i)
		}
	}

	// The face modality needs 3 frames, so the first two passes stay silent
	assert.Equal(t, 3, firstActive)

	sess, err := env.store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, session.StatusActive, sess.Status)
	assert.Len(t, sess.History, 8)
}

// Frames arriving faster than the analysis interval only buffer; history
// grows exactly once per due pass.
func TestProcessFrame_IntervalScheduling(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))
	ctx := context.Background()
	video, audio := testMedia()

	_, err := env.service.StartSession(ctx, "s1", session.Config{})
	require.NoError(t, err)

	base := time.Now()
	fb, err := env.service.ProcessFrame(ctx, "s1", video, audio, base.Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, fb)

	sess, err := env.store.Get("s1")
	require.NoError(t, err)
	require.Len(t, sess.History, 1)

	// Not due yet: buffered only
	fb, err = env.service.ProcessFrame(ctx, "s1", video, audio, base.Add(1500*time.Millisecond))
	require.NoError(t, err)
	assert.Nil(t, fb)
	assert.Len(t, sess.History, 1)

	// A stale timestamp never triggers a pass either
	fb, err = env.service.ProcessFrame(ctx, "s1", video, audio, base.Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.Nil(t, fb)
	assert.Len(t, sess.History, 1)

	// Due again
	fb, err = env.service.ProcessFrame(ctx, "s1", video, audio, base.Add(2*time.Second))
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Len(t, sess.History, 2)
}

// The interval clock starts at session creation, so the very first frame
// only buffers until a full interval has elapsed.
func TestProcessFrame_FirstFrameWaitsForInterval(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))
	ctx := context.Background()
	video, audio := testMedia()

	_, err := env.service.StartSession(ctx, "s1", session.Config{})
	require.NoError(t, err)

	sess, err := env.store.Get("s1")
	require.NoError(t, err)
	base := sess.CreatedAt

	fb, err := env.service.ProcessFrame(ctx, "s1", video, audio, base.Add(time.Millisecond))
	require.NoError(t, err)
	assert.Nil(t, fb)
	assert.Empty(t, sess.History)

	fb, err = env.service.ProcessFrame(ctx, "s1", video, audio, base.Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Len(t, sess.History, 1)
}

func TestProcessFrame_EmptyMediaBuffers(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))
	ctx := context.Background()

	_, err := env.service.StartSession(ctx, "s1", session.Config{})
	require.NoError(t, err)

	_, err = env.service.ProcessFrame(ctx, "s1", perception.VideoFrame{}, perception.AudioChunk{}, time.Now().Add(time.Second))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEmptyBuffer))
}

// When no modality detects anything, fusion degrades to the neutral
// score instead of collapsing to zero.
func TestProcessFrame_AllModalitiesNotDetected(t *testing.T) {
	providers := Providers{
		Pose:       &fakePoseProvider{err: errors.Wrap(errors.ErrNotDetected, "no person")},
		Face:       &fakeFaceProvider{err: errors.Wrap(errors.ErrNotDetected, "no face")},
		Audio:      &fakeAudioProvider{err: errors.Wrap(errors.ErrNotDetected, "silence")},
		Transcribe: &fakeTranscriptionProvider{err: errors.Wrap(errors.ErrNotDetected, "silence")},
	}
	env := newTestEnv(t, providers, testDefaults(noCalibration()))
	ctx := context.Background()
	video, audio := testMedia()

	_, err := env.service.StartSession(ctx, "s1", session.Config{})
	require.NoError(t, err)

	fb, err := env.service.ProcessFrame(ctx, "s1", video, audio, time.Now().Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, fb)

	assert.InDelta(t, 70.0, fb.OverallScore, 1e-9)
	assert.InDelta(t, 70.0, fb.BodyLanguageScore, 1e-9)
	assert.InDelta(t, 70.0, fb.VocalDeliveryScore, 1e-9)
	assert.InDelta(t, 70.0, fb.ContentQualityScore, 1e-9)

	// The listener still gets guidance prompts
	assert.NotEmpty(t, fb.LiveTips)
	assert.LessOrEqual(t, len(fb.LiveTips), 3)
}

func TestProcessFrame_TipCap(t *testing.T) {
	// Everything is wrong at once: tilted shoulders, averted gaze, a
	// whisper and filler-laden speech. Still at most three tips.
	providers := Providers{
		Pose: &fakePoseProvider{feats: perception.PoseFeatures{
			Landmarks: map[string]perception.Point3{
				perception.LandmarkNose:          {X: 0.80, Y: 0.20},
				perception.LandmarkLeftShoulder:  {X: 0.40, Y: 0.25},
				perception.LandmarkRightShoulder: {X: 0.60, Y: 0.45},
				perception.LandmarkLeftWrist:     {X: 0.49, Y: 0.62},
				perception.LandmarkRightWrist:    {X: 0.51, Y: 0.62},
				perception.LandmarkLeftHip:       {X: 0.20, Y: 0.70},
				perception.LandmarkRightHip:      {X: 0.34, Y: 0.70},
			},
		}},
		Face:  &fakeFaceProvider{feats: perception.FaceFeatures{GazeOffset: 0.4}},
		Audio: &fakeAudioProvider{feats: perception.VoiceFeatures{RMS: 0.005, Pitch: 300, VoicedRatio: 0.2}},
		Transcribe: &fakeTranscriptionProvider{transcript: perception.Transcript{
			Text:     "Um so like basically um like well okay right so um.",
			Duration: 5 * time.Second,
		}},
	}
	env := newTestEnv(t, providers, testDefaults(noCalibration()))
	ctx := context.Background()
	video, audio := testMedia()

	_, err := env.service.StartSession(ctx, "s1", session.Config{})
	require.NoError(t, err)

	fb, err := env.service.ProcessFrame(ctx, "s1", video, audio, time.Now().Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, fb)

	assert.NotEmpty(t, fb.LiveTips)
	assert.LessOrEqual(t, len(fb.LiveTips), 3)
}

// One broken provider degrades its own modality and nothing else
func TestProcessFrame_ModalityErrorIsolation(t *testing.T) {
	providers := goodProviders()
	providers.Transcribe = &fakeTranscriptionProvider{err: errors.New("upstream 500")}

	env := newTestEnv(t, providers, testDefaults(noCalibration()))
	ctx := context.Background()
	video, audio := testMedia()

	_, err := env.service.StartSession(ctx, "s1", session.Config{})
	require.NoError(t, err)

	fb, err := env.service.ProcessFrame(ctx, "s1", video, audio, time.Now().Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, fb)

	// Content falls back to neutral, the other components still score
	assert.InDelta(t, 70.0, fb.ContentQualityScore, 1e-9)
	assert.Greater(t, fb.BodyLanguageScore, 70.0)

	sess, err := env.store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), sess.ErrorCount)
	speech := sess.History[0].Results[session.ModalitySpeech]
	assert.Equal(t, session.ResultError, speech.Status)
	assert.Contains(t, speech.Message, "transcribe provider")
	assert.Contains(t, speech.Message, errors.ErrProviderFailed.Error())
}

func TestProcessFrame_AfterEnd(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))
	ctx := context.Background()
	video, audio := testMedia()

	_, err := env.service.StartSession(ctx, "s1", session.Config{})
	require.NoError(t, err)
	_, err = env.service.EndSession(ctx, "s1")
	require.NoError(t, err)

	// The session is released on end, so frames bounce off the registry
	_, err = env.service.ProcessFrame(ctx, "s1", video, audio, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSessionNotFound))
}

func TestEndSession_Report(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))
	ctx := context.Background()
	video, audio := testMedia()

	_, err := env.service.StartSession(ctx, "s1", session.Config{})
	require.NoError(t, err)

	base := time.Now()
	for i := 1; i <= 4; i++ {
		_, err := env.service.ProcessFrame(ctx, "s1", video, audio, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	report, err := env.service.EndSession(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, "s1", report.SessionID)
	assert.Equal(t, 4, report.FramesAnalyzed)
	assert.Greater(t, report.OverallScore, 0.0)
	assert.LessOrEqual(t, report.OverallScore, 100.0)
	assert.Greater(t, report.BodyLanguage.Average, 0.0)
	assert.NotEmpty(t, report.DetailedMetrics)
	assert.NotEmpty(t, report.Plan.Timeline)
	assert.NotEmpty(t, report.Feedback.Strengths)
	assert.NotEmpty(t, report.Feedback.NextSteps)

	// Transcript accumulates across passes
	assert.Greater(t, report.TotalWords, 0)
	assert.NotEmpty(t, report.FullTranscript)

	// Session state is fully released
	assert.Equal(t, 0, env.store.Count())
	require.Len(t, env.reports.saved, 1)
	assert.Equal(t, 1, env.publisher.ended)
}

// A session ended before any analysis yields a zeroed report, not an error
func TestEndSession_EmptySession(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))
	ctx := context.Background()

	_, err := env.service.StartSession(ctx, "empty", session.Config{})
	require.NoError(t, err)

	report, err := env.service.EndSession(ctx, "empty")
	require.NoError(t, err)

	assert.Equal(t, "empty", report.SessionID)
	assert.Equal(t, 0, report.FramesAnalyzed)
	assert.Equal(t, 0.0, report.OverallScore)
	assert.Equal(t, 0.0, report.BodyLanguage.Average)
	assert.Equal(t, session.TrendStable, report.BodyLanguage.Trend)
	assert.Equal(t, session.TrendStable, report.VocalDelivery.Trend)
	assert.Equal(t, session.TrendStable, report.ContentQuality.Trend)
	assert.Empty(t, report.Feedback.Strengths)
	assert.NotEmpty(t, report.Feedback.SpecificSuggestions)
	assert.NotEmpty(t, report.Feedback.NextSteps)
	assert.NotEmpty(t, report.Feedback.PriorityFocus)
	assert.NotEmpty(t, report.DurationText)
}

func TestEndSession_Twice(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))
	ctx := context.Background()

	_, err := env.service.StartSession(ctx, "s1", session.Config{})
	require.NoError(t, err)
	_, err = env.service.EndSession(ctx, "s1")
	require.NoError(t, err)

	_, err = env.service.EndSession(ctx, "s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSessionNotFound))
}

// A session whose speech provider failed every pass still reports: the
// broken component aggregates to zero, the rest score normally.
func TestEndSession_ReportWithBrokenModality(t *testing.T) {
	providers := goodProviders()
	providers.Transcribe = &fakeTranscriptionProvider{err: errors.New("upstream 500")}

	env := newTestEnv(t, providers, testDefaults(noCalibration()))
	ctx := context.Background()
	video, audio := testMedia()

	_, err := env.service.StartSession(ctx, "s1", session.Config{})
	require.NoError(t, err)

	base := time.Now()
	for i := 1; i <= 3; i++ {
		_, err := env.service.ProcessFrame(ctx, "s1", video, audio, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	report, err := env.service.EndSession(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, 3, report.FramesAnalyzed)
	assert.Equal(t, 0.0, report.ContentQuality.Average)
	assert.Equal(t, session.TrendStable, report.ContentQuality.Trend)
	assert.Greater(t, report.BodyLanguage.Average, 0.0)
	assert.Greater(t, report.VocalDelivery.Average, 0.0)
}

func TestCleanup_Idempotent(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))
	ctx := context.Background()

	_, err := env.service.StartSession(ctx, "s1", session.Config{})
	require.NoError(t, err)

	env.service.Cleanup("s1")
	assert.Equal(t, 0, env.store.Count())
	// No report is produced on cleanup
	assert.Empty(t, env.reports.saved)

	// Repeated and unknown cleanups are no-ops
	env.service.Cleanup("s1")
	env.service.Cleanup("never-existed")
}

func TestReapIdle(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))
	ctx := context.Background()

	_, err := env.service.StartSession(ctx, "stale", session.Config{})
	require.NoError(t, err)
	_, err = env.service.StartSession(ctx, "fresh", session.Config{})
	require.NoError(t, err)

	// Age one session past the idle cutoff
	sess, err := env.store.Get("stale")
	require.NoError(t, err)
	sess.Mu.Lock()
	sess.CreatedAt = time.Now().Add(-time.Hour)
	sess.LastAnalysisAt = sess.CreatedAt
	sess.Mu.Unlock()

	reaped := env.service.ReapIdle(ctx, 15*time.Minute)
	assert.Equal(t, 1, reaped)
	assert.Equal(t, 1, env.store.Count())

	_, err = env.store.Get("stale")
	assert.Error(t, err)
	_, err = env.store.Get("fresh")
	assert.NoError(t, err)
}

func TestReapIdle_ZeroTimeoutDisabled(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))
	assert.Equal(t, 0, env.service.ReapIdle(context.Background(), 0))
}

// Two concurrent sessions keep fully independent baselines
func TestSessions_BaselineIsolation(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(map[session.Modality]int{
		session.ModalityFace: 1,
	}))
	ctx := context.Background()
	video, audio := testMedia()

	_, err := env.service.StartSession(ctx, "a", session.Config{})
	require.NoError(t, err)
	_, err = env.service.StartSession(ctx, "b", session.Config{})
	require.NoError(t, err)

	base := time.Now()
	_, err = env.service.ProcessFrame(ctx, "a", video, audio, base.Add(time.Second))
	require.NoError(t, err)

	// Shift the shared fake's gaze before the second session calibrates
	face := env.service.providers.Face.(*fakeFaceProvider)
	face.feats.GazeOffset = 0.3

	_, err = env.service.ProcessFrame(ctx, "b", video, audio, base.Add(time.Second))
	require.NoError(t, err)

	sessA, err := env.store.Get("a")
	require.NoError(t, err)
	sessB, err := env.store.Get("b")
	require.NoError(t, err)

	baseA := sessA.Calibrations[session.ModalityFace].Baseline
	baseB := sessB.Calibrations[session.ModalityFace].Baseline
	require.NotEmpty(t, baseA)
	require.NotEmpty(t, baseB)
	assert.InDelta(t, 0.02, baseA[0], 1e-9)
	assert.InDelta(t, 0.3, baseB[0], 1e-9)
}

// Outbound fan-out is rate limited per session; the caller still gets
// every due feedback.
func TestFeedbackEventThrottling(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))
	ctx := context.Background()
	video, audio := testMedia()

	cfg := session.Config{FeedbackEventRate: 1e-9, FeedbackEventBurst: 1}
	_, err := env.service.StartSession(ctx, "s1", cfg)
	require.NoError(t, err)

	base := time.Now()
	for i := 1; i <= 3; i++ {
		fb, err := env.service.ProcessFrame(ctx, "s1", video, audio, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.NotNil(t, fb)
	}

	// Burst of one lets exactly one event through
	assert.Equal(t, 1, env.publisher.feedbackCount())
}

func TestPerformanceMetrics(t *testing.T) {
	env := newTestEnv(t, goodProviders(), testDefaults(noCalibration()))
	ctx := context.Background()
	video, audio := testMedia()

	_, err := env.service.StartSession(ctx, "s1", session.Config{})
	require.NoError(t, err)

	base := time.Now()
	for i := 1; i <= 2; i++ {
		_, err := env.service.ProcessFrame(ctx, "s1", video, audio, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	scoped := env.service.PerformanceMetrics("s1")
	assert.Equal(t, "s1", scoped.SessionID)
	assert.Equal(t, int64(2), scoped.Passes)

	global := env.service.PerformanceMetrics("")
	assert.Equal(t, int64(2), global.Passes)
}
