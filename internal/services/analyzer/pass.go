package analyzer

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"poise/internal/analysis"
	"poise/internal/domain/perception"
	"poise/internal/domain/session"
	"poise/internal/metrics"
	"poise/pkg/errors"
)

// Prompts shown when a perception provider finds no subject
const (
	promptNoPerson = "Step into the camera frame so your posture is visible"
	promptNoFace   = "Face the camera so your expressions are visible"
	promptNoVoice  = "Speak up, no voice is coming through"
	promptNoSpeech = "Keep talking, nothing was transcribed"
)

// extraction is what one modality's provider goroutine hands back
type extraction struct {
	features perception.FeatureVector
	err      error
	took     time.Duration
}

// runPass executes one full analysis pass for the session. Called with
// the session mutex held, so passes for one session never interleave and
// history stays in timestamp order. Provider calls run concurrently; the
// scoring and state updates after the join are cheap and sequential.
func (s *Service) runPass(ctx context.Context, sess *session.Session, ts time.Time) (*session.LiveFeedback, error) {
	passStart := time.Now()

	video, hasVideo := latestVideo(sess)
	audio := perception.Concat(audioChunks(sess))
	if !hasVideo && audio.Empty() {
		return nil, errors.Wrapf(errors.ErrEmptyBuffer, "session %s", sess.ID)
	}

	extractions := s.extract(ctx, sess, video, hasVideo, audio)

	frame := session.AnalysisFrame{
		Timestamp: ts,
		Results:   make(map[session.Modality]session.ModalityResult, len(session.Modalities)),
	}
	var modalityErrors int
	for _, m := range session.Modalities {
		res := s.scoreModality(sess, m, extractions[m])
		frame.Results[m] = res
		if res.Status == session.ResultError {
			modalityErrors++
			sess.ErrorCount++
		}
		metrics.RecordModalityResult(string(m), string(res.Status), extractions[m].took)
	}

	if sf, ok := extractions[session.ModalitySpeech].features.(analysis.SpeechFeatures); ok && sf.Text != "" {
		sess.Transcript = append(sess.Transcript, session.TranscriptSegment{
			Timestamp: ts,
			Text:      sf.Text,
			Duration:  sf.Duration,
		})
	}

	sess.History = append(sess.History, frame)
	sess.LastAnalysisAt = ts
	sess.FramesProcessed++
	sess.TrimBuffers()
	// Audio is consumed by the pass; keeping a tail would re-transcribe
	// the same speech next time.
	sess.AudioBuffer = sess.AudioBuffer[:0]

	if sess.Status == session.StatusCalibrating && sess.AllCalibrated() {
		sess.Status = session.StatusActive
	}

	passDuration := time.Since(passStart)
	s.monitor.RecordPass(sess.ID, passDuration, modalityErrors)
	metrics.RecordAnalysisPass(passDuration, modalityErrors)

	// No live feedback while any modality is still calibrating
	if sess.Status != session.StatusActive {
		return nil, nil
	}

	fb := fuse(sess.ID, frame, sess.Config.Weights)
	s.emit(ctx, sess, fb)
	return &fb, nil
}

// extract runs the four perception providers concurrently, one soft
// timeout each. A slow or failing provider only degrades its own
// modality.
func (s *Service) extract(ctx context.Context, sess *session.Session, video perception.VideoFrame, hasVideo bool, audio perception.AudioChunk) map[session.Modality]extraction {
	timeout := sess.Config.PassTimeout
	out := make(map[session.Modality]extraction, len(session.Modalities))

	g, gctx := errgroup.WithContext(ctx)
	var pose, face, voice, speech extraction

	g.Go(func() error {
		pose = timed(gctx, timeout, "pose", func(c context.Context) (perception.FeatureVector, error) {
			if !hasVideo {
				return nil, errors.Wrap(errors.ErrNotDetected, "no video buffered")
			}
			return s.providers.Pose.DetectPose(c, video)
		})
		return nil
	})
	g.Go(func() error {
		face = timed(gctx, timeout, "face", func(c context.Context) (perception.FeatureVector, error) {
			if !hasVideo {
				return nil, errors.Wrap(errors.ErrNotDetected, "no video buffered")
			}
			return s.providers.Face.DetectFace(c, video)
		})
		return nil
	})
	g.Go(func() error {
		voice = timed(gctx, timeout, "audio", func(c context.Context) (perception.FeatureVector, error) {
			if audio.Empty() {
				return nil, errors.Wrap(errors.ErrNotDetected, "no audio buffered")
			}
			return s.providers.Audio.ExtractVoice(c, audio)
		})
		return nil
	})
	g.Go(func() error {
		speech = timed(gctx, timeout, "transcribe", func(c context.Context) (perception.FeatureVector, error) {
			if audio.Empty() {
				return nil, errors.Wrap(errors.ErrNotDetected, "no audio buffered")
			}
			tr, err := s.providers.Transcribe.Transcribe(c, audio)
			if err != nil {
				return nil, err
			}
			if tr.Empty() {
				return nil, errors.Wrap(errors.ErrNotDetected, "empty transcript")
			}
			return analysis.SpeechFeatures{Text: tr.Text, Duration: tr.Duration}, nil
		})
		return nil
	})

	// Goroutines never return errors; the group is only a join point
	_ = g.Wait()

	out[session.ModalityPosture] = pose
	out[session.ModalityFace] = face
	out[session.ModalityVoice] = voice
	out[session.ModalitySpeech] = speech
	return out
}

// timed wraps one provider call with its soft timeout and metrics
func timed(ctx context.Context, timeout time.Duration, provider string, fn func(context.Context) (perception.FeatureVector, error)) extraction {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	features, err := fn(callCtx)
	took := time.Since(start)

	if err != nil && !errors.Is(err, errors.ErrNotDetected) {
		sentinel := errors.ErrProviderFailed
		if callCtx.Err() != nil {
			sentinel = errors.ErrProviderTimeout
		}
		err = errors.Wrapf(sentinel, "%s provider: %v", provider, err)
	}
	metrics.RecordProviderCall(provider, took, err)
	return extraction{features: features, err: err, took: took}
}

// scoreModality folds one extraction into the session and produces the
// modality's tagged result. Called with the session mutex held.
func (s *Service) scoreModality(sess *session.Session, m session.Modality, ex extraction) session.ModalityResult {
	if ex.err != nil {
		if errors.Is(ex.err, errors.ErrNotDetected) {
			return session.NotDetectedResult(m, notDetectedPrompt(m))
		}
		return session.ErrorResult(ex.err.Error())
	}
	if ex.features == nil {
		return session.ErrorResult("provider returned no features")
	}

	vec := ex.features.Vector()
	cal := sess.Calibrations[m]
	if !cal.Done() {
		cal.Observe(vec)
		if !cal.Done() {
			return session.CalibratingResult(cal.Progress())
		}
		// The frame that completes calibration still only reports progress;
		// scoring starts on the next one so the baseline is never compared
		// against a sample it already contains.
		return session.CalibratingResult(1)
	}

	sess.AppendFeatures(m, vec)

	scorer, ok := s.scorers[m]
	if !ok {
		return session.ErrorResult("no scorer registered")
	}
	scores, tips := scorer.Score(analysis.Input{
		Features: ex.features,
		Baseline: cal.Baseline,
		History:  sess.FeatureHistory[m],
	})
	if len(scores) == 0 {
		return session.NotDetectedResult(m, notDetectedPrompt(m))
	}
	return session.SuccessResult(scores, tips)
}

// emit publishes live feedback downstream, shaped by the session's rate
// limiter, and records the pass row for analytics. The WebSocket caller
// gets the feedback regardless; only fan-out is throttled.
func (s *Service) emit(ctx context.Context, sess *session.Session, fb session.LiveFeedback) {
	if s.frames != nil {
		if err := s.frames.WriteFeedback(fb); err != nil {
			s.log.Warnw("Failed to record feedback row", "session_id", sess.ID, "error", err)
		}
	}
	if s.publisher == nil {
		return
	}
	if sess.FeedbackLimiter != nil && !sess.FeedbackLimiter.Allow() {
		metrics.EventsPublished.WithLabelValues("feedback", "throttled").Inc()
		return
	}
	if err := s.publisher.FeedbackEvent(ctx, fb); err != nil {
		s.log.Warnw("Failed to publish feedback event", "session_id", sess.ID, "error", err)
	}
}

func notDetectedPrompt(m session.Modality) string {
	switch m {
	case session.ModalityPosture:
		return promptNoPerson
	case session.ModalityFace:
		return promptNoFace
	case session.ModalityVoice:
		return promptNoVoice
	default:
		return promptNoSpeech
	}
}

// latestVideo returns the most recently pushed frame. The scheduler only
// ever analyzes the newest video; older frames are context for motion
// sub-scores through the feature history.
func latestVideo(sess *session.Session) (perception.VideoFrame, bool) {
	for i := len(sess.VideoBuffer) - 1; i >= 0; i-- {
		if !sess.VideoBuffer[i].Frame.Empty() {
			return sess.VideoBuffer[i].Frame, true
		}
	}
	return perception.VideoFrame{}, false
}

func audioChunks(sess *session.Session) []perception.AudioChunk {
	chunks := make([]perception.AudioChunk, 0, len(sess.AudioBuffer))
	for _, a := range sess.AudioBuffer {
		chunks = append(chunks, a.Chunk)
	}
	return chunks
}
