package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"poise/internal/adapters/clickhouse"
	"poise/internal/adapters/config"
	"poise/internal/adapters/dsp"
	"poise/internal/adapters/errors/noop"
	"poise/internal/adapters/errors/sentry"
	"poise/internal/adapters/kafka"
	"poise/internal/adapters/onnx"
	adapterredis "poise/internal/adapters/redis"
	"poise/internal/adapters/stub"
	"poise/internal/adapters/transcribe"
	"poise/internal/analysis"
	"poise/internal/api"
	"poise/internal/api/health"
	"poise/internal/api/ws"
	"poise/internal/domain/session"
	"poise/internal/events"
	"poise/internal/metrics"
	"poise/internal/perf"
	chrepo "poise/internal/repository/clickhouse"
	redisrepo "poise/internal/repository/redis"
	"poise/internal/services/analyzer"
	sessionstore "poise/internal/services/session"
	"poise/internal/workers"
	"poise/pkg/errors"
	"poise/pkg/logger"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	// Initialize error tracker
	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	// Initialize metrics registry
	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Perception providers (model-backed or stub, per configuration)
	providers, closeProviders := initProviders(cfg, log)
	defer closeProviders()

	// Report persistence
	redisClient, err := adapterredis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	reports := redisrepo.NewReportRepository(redisClient.Client(), cfg.Redis.ReportTTL)

	// Optional downstream integrations
	publisher, closePublisher := initPublisher(cfg, log)
	defer closePublisher()

	frames, closeFrames := initFrameSink(ctx, cfg, log)
	defer closeFrames()

	// Pipeline core
	monitor := perf.NewMonitor(cfg.Analysis.Interval)
	store := sessionstore.NewStore()
	service := analyzer.New(analyzer.Deps{
		Store:     store,
		Providers: providers,
		Scorers:   initScorers(cfg),
		Monitor:   monitor,
		Publisher: publisher,
		Reports:   reports,
		Frames:    frames,
	}, sessionDefaults(cfg), int64(cfg.Analysis.MaxConcurrentPasses))

	// Background workers
	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewPerfSamplerWorker(monitor, cfg.Workers.PerfSampleInterval))
	scheduler.RegisterWorker(workers.NewSessionReaperWorker(service, cfg.Workers.SessionReaperInterval, cfg.Workers.SessionIdleTimeout))
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}
	defer scheduler.Stop()

	// HTTP servers
	healthChecks := []health.Check{{Name: "redis", Probe: redisClient.Health}}
	if ch, ok := frames.(*chrepo.FeedbackRepository); ok && ch != nil {
		healthChecks = append(healthChecks, health.Check{Name: "clickhouse", Probe: ch.Health})
	}
	healthHandler := health.New(cfg.App.Name, version, healthChecks...)
	gateway := api.NewServer(api.ServerConfig{
		Addr:        cfg.Server.Addr(),
		ServiceName: cfg.App.Name,
		Version:     version,
		ReadTimeout: cfg.Server.ReadTimeout,
	}, ws.NewHandler(service), healthHandler, log)

	go func() {
		if err := gateway.Start(); err != nil {
			log.Errorf("Gateway error: %v", err)
		}
	}()
	metricsServer := startMetricsServer(cfg, log)

	log.Info("System initialized successfully")

	// Wait for shutdown signal
	waitForShutdown(ctx, cancel, errorTracker, log)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := gateway.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Gateway shutdown: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Metrics server shutdown: %v", err)
	}
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initProviders wires perception providers. Vision models require ONNX
// model paths; transcription requires an OpenAI key. Anything not
// configured falls back to the deterministic stub so the pipeline stays
// runnable in development.
func initProviders(cfg *config.Config, log *logger.Logger) (analyzer.Providers, func()) {
	var closers []func()
	p := analyzer.Providers{
		Audio: dsp.NewProvider(),
	}

	if cfg.Providers.PoseModelPath != "" {
		pose, err := onnx.NewPoseProvider(cfg.Providers.PoseModelPath)
		if err != nil {
			log.Fatalf("Failed to load pose model: %v", err)
		}
		p.Pose = pose
		closers = append(closers, func() { pose.Close() })
	} else {
		log.Warn("POSE_MODEL_PATH not set, using stub pose provider")
		p.Pose = stub.NewPoseProvider()
	}

	if cfg.Providers.FaceModelPath != "" {
		face, err := onnx.NewFaceProvider(cfg.Providers.FaceModelPath)
		if err != nil {
			log.Fatalf("Failed to load face model: %v", err)
		}
		p.Face = face
		closers = append(closers, func() { face.Close() })
	} else {
		log.Warn("FACE_MODEL_PATH not set, using stub face provider")
		p.Face = stub.NewFaceProvider()
	}

	if cfg.Providers.OpenAIKey != "" {
		tr, err := transcribe.NewOpenAIProvider(cfg.Providers.OpenAIKey, cfg.Providers.TranscriptionModel, cfg.Providers.ProviderTimeout)
		if err != nil {
			log.Fatalf("Failed to initialize transcription: %v", err)
		}
		p.Transcribe = tr
	} else {
		log.Warn("OPENAI_API_KEY not set, using stub transcription provider")
		p.Transcribe = stub.NewTranscriptionProvider()
	}

	return p, func() {
		for _, c := range closers {
			c()
		}
	}
}

// initPublisher wires the Kafka event publisher when enabled
func initPublisher(cfg *config.Config, log *logger.Logger) (analyzer.EventPublisher, func()) {
	if !cfg.Kafka.Enabled {
		log.Info("Kafka publishing disabled")
		return nil, func() {}
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
	log.Infof("Kafka publisher initialized (brokers: %v)", cfg.Kafka.Brokers)
	return events.NewPublisher(producer), func() {
		if err := producer.Close(); err != nil {
			log.Warnf("Kafka producer close: %v", err)
		}
	}
}

// initFrameSink wires the ClickHouse per-pass feedback sink when enabled
func initFrameSink(ctx context.Context, cfg *config.Config, log *logger.Logger) (analyzer.FrameSink, func()) {
	if !cfg.ClickHouse.Enabled {
		log.Info("ClickHouse frame sink disabled")
		return nil, func() {}
	}

	client, err := clickhouse.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}

	repo := chrepo.NewFeedbackRepository(client.Conn())
	repo.Start(ctx)
	log.Info("ClickHouse frame sink initialized")
	return repo, func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repo.Stop(stopCtx); err != nil {
			log.Warnf("Frame sink stop: %v", err)
		}
		client.Close()
	}
}

// initScorers builds one scorer per modality
func initScorers(cfg *config.Config) []analysis.Scorer {
	return []analysis.Scorer{
		analysis.NewPostureScorer(),
		analysis.NewFaceScorer(cfg.Analysis.Interval),
		analysis.NewVoiceScorer(),
		analysis.NewSpeechScorer(cfg.Analysis.TopicKeywords),
	}
}

// sessionDefaults maps platform configuration to per-session defaults
func sessionDefaults(cfg *config.Config) session.Config {
	return session.Config{
		Weights: session.FusionWeights{
			Body:    cfg.Analysis.BodyWeight,
			Vocal:   cfg.Analysis.VocalWeight,
			Content: cfg.Analysis.ContentWeight,
		},
		CalibrationFrames: map[session.Modality]int{
			session.ModalityPosture: cfg.Analysis.PostureCalibrationFrames,
			session.ModalityFace:    cfg.Analysis.FaceCalibrationFrames,
			session.ModalityVoice:   cfg.Analysis.VoiceCalibrationFrames,
		},
		AnalysisInterval:   cfg.Analysis.Interval,
		PassTimeout:        cfg.Analysis.PassTimeout,
		FeedbackEventRate:  cfg.Analysis.FeedbackEventRate,
		FeedbackEventBurst: cfg.Analysis.FeedbackEventBurst,
	}
}

// startMetricsServer exposes the Prometheus endpoint
func startMetricsServer(cfg *config.Config, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: mux,
	}

	go func() {
		log.Infof("Metrics listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server error: %v", err)
		}
	}()

	return srv
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	cancel()

	if errorTracker != nil {
		if err := errorTracker.Flush(ctx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
