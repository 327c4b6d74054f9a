package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"poise/pkg/errors"
)

type Config struct {
	App           AppConfig
	Analysis      AnalysisConfig
	Providers     ProviderConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	ClickHouse    ClickHouseConfig
	Server        ServerConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"poise"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

// AnalysisConfig holds platform-wide defaults for the scoring pipeline.
// Each value can be overridden per session via SessionConfig.
type AnalysisConfig struct {
	Interval    time.Duration `envconfig:"ANALYSIS_INTERVAL" default:"1s"`
	PassTimeout time.Duration `envconfig:"ANALYSIS_PASS_TIMEOUT" default:"5s"`

	// Fusion weights, must sum to 1.0 within 1e-2
	BodyWeight    float64 `envconfig:"FUSION_BODY_WEIGHT" default:"0.35"`
	VocalWeight   float64 `envconfig:"FUSION_VOCAL_WEIGHT" default:"0.35"`
	ContentWeight float64 `envconfig:"FUSION_CONTENT_WEIGHT" default:"0.30"`

	// Calibration frame counts per modality
	PostureCalibrationFrames int `envconfig:"CALIBRATION_POSTURE_FRAMES" default:"10"`
	FaceCalibrationFrames    int `envconfig:"CALIBRATION_FACE_FRAMES" default:"15"`
	VoiceCalibrationFrames   int `envconfig:"CALIBRATION_VOICE_FRAMES" default:"10"`

	// Bounded analysis capacity shared across sessions
	MaxConcurrentPasses int `envconfig:"ANALYSIS_MAX_CONCURRENT_PASSES" default:"16"`

	// Live feedback events per session per second (sustained)
	FeedbackEventRate  float64 `envconfig:"FEEDBACK_EVENT_RATE" default:"2"`
	FeedbackEventBurst int     `envconfig:"FEEDBACK_EVENT_BURST" default:"4"`

	// Keywords anchoring the speech relevance sub-score
	TopicKeywords []string `envconfig:"TOPIC_KEYWORDS"`
}

type ProviderConfig struct {
	// ONNX model paths for the vision feature providers; empty disables the
	// model-backed provider and the bootstrap falls back to stubs
	PoseModelPath string `envconfig:"POSE_MODEL_PATH"`
	FaceModelPath string `envconfig:"FACE_MODEL_PATH"`

	// OpenAI transcription for the speech content modality
	OpenAIKey          string        `envconfig:"OPENAI_API_KEY"`
	TranscriptionModel string        `envconfig:"TRANSCRIPTION_MODEL" default:"whisper-1"`
	ProviderTimeout    time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"10s"`

	AudioSampleRate int `envconfig:"AUDIO_SAMPLE_RATE" default:"16000"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`

	// Retention for persisted session reports
	ReportTTL time.Duration `envconfig:"REPORT_TTL" default:"168h"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"poise"`
}

type ClickHouseConfig struct {
	Enabled  bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"poise"`
}

type ServerConfig struct {
	Host        string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port        int           `envconfig:"SERVER_PORT" default:"8080"`
	MetricsPort int           `envconfig:"METRICS_PORT" default:"9090"`
	ReadTimeout time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for all background workers
type WorkerConfig struct {
	// How often the performance sampler snapshots pipeline health
	PerfSampleInterval time.Duration `envconfig:"WORKER_PERF_SAMPLE_INTERVAL" default:"10s"`

	// How often abandoned sessions are reaped, and when a session counts as idle
	SessionReaperInterval time.Duration `envconfig:"WORKER_SESSION_REAPER_INTERVAL" default:"1m"`
	SessionIdleTimeout    time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"15m"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
