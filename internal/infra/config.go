package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ArtifactBackendFilesystem = "filesystem"
	ArtifactBackendS3         = "s3"

	QueueBackendRedis    = "redis"
	QueueBackendPostgres = "postgres"
	QueueBackendNone     = "none"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	WebhookPort string
	DatabaseURL string

	APIToken      string
	JWTSecret     string
	WebhookSecret string

	LLMProvider     string
	DefaultModel    string
	DefaultPageType string
	LLMTimeout      time.Duration
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIOrg       string
	GeminiAPIKey    string
	GeminiBaseURL   string

	ArtifactBackend string
	StoragePath     string
	StorageBaseURL  string
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PublicBaseURL string
	S3PresignTTL    time.Duration

	QueueBackend      string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	QueueName         string
	QueueMaxAttempts  int
	QueueBackoff      time.Duration
	WorkerConcurrency int
	WorkerRateMax     int
	WorkerRateWindow  time.Duration

	RateLimitPerMin    int
	CORSAllowedOrigins []string
	GeoIPDBPath        string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	ShutdownTimeout    time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        port,
		WebhookPort: getEnv("WEBHOOK_PORT", "8081"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),

		APIToken:      strings.TrimSpace(os.Getenv("API_TOKEN")),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		DefaultModel:    strings.TrimSpace(os.Getenv("DEFAULT_MODEL")),
		DefaultPageType: getEnv("DEFAULT_PAGE_TYPE", "landing"),
		LLMTimeout:      getEnvDuration("LLM_TIMEOUT_SECONDS", 60*time.Second),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:       os.Getenv("OPENAI_ORG"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		ArtifactBackend: strings.ToLower(getEnv("ARTIFACT_BACKEND", ArtifactBackendFilesystem)),
		StoragePath:     getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Region:        os.Getenv("S3_REGION"),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		S3PresignTTL:    getEnvDuration("S3_PRESIGN_TTL_SECONDS", 7*24*time.Hour),

		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		QueueName:         getEnv("QUEUE_NAME", "landing-generation"),
		QueueMaxAttempts:  getEnvInt("QUEUE_MAX_ATTEMPTS", 3),
		QueueBackoff:      getEnvDuration("QUEUE_BACKOFF_SECONDS", 5*time.Second),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 2),
		WorkerRateMax:     getEnvInt("WORKER_RATE_MAX", 10),
		WorkerRateWindow:  getEnvDuration("WORKER_RATE_WINDOW_SECONDS", 60*time.Second),

		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		HTTPReadTimeout:    getEnvDuration("HTTP_READ_TIMEOUT_SECONDS", 15*time.Second),
		HTTPWriteTimeout:   getEnvDuration("HTTP_WRITE_TIMEOUT_SECONDS", 90*time.Second),
		HTTPIdleTimeout:    getEnvDuration("HTTP_IDLE_TIMEOUT_SECONDS", 60*time.Second),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
	}
	cfg.QueueBackend = strings.ToLower(getEnv("QUEUE_BACKEND", cfg.defaultQueueBackend()))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) defaultQueueBackend() string {
	switch {
	case c.RedisAddr != "":
		return QueueBackendRedis
	case c.DatabaseURL != "":
		return QueueBackendPostgres
	default:
		return QueueBackendNone
	}
}

func (c *Config) validate() error {
	switch c.QueueBackend {
	case QueueBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis queue")
		}
	case QueueBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres queue")
		}
	case QueueBackendNone:
	default:
		return fmt.Errorf("unsupported QUEUE_BACKEND %q", c.QueueBackend)
	}

	switch c.ArtifactBackend {
	case ArtifactBackendFilesystem:
	case ArtifactBackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 artifact backend")
		}
	default:
		return fmt.Errorf("unsupported ARTIFACT_BACKEND %q", c.ArtifactBackend)
	}

	if c.QueueMaxAttempts < 1 {
		return fmt.Errorf("QUEUE_MAX_ATTEMPTS must be at least 1")
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1")
	}
	if c.WorkerRateMax < 1 || c.WorkerRateWindow <= 0 {
		return fmt.Errorf("WORKER_RATE_MAX and WORKER_RATE_WINDOW_SECONDS must be positive")
	}
	if c.AppEnv == "production" && c.APIToken == "" && c.JWTSecret == "" {
		return fmt.Errorf("API_TOKEN or JWT_SECRET is required in production")
	}
	return nil
}

// AuthEnabled reports whether API requests must carry a token.
func (c *Config) AuthEnabled() bool {
	return c.APIToken != "" || c.JWTSecret != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvDuration reads a whole number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
