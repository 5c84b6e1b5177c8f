package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ayushthakur13/fin-vault-ai/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	AI            AIConfig
	Embeddings    EmbeddingsConfig
	Retrieval     RetrievalConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"finvault"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type HTTPConfig struct {
	Host            string        `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"HTTP_PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type PostgresConfig struct {
	Host     string        `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int           `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string        `envconfig:"POSTGRES_USER" required:"true"`
	Password string        `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string        `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string        `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int           `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
	Timeout  time.Duration `envconfig:"POSTGRES_QUERY_TIMEOUT" default:"5s"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AIConfig struct {
	APIKey        string `envconfig:"AI_API_KEY"`
	BaseURL       string `envconfig:"AI_BASE_URL" default:"https://api.groq.com/openai/v1"`
	FastModel     string `envconfig:"AI_FAST_MODEL" default:"llama-3.1-8b-instant"`
	ThoroughModel string `envconfig:"AI_THOROUGH_MODEL" default:"llama-3.3-70b-versatile"`

	// Per-tier budgets: fast targets sub-30s turnaround, thorough up to ~3m
	FastTimeout     time.Duration `envconfig:"AI_FAST_TIMEOUT" default:"30s"`
	ThoroughTimeout time.Duration `envconfig:"AI_THOROUGH_TIMEOUT" default:"3m"`

	RequestsPerMinute int `envconfig:"AI_REQUESTS_PER_MINUTE" default:"60"`
}

type EmbeddingsConfig struct {
	APIKey   string        `envconfig:"OPENAI_API_KEY"`
	Model    string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	Timeout  time.Duration `envconfig:"EMBEDDING_TIMEOUT" default:"30s"`
	CacheTTL time.Duration `envconfig:"EMBEDDING_CACHE_TTL" default:"24h"`
}

type RetrievalConfig struct {
	NumericLimit       int           `envconfig:"RETRIEVAL_NUMERIC_LIMIT" default:"50"`
	NarrativeTopK      int           `envconfig:"RETRIEVAL_NARRATIVE_TOP_K" default:"5"`
	ScoreThreshold     float64       `envconfig:"RETRIEVAL_SCORE_THRESHOLD" default:"0.4"`
	VectorQueryTimeout time.Duration `envconfig:"RETRIEVAL_VECTOR_TIMEOUT" default:"5s"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
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
