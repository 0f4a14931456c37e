package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Retrain policies accepted by MODEL_RETRAIN_POLICY.
const (
	RetrainNever  = "never"
	RetrainEveryN = "every_n"
)

type Config struct {
	Port           string        `yaml:"port"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	Env            string        `yaml:"env"`

	// Storage
	DatabaseURL string `yaml:"database_url"`
	SeedSamples bool   `yaml:"seed_samples"`

	// Admin auth
	JWTSecret string        `yaml:"jwt_secret"`
	JWTTTL    time.Duration `yaml:"jwt_ttl"`

	// OpenAI
	OpenAIAPIKey string `yaml:"openai_api_key"`

	// Predictor
	ModelPath           string  `yaml:"model_path"`
	RetrainPolicy       string  `yaml:"retrain_policy"`
	RetrainEvery        int     `yaml:"retrain_every"`
	PredictionThreshold float64 `yaml:"prediction_threshold"`

	// Events
	NatsURL      string `yaml:"nats_url"`
	EventsPrefix string `yaml:"events_prefix"`
}

// Defaults returns the configuration used when neither a file nor the
// environment sets a value.
func Defaults() Config {
	return Config{
		Port:                "8080",
		LogLevel:            "info",
		LogFormat:           "text",
		RequestTimeout:      30 * time.Second,
		MaxBodyBytes:        1048576,
		Env:                 "development",
		DatabaseURL:         "file:query_advisor.db",
		JWTTTL:              24 * time.Hour,
		ModelPath:           "data/query_model.gob",
		RetrainPolicy:       RetrainEveryN,
		RetrainEvery:        10,
		PredictionThreshold: 1.0,
		EventsPrefix:        "queryadvisor",
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FromEnv loads the configuration, honouring CONFIG_FILE when set.
func FromEnv() (Config, error) {
	return Load(getenv("CONFIG_FILE", ""))
}

func applyEnv(cfg *Config) {
	cfg.Port = getenv("PORT", cfg.Port)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("LOG_FORMAT", cfg.LogFormat)
	cfg.RequestTimeout = parseDuration(getenv("REQUEST_TIMEOUT", ""), cfg.RequestTimeout)
	cfg.MaxBodyBytes = parseInt64(getenv("MAX_BODY_BYTES", ""), cfg.MaxBodyBytes)
	if v := parseCSV(getenv("ALLOWED_ORIGINS", "")); v != nil {
		cfg.AllowedOrigins = v
	}
	cfg.Env = getenv("APP_ENV", cfg.Env)

	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.SeedSamples = parseBool(getenv("SEED_SAMPLES", ""), cfg.SeedSamples)

	cfg.JWTSecret = getenv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTTTL = parseDuration(getenv("JWT_TTL", ""), cfg.JWTTTL)

	cfg.OpenAIAPIKey = getenv("OPENAI_API_KEY", cfg.OpenAIAPIKey)

	cfg.ModelPath = getenv("MODEL_PATH", cfg.ModelPath)
	cfg.RetrainPolicy = strings.ToLower(strings.TrimSpace(getenv("MODEL_RETRAIN_POLICY", cfg.RetrainPolicy)))
	cfg.RetrainEvery = int(parseInt64(getenv("MODEL_RETRAIN_EVERY", ""), int64(cfg.RetrainEvery)))
	cfg.PredictionThreshold = parseFloat(getenv("PREDICTION_THRESHOLD", ""), cfg.PredictionThreshold)

	cfg.NatsURL = getenv("NATS_URL", cfg.NatsURL)
	cfg.EventsPrefix = getenv("EVENTS_PREFIX", cfg.EventsPrefix)

	// Default to permissive CORS in non-production if not explicitly configured.
	// This prevents local dev CORS errors when ALLOWED_ORIGINS is omitted.
	if len(cfg.AllowedOrigins) == 0 && cfg.Env != "production" {
		cfg.AllowedOrigins = []string{"*"}
	}
}

// Validate rejects settings the predictor cannot run with.
func (c Config) Validate() error {
	switch c.RetrainPolicy {
	case RetrainNever:
	case RetrainEveryN:
		if c.RetrainEvery <= 0 {
			return fmt.Errorf("MODEL_RETRAIN_EVERY must be positive, got %d", c.RetrainEvery)
		}
	default:
		return fmt.Errorf("unknown MODEL_RETRAIN_POLICY %q (allowed: %s, %s)", c.RetrainPolicy, RetrainNever, RetrainEveryN)
	}
	if c.PredictionThreshold <= 0 {
		return fmt.Errorf("PREDICTION_THRESHOLD must be positive")
	}
	return nil
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func parseInt64(s string, def int64) int64 {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return def
}

func parseBool(s string, def bool) bool {
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	return def
}

func parseCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
