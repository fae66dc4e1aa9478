package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // MODEL_TIMEZONE must resolve on minimal images

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Model sources.
const (
	ModelSourceFile = "file"
	ModelSourceHTTP = "http"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	ModelSource    string
	ModelPath      string
	ModelURL       string
	ModelTimeout   time.Duration
	ModelTimezone  *time.Location
	ModelCacheSize int

	AnomalyThreshold float64
	RegistryFile     string

	// Optional shared prediction cache; disabled when RedisAddr is empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	// Optional anomaly publishing; disabled when KafkaBrokers is empty.
	KafkaBrokers      []string
	KafkaAnomalyTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first if
// present; it never overrides variables already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	modelTimeout, err := parsePositiveDuration("MODEL_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	redisTTL, err := parsePositiveDuration("REDIS_TTL", "24h")
	if err != nil {
		return nil, err
	}
	tz, err := time.LoadLocation(sharedcfg.EnvOrDefault("MODEL_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid MODEL_TIMEZONE: %w", err)
	}
	cacheSize, err := parseNonNegativeInt("MODEL_CACHE_SIZE", 1024)
	if err != nil {
		return nil, err
	}
	redisDB, err := parseNonNegativeInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	threshold, err := parseThreshold()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ModelSource:    sharedcfg.EnvOrDefault("MODEL_SOURCE", ModelSourceFile),
		ModelPath:      sharedcfg.EnvOrDefault("MODEL_PATH", "model/ndvi_model.json"),
		ModelURL:       os.Getenv("MODEL_URL"),
		ModelTimeout:   modelTimeout,
		ModelTimezone:  tz,
		ModelCacheSize: cacheSize,

		AnomalyThreshold: threshold,
		RegistryFile:     os.Getenv("REGISTRY_FILE"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		RedisTTL:      redisTTL,

		KafkaBrokers:      brokers,
		KafkaAnomalyTopic: sharedcfg.EnvOrDefault("KAFKA_ANOMALY_TOPIC", "ndvi-anomalies"),
	}

	switch cfg.ModelSource {
	case ModelSourceFile:
		if cfg.ModelPath == "" {
			return nil, errors.New("MODEL_PATH is required when MODEL_SOURCE=file")
		}
	case ModelSourceHTTP:
		if cfg.ModelURL == "" {
			return nil, errors.New("MODEL_URL is required when MODEL_SOURCE=http")
		}
	default:
		return nil, fmt.Errorf("invalid MODEL_SOURCE %q: want file or http", cfg.ModelSource)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaAnomalyTopic == "" {
		return nil, errors.New("KAFKA_ANOMALY_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether anomaly events should be published.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// RedisEnabled reports whether the shared prediction cache is configured.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseThreshold() (float64, error) {
	s := os.Getenv("ANOMALY_THRESHOLD")
	if s == "" {
		return 0.75, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || v > 1 {
		return 0, errors.New("invalid ANOMALY_THRESHOLD: want a number in (0, 1]")
	}
	return v, nil
}
