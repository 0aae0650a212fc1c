// Package config defines client configuration structures and loading hooks.
//
// Conventions:
//   - Keys are flat snake_case so SKINLENS_POLL_INTERVAL maps to poll_interval.
//   - New returns a Config populated with defaults; Load layers file and env on top.
//   - External errors are wrapped with this package's sentinel errors.
package config

import (
	"regexp"
	"time"
)

// Store engines for the local photo history.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	// MetricsLabels are constant labels added to every metric.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
	// MetricsLatencyBuckets overrides the latency histogram buckets, in milliseconds.
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`

	// Addr configures the companion API listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// CORSOrigins lists origins allowed to call the companion API.
	CORSOrigins []string `koanf:"cors_origins"`

	// BaseURL is the vendor analysis API root.
	BaseURL string `koanf:"base_url"`
	// RequestTimeout bounds a single vendor request.
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// RateLimitRPS and RateLimitBurst pace outgoing vendor requests. Zero disables pacing.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// PollInterval, PollMaxAttempts and PollTimeout bound result polling.
	PollInterval    time.Duration `koanf:"poll_interval"`
	PollMaxAttempts int           `koanf:"poll_max_attempts"`
	PollTimeout     time.Duration `koanf:"poll_timeout"`

	// SessionFile persists the signed-in session; empty keeps it in memory.
	SessionFile string `koanf:"session_file"`
	// SessionSecret derives the key that seals SessionFile.
	SessionSecret string `koanf:"session_secret"`

	// StoreEngine selects the local history engine: memory or sqlite.
	StoreEngine string `koanf:"store_engine"`
	// StorePath is the SQLite database path.
	StorePath string `koanf:"store_path"`

	// QueueSize bounds the batch analysis queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of batch analysis workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets the size of the photo content-hash cache.
	DedupeSize int `koanf:"dedupe_size"`

	// S3 mirror for photo bytes. Empty bucket disables it.
	S3Bucket    string `koanf:"s3_bucket"`
	S3Region    string `koanf:"s3_region"`
	S3Endpoint  string `koanf:"s3_endpoint"`
	S3AccessKey string `koanf:"s3_access_key"`
	S3SecretKey string `koanf:"s3_secret_key"`

	// PostgresDSN enables the document mirror for photos and chat threads.
	PostgresDSN string `koanf:"postgres_dsn"`

	// Redis stream for photo events. Empty address disables it.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisStream   string `koanf:"redis_stream"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		MetricsNamespace: "skinlens",
		MetricsSubsystem: "client",
		Addr:             ":9080",
		CORSOrigins:      []string{"*"},
		RequestTimeout:   30 * time.Second,
		RateLimitRPS:     5,
		RateLimitBurst:   10,
		PollInterval:     3 * time.Second,
		PollMaxAttempts:  40,
		PollTimeout:      2 * time.Minute,
		StoreEngine:      StoreMemory,
		StorePath:        "skinlens.db",
		QueueSize:        64,
		WorkerCount:      4,
		DedupeSize:       1024,
		S3Region:         "us-east-1",
		RedisStream:      "photo-events",
	}
}

// Validate checks value ranges that would otherwise fail deep inside the client.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.RequestTimeout <= 0:
		return invalid("request_timeout must be positive")
	case c.RateLimitRPS < 0:
		return invalid("rate_limit_rps must not be negative")
	case c.PollInterval <= 0:
		return invalid("poll_interval must be positive")
	case c.PollMaxAttempts <= 0:
		return invalid("poll_max_attempts must be positive")
	case c.PollTimeout <= 0:
		return invalid("poll_timeout must be positive")
	case c.StoreEngine != StoreMemory && c.StoreEngine != StoreSQLite:
		return invalid("store_engine must be memory or sqlite, got " + c.StoreEngine)
	case c.StoreEngine == StoreSQLite && c.StorePath == "":
		return invalid("store_path is required for sqlite")
	case c.QueueSize <= 0:
		return invalid("queue_size must be positive")
	case c.WorkerCount <= 0:
		return invalid("worker_count must be positive")
	case c.SessionFile != "" && c.SessionSecret == "":
		return invalid("session_secret is required when session_file is set")
	case !validMetricName(c.MetricsNamespace) || !validMetricName(c.MetricsSubsystem):
		return invalid("metrics_namespace and metrics_subsystem must be letters, digits or underscores")
	case !increasing(c.MetricsLatencyBuckets):
		return invalid("metrics_latency_buckets must be strictly increasing")
	}
	return nil
}

var metricNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`) //nolint:gochecknoglobals // compiled once

// validMetricName accepts an empty name, which leaves that prefix off.
func validMetricName(s string) bool {
	return s == "" || metricNamePattern.MatchString(s)
}

func increasing(buckets []float64) bool {
	for i := 1; i < len(buckets); i++ {
		if buckets[i] <= buckets[i-1] {
			return false
		}
	}
	return true
}
