package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Luna     LunaConfig     `yaml:"luna"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"X-User-Id,X-Org-Id,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	RateLimitPerMin int           `yaml:"rate_limit_per_min" env:"SERVER_RATE_LIMIT_PER_MIN" env-default:"300"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LunaConfig holds message-engine settings.
type LunaConfig struct {
	// MaxConcurrentMessages caps how many messages per user may be
	// shown at once.
	MaxConcurrentMessages int `yaml:"max_concurrent_messages" env:"LUNA_MAX_CONCURRENT_MESSAGES" env-default:"3"`

	// DetectWindow bounds how far back the detector looks for new facts.
	DetectWindow time.Duration `yaml:"detect_window" env:"LUNA_DETECT_WINDOW" env-default:"24h"`

	// DetectInterval is the cadence of the system-wide detection sweep.
	// Also used as the detection idempotency-key time bucket.
	DetectInterval time.Duration `yaml:"detect_interval" env:"LUNA_DETECT_INTERVAL" env-default:"15m"`

	// SweepInterval is the cadence of the expiry sweep.
	SweepInterval time.Duration `yaml:"sweep_interval" env:"LUNA_SWEEP_INTERVAL" env-default:"5m"`
}

// WorkerConfig holds job-consumer settings.
type WorkerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"WORKER_POLL_INTERVAL" env-default:"2s"`
	BatchSize    int           `yaml:"batch_size"    env:"WORKER_BATCH_SIZE"    env-default:"10"`
	MaxAttempts  int           `yaml:"max_attempts"  env:"WORKER_MAX_ATTEMPTS"  env-default:"5"`
	// RetryBackoff is the base delay before a failed job is redelivered;
	// it grows linearly with the attempt number.
	RetryBackoff time.Duration `yaml:"retry_backoff" env:"WORKER_RETRY_BACKOFF" env-default:"30s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
