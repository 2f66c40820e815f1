package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CLINIC_SERVER_PORT.
const EnvPrefix = "CLINIC"

const (
	DataSourcePostgres = "postgres"
	DataSourceUpstream = "upstream"
)

type Config struct {
	Env        string           `mapstructure:"env"`
	DataSource string           `mapstructure:"data_source" split_words:"true"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit" split_words:"true"`
	Security   SecurityConfig   `mapstructure:"security"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" split_words:"true"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" split_words:"true"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" split_words:"true"`
	// WorkerPort serves the worker's health endpoints.
	WorkerPort int `mapstructure:"worker_port" split_words:"true"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" split_words:"true"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" split_words:"true"`
}

type RedisConfig struct {
	// An empty URL runs the API with the in-process broker and slot lock.
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries" split_words:"true"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" split_words:"true"`
	PoolSize     int           `mapstructure:"pool_size" split_words:"true"`
	MinIdleConns int           `mapstructure:"min_idle_conns" split_words:"true"`
	LockTTL      time.Duration `mapstructure:"lock_ttl" split_words:"true"`
}

type UpstreamConfig struct {
	BaseURL     string        `mapstructure:"base_url" split_words:"true"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxFailures int           `mapstructure:"max_failures" split_words:"true"`
	OpenTimeout time.Duration `mapstructure:"open_timeout" split_words:"true"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	Audience    string `mapstructure:"audience"`
	ExpiryHours int    `mapstructure:"expiry_hours" split_words:"true"`
}

type SchedulingConfig struct {
	Timezone      string        `mapstructure:"timezone"`
	Currency      string        `mapstructure:"currency"`
	MinLeadTime   time.Duration `mapstructure:"min_lead_time" split_words:"true"`
	MaxPageSize   int           `mapstructure:"max_page_size" split_words:"true"`
	CalendarLimit int           `mapstructure:"calendar_limit" split_words:"true"`
	ClinicName    string        `mapstructure:"clinic_name" split_words:"true"`
	DebounceWait  time.Duration `mapstructure:"debounce_wait" split_words:"true"`
}

type CacheConfig struct {
	QueryTTL     time.Duration `mapstructure:"query_ttl" split_words:"true"`
	ReferenceTTL time.Duration `mapstructure:"reference_ttl" split_words:"true"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" split_words:"true"`
	Burst             int     `mapstructure:"burst"`
}

type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" split_words:"true"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type AnalysisConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MaxAttempts int           `mapstructure:"max_attempts" split_words:"true"`
	Retention   time.Duration `mapstructure:"retention"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("data_source", DataSourcePostgres)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 20*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.worker_port", 8081)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.lock_ttl", 5*time.Second)

	v.SetDefault("upstream.timeout", 15*time.Second)
	v.SetDefault("upstream.max_failures", 5)
	v.SetDefault("upstream.open_timeout", 30*time.Second)

	v.SetDefault("jwt.expiry_hours", 24)

	v.SetDefault("scheduling.timezone", "UTC")
	v.SetDefault("scheduling.currency", "USD")
	v.SetDefault("scheduling.min_lead_time", 30*time.Minute)
	v.SetDefault("scheduling.max_page_size", 100)
	v.SetDefault("scheduling.calendar_limit", 500)
	v.SetDefault("scheduling.clinic_name", "Clinic")
	v.SetDefault("scheduling.debounce_wait", 400*time.Millisecond)

	v.SetDefault("cache.query_ttl", 2*time.Minute)
	v.SetDefault("cache.reference_ttl", 10*time.Minute)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("smtp.port", 587)

	v.SetDefault("analysis.interval", 3*time.Second)
	v.SetDefault("analysis.max_attempts", 40)
	v.SetDefault("analysis.retention", time.Hour)

	v.SetDefault("log.level", "info")
}

// LoadConfig reads config.yml from the usual locations, then applies
// CLINIC_* environment overrides (a .env file is loaded first when present).
// A missing config file is not an error.
func LoadConfig(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	if len(paths) == 0 {
		paths = []string{".", "./config", "/app/config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the binaries cannot start without.
func (c *Config) Validate() error {
	var problems []string
	switch c.DataSource {
	case DataSourcePostgres:
		if c.Database.Name == "" {
			problems = append(problems, "database.name is required for the postgres data source")
		}
	case DataSourceUpstream:
		if c.Upstream.BaseURL == "" {
			problems = append(problems, "upstream.base_url is required for the upstream data source")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown data_source %q", c.DataSource))
	}
	if c.JWT.Secret == "" {
		problems = append(problems, "jwt.secret is required")
	}
	if _, err := time.LoadLocation(c.Scheduling.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("invalid scheduling.timezone %q", c.Scheduling.Timezone))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the clinic's time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduling.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
