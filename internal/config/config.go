package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Alwanly/mcs-agent/pkg/retry"
	"github.com/joho/godotenv"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether dispatch events should be published.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type AgentConfig struct {
	ServerAddr      string
	ShutdownTimeout time.Duration

	// WorkDir holds the Makefile and the log files.
	WorkDir     string
	MakeProgram string
	// LogPattern maps a log name to its file name in WorkDir.
	LogPattern string
	LogTargets []string

	// TokenSecret and Hostname fall back to the metadata server when empty.
	TokenSecret string
	Hostname    string
	Zone        string
	MetadataURL string
	// Metadata retry configuration
	MetadataMaxRetries        int
	MetadataInitialBackoff    time.Duration
	MetadataMaxBackoff        time.Duration
	MetadataBackoffMultiplier float64
	MetadataRequestTimeout    time.Duration

	MaxFutureSkew   time.Duration
	DispatchDedupe  bool
	StreamKillGrace time.Duration

	DatabasePath   string
	RunRetention   time.Duration
	RetentionSweep time.Duration

	Redis RedisConfig

	SwaggerEnabled bool
}

// MetadataRetry returns the backoff used for metadata lookups.
func (c *AgentConfig) MetadataRetry() retry.Config {
	return retry.Config{
		MaxRetries:     c.MetadataMaxRetries,
		InitialBackoff: c.MetadataInitialBackoff,
		MaxBackoff:     c.MetadataMaxBackoff,
		Multiplier:     c.MetadataBackoffMultiplier,
		Jitter:         true,
	}
}

// Validate is called once the identity has been resolved.
func (c *AgentConfig) Validate() error {
	var errs []error
	if c.TokenSecret == "" {
		errs = append(errs, errors.New("token secret is empty (MCS_TOKEN_SECRET or metadata attribute mcs-token-secret)"))
	}
	if c.Hostname == "" {
		errs = append(errs, errors.New("hostname is empty (MCS_HOSTNAME or metadata)"))
	}
	if c.LogPattern != "" && (strings.Count(c.LogPattern, "%s") != 1 || strings.ContainsAny(strings.ReplaceAll(c.LogPattern, "%s", ""), "%/\\")) {
		errs = append(errs, fmt.Errorf("MCS_LOG_PATTERN %q must contain exactly one %%s and no path separators", c.LogPattern))
	}
	return errors.Join(errs...)
}

// LoadDotEnv seeds the environment from a .env file when one exists.
// Variables already set are left alone.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadAgentConfig reads agent config from environment or returns defaults
func LoadAgentConfig() (*AgentConfig, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getwd: %w", err)
	}

	p := &parser{}
	cfg := &AgentConfig{
		ServerAddr:      envOrDefault("AGENT_ADDR", "127.0.0.1:8000"),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),

		WorkDir:     envOrDefault("MCS_WORKDIR", wd),
		MakeProgram: envOrDefault("MCS_MAKE", "make"),
		LogPattern:  envOrDefault("MCS_LOG_PATTERN", "%s.log"),
		LogTargets:  splitList(envOrDefault("MCS_LOG_TARGETS", "minecraft,agent")),

		TokenSecret:               os.Getenv("MCS_TOKEN_SECRET"),
		Hostname:                  os.Getenv("MCS_HOSTNAME"),
		Zone:                      os.Getenv("MCS_ZONE"),
		MetadataURL:               envOrDefault("METADATA_URL", "http://metadata.google.internal"),
		MetadataMaxRetries:        p.int("METADATA_MAX_RETRIES", 5),
		MetadataInitialBackoff:    p.duration("METADATA_INITIAL_BACKOFF", time.Second),
		MetadataMaxBackoff:        p.duration("METADATA_MAX_BACKOFF", 30*time.Second),
		MetadataBackoffMultiplier: p.float("METADATA_BACKOFF_MULTIPLIER", 2.0),
		MetadataRequestTimeout:    p.duration("METADATA_REQUEST_TIMEOUT", 5*time.Second),

		MaxFutureSkew:   p.duration("AUTH_MAX_FUTURE_SKEW", 0),
		DispatchDedupe:  p.bool("DISPATCH_DEDUPE", false),
		StreamKillGrace: p.duration("STREAM_KILL_GRACE", 5*time.Second),

		DatabasePath:   envOrDefault("DATABASE_PATH", ":memory:"),
		RunRetention:   p.duration("RUN_RETENTION", 7*24*time.Hour),
		RetentionSweep: p.duration("RUN_RETENTION_SWEEP", time.Hour),

		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     envOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       p.int("REDIS_DB", 0),
		},

		SwaggerEnabled: p.bool("SWAGGER_ENABLED", false),
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

type parser struct {
	errs []error
}

func (p *parser) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return i
}

func (p *parser) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

// duration accepts Go duration syntax ("90s", "5m") or a bare number of seconds.
func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return time.Duration(i) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
