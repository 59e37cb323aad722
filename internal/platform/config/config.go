package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultSessionTTL      = 6 * time.Hour
	defaultPurgeInterval   = 15 * time.Minute
	defaultRateLimit       = 30
	defaultRateWindow      = time.Minute
	defaultEnvironment     = "local"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig
	Catalog    CatalogConfig
	Sessions   SessionConfig
	Dispatch   DispatchConfig
	RateLimits RateLimitConfig
	Logging    LoggingConfig
	Build      BuildConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// CatalogConfig points at an optional catalog override file. An empty path
// selects the built-in catalog.
type CatalogConfig struct {
	File string
}

// SessionConfig controls wizard session lifetime.
type SessionConfig struct {
	TTL           time.Duration
	PurgeInterval time.Duration
}

// DispatchConfig overrides the messaging destination. An empty number keeps
// the catalog's destination.
type DispatchConfig struct {
	WhatsAppNumber string
}

// RateLimitConfig controls request throttling for anonymous wizard traffic.
type RateLimitConfig struct {
	PerWindow int
	Window    time.Duration
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string
}

// BuildConfig carries build metadata surfaced by the health endpoints.
type BuildConfig struct {
	Environment string
	Version     string
	CommitSHA   string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values
// in the map take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env
// overrides, and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            stringWithDefault(lookup, "SOI_SERVER_PORT", defaultPort),
			ReadTimeout:     durationWithDefault(lookup, "SOI_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "SOI_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "SOI_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "SOI_SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Catalog: CatalogConfig{
			File: stringWithDefault(lookup, "SOI_CATALOG_FILE", ""),
		},
		Sessions: SessionConfig{
			TTL:           durationWithDefault(lookup, "SOI_SESSION_TTL", defaultSessionTTL),
			PurgeInterval: durationWithDefault(lookup, "SOI_SESSION_PURGE_INTERVAL", defaultPurgeInterval),
		},
		Dispatch: DispatchConfig{
			WhatsAppNumber: stringWithDefault(lookup, "SOI_DISPATCH_WHATSAPP_NUMBER", ""),
		},
		RateLimits: RateLimitConfig{
			PerWindow: intWithDefault(lookup, "SOI_RATELIMIT_PER_WINDOW", defaultRateLimit),
			Window:    durationWithDefault(lookup, "SOI_RATELIMIT_WINDOW", defaultRateWindow),
		},
		Logging: LoggingConfig{
			Level: stringWithDefault(lookup, "SOI_LOG_LEVEL", ""),
		},
		Build: BuildConfig{
			Environment: strings.ToLower(stringWithDefault(lookup, "SOI_ENVIRONMENT", defaultEnvironment)),
			Version:     stringWithDefault(lookup, "SOI_BUILD_VERSION", ""),
			CommitSHA:   stringWithDefault(lookup, "SOI_BUILD_COMMIT", ""),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Sessions.TTL <= 0 {
		missing = append(missing, "Sessions.TTL")
	}
	if cfg.Sessions.PurgeInterval <= 0 {
		missing = append(missing, "Sessions.PurgeInterval")
	}
	if cfg.RateLimits.PerWindow < 0 {
		missing = append(missing, "RateLimits.PerWindow")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
