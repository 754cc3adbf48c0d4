// Package config provides configuration management for Lookalike.
// It loads settings from an optional dotenv file, an optional YAML file and
// environment variables with the LOOKALIKE_ prefix, in increasing order of
// precedence, on top of sensible defaults for every option.
//
// The Postgres connection also honors the bare POSTGRES_* variables used by
// the data-loading scripts when the prefixed form is not set.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultDotenvPath is the dotenv file read by Load when LOOKALIKE_DOTENV is unset.
const DefaultDotenvPath = "env/.env.dev"

// Storage engine names.
const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
	EngineNone     = "none"
)

// Config holds all configuration settings for the Lookalike application.
type Config struct {
	Similarity SimilarityConfig `yaml:"similarity"`
	Engine     EngineConfig     `yaml:"engine"`
	Collector  CollectorConfig  `yaml:"collector"`
	Storage    StorageConfig    `yaml:"storage"`
	Output     OutputConfig     `yaml:"output"`
	Log        LogConfig        `yaml:"log"`
}

// SimilarityConfig contains the comparison thresholds.
type SimilarityConfig struct {
	StrongThreshold int     `yaml:"strong_threshold"` // Minimum total points for a strong pair (default: 5)
	FuzzyThreshold  float64 `yaml:"fuzzy_threshold"`  // Minimum fuzzy ratio for a field to count (default: 0.8)
	ProximityKm     float64 `yaml:"proximity_km"`     // Distance under which locations count (default: 10)
}

// EngineConfig contains pairwise driver settings.
type EngineConfig struct {
	Workers int `yaml:"workers"` // Pair workers, 0 means one per CPU (default: 0)
}

// CollectorConfig contains data API settings.
type CollectorConfig struct {
	APIURL            string        `yaml:"api_url"`             // Users endpoint (default: random-data-api.com v2 users)
	Total             int           `yaml:"total"`               // Users to fetch (default: 1000)
	BatchSize         int           `yaml:"batch_size"`          // Users per request (default: 100)
	MaxRetries        int           `yaml:"max_retries"`         // Attempts per batch on HTTP 429 (default: 5)
	InitialDelay      time.Duration `yaml:"initial_delay"`       // First backoff step (default: 500ms)
	MaxDelay          time.Duration `yaml:"max_delay"`           // Backoff ceiling (default: 10s)
	RequestsPerSecond float64       `yaml:"requests_per_second"` // Client-side pacing (default: 2)
	Timeout           time.Duration `yaml:"timeout"`             // Per-request timeout (default: 10s)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	Engine   string         `yaml:"engine"`    // sqlite, postgres or none (default: sqlite)
	DataPath string         `yaml:"data_path"` // Directory of the SQLite database (default: ./data)
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"` // default: localhost
	Port     int    `yaml:"port"` // default: 5432
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DB       string `yaml:"db"`
	SSLMode  string `yaml:"sslmode"` // default: disable
}

// OutputConfig contains report output settings.
type OutputConfig struct {
	CSVDir string `yaml:"csv_dir"` // Directory for report CSV files (default: output_csv)
}

// LogConfig contains logging settings.
type LogConfig struct {
	Env string `yaml:"env"` // development or production (default: development)
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	return &Config{
		Similarity: SimilarityConfig{
			StrongThreshold: 5,
			FuzzyThreshold:  0.8,
			ProximityKm:     10,
		},
		Collector: CollectorConfig{
			APIURL:            "https://random-data-api.com/api/v2/users",
			Total:             1000,
			BatchSize:         100,
			MaxRetries:        5,
			InitialDelay:      500 * time.Millisecond,
			MaxDelay:          10 * time.Second,
			RequestsPerSecond: 2,
			Timeout:           10 * time.Second,
		},
		Storage: StorageConfig{
			Engine:   EngineSQLite,
			DataPath: "./data",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		Output: OutputConfig{
			CSVDir: "output_csv",
		},
		Log: LogConfig{
			Env: "development",
		},
	}
}

// Load reads configuration. The dotenv file named by LOOKALIKE_DOTENV (or
// DefaultDotenvPath) is loaded first if it exists; it never overrides
// variables already in the environment. If path is non-empty the YAML file
// is applied over the defaults, then environment variables are applied.
func Load(path string) (*Config, error) {
	dotenv := getEnv("LOOKALIKE_DOTENV", DefaultDotenvPath)
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to load %s: %w", dotenv, err)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes the YAML file at path over the current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides values with any environment variables that are set.
func (c *Config) applyEnv() {
	c.Similarity.StrongThreshold = getEnvInt("LOOKALIKE_STRONG_THRESHOLD", c.Similarity.StrongThreshold)
	c.Similarity.FuzzyThreshold = getEnvFloat("LOOKALIKE_FUZZY_THRESHOLD", c.Similarity.FuzzyThreshold)
	c.Similarity.ProximityKm = getEnvFloat("LOOKALIKE_PROXIMITY_KM", c.Similarity.ProximityKm)

	c.Engine.Workers = getEnvInt("LOOKALIKE_WORKERS", c.Engine.Workers)

	c.Collector.APIURL = getEnv("LOOKALIKE_API_URL", c.Collector.APIURL)
	c.Collector.Total = getEnvInt("LOOKALIKE_FETCH_TOTAL", c.Collector.Total)
	c.Collector.BatchSize = getEnvInt("LOOKALIKE_FETCH_BATCH_SIZE", c.Collector.BatchSize)
	c.Collector.MaxRetries = getEnvInt("LOOKALIKE_FETCH_MAX_RETRIES", c.Collector.MaxRetries)
	c.Collector.InitialDelay = getEnvDuration("LOOKALIKE_FETCH_INITIAL_DELAY", c.Collector.InitialDelay)
	c.Collector.MaxDelay = getEnvDuration("LOOKALIKE_FETCH_MAX_DELAY", c.Collector.MaxDelay)
	c.Collector.RequestsPerSecond = getEnvFloat("LOOKALIKE_FETCH_RPS", c.Collector.RequestsPerSecond)
	c.Collector.Timeout = getEnvDuration("LOOKALIKE_FETCH_TIMEOUT", c.Collector.Timeout)

	c.Storage.Engine = getEnv("LOOKALIKE_STORAGE_ENGINE", c.Storage.Engine)
	c.Storage.DataPath = getEnv("LOOKALIKE_DATA_PATH", c.Storage.DataPath)

	pg := &c.Storage.Postgres
	pg.Host = getEnv("LOOKALIKE_POSTGRES_HOST", getEnv("POSTGRES_HOST", pg.Host))
	pg.Port = getEnvInt("LOOKALIKE_POSTGRES_PORT", getEnvInt("POSTGRES_PORT", pg.Port))
	pg.User = getEnv("LOOKALIKE_POSTGRES_USER", getEnv("POSTGRES_USER", pg.User))
	pg.Password = getEnv("LOOKALIKE_POSTGRES_PASSWORD", getEnv("POSTGRES_PASSWORD", pg.Password))
	pg.DB = getEnv("LOOKALIKE_POSTGRES_DB", getEnv("POSTGRES_DB", pg.DB))
	pg.SSLMode = getEnv("LOOKALIKE_POSTGRES_SSLMODE", pg.SSLMode)

	c.Output.CSVDir = getEnv("LOOKALIKE_OUTPUT_DIR", c.Output.CSVDir)
	c.Log.Env = getEnv("LOOKALIKE_ENV", c.Log.Env)
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Similarity.StrongThreshold < 2 {
		return fmt.Errorf("strong_threshold must be >= 2, got %d", c.Similarity.StrongThreshold)
	}
	if c.Similarity.FuzzyThreshold <= 0 || c.Similarity.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy_threshold must be in (0, 1], got %v", c.Similarity.FuzzyThreshold)
	}
	if c.Similarity.ProximityKm <= 0 {
		return fmt.Errorf("proximity_km must be > 0, got %v", c.Similarity.ProximityKm)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Engine.Workers)
	}
	if c.Collector.Total < 1 {
		return fmt.Errorf("collector total must be >= 1, got %d", c.Collector.Total)
	}
	if c.Collector.BatchSize < 1 {
		return fmt.Errorf("collector batch_size must be >= 1, got %d", c.Collector.BatchSize)
	}
	if c.Collector.MaxRetries < 1 {
		return fmt.Errorf("collector max_retries must be >= 1, got %d", c.Collector.MaxRetries)
	}
	switch c.Storage.Engine {
	case EngineSQLite, EnginePostgres, EngineNone:
	default:
		return fmt.Errorf("unknown storage engine %q", c.Storage.Engine)
	}
	if c.Storage.Engine == EnginePostgres && c.Storage.Postgres.DB == "" {
		return fmt.Errorf("postgres database name is required")
	}
	return nil
}

// SQLitePath returns the path of the SQLite database file.
func (c *Config) SQLitePath() string {
	return c.Storage.DataPath + "/lookalike.db"
}

// DSN returns the lib/pq connection URL.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:   "/" + p.DB,
	}
	if p.User != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.User, p.Password)
		} else {
			u.User = url.User(p.User)
		}
	}
	if p.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {p.SSLMode}}.Encode()
	}
	return u.String()
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Log.Env == "production"
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (e.g. "500ms")
// or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
