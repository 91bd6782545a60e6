package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Security  SecurityConfig
	CORS      CORSConfig
	Logging   LoggingConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig

	// AutoMigrate applies pending migrations on startup.
	AutoMigrate bool
	// SeedDemo inserts the demo account and catalog when it is missing.
	SeedDemo bool
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string // Full PostgreSQL URL
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int
	Host            string
	PublicBaseURL   string
	ShutdownTimeout time.Duration
}

// Addr is the listen address for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds security-related settings
type SecurityConfig struct {
	TokenSecret string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// StorageConfig selects and configures the image backend.
type StorageConfig struct {
	Driver string
	Dir    string

	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool
	S3PublicURL string
}

// RateLimitConfig throttles register and login per client IP.
type RateLimitConfig struct {
	PerMinute float64
	Burst     int
}

// Load reads configuration from environment variables, after merging
// config/local.env and .env when they exist. Variables already set in the
// environment win.
func Load() (*Config, error) {
	_ = godotenv.Load("config/local.env")
	_ = godotenv.Load(".env")

	cfg := &Config{}
	var problems []string
	collect := func(err error) {
		if err != nil {
			problems = append(problems, err.Error())
		}
	}

	collect(cfg.loadDatabase())
	collect(cfg.loadServer())
	cfg.loadSecurity()
	cfg.loadCORS()
	cfg.loadLogging()
	collect(cfg.loadStorage())
	collect(cfg.loadRateLimit())

	var err error
	cfg.AutoMigrate, err = envBool("AUTO_MIGRATE", false)
	collect(err)
	cfg.SeedDemo, err = envBool("SEED_DEMO", false)
	collect(err)

	if err := cfg.Validate(); err != nil {
		problems = append(problems, validationProblems(err)...)
	}
	if len(problems) > 0 {
		return nil, validationError(problems)
	}
	return cfg, nil
}

// LoadDatabase reads only the database section, for tools that do not serve HTTP.
func LoadDatabase() (DatabaseConfig, error) {
	_ = godotenv.Load("config/local.env")
	_ = godotenv.Load(".env")

	var cfg Config
	if err := cfg.loadDatabase(); err != nil {
		return DatabaseConfig{}, err
	}
	if cfg.Database.URL == "" {
		return DatabaseConfig{}, errors.New("DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
	}
	return cfg.Database, nil
}

func (c *Config) loadDatabase() error {
	c.Database.URL = os.Getenv("DATABASE_URL")
	if c.Database.URL != "" {
		return nil
	}

	c.Database.Host = getEnvOrDefault("DB_HOST", "localhost")
	c.Database.User = os.Getenv("DB_USER")
	c.Database.Password = os.Getenv("DB_PASSWORD")
	c.Database.Name = os.Getenv("DB_NAME")
	c.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")

	port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	if err != nil {
		return errors.New("DB_PORT must be an integer")
	}
	c.Database.Port = port

	if c.Database.User != "" && c.Database.Name != "" {
		u := url.URL{
			Scheme:   "postgresql",
			User:     url.UserPassword(c.Database.User, c.Database.Password),
			Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
			Path:     c.Database.Name,
			RawQuery: url.Values{"sslmode": {c.Database.SSLMode}}.Encode(),
		}
		c.Database.URL = u.String()
	}
	return nil
}

func (c *Config) loadServer() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return errors.New("PORT must be an integer")
	}
	c.Server.Port = port
	c.Server.Host = getEnvOrDefault("HOST", "0.0.0.0")
	c.Server.PublicBaseURL = strings.TrimRight(
		getEnvOrDefault("PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", port)), "/")

	timeout, err := time.ParseDuration(getEnvOrDefault("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		return errors.New("SHUTDOWN_TIMEOUT must be a duration such as 10s")
	}
	c.Server.ShutdownTimeout = timeout
	return nil
}

func (c *Config) loadSecurity() {
	c.Security.TokenSecret = os.Getenv("TOKEN_SECRET")
}

func (c *Config) loadCORS() {
	c.CORS.AllowedOrigins = parseList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"))
}

func (c *Config) loadLogging() {
	c.Logging.Level = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	c.Logging.Format = strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json"))
}

func (c *Config) loadStorage() error {
	c.Storage.Driver = strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", StorageLocal))
	c.Storage.Dir = getEnvOrDefault("STORAGE_DIR", "storage/images")
	c.Storage.S3Endpoint = os.Getenv("S3_ENDPOINT")
	c.Storage.S3Bucket = os.Getenv("S3_BUCKET")
	c.Storage.S3AccessKey = os.Getenv("S3_ACCESS_KEY")
	c.Storage.S3SecretKey = os.Getenv("S3_SECRET_KEY")
	c.Storage.S3PublicURL = strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/")

	useSSL, err := envBool("S3_USE_SSL", true)
	c.Storage.S3UseSSL = useSSL
	return err
}

func (c *Config) loadRateLimit() error {
	perMinute, err := strconv.ParseFloat(getEnvOrDefault("LOGIN_RATE_PER_MINUTE", "10"), 64)
	if err != nil {
		return errors.New("LOGIN_RATE_PER_MINUTE must be a number")
	}
	burst, err := strconv.Atoi(getEnvOrDefault("LOGIN_BURST", "5"))
	if err != nil {
		return errors.New("LOGIN_BURST must be an integer")
	}
	c.RateLimit.PerMinute = perMinute
	c.RateLimit.Burst = burst
	return nil
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var problems []string

	if c.Database.URL == "" {
		problems = append(problems, "DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
	}

	if c.Security.TokenSecret == "" {
		problems = append(problems, "TOKEN_SECRET is required")
	} else if len(c.Security.TokenSecret) < 16 {
		problems = append(problems, "TOKEN_SECRET must be at least 16 characters")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		problems = append(problems, "SHUTDOWN_TIMEOUT must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		problems = append(problems, "LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		problems = append(problems, "LOG_FORMAT must be one of: json, text")
	}

	switch c.Storage.Driver {
	case StorageLocal:
		if c.Storage.Dir == "" {
			problems = append(problems, "STORAGE_DIR is required for the local driver")
		}
	case StorageS3:
		for name, v := range map[string]string{
			"S3_ENDPOINT":   c.Storage.S3Endpoint,
			"S3_BUCKET":     c.Storage.S3Bucket,
			"S3_ACCESS_KEY": c.Storage.S3AccessKey,
			"S3_SECRET_KEY": c.Storage.S3SecretKey,
		} {
			if v == "" {
				problems = append(problems, name+" is required for the s3 driver")
			}
		}
	default:
		problems = append(problems, "STORAGE_DRIVER must be one of: local, s3")
	}

	if c.RateLimit.PerMinute <= 0 {
		problems = append(problems, "LOGIN_RATE_PER_MINUTE must be positive")
	}
	if c.RateLimit.Burst < 1 {
		problems = append(problems, "LOGIN_BURST must be at least 1")
	}

	if len(problems) > 0 {
		return validationError(problems)
	}
	return nil
}

// Error aggregates every configuration problem found by Load or Validate.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Problems, "\n  - "))
}

func validationError(problems []string) error {
	return &Error{Problems: problems}
}

func validationProblems(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Problems
	}
	return []string{err.Error()}
}

func envBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s must be a boolean", key)
	}
	return v, nil
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
