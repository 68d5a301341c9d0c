// Package config loads server configuration from defaults, an optional YAML
// file and the environment, in that order of precedence (environment wins).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        int    `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`

	JWTSecret    string `yaml:"jwt_secret"`
	JWTDays      int    `yaml:"jwt_days"`
	CookieSecure bool   `yaml:"cookie_secure"`

	OpenAIAPIKey         string `yaml:"openai_api_key"`
	OpenAIBaseURL        string `yaml:"openai_base_url"`
	OpenAIModel          string `yaml:"openai_model"`
	OpenAITimeoutSeconds int    `yaml:"openai_timeout_seconds"`
	// TestLLM swaps the OpenAI client for a fixed offline generator.
	TestLLM bool `yaml:"test_llm"`

	GoogleClientID     string `yaml:"google_oauth_client_id"`
	GoogleClientSecret string `yaml:"google_oauth_client_secret"`
	GoogleRedirectURI  string `yaml:"google_oauth_redirect_uri"`

	FrontendURL    string   `yaml:"frontend_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// TypeformSecret enables webhook signature checks when set.
	TypeformSecret string `yaml:"typeform_secret"`
	// RedisURL enables the shared logout revocation list when set.
	RedisURL string `yaml:"redis_url"`

	DebugRoutes bool   `yaml:"debug_routes"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

func Defaults() Config {
	return Config{
		Port:                 8000,
		DatabaseURL:          "data/pathnova.db",
		JWTDays:              7,
		OpenAIBaseURL:        "https://api.openai.com",
		OpenAIModel:          "gpt-4o",
		OpenAITimeoutSeconds: 120,
		GoogleRedirectURI:    "http://localhost:8000/auth/google/callback",
		FrontendURL:          "http://localhost:5173",
		AllowedOrigins:       []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment are used.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getenvInt("PORT", c.Port)
	c.DatabaseURL = getenv("DATABASE_URL", c.DatabaseURL)

	c.JWTSecret = getenv("JWT_SECRET", c.JWTSecret)
	c.JWTDays = getenvInt("JWT_DAYS", c.JWTDays)
	c.CookieSecure = getenvBool("COOKIE_SECURE", c.CookieSecure)

	c.OpenAIAPIKey = getenv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIBaseURL = getenv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.OpenAIModel = getenv("OPENAI_MODEL", c.OpenAIModel)
	c.OpenAITimeoutSeconds = getenvInt("OPENAI_TIMEOUT_SECONDS", c.OpenAITimeoutSeconds)
	c.TestLLM = getenvBool("TEST_LLM", c.TestLLM)

	c.GoogleClientID = getenv("GOOGLE_OAUTH_CLIENT_ID", c.GoogleClientID)
	c.GoogleClientSecret = getenv("GOOGLE_OAUTH_CLIENT_SECRET", c.GoogleClientSecret)
	c.GoogleRedirectURI = getenv("GOOGLE_OAUTH_REDIRECT_URI", c.GoogleRedirectURI)

	c.FrontendURL = getenv("FRONTEND_URL", c.FrontendURL)
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}

	c.TypeformSecret = getenv("TYPEFORM_SECRET", c.TypeformSecret)
	c.RedisURL = getenv("REDIS_URL", c.RedisURL)

	c.DebugRoutes = getenvBool("DEBUG_ROUTES", c.DebugRoutes)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getenv("LOG_FORMAT", c.LogFormat)
}

// Validate rejects configurations the server cannot safely run with.
func (c Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be set to at least 16 characters"))
	}
	if c.JWTDays <= 0 {
		errs = append(errs, errors.New("JWT_DAYS must be positive"))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL must not be empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.OpenAITimeoutSeconds <= 0 {
		errs = append(errs, errors.New("OPENAI_TIMEOUT_SECONDS must be positive"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be text or json", c.LogFormat))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.JWTDays) * 24 * time.Hour
}

func (c Config) OpenAITimeout() time.Duration {
	return time.Duration(c.OpenAITimeoutSeconds) * time.Second
}

// UsesPostgres reports whether DatabaseURL names a Postgres server rather
// than a SQLite file.
func (c Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// GoogleEnabled reports whether Google sign-in can be offered.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
