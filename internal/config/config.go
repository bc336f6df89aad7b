package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Environment name, "production" enables secure cookies
	Env string

	// HTTP listener configuration
	Server ServerConfig

	// Backend API configuration
	Backend BackendConfig

	// Password reset configuration
	Reset ResetConfig

	// Logging Configuration
	Logging LoggingConfig

	// Tracing configuration
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Port        string
	PublicURL   string   // Origin used to build absolute links
	CORSOrigins []string // Origins allowed to call /api
}

// BackendConfig holds the external backend location
type BackendConfig struct {
	URL     string
	Timeout time.Duration // 0 keeps the transport default
}

// ResetConfig controls the development-only reset link shortcut
type ResetConfig struct {
	ExposeLinks bool
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// TelemetryConfig holds OTLP exporter settings
type TelemetryConfig struct {
	Endpoint string
	Insecure bool
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	env := getEnv("APP_ENV", "development")

	timeout, err := time.ParseDuration(getEnv("BACKEND_TIMEOUT", "0s"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env: env,
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
			CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")), // empty falls back to PUBLIC_URL
		},
		Backend: BackendConfig{
			URL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5000"), "/"),
			Timeout: timeout,
		},
		Reset: ResetConfig{
			ExposeLinks: getEnvBool("EXPOSE_RESET_LINKS", false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Telemetry: TelemetryConfig{
			Endpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Insecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
	}

	// Raw reset tokens never leave the server in production
	if cfg.IsProduction() {
		cfg.Reset.ExposeLinks = false
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
