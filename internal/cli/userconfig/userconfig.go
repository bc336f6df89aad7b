package userconfig

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = "matchpoint"
	configFileName = "config.yaml"

	// DefaultBackendURL is used when neither a flag, the environment nor the config file names one
	DefaultBackendURL = "http://localhost:5000"

	// BackendURLEnv overrides the configured backend
	BackendURLEnv = "MATCHPOINT_BACKEND_URL"
)

// UserConfig represents the user's local configuration stored in ~/.config/matchpoint/config.yaml
type UserConfig struct {
	BackendURL string `yaml:"backend_url,omitempty"`
	LastEmail  string `yaml:"last_email,omitempty"`
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", configDirName)
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// NormalizeBackendURL checks that raw is an absolute http(s) URL and strips trailing slashes
func NormalizeBackendURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid backend URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid backend URL %q: missing host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// SetBackendURL validates rawURL, stores it and returns the stored form
func SetBackendURL(rawURL string) (string, error) {
	normalized, err := NormalizeBackendURL(rawURL)
	if err != nil {
		return "", err
	}

	cfg, err := Load()
	if err != nil {
		return "", err
	}

	cfg.BackendURL = normalized
	return normalized, Save(cfg)
}

// SetLastEmail remembers the email of the last successful login
func SetLastEmail(email string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.LastEmail = email
	return Save(cfg)
}

// ResolveBackendURL picks the backend: flag, then $MATCHPOINT_BACKEND_URL,
// then the config file, then DefaultBackendURL
func ResolveBackendURL(flag string) (string, error) {
	if flag != "" {
		return NormalizeBackendURL(flag)
	}
	if env := os.Getenv(BackendURLEnv); env != "" {
		return NormalizeBackendURL(env)
	}

	cfg, err := Load()
	if err != nil {
		return "", err
	}
	if cfg.BackendURL != "" {
		return cfg.BackendURL, nil
	}
	return DefaultBackendURL, nil
}
