package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "matchpoint-cli"
)

// ErrNotAuthenticated is returned when no token is stored for a backend
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'matchpoint login' first")

// getKeyringKey returns a unique key for storing tokens per backend
func getKeyringKey(backendURL string) string {
	return fmt.Sprintf("token-%s", backendURL)
}

// SaveToken persists the backend token securely in the OS keychain/credential manager
func SaveToken(backendURL, token string) error {
	if err := keyring.Set(service, getKeyringKey(backendURL), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the backend token from the OS keychain/credential manager
func LoadToken(backendURL string) (string, error) {
	token, err := keyring.Get(service, getKeyringKey(backendURL))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the backend token from the OS keychain/credential manager
func DeleteToken(backendURL string) error {
	if err := keyring.Delete(service, getKeyringKey(backendURL)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
