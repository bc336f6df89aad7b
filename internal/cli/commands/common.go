package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/matchpoint-dev/matchpoint/internal/backend"
	"github.com/matchpoint-dev/matchpoint/internal/cli/auth"
	"github.com/matchpoint-dev/matchpoint/internal/cli/userconfig"
)

// BackendFlag is the persistent flag naming the backend to talk to
const BackendFlag = "backend"

const requestTimeout = 30 * time.Second

// env carries what a command needs to reach the backend
type env struct {
	backendURL   string
	out          io.Writer
	tokens       auth.TokenStore
	client       *backend.Client
	readPassword func() (string, error)
}

// Option overrides part of a command's environment
type Option func(*env)

// WithTokenStore replaces the OS keyring
func WithTokenStore(store auth.TokenStore) Option {
	return func(e *env) { e.tokens = store }
}

// WithOutput redirects command output
func WithOutput(w io.Writer) Option {
	return func(e *env) { e.out = w }
}

// WithPasswordPrompt replaces the terminal password prompt
func WithPasswordPrompt(prompt func() (string, error)) Option {
	return func(e *env) { e.readPassword = prompt }
}

func newEnv(backendURL string, opts ...Option) *env {
	e := &env{
		backendURL:   backendURL,
		out:          os.Stdout,
		tokens:       auth.Default,
		client:       backend.New(backendURL, requestTimeout),
		readPassword: promptPassword,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// resolveEnv picks the backend from the --backend flag, the environment or the user config
func resolveEnv(cmd *cobra.Command) (*env, error) {
	flag, _ := cmd.Flags().GetString(BackendFlag)
	backendURL, err := userconfig.ResolveBackendURL(flag)
	if err != nil {
		return nil, err
	}
	return newEnv(backendURL, WithOutput(cmd.OutOrStdout())), nil
}

func (e *env) token() (string, error) {
	return e.tokens.LoadToken(e.backendURL)
}

// describe turns backend errors into CLI-friendly ones
func (e *env) describe(err error) error {
	if errors.Is(err, backend.ErrUnreachable) {
		return fmt.Errorf("cannot reach backend at %s: %w", e.backendURL, err)
	}
	if backend.StatusOf(err) == http.StatusUnauthorized {
		return fmt.Errorf("%w (run 'matchpoint login' to sign in again)", err)
	}
	return err
}

func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or MATCHPOINT_PASSWORD env var)")
	}

	fmt.Print("Password: ")
	bytePassword, err := term.ReadPassword(fd)
	fmt.Println() // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}
