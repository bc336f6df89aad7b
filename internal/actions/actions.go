// Package actions runs one backend call per user action and shapes the
// outcome into a Result the pages can render. Failures never escape as
// errors: every path returns a Result with a displayable message.
package actions

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/matchpoint-dev/matchpoint/internal/auth"
	"github.com/matchpoint-dev/matchpoint/internal/backend"
)

// Messages shown when the backend gives nothing better
const (
	MsgUnreachable       = "Unable to reach the server. Please try again."
	MsgGeneric           = "Something went wrong"
	MsgUnauthorized      = "Unauthorized - No token found"
	MsgPasswordsMismatch = "Passwords do not match"
	MsgInvalidResetLink  = "Invalid reset link. Please request a new one."
	MsgProfileUpdated    = "Profile updated successfully!"
)

// Result is the {success, message, data} envelope every action returns
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Token   string `json:"token,omitempty"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"-"`
}

// Backend is the subset of the backend client the actions depend on
type Backend interface {
	Register(ctx context.Context, in backend.RegisterRequest) (*backend.UserResponse, error)
	Login(ctx context.Context, in backend.LoginRequest) (*backend.LoginResponse, error)
	ForgotPassword(ctx context.Context, email string) (*backend.ForgotPasswordResponse, error)
	ResetPassword(ctx context.Context, token, newPassword string) (*backend.MessageResponse, error)
	UpdateProfile(ctx context.Context, token string, in backend.ProfileRequest) (*backend.UserResponse, error)
	ListUsers(ctx context.Context, token string) ([]backend.User, error)
	GetUser(ctx context.Context, token, id string) (*backend.User, error)
	CreateUser(ctx context.Context, token string, form backend.UserForm) (*backend.UserResponse, error)
	UpdateUser(ctx context.Context, token, id string, form backend.UserForm) (*backend.UserResponse, error)
	DeleteUser(ctx context.Context, token, id string) (*backend.MessageResponse, error)
}

// Actions binds the backend client to the session cookie manager
type Actions struct {
	backend  Backend
	sessions *auth.Manager
	logger   zerolog.Logger
}

// New creates the action layer
func New(b Backend, sessions *auth.Manager, log zerolog.Logger) *Actions {
	return &Actions{
		backend:  b,
		sessions: sessions,
		logger:   log,
	}
}

// failure converts a backend error into a displayable Result
func (a *Actions) failure(op string, err error) Result {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrUnreachable):
		a.logger.Error().Err(err).Str("action", op).Msg("Backend unreachable")
		return Result{
			Message: MsgUnreachable,
			Details: err.Error(),
			Status:  http.StatusServiceUnavailable,
		}
	case errors.As(err, &apiErr):
		a.logger.Info().Str("action", op).Int("status", apiErr.Status).Str("message", apiErr.Message).Msg("Backend rejected request")
		status := apiErr.Status
		if status < http.StatusBadRequest {
			// A 2xx answer whose envelope says success:false
			status = http.StatusBadRequest
		}
		return Result{Message: apiErr.Message, Status: status}
	default:
		a.logger.Error().Err(err).Str("action", op).Msg("Action failed")
		return Result{
			Message: MsgGeneric,
			Details: err.Error(),
			Status:  http.StatusInternalServerError,
		}
	}
}

func unauthorized() Result {
	return Result{Message: MsgUnauthorized, Status: http.StatusUnauthorized}
}

func toSessionUser(u backend.User) auth.User {
	return auth.User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  auth.ParseRole(u.Role),
	}
}
