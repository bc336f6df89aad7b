package actions

import (
	"context"
	"net/http"
	"strings"

	"github.com/matchpoint-dev/matchpoint/internal/auth"
	"github.com/matchpoint-dev/matchpoint/internal/backend"
)

// Register creates an account. The caller is not logged in afterwards.
func (a *Actions) Register(ctx context.Context, in backend.RegisterRequest) Result {
	resp, err := a.backend.Register(ctx, in)
	if err != nil {
		return a.failure("register", err)
	}

	a.logger.Info().Str("email", in.Email).Msg("User registered")
	return Result{Success: true, Message: resp.Message, Data: resp.Data, Status: http.StatusOK}
}

// Login authenticates and, on success, writes the three session cookies to w
func (a *Actions) Login(ctx context.Context, w http.ResponseWriter, in backend.LoginRequest) Result {
	resp, err := a.backend.Login(ctx, in)
	if err != nil {
		return a.failure("login", err)
	}

	user := toSessionUser(resp.Data)
	if err := a.sessions.Set(w, resp.Token, user); err != nil {
		return a.failure("login", err)
	}

	a.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("User logged in")
	return Result{Success: true, Message: resp.Message, Data: user, Status: http.StatusOK}
}

// Logout clears the session cookies of r
func (a *Actions) Logout(w http.ResponseWriter, r *http.Request) Result {
	a.sessions.Clear(w, r)
	return Result{Success: true, Message: "Logged out", Status: http.StatusOK}
}

// ForgotPassword requests a reset email. Token is set only when the backend
// hands one back, which it does in development mode.
func (a *Actions) ForgotPassword(ctx context.Context, email string) Result {
	resp, err := a.backend.ForgotPassword(ctx, email)
	if err != nil {
		return a.failure("forgot-password", err)
	}

	return Result{Success: true, Message: resp.Message, Token: resp.Token, Status: http.StatusOK}
}

// ResetPassword redeems a reset token. The token and the password pair are
// checked locally before the backend is called.
func (a *Actions) ResetPassword(ctx context.Context, token, password, confirmPassword string) Result {
	if strings.TrimSpace(token) == "" {
		return Result{Message: MsgInvalidResetLink, Status: http.StatusBadRequest}
	}
	if password != confirmPassword {
		return Result{Message: MsgPasswordsMismatch, Status: http.StatusBadRequest}
	}

	resp, err := a.backend.ResetPassword(ctx, token, password)
	if err != nil {
		return a.failure("reset-password", err)
	}

	return Result{Success: true, Message: resp.Message, Status: http.StatusOK}
}

// UpdateProfile saves name and email for the session's user and rewrites
// the session cookies with the profile the backend returns
func (a *Actions) UpdateProfile(ctx context.Context, w http.ResponseWriter, s auth.Session, in backend.ProfileRequest) Result {
	if s.Anonymous() {
		return unauthorized()
	}

	resp, err := a.backend.UpdateProfile(ctx, s.Token, in)
	if err != nil {
		return a.failure("update-profile", err)
	}

	updated := s.User
	updated.Name = in.Name
	updated.Email = in.Email
	if resp.Data != nil {
		if resp.Data.Name != "" {
			updated.Name = resp.Data.Name
		}
		if resp.Data.Email != "" {
			updated.Email = resp.Data.Email
		}
		if resp.Data.Role != "" {
			updated.Role = auth.ParseRole(resp.Data.Role)
		}
	}

	if err := a.sessions.Refresh(w, s.Token, updated); err != nil {
		return a.failure("update-profile", err)
	}

	message := resp.Message
	if message == "" {
		message = MsgProfileUpdated
	}
	return Result{Success: true, Message: message, Data: updated, Status: http.StatusOK}
}
