package actions

import (
	"context"
	"net/http"

	"github.com/matchpoint-dev/matchpoint/internal/auth"
	"github.com/matchpoint-dev/matchpoint/internal/backend"
)

// ListUsers fetches every user record. Data is []backend.User.
func (a *Actions) ListUsers(ctx context.Context, s auth.Session) Result {
	if s.Anonymous() {
		return unauthorized()
	}

	users, err := a.backend.ListUsers(ctx, s.Token)
	if err != nil {
		return a.failure("list-users", err)
	}
	if users == nil {
		users = []backend.User{}
	}
	return Result{Success: true, Data: users, Status: http.StatusOK}
}

// GetUser fetches one user record. Data is *backend.User.
func (a *Actions) GetUser(ctx context.Context, s auth.Session, id string) Result {
	if s.Anonymous() {
		return unauthorized()
	}

	user, err := a.backend.GetUser(ctx, s.Token, id)
	if err != nil {
		return a.failure("get-user", err)
	}
	return Result{Success: true, Data: user, Status: http.StatusOK}
}

// CreateUser creates a user record
func (a *Actions) CreateUser(ctx context.Context, s auth.Session, form backend.UserForm) Result {
	if s.Anonymous() {
		return unauthorized()
	}

	resp, err := a.backend.CreateUser(ctx, s.Token, form)
	if err != nil {
		return a.failure("create-user", err)
	}

	message := resp.Message
	if message == "" {
		message = "User created"
	}
	a.logger.Info().Str("email", form.Email).Str("created_by", s.User.ID).Msg("User created")
	return Result{Success: true, Message: message, Data: resp.Data, Status: http.StatusCreated}
}

// UpdateUser updates a user record
func (a *Actions) UpdateUser(ctx context.Context, s auth.Session, id string, form backend.UserForm) Result {
	if s.Anonymous() {
		return unauthorized()
	}

	resp, err := a.backend.UpdateUser(ctx, s.Token, id, form)
	if err != nil {
		return a.failure("update-user", err)
	}

	message := resp.Message
	if message == "" {
		message = "User updated"
	}
	a.logger.Info().Str("user_id", id).Str("updated_by", s.User.ID).Msg("User updated")
	return Result{Success: true, Message: message, Data: resp.Data, Status: http.StatusOK}
}

// DeleteUser deletes a user record
func (a *Actions) DeleteUser(ctx context.Context, s auth.Session, id string) Result {
	if s.Anonymous() {
		return unauthorized()
	}

	resp, err := a.backend.DeleteUser(ctx, s.Token, id)
	if err != nil {
		return a.failure("delete-user", err)
	}

	a.logger.Info().Str("user_id", id).Str("deleted_by", s.User.ID).Msg("User deleted")
	return Result{Success: true, Message: resp.Message, Status: http.StatusOK}
}
