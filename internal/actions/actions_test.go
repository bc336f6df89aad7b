package actions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpoint-dev/matchpoint/internal/auth"
	"github.com/matchpoint-dev/matchpoint/internal/backend"
)

// mockBackend records calls and returns canned responses
type mockBackend struct {
	calls int

	loginResp   *backend.LoginResponse
	forgotResp  *backend.ForgotPasswordResponse
	profileResp *backend.UserResponse
	users       []backend.User
	err         error

	lastToken string
}

func (m *mockBackend) Register(ctx context.Context, in backend.RegisterRequest) (*backend.UserResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &backend.UserResponse{Message: "Registered", Data: &backend.User{ID: "u1", Name: in.Name}}, nil
}

func (m *mockBackend) Login(ctx context.Context, in backend.LoginRequest) (*backend.LoginResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.loginResp, nil
}

func (m *mockBackend) ForgotPassword(ctx context.Context, email string) (*backend.ForgotPasswordResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.forgotResp, nil
}

func (m *mockBackend) ResetPassword(ctx context.Context, token, newPassword string) (*backend.MessageResponse, error) {
	m.calls++
	m.lastToken = token
	if m.err != nil {
		return nil, m.err
	}
	return &backend.MessageResponse{Message: "Password reset"}, nil
}

func (m *mockBackend) UpdateProfile(ctx context.Context, token string, in backend.ProfileRequest) (*backend.UserResponse, error) {
	m.calls++
	m.lastToken = token
	if m.err != nil {
		return nil, m.err
	}
	return m.profileResp, nil
}

func (m *mockBackend) ListUsers(ctx context.Context, token string) ([]backend.User, error) {
	m.calls++
	m.lastToken = token
	return m.users, m.err
}

func (m *mockBackend) GetUser(ctx context.Context, token, id string) (*backend.User, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &backend.User{ID: id}, nil
}

func (m *mockBackend) CreateUser(ctx context.Context, token string, form backend.UserForm) (*backend.UserResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &backend.UserResponse{Data: &backend.User{ID: "u9", Name: form.Name}}, nil
}

func (m *mockBackend) UpdateUser(ctx context.Context, token, id string, form backend.UserForm) (*backend.UserResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &backend.UserResponse{Message: "Saved", Data: &backend.User{ID: id, Name: form.Name}}, nil
}

func (m *mockBackend) DeleteUser(ctx context.Context, token, id string) (*backend.MessageResponse, error) {
	m.calls++
	m.lastToken = token
	if m.err != nil {
		return nil, m.err
	}
	return &backend.MessageResponse{Message: "User deleted"}, nil
}

func newActions(b *mockBackend) (*Actions, *auth.Manager) {
	sessions := auth.NewManager(false, nil)
	return New(b, sessions, zerolog.Nop()), sessions
}

func replay(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return r
}

var session = auth.Session{
	Token: "tok",
	User:  auth.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Role: auth.RoleUser},
	Role:  auth.RoleUser,
}

func TestLogin_SetsSessionWithMatchingRole(t *testing.T) {
	b := &mockBackend{loginResp: &backend.LoginResponse{
		Token:   "tok-1",
		Message: "Welcome",
		Data:    backend.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Role: "admin"},
	}}
	a, sessions := newActions(b)
	rec := httptest.NewRecorder()

	res := a.Login(context.Background(), rec, backend.LoginRequest{Email: "ann@example.com", Password: "secret1"})

	require.True(t, res.Success)
	assert.Equal(t, "Welcome", res.Message)
	require.Len(t, rec.Result().Cookies(), 3)

	s := sessions.Read(replay(rec))
	assert.Equal(t, "tok-1", s.Token)
	assert.Equal(t, auth.RoleAdmin, s.Role)
	assert.Equal(t, s.Role, s.User.Role)
}

func TestLogin_FailureSetsNoCookies(t *testing.T) {
	b := &mockBackend{err: &backend.APIError{Status: 401, Message: "Invalid credentials"}}
	a, _ := newActions(b)
	rec := httptest.NewRecorder()

	res := a.Login(context.Background(), rec, backend.LoginRequest{Email: "a@b.co", Password: "bad"})

	assert.False(t, res.Success)
	assert.Equal(t, "Invalid credentials", res.Message)
	assert.Equal(t, 401, res.Status)
	assert.Empty(t, rec.Result().Cookies())
}

func TestFailure_Unreachable(t *testing.T) {
	b := &mockBackend{err: &backend.UnreachableError{Op: "POST /api/auth/register", Err: errors.New("connection refused")}}
	a, _ := newActions(b)

	res := a.Register(context.Background(), backend.RegisterRequest{Name: "Ann"})

	assert.False(t, res.Success)
	assert.Equal(t, MsgUnreachable, res.Message)
	assert.Contains(t, res.Details, "connection refused")
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)
}

func TestFailure_UnexpectedError(t *testing.T) {
	b := &mockBackend{err: errors.New("failed to decode response")}
	a, _ := newActions(b)

	res := a.Register(context.Background(), backend.RegisterRequest{Name: "Ann"})

	assert.Equal(t, MsgGeneric, res.Message)
	assert.Equal(t, http.StatusInternalServerError, res.Status)
}

func TestForgotPassword_CarriesDevToken(t *testing.T) {
	b := &mockBackend{forgotResp: &backend.ForgotPasswordResponse{Success: true, Message: "sent", Token: "xyz"}}
	a, _ := newActions(b)

	res := a.ForgotPassword(context.Background(), "a@b.co")

	assert.True(t, res.Success)
	assert.Equal(t, "sent", res.Message)
	assert.Equal(t, "xyz", res.Token)
}

func TestFailure_RejectedEnvelopeOn2xx(t *testing.T) {
	b := &mockBackend{err: &backend.APIError{Status: http.StatusOK, Message: "no such email"}}
	a, _ := newActions(b)

	res := a.ForgotPassword(context.Background(), "ghost@b.co")

	assert.False(t, res.Success)
	assert.Equal(t, "no such email", res.Message)
	assert.Empty(t, res.Token)
	assert.Equal(t, http.StatusBadRequest, res.Status)
}

func TestResetPassword_LocalChecksSkipBackend(t *testing.T) {
	b := &mockBackend{}
	a, _ := newActions(b)

	res := a.ResetPassword(context.Background(), "", "secret1", "secret1")
	assert.Equal(t, MsgInvalidResetLink, res.Message)

	res = a.ResetPassword(context.Background(), "abc123", "secret1", "secret2")
	assert.Equal(t, MsgPasswordsMismatch, res.Message)

	assert.Equal(t, 0, b.calls)

	res = a.ResetPassword(context.Background(), "abc123", "secret1", "secret1")
	assert.True(t, res.Success)
	assert.Equal(t, "abc123", b.lastToken)
}

func TestUpdateProfile_RewritesSessionCookies(t *testing.T) {
	b := &mockBackend{profileResp: &backend.UserResponse{
		Message: "",
		Data:    &backend.User{ID: "u1", Name: "Ann B", Email: "annb@example.com"},
	}}
	a, sessions := newActions(b)
	rec := httptest.NewRecorder()

	res := a.UpdateProfile(context.Background(), rec, session, backend.ProfileRequest{Name: "Ann B", Email: "annb@example.com"})

	require.True(t, res.Success)
	assert.Equal(t, MsgProfileUpdated, res.Message)
	assert.Equal(t, "tok", b.lastToken)
	require.Len(t, rec.Result().Cookies(), 3)

	s := sessions.Read(replay(rec))
	assert.Equal(t, "Ann B", s.User.Name)
	assert.Equal(t, "annb@example.com", s.User.Email)
	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, auth.RoleUser, s.Role)
}

func TestUpdateProfile_Anonymous(t *testing.T) {
	b := &mockBackend{}
	a, _ := newActions(b)

	res := a.UpdateProfile(context.Background(), httptest.NewRecorder(), auth.Session{}, backend.ProfileRequest{})

	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, 0, b.calls)
}

func TestAdminActions(t *testing.T) {
	b := &mockBackend{}
	a, _ := newActions(b)
	ctx := context.Background()

	list := a.ListUsers(ctx, session)
	require.True(t, list.Success)
	assert.Equal(t, []backend.User{}, list.Data)

	created := a.CreateUser(ctx, session, backend.UserForm{Name: "Bob"})
	assert.Equal(t, "User created", created.Message)
	assert.Equal(t, http.StatusCreated, created.Status)

	updated := a.UpdateUser(ctx, session, "u2", backend.UserForm{Name: "Bobby"})
	assert.Equal(t, "Saved", updated.Message)

	deleted := a.DeleteUser(ctx, session, "u2")
	assert.True(t, deleted.Success)
	assert.Equal(t, "tok", b.lastToken)

	assert.Equal(t, http.StatusUnauthorized, a.DeleteUser(ctx, auth.Session{}, "u2").Status)
}
