package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestWith replays the cookies a response set onto a fresh request
func requestWith(cookies []*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		if c.MaxAge < 0 {
			continue
		}
		r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return r
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

func TestSet_WritesExactlyThreeCookies(t *testing.T) {
	m := NewManager(true, nil)
	rec := httptest.NewRecorder()

	err := m.Set(rec, "opaque-token", User{ID: "u1", Name: "Ann Lee", Email: "ann@example.com", Role: RoleAdmin})
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 3)

	byName := map[string]*http.Cookie{}
	for _, c := range cookies {
		byName[c.Name] = c
		assert.Equal(t, "/", c.Path, "cookie %s path", c.Name)
	}

	require.Contains(t, byName, TokenCookie)
	require.Contains(t, byName, UserCookie)
	require.Contains(t, byName, RoleCookie)

	assert.True(t, byName[TokenCookie].HttpOnly)
	assert.True(t, byName[TokenCookie].Secure)
	assert.False(t, byName[UserCookie].HttpOnly)
	assert.False(t, byName[RoleCookie].HttpOnly)

	raw, err := url.PathUnescape(byName[UserCookie].Value)
	require.NoError(t, err)
	var user User
	require.NoError(t, json.Unmarshal([]byte(raw), &user))
	assert.Equal(t, "Ann Lee", user.Name)
	assert.Equal(t, string(user.Role), byName[RoleCookie].Value)
}

func TestSet_DefaultsMissingRoleToUser(t *testing.T) {
	m := NewManager(false, nil)
	rec := httptest.NewRecorder()

	require.NoError(t, m.Set(rec, "tok", User{ID: "u1", Name: "Bob"}))

	s := m.Read(requestWith(rec.Result().Cookies()))
	assert.Equal(t, RoleUser, s.Role)
	assert.Equal(t, RoleUser, s.User.Role)
}

func TestSet_RejectsEmptyToken(t *testing.T) {
	m := NewManager(false, nil)
	rec := httptest.NewRecorder()

	err := m.Set(rec, "", User{ID: "u1"})
	assert.ErrorIs(t, err, ErrEmptyToken)
	assert.Empty(t, rec.Result().Cookies())
}

func TestReadRoundTrip(t *testing.T) {
	m := NewManager(false, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, m.Set(rec, "tok", User{ID: "u1", Name: "Ann, \"The\" Ace", Email: "ann@example.com", Role: RoleAdmin}))

	s := m.Read(requestWith(rec.Result().Cookies()))

	assert.False(t, s.Anonymous())
	assert.True(t, s.IsAdmin())
	assert.Equal(t, "tok", s.Token)
	assert.Equal(t, "Ann, \"The\" Ace", s.User.Name)
}

func TestUserCookie_EncodesLikeEncodeURIComponent(t *testing.T) {
	m := NewManager(false, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, m.Set(rec, "tok", User{ID: "u1", Name: "Ada Admin", Email: "ada+club@example.com", Role: RoleUser}))

	var value string
	for _, c := range rec.Result().Cookies() {
		if c.Name == UserCookie {
			value = c.Value
		}
	}
	assert.Contains(t, value, "Ada%20Admin")
	assert.NotContains(t, value, "Ada+Admin")

	s := m.Read(requestWith(rec.Result().Cookies()))
	assert.Equal(t, "Ada Admin", s.User.Name)
	assert.Equal(t, "ada+club@example.com", s.User.Email)
}

func TestClear_ThenReadIsAnonymous(t *testing.T) {
	m := NewManager(false, nil)
	login := httptest.NewRecorder()
	require.NoError(t, m.Set(login, "tok", User{ID: "u1", Role: RoleUser}))
	req := requestWith(login.Result().Cookies())

	logout := httptest.NewRecorder()
	m.Clear(logout, req)

	cleared := logout.Result().Cookies()
	require.Len(t, cleared, 3)
	for _, c := range cleared {
		assert.Equal(t, "", c.Value)
		assert.True(t, c.MaxAge < 0, "cookie %s must expire", c.Name)
	}

	assert.True(t, m.Read(requestWith(cleared)).Anonymous())
}

func TestRead_PartialCookiesAreAnonymous(t *testing.T) {
	m := NewManager(false, nil)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: UserCookie, Value: url.PathEscape(`{"id":"u1"}`)})
	r.AddCookie(&http.Cookie{Name: RoleCookie, Value: "admin"})
	assert.True(t, m.Read(r).Anonymous(), "user and role without token")

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "tok"})
	assert.True(t, m.Read(r).Anonymous(), "token without user")
}

func TestRead_CorruptUserCookieIsAnonymous(t *testing.T) {
	m := NewManager(false, nil)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "tok"})
	r.AddCookie(&http.Cookie{Name: UserCookie, Value: "not-json"})
	r.AddCookie(&http.Cookie{Name: RoleCookie, Value: "user"})

	assert.True(t, m.Read(r).Anonymous())
}

func TestJWTExpiryDrivesCookieLifetime(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(false, nil)
	m.now = func() time.Time { return now }

	token := signedToken(t, now.Add(time.Hour))
	rec := httptest.NewRecorder()
	require.NoError(t, m.Set(rec, token, User{ID: "u1"}))

	for _, c := range rec.Result().Cookies() {
		assert.Equal(t, 3600, c.MaxAge, "cookie %s", c.Name)
	}

	req := requestWith(rec.Result().Cookies())
	assert.False(t, m.Read(req).Anonymous())

	m.now = func() time.Time { return now.Add(2 * time.Hour) }
	assert.True(t, m.Read(req).Anonymous(), "expired token reads as anonymous")
}

func TestMutationsPublishEvents(t *testing.T) {
	broker := NewBroker(zerolog.Nop())
	m := NewManager(false, broker)
	sub := broker.Subscribe("u1")
	defer broker.Unsubscribe(sub)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Set(rec, "tok", User{ID: "u1"}))
	require.NoError(t, m.Refresh(httptest.NewRecorder(), "tok", User{ID: "u1", Name: "New"}))
	m.Clear(httptest.NewRecorder(), requestWith(rec.Result().Cookies()))

	var kinds []EventKind
	for i := 0; i < 3; i++ {
		select {
		case e := <-sub.Events():
			kinds = append(kinds, e.Kind)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for session event")
		}
	}
	assert.Equal(t, []EventKind{EventLogin, EventProfile, EventLogout}, kinds)
}
