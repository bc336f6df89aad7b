package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Session cookie names
const (
	TokenCookie = "token"
	UserCookie  = "user"
	RoleCookie  = "role"
)

// Manager owns the three session cookies. They are always written and
// cleared together; a request missing any of them reads as anonymous.
type Manager struct {
	secure bool
	broker *Broker
	now    func() time.Time
}

// NewManager creates a cookie manager. secure marks the token cookie
// Secure (production). broker may be nil.
func NewManager(secure bool, broker *Broker) *Manager {
	return &Manager{
		secure: secure,
		broker: broker,
		now:    time.Now,
	}
}

// Set writes the session for token and user and announces a login
func (m *Manager) Set(w http.ResponseWriter, token string, user User) error {
	if err := m.write(w, token, user); err != nil {
		return err
	}
	m.publish(EventLogin, user.ID)
	return nil
}

// Refresh rewrites the session with an updated profile for the same token
func (m *Manager) Refresh(w http.ResponseWriter, token string, user User) error {
	if err := m.write(w, token, user); err != nil {
		return err
	}
	m.publish(EventProfile, user.ID)
	return nil
}

// Clear expires all three cookies and announces a logout for the session
// that r carried, if any
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) {
	current := m.Read(r)

	for _, name := range []string{TokenCookie, UserCookie, RoleCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: name == TokenCookie,
			Secure:   m.secure && name == TokenCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}

	if !current.Anonymous() {
		m.publish(EventLogout, current.User.ID)
	}
}

// Read parses the session cookies of r. Absence, a corrupt user cookie or
// an expired token all yield the anonymous session.
func (m *Manager) Read(r *http.Request) Session {
	tokenCookie, err := r.Cookie(TokenCookie)
	if err != nil || tokenCookie.Value == "" {
		return Session{}
	}
	userCookie, err := r.Cookie(UserCookie)
	if err != nil || userCookie.Value == "" {
		return Session{}
	}
	roleCookie, err := r.Cookie(RoleCookie)
	if err != nil || roleCookie.Value == "" {
		return Session{}
	}

	raw, err := url.PathUnescape(userCookie.Value)
	if err != nil {
		return Session{}
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return Session{}
	}

	if exp, ok := TokenExpiry(tokenCookie.Value); ok && !exp.After(m.now()) {
		return Session{}
	}

	return Session{
		Token: tokenCookie.Value,
		User:  user,
		Role:  ParseRole(roleCookie.Value),
	}
}

func (m *Manager) write(w http.ResponseWriter, token string, user User) error {
	if token == "" {
		return ErrEmptyToken
	}
	user.Role = ParseRole(string(user.Role))

	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user cookie: %w", err)
	}

	var expires time.Time
	maxAge := 0
	if exp, ok := TokenExpiry(token); ok {
		if ttl := exp.Sub(m.now()); ttl > 0 {
			expires = exp
			maxAge = int(ttl.Seconds())
		}
	}

	cookies := []*http.Cookie{
		{Name: TokenCookie, Value: token, HttpOnly: true, Secure: m.secure},
		{Name: UserCookie, Value: url.PathEscape(string(encoded))},
		{Name: RoleCookie, Value: string(user.Role)},
	}
	for _, c := range cookies {
		c.Path = "/"
		c.SameSite = http.SameSiteLaxMode
		c.MaxAge = maxAge
		c.Expires = expires
		http.SetCookie(w, c)
	}
	return nil
}

func (m *Manager) publish(kind EventKind, userID string) {
	if m.broker == nil {
		return
	}
	m.broker.Publish(Event{Kind: kind, UserID: userID, At: m.now().UTC()})
}
