package auth

import "context"

// Role is the coarse authorization level the backend assigns to a user
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a raw value to a Role. Anything unrecognised is a plain user.
func ParseRole(raw string) Role {
	if Role(raw) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// User is the cached profile stored in the "user" cookie
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Session represents the browser-held authentication state for a request
type Session struct {
	Token string
	User  User
	Role  Role
}

// Anonymous reports whether the request carries no usable session
func (s Session) Anonymous() bool {
	return s.Token == ""
}

// IsAdmin reports whether the session belongs to an admin
func (s Session) IsAdmin() bool {
	return !s.Anonymous() && s.Role == RoleAdmin
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored in ctx, or the anonymous session
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey{}).(Session)
	return s
}
