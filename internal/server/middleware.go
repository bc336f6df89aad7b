package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/matchpoint-dev/matchpoint/internal/auth"
	"github.com/matchpoint-dev/matchpoint/internal/backend"
)

const requestIDKey = "request_id"

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	c.JSON(statusCode, gin.H{"success": false, "message": message})
	c.Abort()
}

// requestIDMiddleware tags every request with a ULID, keeping one supplied
// by the caller, and hands it to outgoing backend calls
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(backend.RequestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}

		c.Set(requestIDKey, id)
		c.Header(backend.RequestIDHeader, id)
		c.Request = c.Request.WithContext(backend.WithRequestID(c.Request.Context(), id))

		c.Next()
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("HTTP request")
	}
}

// apiCORS applies handler to /api only. It sits on the engine rather than
// the group so preflight requests, which match no route, still reach it.
func apiCORS(handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			handler(c)
			return
		}
		c.Next()
	}
}

// sessionMiddleware reads the session cookies once per request
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		setSession(c, s.sessions.Read(c.Request))
		c.Next()
	}
}

func setSession(c *gin.Context, sess auth.Session) {
	c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), sess))
}

// GetSession returns the session the request carries
func GetSession(c *gin.Context) auth.Session {
	return auth.FromContext(c.Request.Context())
}

// RequireSession redirects anonymous visitors to the login page
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetSession(c).Anonymous() {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin redirects anyone without the admin role to the login page.
// The backend enforces the role again on every admin call.
func RequireAdmin(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := GetSession(c)
		if !sess.IsAdmin() {
			if !sess.Anonymous() {
				log.Warn().Str("user_id", sess.User.ID).Str("path", c.Request.URL.Path).Msg("Non-admin denied admin page")
			}
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
