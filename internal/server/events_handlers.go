package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matchpoint-dev/matchpoint/internal/auth"
)

const sessionEventsKeepAlive = 25 * time.Second

// @Summary Session change stream
// @Description Server-sent events announcing login, logout and profile changes
// @Description for the signed-in user, so open tabs can refresh their header.
// @Tags auth
// @Produce text/event-stream
// @Router /events/session [get]
func (s *Server) sessionEvents(c *gin.Context) {
	sess := GetSession(c)

	sub := s.broker.Subscribe(sess.User.ID)
	defer s.broker.Unsubscribe(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(sessionEventsKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-s.closing:
			return
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			c.Writer.Flush()
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			c.SSEvent(string(event.Kind), event)
			c.Writer.Flush()
			if event.Kind == auth.EventLogout {
				return
			}
		}
	}
}
