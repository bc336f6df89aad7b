package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/matchpoint-dev/matchpoint/internal/auth"
	"github.com/matchpoint-dev/matchpoint/internal/backend"
)

const msgBackendUnavailable = "Unable to connect to backend API. Make sure BACKEND_URL is configured correctly."

var errMissingUserID = errors.New("missing user id")

// ProfileUpdate represents the profile proxy request body
type ProfileUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PasswordReset represents the reset-password proxy request body
type PasswordReset struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// validUserID rejects the empty id and the literal "undefined" a client
// sends when it interpolates an unset variable into the path
func validUserID(id string) bool {
	return id != "" && id != "undefined"
}

// @Summary Proxy user collection
// @Description Lists or creates users on the backend. The multipart body is forwarded untouched.
// @Tags admin
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/admin/users [get]
// @Router /api/admin/users [post]
func (s *Server) proxyUsers(c *gin.Context) {
	token, err := auth.TokenFromRequest(c.Request)
	if err != nil {
		respondWithError(c, s.logger, http.StatusUnauthorized, err, "Unauthorized")
		return
	}

	s.forward(c, "/api/admin/users", token, requestBody(c))
}

// @Summary Proxy one user
// @Tags admin
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/admin/users/{id} [get]
// @Router /api/admin/users/{id} [put]
// @Router /api/admin/users/{id} [delete]
func (s *Server) proxyUser(c *gin.Context) {
	token, err := auth.TokenFromRequest(c.Request)
	if err != nil {
		respondWithError(c, s.logger, http.StatusUnauthorized, err, "Unauthorized")
		return
	}

	id := c.Param("id")
	if !validUserID(id) {
		respondWithError(c, s.logger, http.StatusBadRequest, errMissingUserID, "Missing user id")
		return
	}

	s.forward(c, "/api/admin/users/"+url.PathEscape(id), token, requestBody(c))
}

// @Summary Proxy profile update
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ProfileUpdate true "Profile"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/auth/profile [put]
func (s *Server) proxyProfile(c *gin.Context) {
	token, err := auth.TokenFromRequest(c.Request)
	if err != nil {
		respondWithError(c, s.logger, http.StatusUnauthorized, err, "Unauthorized")
		return
	}

	var req ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Email == "" {
		respondWithError(c, s.logger, http.StatusBadRequest, err, "Name and email are required")
		return
	}

	s.forwardJSON(c, "/api/auth/profile", token, req)
}

// @Summary Proxy password reset
// @Description Redeems a reset token. No session is required.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body PasswordReset true "Reset"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/auth/reset-password [post]
func (s *Server) proxyResetPassword(c *gin.Context) {
	var req PasswordReset
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		respondWithError(c, s.logger, http.StatusBadRequest, err, "Token and new password are required")
		return
	}

	s.forwardJSON(c, "/api/auth/reset-password", "", req)
}

func requestBody(c *gin.Context) io.Reader {
	switch c.Request.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return c.Request.Body
	default:
		return nil
	}
}

func (s *Server) forwardJSON(c *gin.Context, path, token string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.Request.Header.Set("Content-Type", "application/json")
	s.forward(c, path, token, bytes.NewReader(body))
}

// forward relays the request to the backend and copies status,
// Content-Type and body back unchanged. There are no retries.
func (s *Server) forward(c *gin.Context, path, token string, body io.Reader) {
	resp, err := s.backend.Forward(c.Request.Context(), backend.Forward{
		Method:      c.Request.Method,
		Path:        path,
		Token:       token,
		ContentType: c.GetHeader("Content-Type"),
		Body:        body,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("Backend request failed")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": msgBackendUnavailable,
			"details": err.Error(),
		})
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("Failed to read backend response")
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"success": false,
			"message": "Invalid response from backend",
			"details": err.Error(),
		})
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, data)
}
