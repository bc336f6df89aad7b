// Package server serves the Matchpoint pages and the authenticated /api
// proxy in front of the backend.
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/matchpoint-dev/matchpoint/internal/actions"
	"github.com/matchpoint-dev/matchpoint/internal/auth"
	"github.com/matchpoint-dev/matchpoint/internal/backend"
	"github.com/matchpoint-dev/matchpoint/internal/config"
	"github.com/matchpoint-dev/matchpoint/internal/forms"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    zerolog.Logger
	backend   *backend.Client
	actions   *actions.Actions
	sessions  *auth.Manager
	broker    *auth.Broker
	validator *forms.Validator
	guard     *forms.Guard
	closing   chan struct{}
	version   string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	broker := auth.NewBroker(zlog.With().Str("component", "session-events").Logger())
	sessions := auth.NewManager(cfg.IsProduction(), broker)
	client := backend.New(cfg.Backend.URL, cfg.Backend.Timeout)

	server := &Server{
		config:    cfg,
		logger:    zlog,
		backend:   client,
		actions:   actions.New(client, sessions, zlog.With().Str("component", "actions").Logger()),
		sessions:  sessions,
		broker:    broker,
		validator: forms.NewValidator(),
		guard:     forms.NewGuard(),
		closing:   make(chan struct{}),
		version:   version,
	}

	if err := server.setupRouter(); err != nil {
		return nil, err
	}

	return server, nil
}

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"initial": func(name string) string {
			if name == "" {
				return "?"
			}
			return string([]rune(name)[:1])
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() error {
	gin.SetMode(gin.ReleaseMode)

	tmpl, err := parseTemplates()
	if err != nil {
		return err
	}

	s.router = gin.New()
	s.router.SetHTMLTemplate(tmpl)

	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.sessionMiddleware())
	s.router.Use(apiCORS(cors.New(s.corsConfig())))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public pages
	s.router.GET("/", s.homePage)
	s.router.GET("/home", s.homePage)
	s.router.GET("/about", s.aboutPage)

	// Auth forms
	s.router.GET("/login", s.loginPage)
	s.router.POST("/login", s.submitLogin)
	s.router.GET("/register", s.registerPage)
	s.router.POST("/register", s.submitRegister)
	s.router.GET("/forgot-password", s.forgotPasswordPage)
	s.router.POST("/forgot-password", s.submitForgotPassword)
	s.router.GET("/reset-password", s.resetPasswordPage)
	s.router.POST("/reset-password", s.submitResetPassword)
	s.router.POST("/logout", s.logout)

	// Signed-in pages
	account := s.router.Group("")
	account.Use(RequireSession())
	{
		account.GET("/profile", s.profilePage)
		account.POST("/profile", s.submitProfile)
		account.GET("/events/session", s.sessionEvents)
	}

	// Admin console
	admin := s.router.Group("/admin")
	admin.Use(RequireAdmin(s.logger))
	{
		admin.GET("/users", s.listUsersPage)
		admin.GET("/users/create", s.createUserPage)
		admin.POST("/users/create", s.submitCreateUser)
		admin.GET("/users/:id", s.userDetailPage)
		admin.POST("/users/:id/delete", s.submitDeleteUser)
		admin.GET("/users/:id/edit", s.editUserPage)
		admin.POST("/users/:id/edit", s.submitEditUser)
	}

	// Authenticated proxy to the backend
	api := s.router.Group("/api")
	{
		api.GET("/admin/users", s.proxyUsers)
		api.POST("/admin/users", s.proxyUsers)
		api.GET("/admin/users/:id", s.proxyUser)
		api.PUT("/admin/users/:id", s.proxyUser)
		api.DELETE("/admin/users/:id", s.proxyUser)
		// An empty id would otherwise be redirected onto the collection
		api.GET("/admin/users/", s.proxyUser)
		api.PUT("/admin/users/", s.proxyUser)
		api.DELETE("/admin/users/", s.proxyUser)
		api.PUT("/auth/profile", s.proxyProfile)
		api.POST("/auth/reset-password", s.proxyResetPassword)
	}

	return nil
}

func (s *Server) corsConfig() cors.Config {
	origins := s.config.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{s.config.Server.PublicURL}
	}

	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", backend.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", backend.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "matchpoint-web",
		"version":   s.version,
	})
}

// Handler returns the traced root handler
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "matchpoint-web")
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	addr := ":" + s.config.Server.Port

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: /events/session streams for as long as the tab is open
		IdleTimeout: 120 * time.Second,
	}
	// Shutdown does not cancel request contexts, so event streams are told directly
	srv.RegisterOnShutdown(func() { close(s.closing) })

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("backend", s.backend.BaseURL()).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		return err
	case <-sigChan:
	}
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
