// Package httpapi exposes the voice-transport-facing HTTP API: the
// OpenAI-compatible chat completions endpoint, health and info
// endpoints, Prometheus metrics, and the operator debug surface.
package httpapi

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lostlondon/vicd/internal/logging"
	"github.com/lostlondon/vicd/internal/orchestrator"
	"github.com/lostlondon/vicd/internal/policy"
	"github.com/lostlondon/vicd/internal/retrieval"
	"github.com/lostlondon/vicd/internal/session"
)

// ServiceName and ServiceVersion identify the service on the info
// endpoint.
const (
	ServiceName    = "VIC CLM"
	ServiceVersion = "2.0.0"
)

// TurnHandler runs one conversational turn.
type TurnHandler interface {
	HandleTurn(ctx context.Context, turn orchestrator.Turn, out orchestrator.Emitter) (*orchestrator.TurnResult, error)
}

// CacheStats reports embedding cache statistics for the debug surface.
type CacheStats func() retrieval.CacheStats

// Config holds HTTP server configuration.
type Config struct {
	Port int

	// AuthToken guards /chat/completions. Empty disables auth.
	AuthToken string
}

// Server provides the HTTP endpoints.
type Server struct {
	echo       *echo.Echo
	config     Config
	turns      TurnHandler
	store      *session.Store
	trending   *policy.Trending
	cacheStats CacheStats
	metrics    *Metrics
	logger     *logging.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(config Config, turns TurnHandler, store *session.Store, trending *policy.Trending, cacheStats CacheStats, logger *logging.Logger) (*Server, error) {
	if turns == nil {
		return nil, fmt.Errorf("turn handler is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if trending == nil {
		trending = policy.NewTrending()
	}
	if config.Port == 0 {
		config.Port = 8000
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s := &Server{
		echo:       e,
		config:     config,
		turns:      turns,
		store:      store,
		trending:   trending,
		cacheStats: cacheStats,
		metrics:    NewMetrics(logger.Zap()),
		logger:     logger,
	}

	e.Use(s.requestLogger)
	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.POST("/chat/completions", s.handleChatCompletions, s.requireAuth)

	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	debug := s.echo.Group("/debug")
	debug.GET("/sessions/:id", s.handleDebugSession)
	debug.GET("/cache", s.handleDebugCache)
	debug.GET("/trending", s.handleDebugTrending)
}

// requireAuth enforces the bearer token. No configured token means dev
// mode: everything is allowed.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.config.AuthToken == "" {
			return next(c)
		}
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		const prefix = "Bearer "
		if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing auth token")
		}
		token := auth[len(prefix):]
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.config.AuthToken)) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing auth token")
		}
		return next(c)
	}
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		finish := s.metrics.RequestStarted(c.Request().Context())
		err := next(c)
		finish()
		duration := time.Since(start)

		s.logger.Zap().Info("http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", duration),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
		s.metrics.RecordRequest(c.Request().Context(), c.Request().Method, c.Path(), c.Response().Status, duration)

		return err
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.Zap().Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Zap().Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
