// internal/interfaces/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/nanostore-kiosk/internal/config"
	"github.com/your-org/nanostore-kiosk/internal/domain/session"
	"github.com/your-org/nanostore-kiosk/internal/interfaces/http/handlers"
	"github.com/your-org/nanostore-kiosk/internal/interfaces/http/middleware"
	"github.com/your-org/nanostore-kiosk/internal/interfaces/http/routes"
	"github.com/your-org/nanostore-kiosk/internal/interfaces/ws"
	"github.com/your-org/nanostore-kiosk/internal/pkg/metrics"
	"github.com/your-org/nanostore-kiosk/internal/pkg/pdf"
)

// HealthCheck probes one backing service
type HealthCheck func(ctx context.Context) error

// Options are the optional collaborators of the server
type Options struct {
	Redis    *redis.Client
	Receipts *pdf.Service
	Checks   map[string]HealthCheck
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	logger     *logrus.Logger
	gin        *gin.Engine
	httpServer *http.Server
	dispatcher *ws.Dispatcher
	registry   *session.Registry
	metrics    *metrics.Metrics
	options    Options
	upgrader   websocket.Upgrader
	started    time.Time

	// ctx outlives single requests; cancelling it closes all terminal connections
	ctx    context.Context
	cancel context.CancelFunc
	conns  sync.WaitGroup
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, logger *logrus.Logger, dispatcher *ws.Dispatcher, registry *session.Registry, m *metrics.Metrics, options Options) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:     cfg,
		logger:     logger,
		gin:        gin.New(),
		dispatcher: dispatcher,
		registry:   registry,
		metrics:    m,
		options:    options,
		started:    time.Now(),
		ctx:        ctx,
		cancel:     cancel,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || middleware.OriginAllowed(origin, cfg.Security.CORSAllowedOrigins)
		},
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	s.logger.Infof("🚀 HTTP Server starting on port %s", s.config.Server.Port)
	s.logger.Infof("🔌 Terminal socket: ws://localhost:%s/ws", s.config.Server.Port)
	s.logger.Infof("📊 Health Check: http://localhost:%s/health", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop closes all terminal connections and shuts the server down.
// Checkouts already running are allowed to finish until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("🛑 Shutting down HTTP server...")

	s.cancel()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("terminal connections still open: %w", ctx.Err())
	}

	s.logger.Info("✅ HTTP server stopped gracefully")
	return nil
}

// setupMiddleware configures all middleware for the server
func (s *Server) setupMiddleware() {
	s.gin.Use(gin.Recovery())
	s.gin.Use(middleware.Logger(s.logger))
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.CORS(s.config))
	s.gin.Use(middleware.SecurityHeaders(s.config.App.Name))
}

func (s *Server) setupRoutes() {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)
	s.gin.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	s.gin.GET("/ws",
		middleware.RateLimit(s.config.Security.RateLimitPerMinute, s.options.Redis, s.logger),
		s.serveTerminal,
	)

	apiV1 := s.gin.Group("/api/v1")
	routes.SetupRoutes(apiV1, routes.Handlers{
		Status:   handlers.NewStatusHandler(s.config, s.registry, s.started),
		Receipts: handlers.NewReceiptHandler(s.options.Receipts),
	})
}

// serveTerminal upgrades the request and hands the socket to the dispatcher
func (s *Server) serveTerminal(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	s.conns.Add(1)
	defer s.conns.Done()
	s.dispatcher.Serve(s.ctx, ws.NewTransport(conn))
}

// healthCheck runs every registered probe
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range s.options.Checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"errors": failed,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

// readinessCheck handles readiness check requests
func (s *Server) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}
