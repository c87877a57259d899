package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sorenmh/infrastructure-shared/soketi-app-api/config"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/metrics"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/models"
	"github.com/sorenmh/infrastructure-shared/soketi-app-api/provision"
)

const (
	Version     = "1.0.0"
	ServiceName = "Soketi API Create Service"

	maxBodyBytes = 1 << 20
)

// AppService creates and looks up apps. *provision.Service implements it.
type AppService interface {
	Create(ctx context.Context, body []byte) (*models.App, error)
	Find(ctx context.Context, id string) (*models.App, error)
}

// Pinger reports database reachability for the health check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	config  *config.Config
	db      Pinger
	apps    AppService
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	router  *gin.Engine
	limiter *RateLimiter
}

func NewServer(cfg *config.Config, database Pinger, apps AppService, log logrus.FieldLogger, m *metrics.Metrics) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:  cfg,
		db:      database,
		apps:    apps,
		log:     log,
		metrics: m,
		router:  gin.New(),
	}

	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	// Without trusted proxies X-Forwarded-For is ignored and the peer
	// address identifies the client.
	if err := s.router.SetTrustedProxies(s.config.Server.TrustedProxies); err != nil {
		s.log.WithError(err).Warn("invalid trusted proxies, ignoring forwarded headers")
		_ = s.router.SetTrustedProxies(nil)
	}

	s.router.Use(s.requestLogger(), gin.Recovery())

	// Health check (no auth)
	s.router.GET("/", s.handleHealth)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// App routes (with auth). The limiter runs first so failed logins
	// are throttled too.
	apps := s.router.Group("/apps")
	if rl := s.config.Server.RateLimit; rl.RequestsPerSecond > 0 {
		s.limiter = NewRateLimiter(rl.RequestsPerSecond, rl.Burst, rl.ClientTTL)
		apps.Use(s.limiter.Middleware())
	}
	apps.Use(gin.BasicAuth(gin.Accounts{
		s.config.Server.Auth.Username: s.config.Server.Auth.Password,
	}))
	{
		apps.POST("", s.handleCreateApp)
		apps.GET("/:id", s.handleGetApp)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.limiter != nil {
		s.limiter.StartCleanup(ctx, time.Minute)
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", srv.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbOK := s.db.PingContext(ctx) == nil

	status := "healthy"
	if !dbOK {
		status = "degraded"
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Message:            ServiceName,
		Version:            Version,
		Status:             status,
		DatabaseAccessible: dbOK,
	})
}

func (s *Server) handleCreateApp(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body",
			Time:  time.Now().UTC(),
		})
		return
	}

	app, err := s.apps.Create(c.Request.Context(), body)
	if err != nil {
		s.writeCreateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.AppResponse{Success: true, App: app})
}

func (s *Server) writeCreateError(c *gin.Context, err error) {
	var validationErrs models.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, models.ValidationErrorResponse{
			Error:  "validation failed",
			Errors: validationErrs,
			Time:   time.Now().UTC(),
		})
	case errors.Is(err, provision.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: "App ID already exists",
			Time:  time.Now().UTC(),
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Internal server error",
			Time:  time.Now().UTC(),
		})
	}
}

func (s *Server) handleGetApp(c *gin.Context) {
	app, err := s.apps.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Internal server error",
			Time:  time.Now().UTC(),
		})
		return
	}
	if app == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "App not found",
			Time:  time.Now().UTC(),
		})
		return
	}

	c.JSON(http.StatusOK, models.AppResponse{Success: true, App: app})
}
