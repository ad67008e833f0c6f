// Package httpapi exposes the diary over HTTP for map front ends that run
// outside the process: JSON CRUD on spots, a server-sent event stream of
// list changes, and moon phase lookups.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bft-labs/fishdiary/internal/domain"
	"github.com/bft-labs/fishdiary/internal/ports"
)

// Shutdown and header timeouts for Run.
const (
	ShutdownTimeout   = 5 * time.Second
	ReadHeaderTimeout = 5 * time.Second
)

// SpotService is the slice of the diary the handlers need.
// *diary.Diary satisfies it.
type SpotService interface {
	Spots() []domain.Spot
	Spot(id int64) (domain.Spot, bool)
	Upsert(ctx context.Context, spot domain.Spot) ([]domain.Spot, error)
	Insert(ctx context.Context, spot domain.Spot) ([]domain.Spot, error)
	Remove(ctx context.Context, id int64) ([]domain.Spot, error)
	Refresh(ctx context.Context) ([]domain.Spot, error)
	Subscribe() (spots []domain.Spot, updates <-chan []domain.Spot, cancel func())
	NextID() int64
}

// Options configures a Server.
type Options struct {
	// AuthToken, when set, is required as a bearer token on /api routes.
	AuthToken string

	// Now overrides the clock used for default moon dates.
	Now func() time.Time
}

// Server routes HTTP requests to a SpotService.
type Server struct {
	svc    SpotService
	logger ports.Logger
	opts   Options
	engine *gin.Engine
}

// New builds the gin engine and registers all routes.
func New(svc SpotService, logger ports.Logger, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		svc:    svc,
		logger: logger,
		opts:   opts,
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestID(), accessLog(logger), cors())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"status":  "ok",
		})
	})

	api := s.engine.Group("/api")
	if s.opts.AuthToken != "" {
		api.Use(bearerAuth(s.opts.AuthToken))
	}

	spots := api.Group("/spots")
	{
		spots.GET("", s.listSpots)
		spots.POST("", s.createSpot)
		spots.GET("/nearby", s.nearbySpots)
		spots.GET("/events", s.spotEvents)
		spots.POST("/refresh", s.refreshSpots)
		spots.GET("/:id", s.getSpot)
		spots.PUT("/:id", s.updateSpot)
		spots.DELETE("/:id", s.deleteSpot)
	}

	api.GET("/moon", s.moonDay)
	api.GET("/moon/month", s.moonMonth)
}

// Handler returns the router for use with httptest or a custom server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
// Request contexts derive from ctx so open event streams end with it.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", ports.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown incomplete", ports.Err(err))
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}
