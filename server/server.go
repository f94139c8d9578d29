// Package server assembles the HTTP server: echo, middlewares, the graph
// service and the v1 API routes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/internal/version"
	"github.com/hrygo/notegraph/plugin/cache"
	"github.com/hrygo/notegraph/plugin/embed"
	"github.com/hrygo/notegraph/internal/observability"
	"github.com/hrygo/notegraph/server/middleware"
	apiv1 "github.com/hrygo/notegraph/server/router/api/v1"
	"github.com/hrygo/notegraph/server/runner/embedding"
	"github.com/hrygo/notegraph/server/service/graph"
	"github.com/hrygo/notegraph/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer      *echo.Echo
	cache           *cache.Service
	embeddingRunner *embedding.Runner
}

func NewServer(_ context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	metrics := observability.GlobalMetrics()
	e.Use(
		echomw.Recover(),
		middleware.RequestLogger(metrics),
		middleware.NewRateLimiter(30, 60).Middleware(),
	)

	cacheService := cache.NewService(cache.DefaultServiceConfig())
	embedder := embed.NewLocal(profile.EmbeddingDimensions)
	graphService := graph.NewService(store, cacheService, embedder)

	s := &Server{
		Profile:         profile,
		Store:           store,
		echoServer:      e,
		cache:           cacheService,
		embeddingRunner: embedding.NewRunner(store, graphService),
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version.GetCurrentVersion(profile.Mode),
		})
	})
	e.GET("/metrics", func(c echo.Context) error {
		total, failed := metrics.Totals()
		return c.JSON(http.StatusOK, map[string]any{
			"requestTotal":  total,
			"requestFailed": failed,
			"operations":    metrics.Snapshot(),
		})
	})

	apiV1Service := apiv1.NewAPIV1Service(profile, store, graphService)
	apiV1Service.RegisterRoutes(e.Group("/api/v1"))

	return s, nil
}

func (s *Server) Start(ctx context.Context) error {
	go s.embeddingRunner.Run(ctx)

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", "address", address, "version", version.GetCurrentVersion(s.Profile.Mode))
	if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "failed to start server")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	s.cache.Close()
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server shutdown")
}
