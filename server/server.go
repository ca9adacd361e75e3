package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/chronorec/internal/observability"
	"github.com/hrygo/chronorec/internal/profile"
	"github.com/hrygo/chronorec/plugin/cache"
	"github.com/hrygo/chronorec/plugin/recognizer"
	"github.com/hrygo/chronorec/server/middleware"
	apiv1 "github.com/hrygo/chronorec/server/router/api/v1"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	Profile    *profile.Profile
	Recognizer *recognizer.Recognizer
	Stats      *observability.InMemoryMetrics

	logger     *slog.Logger
	echoServer *echo.Echo
}

// NewRecognizer builds the culture registry and recognizer described by p.
func NewRecognizer(p *profile.Profile, metrics observability.Metrics, logger *slog.Logger) (*recognizer.Recognizer, error) {
	reg, err := recognizer.NewRegistry(recognizer.RegistryConfig{
		Cultures:          p.Cultures,
		DefaultCulture:    p.DefaultCulture,
		Fallback:          p.CultureFallback,
		MatchTimeout:      p.RegexTimeout,
		MinuteGranularity: p.MinuteGranularity,
		Cache: cache.Config{
			Capacity:        p.CacheCapacity,
			TTL:             p.CacheTTL,
			CleanupInterval: p.CacheCleanupInterval,
		},
		DisableCache: p.CacheDisabled,
	}, metrics, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build recognizer registry")
	}
	return recognizer.New(reg,
		recognizer.WithMaxInputLength(p.MaxInputLength),
		recognizer.WithFoldWidth(p.FoldWidth),
		recognizer.WithBatchConcurrency(p.BatchConcurrency),
		recognizer.WithMetrics(metrics),
		recognizer.WithLogger(logger),
	), nil
}

// NewServer wires the recognizer, metrics and HTTP routes.
func NewServer(_ context.Context, p *profile.Profile, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMetrics, err := observability.NewPrometheusMetrics(promRegistry)
	if err != nil {
		return nil, errors.Wrap(err, "failed to register metrics")
	}
	stats := observability.NewInMemoryMetrics()
	metrics := observability.Fanout{stats, promMetrics}

	rec, err := NewRecognizer(p, metrics, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Profile:    p,
		Recognizer: rec,
		Stats:      stats,
		logger:     logger,
	}

	echoServer := echo.New()
	echoServer.Debug = p.Mode == "dev"
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(echomiddleware.Recover())
	echoServer.Use(middleware.RequestContext(logger))
	if p.RateLimit > 0 {
		echoServer.Use(middleware.RateLimit(middleware.NewRateLimiter(p.RateLimit, p.RateBurst)))
	}
	s.echoServer = echoServer

	apiV1Service := apiv1.NewAPIV1Service(p, rec, stats, logger)
	apiV1Service.RegisterRoutes(echoServer, promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	return s, nil
}

// Handler exposes the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start binds the listener and serves in the background.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("failed to start echo server", slog.String("error", err.Error()))
		}
	}()
	s.logger.Info("server started", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		s.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	s.Recognizer.Registry().Close()
	s.logger.Info("chronorec stopped properly")
}
