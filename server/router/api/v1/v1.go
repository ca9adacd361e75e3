package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/chronorec/internal/observability"
	"github.com/hrygo/chronorec/internal/profile"
	"github.com/hrygo/chronorec/plugin/recognizer"
)

type APIV1Service struct {
	Profile    *profile.Profile
	Recognizer *recognizer.Recognizer
	// Stats is the in-process metrics recorder served by /api/v1/stats;
	// nil disables the endpoint.
	Stats *observability.InMemoryMetrics

	logger          *slog.Logger
	validate        *validator.Validate
	defaultLocation *time.Location
	now             func() time.Time

	// batchSemaphore limits concurrent batch requests
	batchSemaphore *semaphore.Weighted
}

func NewAPIV1Service(p *profile.Profile, rec *recognizer.Recognizer, stats *observability.InMemoryMetrics, logger *slog.Logger) *APIV1Service {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := time.LoadLocation(p.DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	return &APIV1Service{
		Profile:         p,
		Recognizer:      rec,
		Stats:           stats,
		logger:          logger,
		validate:        validator.New(),
		defaultLocation: loc,
		now:             time.Now,
		batchSemaphore:  semaphore.NewWeighted(p.MaxParallelBatch),
	}
}

// RegisterRoutes mounts the API on echoServer. metricsHandler serves
// /metrics when not nil.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo, metricsHandler http.Handler) {
	echoServer.GET("/healthz", s.Healthz)
	if metricsHandler != nil {
		echoServer.GET("/metrics", echo.WrapHandler(metricsHandler))
	}

	api := echoServer.Group("/api/v1")
	api.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"*"},
	}))
	// Colons are escaped so echo does not read them as path parameters.
	api.POST(`/datetime\:recognize`, s.Recognize)
	api.POST(`/datetime\:batchRecognize`, s.BatchRecognize)
	api.GET("/cultures", s.ListCultures)
	api.DELETE("/cache", s.PurgeCache)
	if s.Stats != nil {
		api.GET("/stats", s.GetStats)
	}
}

// Healthz reports liveness.
// GET /healthz
func (s *APIV1Service) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
