package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/chronorec/internal/observability"
	"github.com/hrygo/chronorec/plugin/cache"
)

// StatsResponse represents the in-process recognition statistics.
type StatsResponse struct {
	*observability.MetricsSnapshot
	CacheHitRate float64     `json:"cacheHitRate"`
	Cache        cache.Stats `json:"cache"`
}

// GetStats returns the in-process counters.
// GET /api/v1/stats
func (s *APIV1Service) GetStats(c echo.Context) error {
	snapshot := s.Stats.Snapshot()
	return c.JSON(http.StatusOK, StatsResponse{
		MetricsSnapshot: snapshot,
		CacheHitRate:    snapshot.CacheHitRate(),
		Cache:           s.Recognizer.Registry().CacheStats(),
	})
}

// PurgeCacheResponse reports how many cached results were dropped.
type PurgeCacheResponse struct {
	Removed int `json:"removed"`
}

// PurgeCache drops cached results, of one culture when the culture query
// parameter is set.
// DELETE /api/v1/cache
func (s *APIV1Service) PurgeCache(c echo.Context) error {
	culture := c.QueryParam("culture")
	removed, err := s.Recognizer.Registry().PurgeCache(culture)
	if err != nil {
		return s.writeError(c, err)
	}
	s.logger.Info("results cache purged", slog.String("culture", culture), slog.Int("removed", removed))
	return c.JSON(http.StatusOK, PurgeCacheResponse{Removed: removed})
}
