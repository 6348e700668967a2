package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	Healthy         bool   `json:"healthy"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
		Healthy:         stat.TotalConns() > 0,
	}
}

// HealthReport is the /health/db response body.
type HealthReport struct {
	Status  string     `json:"status"`
	Service string     `json:"service"`
	Error   string     `json:"error,omitempty"`
	Pool    *PoolStats `json:"pool"`
}

// buildHealthReport maps a ping result onto the response status and body.
// A failed ping forces the pool stats unhealthy regardless of what the
// pool itself reports.
func buildHealthReport(service string, stats *PoolStats, pingErr error) (int, HealthReport) {
	if pingErr != nil {
		stats.Healthy = false
		return http.StatusServiceUnavailable, HealthReport{
			Status:  "unhealthy",
			Service: service,
			Error:   pingErr.Error(),
			Pool:    stats,
		}
	}
	return http.StatusOK, HealthReport{
		Status:  "healthy",
		Service: service,
		Pool:    stats,
	}
}

// HealthHandler returns a handler for the database health check endpoint.
func HealthHandler(pool *pgxpool.Pool, service string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		err := pool.Ping(ctx)
		code, report := buildHealthReport(service, GetPoolStats(pool), err)
		return c.JSON(code, report)
	}
}
