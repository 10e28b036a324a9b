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
	}
}

// Pinger is anything the health endpoint can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check is one named dependency on the health endpoint. Stats, when set,
// is reported alongside the check result.
type Check struct {
	Name   string
	Pinger Pinger
	Stats  func() any
}

// CheckResult is the reported state of one Check.
type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Stats  any    `json:"stats,omitempty"`
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]CheckResult `json:"checks"`
}

const healthTimeout = 5 * time.Second

// HealthHandler pings every check and answers 503 when any of them fails.
func HealthHandler(version string, checks ...Check) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		resp := HealthResponse{
			Status:  "healthy",
			Version: version,
			Checks:  make(map[string]CheckResult, len(checks)),
		}
		code := http.StatusOK

		for _, chk := range checks {
			res := CheckResult{Status: "healthy"}
			if err := chk.Pinger.Ping(ctx); err != nil {
				res.Status = "unhealthy"
				res.Error = err.Error()
				resp.Status = "unhealthy"
				code = http.StatusServiceUnavailable
			}
			if chk.Stats != nil {
				res.Stats = chk.Stats()
			}
			resp.Checks[chk.Name] = res
		}

		return c.JSON(code, resp)
	}
}
