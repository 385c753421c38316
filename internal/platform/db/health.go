package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// DBStats is the pool snapshot reported by the health endpoint. The
// front-desk deployment watches acquired vs max to spot a stuck
// billing commit holding connections.
type DBStats struct {
	OpenConns     int32  `json:"open_conns"`
	IdleConns     int32  `json:"idle_conns"`
	AcquiredConns int32  `json:"acquired_conns"`
	MaxConns      int32  `json:"max_conns"`
	WaitTime      string `json:"wait_time"`
}

// HealthBody is the health endpoint response.
type HealthBody struct {
	Status   string  `json:"status"`
	Error    string  `json:"error,omitempty"`
	Database DBStats `json:"database"`
}

func snapshotStats(pool *pgxpool.Pool) DBStats {
	stat := pool.Stat()
	return DBStats{
		OpenConns:     stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
		WaitTime:      stat.AcquireDuration().String(),
	}
}

// healthBody maps a ping result and pool snapshot to the response
// status code and body.
func healthBody(pingErr error, stats DBStats) (int, HealthBody) {
	if pingErr != nil {
		return http.StatusServiceUnavailable, HealthBody{
			Status:   "unavailable",
			Error:    pingErr.Error(),
			Database: stats,
		}
	}
	return http.StatusOK, HealthBody{Status: "ok", Database: stats}
}

// HealthHandler pings the database and reports service health along
// with pool statistics.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		code, body := healthBody(pool.Ping(ctx), snapshotStats(pool))
		return c.JSON(code, body)
	}
}
