package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"
)

// HealthResponse is the response for GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	SQLite string `json:"sqlite"`
}

func handleHealth(logger *slog.Logger, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		resp := HealthResponse{Status: "ok", SQLite: "ok"}
		status := http.StatusOK

		if err := db.PingContext(ctx); err != nil {
			logger.Error("health check failed", "name", "sqlite", "error", err)
			resp.Status = "degraded"
			resp.SQLite = "error"
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, resp)
	}
}
