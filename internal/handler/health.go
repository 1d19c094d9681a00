package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"
)

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"service":   "wallet-api",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness reports whether the service can take traffic. Postgres is the
// only hard dependency.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]string{"database": "ok"}

	start := time.Now()
	if err := h.db.PingContext(r.Context()); err != nil {
		slog.Warn("readiness check failed: database unreachable", "error", err)
		status = "down"
		httpStatus = http.StatusServiceUnavailable
		checks["database"] = "down"
	} else {
		checks["database_latency"] = time.Since(start).String()
	}

	RespondJSON(w, httpStatus, map[string]any{
		"status":    status,
		"service":   "wallet-api",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
