package http

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *sql.DB, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "store ping failed",
			slog.String("error", err.Error()))
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	render.Status(r, code)
	render.JSON(w, r, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// LivenessCheck handles GET /api/health/live
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "alive",
	})
}

// VersionInfo handles GET /api/version
func (h *HealthHandler) VersionInfo(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"version": Version,
	})
}
