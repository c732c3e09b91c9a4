package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/storyloom/internal/capability"
)

type OpsHandler struct {
	db       *sqlx.DB
	registry *capability.Registry
}

func NewOpsHandler(db *sqlx.DB, registry *capability.Registry) *OpsHandler {
	return &OpsHandler{db: db, registry: registry}
}

// Capabilities reports which optional integrations are configured and reachable.
func (h *OpsHandler) Capabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"capabilities": h.registry.Statuses()})
}

// Healthz reports database reachability. Capabilities never affect health.
func (h *OpsHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	err := h.db.PingContext(ctx)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
