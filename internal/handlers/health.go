package handlers

import (
	"context"
	"net/http"

	"github.com/tduong/medbill/internal/domain"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Health struct {
	db Pinger
}

func NewHealth(db Pinger) *Health {
	return &Health{db: db}
}

func (h *Health) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		writeError(w, r, domain.ErrServiceUnavailable("database", "database unreachable").WithCause(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Health) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "medical-billing-api",
		"status":  "running",
	})
}
