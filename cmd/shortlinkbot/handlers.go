package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Pinger is implemented by the credential stores that talk to a server.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	pinger Pinger
	logger *zap.Logger
}

func (h HealthHandler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		h.logger.Warn("failed to write health response", zap.Error(err))
	}
}

func (h HealthHandler) ping(w http.ResponseWriter, r *http.Request) {
	if h.pinger == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Error("storage ping failed", zap.Error(err))
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func NewRouter(h HealthHandler, metrics http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(WithLogging(h.logger))
	r.Get(`/`, h.health)
	r.Head(`/`, h.health)
	r.Get(`/ping`, h.ping)
	if metrics != nil {
		r.Method(http.MethodGet, `/metrics`, metrics)
	}
	return r
}
