package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/sealion/internal/observability"
)

// RouterParams groups dependencies for building the mock server router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *MockConfig
	API     http.Handler
	Metrics *observability.Metrics
}

// NewRouter mounts the API under /api next to health and metrics endpoints.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	if params.API != nil {
		r.Mount("/api", params.API)
	}
	return r
}
