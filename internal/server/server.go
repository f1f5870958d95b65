// Package server exposes the relay handlers over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/user/cibulb/internal/gitlab"
	"github.com/user/cibulb/internal/relay"
	"github.com/user/cibulb/internal/status"
	"github.com/user/cibulb/internal/storage"
	"github.com/user/cibulb/pkg/logger"
)

var maxWebhookBody int64 = 1 << 20

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Status       status.Aggregate           `json:"status"`
	Repositories []storage.RepositoryRecord `json:"repositories"`
}

// NewRouter builds the HTTP routes for r.
func NewRouter(r *relay.Relay) http.Handler {
	h := &handlers{relay: r}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	router.Post("/webhook", h.ingest)
	router.Post("/webhook/gitlab", h.ingest)
	router.Get("/refresh", h.refresh)
	router.Post("/refresh", h.refresh)
	router.Get("/status", h.status)

	return router
}

type handlers struct {
	relay *relay.Relay
}

// ingest handles GitLab pipeline webhooks.
func (h *handlers) ingest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body := http.MaxBytesReader(w, r.Body, maxWebhookBody)
	res := h.relay.IngestFrom(r.Context(), r.Header.Get(gitlab.TokenHeader), body)
	writeResult(w, res)
}

// refresh handles scheduler invocations.
func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.relay.Refresh(r.Context()))
}

// status returns the stored records and their aggregate.
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	records, agg, err := h.relay.Current(r.Context())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read status")
		http.Error(w, "Status unavailable", http.StatusServiceUnavailable)
		return
	}
	if records == nil {
		records = []storage.RepositoryRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{Status: agg, Repositories: records})
}

func writeResult(w http.ResponseWriter, res relay.Result) {
	w.Header().Set("X-Invocation-ID", res.InvocationID)
	if res.Outcome == relay.OutcomeForbidden {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	w.WriteHeader(res.StatusCode())
	w.Write([]byte(res.Body))
}
