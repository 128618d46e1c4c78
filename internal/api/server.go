// SPDX-License-Identifier: MIT

// Package api exposes the thin operational HTTP surface of the daemon:
// health probes, Prometheus metrics, command enqueueing and report lookup.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	xlog "github.com/pbartsch/mediamend/internal/log"
	"github.com/pbartsch/mediamend/internal/queue"
	"github.com/pbartsch/mediamend/internal/repair"
	"github.com/pbartsch/mediamend/internal/report"
)

// Server serves the ops endpoints.
type Server struct {
	queue   queue.Queue
	reports *report.Repository
	repairs *repair.Service
	ready   func() bool
}

// NewServer wires the ops server. ready gates the readiness probe; nil means
// always ready.
func NewServer(q queue.Queue, reports *report.Repository, repairs *repair.Service, ready func() bool) *Server {
	if ready == nil {
		ready = func() bool { return true }
	}
	return &Server{queue: q, reports: reports, repairs: repairs, ready: ready}
}

// Router builds the chi router.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(requestID)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			// Enqueueing triggers full-store scans; keep it rare.
			r.Use(httprate.LimitByIP(10, time.Minute))
			r.Post("/validate", s.handleEnqueueValidate)
			r.Post("/repair", s.handleEnqueueRepair)
		})
		r.Get("/reports/{id}", s.handleGetReport)
		r.Get("/repair-reports/{id}", s.handleGetRepairReport)
	})

	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(xlog.ContextWithRequestID(r.Context(), id)))
	})
}
