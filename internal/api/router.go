// Tracearr - Media Server Account Sharing and Anomaly Monitor
// Copyright 2026 Tracearr Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ramphex/Tracearr-sub001

// Package api serves the observability surface: health and Prometheus
// metrics. The product REST API lives in a separate service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ramphex/Tracearr-sub001/internal/detection"
	"github.com/ramphex/Tracearr-sub001/internal/logging"
)

// Server exposes health and metrics over HTTP.
type Server struct {
	rules   *detection.RuleSet
	started time.Time
	version string
}

// NewServer creates the observability server. rules is reported in the
// health payload so operators can confirm which rules loaded.
func NewServer(rules *detection.RuleSet, version string) *Server {
	return &Server{
		rules:   rules,
		started: time.Now().UTC(),
		version: version,
	}
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	ActiveRules   int    `json:"activeRules"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	active := 0
	for _, rule := range s.rules.All() {
		if rule.IsActive {
			active++
		}
	}

	resp := healthResponse{
		Status:        "ok",
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		ActiveRules:   active,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("failed to encode health response")
	}
}
