// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package bridge

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-core-stack/mcp-sql-bridge/pkg/config"
)

// maxInboundBody caps the request body read; tool invocations are small.
const maxInboundBody = 4 * 1024 * 1024

// Handler exposes the bridge over HTTP: POST anywhere resolves an invocation,
// GET /healthz answers liveness probes without touching the upstream.
type Handler struct {
	bridge       *Bridge
	upstreamHost string
	logger       zerolog.Logger
}

// NewHandler constructs the HTTP front for a bridge built from cfg.
func NewHandler(cfg config.Config) *Handler {
	return &Handler{
		bridge:       New(cfg),
		upstreamHost: cfg.Upstream.Host,
		logger:       log.With().Str("component", "handler").Logger(),
	}
}

// ServeHTTP dispatches on method: every POST is a bridge invocation, fully
// resolved (success or normalized error) before returning.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	event := h.logger.With().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("remote_addr", r.RemoteAddr).
		Logger()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/healthz":
		h.serveHealth(w)
		event.Debug().Msg("health probe")
		return

	case r.Method == http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxInboundBody))
		if err != nil {
			http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
			event.Error().Err(err).Msg("read request body failed")
			return
		}

		resp := h.bridge.Execute(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			event.Error().Err(err).Msg("write response failed")
			return
		}
		event.Info().Dur("duration", time.Since(start)).Msg("invocation resolved")
		return

	default:
		w.Header().Set("Allow", "POST, GET")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		event.Debug().Msg("method not allowed")
	}
}

func (h *Handler) serveHealth(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":   "ok",
		"service":  "mcp-sql-bridge",
		"upstream": h.upstreamHost,
	})
}
