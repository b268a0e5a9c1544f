// Package api exposes the pool's observability surface over HTTP for
// diagnostics and admin tooling.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guileen/respool/pool"
)

type PoolHandler struct {
	pool *pool.Pool
}

func NewPoolHandler(p *pool.Pool) *PoolHandler {
	return &PoolHandler{pool: p}
}

func (h *PoolHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/pool", func(r chi.Router) {
		r.Get("/stats", h.GetStats)
		r.Get("/connections", h.GetConnections)
		r.Get("/report", h.GetReport)
	})
}

type ConnectionsResponse struct {
	Data  []pool.ResourceDetail `json:"data"`
	Count int                   `json:"count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// GetStats returns the pool's point-in-time metrics snapshot
func (h *PoolHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pool.Stats())
}

// GetConnections returns per-resource diagnostics, oldest first
func (h *PoolHandler) GetConnections(w http.ResponseWriter, r *http.Request) {
	details := h.pool.ConnectionDetails()
	writeJSON(w, http.StatusOK, ConnectionsResponse{
		Data:  details,
		Count: len(details),
	})
}

// GetReport returns the monitor's rolling-window report. Responds 404 when
// the pool was built with metrics disabled.
func (h *PoolHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	monitor := h.pool.Monitor()
	if monitor == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("metrics are disabled for pool %q", h.pool.Name()))
		return
	}
	writeJSON(w, http.StatusOK, monitor.Report())
}

// Helper functions
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
}
