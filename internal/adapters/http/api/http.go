// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/harborline/erpmetrics/internal/adapters/erp"
	service "github.com/harborline/erpmetrics/internal/app"
	"github.com/harborline/erpmetrics/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Dashboard reads. refresh bypasses the snapshot cache.
	OrderAging(ctx context.Context, refresh bool) (model.OrderAgingMetrics, error)
	Inventory(ctx context.Context, refresh bool) (model.InventoryMetrics, error)
	WIPCosts(ctx context.Context, refresh bool) (model.WIPCostMetrics, error)
	Distributor(ctx context.Context, name string, refresh bool) (model.DistributorMetrics, error)
}

// Server wires HTTP routes for the dashboard API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	dashboardHandler *DashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		dashboardHandler: NewDashboardHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/dashboard/orders", MetricsMiddleware(s.dashboardHandler.HandleOrders, "dashboard_orders"))
	mux.HandleFunc("/dashboard/inventory", MetricsMiddleware(s.dashboardHandler.HandleInventory, "dashboard_inventory"))
	mux.HandleFunc("/dashboard/wip", MetricsMiddleware(s.dashboardHandler.HandleWIP, "dashboard_wip"))
	mux.HandleFunc("/dashboard/distributors", MetricsMiddleware(s.dashboardHandler.HandleDistributors, "dashboard_distributors"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// NewKind tags a sentinel with the operation that raised it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// Wrap annotates an upstream error with the operation.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// writeDashboardError maps aggregation failures to status codes: bad
// input is the caller's fault, upstream rejections surface as 502, the
// rest is internal.
func writeDashboardError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrMissingDistributor):
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, service.ErrMissingDistributor))
	case erp.IsAPIError(err):
		writeError(w, http.StatusBadGateway, "upstream_error", Wrap(op, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
