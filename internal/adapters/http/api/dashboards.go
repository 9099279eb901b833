// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// DashboardHandler serves the aggregated dashboard payloads.
type DashboardHandler struct {
	deps Dependencies
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps Dependencies) *DashboardHandler {
	return &DashboardHandler{deps: deps}
}

// refreshRequested reports whether the caller asked to bypass the
// snapshot cache via ?refresh=1 or ?refresh=true.
func refreshRequested(r *http.Request) bool {
	switch r.URL.Query().Get("refresh") {
	case "1", "true":
		return true
	default:
		return false
	}
}

// HandleOrders handles GET /dashboard/orders requests.
func (h *DashboardHandler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard_orders"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	out, err := h.deps.OrderAging(r.Context(), refreshRequested(r))
	if err != nil {
		writeDashboardError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleInventory handles GET /dashboard/inventory requests.
func (h *DashboardHandler) HandleInventory(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard_inventory"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	out, err := h.deps.Inventory(r.Context(), refreshRequested(r))
	if err != nil {
		writeDashboardError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleWIP handles GET /dashboard/wip requests.
func (h *DashboardHandler) HandleWIP(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard_wip"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	out, err := h.deps.WIPCosts(r.Context(), refreshRequested(r))
	if err != nil {
		writeDashboardError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleDistributors handles GET /dashboard/distributors?name=X requests.
func (h *DashboardHandler) HandleDistributors(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard_distributors"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	out, err := h.deps.Distributor(r.Context(), name, refreshRequested(r))
	if err != nil {
		writeDashboardError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
