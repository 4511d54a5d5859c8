package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seu-repo/ocpp-csms/internal/ports"
)

// Handler serves the operator-facing admin HTTP surface.
type Handler struct {
	service ports.AdminService
}

func NewHandler(service ports.AdminService) *Handler {
	return &Handler{service: service}
}

// Mount attaches admin routes under r, wrapped by the caller's auth
// middleware (RequireAdmin from internal/service/auth).
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Get("/dashboard", h.getDashboard)
		r.Get("/stations", h.getStations)
		r.Get("/stations/{id}", h.getStationDetails)
		r.Get("/transactions", h.getTransactions)
		r.Get("/alerts", h.getAlerts)
		r.Post("/alerts/{id}/acknowledge", h.acknowledgeAlert)
	})
}

func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetDashboardStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) getStations(w http.ResponseWriter, r *http.Request) {
	filter := ports.StationFilter{
		Status: r.URL.Query().Get("status"),
		Vendor: r.URL.Query().Get("vendor"),
		Search: r.URL.Query().Get("search"),
	}
	limit, offset := pageParams(r)

	stations, total, err := h.service.GetStations(r.Context(), filter, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stations": stations,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) getStationDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	details, err := h.service.GetStationDetails(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *Handler) getTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ports.TransactionFilter{
		Status:    q.Get("status"),
		UserID:    q.Get("user_id"),
		ChargerID: q.Get("station_id"),
	}
	if s := q.Get("start_date"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			filter.StartDate = t
		}
	}
	if s := q.Get("end_date"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			filter.EndDate = t
		}
	}
	limit, offset := pageParams(r)

	txs, total, err := h.service.GetTransactions(r.Context(), filter, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

func (h *Handler) getAlerts(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	alerts, err := h.service.GetAlerts(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) acknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.AcknowledgeAlert(r.Context(), id); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "alert acknowledged"})
}

func pageParams(r *http.Request) (limit, offset int) {
	limit, offset = 20, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	return limit, offset
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
