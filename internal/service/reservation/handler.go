package reservation

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seu-repo/ocpp-csms/internal/ports"
	"github.com/seu-repo/ocpp-csms/internal/service/auth"
)

// Handler serves the reservation HTTP surface.
type Handler struct {
	service ports.ReservationService
}

func NewHandler(service ports.ReservationService) *Handler {
	return &Handler{service: service}
}

// Mount attaches reservation routes under r, which the caller wraps with
// auth.Middleware.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api/v1/reservations", func(r chi.Router) {
		r.Post("/", h.createReservation)
		r.Get("/", h.getUserReservations)
		r.Get("/{id}", h.getReservation)
		r.Delete("/{id}", h.cancelReservation)
		r.Post("/{id}/confirm", h.confirmReservation)
	})
	r.Get("/api/v1/stations/{id}/reservations", h.getStationReservations)
}

type createReservationRequest struct {
	ChargePointID string    `json:"charge_point_id"`
	ConnectorID   int       `json:"connector_id"`
	StartTime     time.Time `json:"start_time"`
	Duration      int       `json:"duration"`
	Notes         string    `json:"notes"`
}

func (h *Handler) createReservation(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	reservation, err := h.service.CreateReservation(r.Context(), &ports.ReservationRequest{
		UserID:        userID,
		ChargePointID: req.ChargePointID,
		ConnectorID:   req.ConnectorID,
		StartTime:     req.StartTime,
		Duration:      req.Duration,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

func (h *Handler) getReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := auth.UserIDFromContext(r.Context())

	res, err := h.service.GetReservation(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, errNotFound("reservation not found"))
		return
	}
	if res.UserID != userID && auth.RoleFromContext(r.Context()) != "admin" {
		writeError(w, http.StatusForbidden, errNotFound("access denied"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) getUserReservations(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	status := r.URL.Query().Get("status")
	limit, offset := pageParams(r)

	reservations, err := h.service.GetUserReservations(r.Context(), userID, status, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reservations": reservations,
		"limit":        limit,
		"offset":       offset,
	})
}

func (h *Handler) cancelReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := auth.UserIDFromContext(r.Context())

	var body struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	if err := h.service.CancelReservation(r.Context(), id, userID, body.Reason); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "reservation cancelled"})
}

func (h *Handler) confirmReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.ConfirmReservation(r.Context(), id); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "reservation confirmed"})
}

func (h *Handler) getStationReservations(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "id")
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = time.Now().Format("2006-01-02")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, errNotFound("invalid date format (use YYYY-MM-DD)"))
		return
	}

	reservations, err := h.service.GetStationReservations(r.Context(), stationID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"station_id":   stationID,
		"date":         dateStr,
		"reservations": reservations,
	})
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

type errNotFound string

func (e errNotFound) Error() string { return string(e) }

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
