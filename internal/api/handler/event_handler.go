package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/remindhub/reminder-pipeline/internal/api/middleware"
	"github.com/remindhub/reminder-pipeline/internal/domain"
	"github.com/remindhub/reminder-pipeline/internal/service"
)

// EventHandler handles event CRUD endpoints. The acting user is identified
// by the userId query parameter; authentication is out of scope here and
// expected from an upstream gateway.
type EventHandler struct {
	svc    *service.EventService
	logger *zap.Logger
}

func NewEventHandler(svc *service.EventService, logger *zap.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/events?userId=...
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), r.URL.Query().Get("userId"), req)
	if err != nil {
		h.logger.Warn("create event failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, event)
}

// GetByID handles GET /api/v1/events/{id}
func (h *EventHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	event, err := h.svc.GetEvent(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// List handles GET /api/v1/events?userId=...&page=&limit=
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := parseListFilter(r)
	events, total, err := h.svc.ListEvents(r.Context(), filter)
	if err != nil {
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  events,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

// Update handles PUT /api/v1/events/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id := chi.URLParam(r, "id")
	event, err := h.svc.UpdateEvent(r.Context(), id, req)
	if err != nil {
		h.logger.Warn("update event failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.String("event_id", id),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// Delete handles DELETE /api/v1/events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteEvent(r.Context(), id); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseListFilter(r *http.Request) domain.ListFilter {
	q := r.URL.Query()
	filter := domain.ListFilter{UserID: q.Get("userId"), Page: 1, Limit: 10}

	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 100 {
		filter.Limit = l
	}
	return filter
}
