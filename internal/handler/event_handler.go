package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"folder-explorer/internal/service"
	"folder-explorer/pkg/apierror"
)

// EventHandler exposes the status tracker's query API. Completion of an
// asynchronous mutation is only observable here or on the websocket channel,
// never through the original request.
type EventHandler struct {
	tracker *service.StatusTracker
}

func NewEventHandler(tracker *service.StatusTracker) *EventHandler {
	return &EventHandler{tracker: tracker}
}

func (h *EventHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "event_id")
	record, err := h.tracker.GetStatus(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, record, nil)
}

func (h *EventHandler) ListByEntity(w http.ResponseWriter, r *http.Request) {
	entityID := r.URL.Query().Get("entityId")
	if entityID == "" {
		writeError(w, apierror.BadRequest("entityId is required", "entityId"))
		return
	}

	records, err := h.tracker.GetByEntityID(r.Context(), entityID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, records, countMeta(len(records)))
}

func (h *EventHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	records, err := h.tracker.GetPendingEvents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, records, countMeta(len(records)))
}

func (h *EventHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tracker.GetStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, stats, nil)
}

func (h *EventHandler) DeleteOld(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, apierror.BadRequest("days must be a positive integer", "days"))
			return
		}
		days = parsed
	}

	deleted, err := h.tracker.DeleteOldEvents(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]int64{"deleted": deleted}, nil)
}
