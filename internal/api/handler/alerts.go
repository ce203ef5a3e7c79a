package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cosmicwatch/cosmic-watch/internal/alerts"
	"github.com/cosmicwatch/cosmic-watch/internal/api/respond"
	"github.com/cosmicwatch/cosmic-watch/internal/risk"
)

// AlertsResponse lists a user's alerts, most recent first.
type AlertsResponse struct {
	Success bool            `json:"success"`
	Alerts  []alerts.Record `json:"alerts"`
}

// ListAlerts returns the caller's alerts.
// @Summary List alerts
// @Description Alerts for the calling user, most recent first. Default limit comes from ALERT_LIST_LIMIT (50), max 200.
// @Tags alerts
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param limit query int false "Page size"
// @Param unread query bool false "Only unread alerts"
// @Param min_level query string false "Minimum risk level" Enums(LOW, MODERATE, HIGH, CRITICAL)
// @Success 200 {object} AlertsResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Router /alerts [get]
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	q := alerts.ListQuery{UserID: UserID(r.Context())}
	params := r.URL.Query()

	fallback := alerts.DefaultListLimit
	if h.Config != nil {
		fallback = h.Config.AlertListLimit
	}
	q.Limit = fallback
	if s := params.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		q.Limit = n
	}
	q.Limit = alerts.ClampLimit(q.Limit, fallback)

	if s := params.Get("unread"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_UNREAD", "unread must be true or false")
			return
		}
		q.UnreadOnly = b
	}
	if s := params.Get("min_level"); s != "" {
		l, err := risk.ParseLevel(s)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_LEVEL", err.Error())
			return
		}
		q.MinLevel = l
	}

	list, err := h.Alerts.ListByUser(r.Context(), q)
	if err != nil {
		h.Logger.Error("List alerts failed", "user_id", q.UserID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to load alerts")
		return
	}
	if list == nil {
		list = []alerts.Record{}
	}
	respond.WriteJSONObject(w, http.StatusOK, AlertsResponse{Success: true, Alerts: list})
}

// MarkAlertRead flags one of the caller's alerts as read.
// @Summary Mark alert read
// @Tags alerts
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param id path int true "Alert id"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /alerts/{id}/read [patch]
func (h *Handler) MarkAlertRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "ID must be a positive integer")
		return
	}

	err = h.Alerts.MarkRead(r.Context(), UserID(r.Context()), id)
	switch {
	case errors.Is(err, alerts.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	case err != nil:
		h.Logger.Error("Mark alert read failed", "alert_id", id, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to update alert")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"success": true, "id": id})
}
