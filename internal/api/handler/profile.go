package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cosmicwatch/cosmic-watch/internal/api/respond"
	"github.com/cosmicwatch/cosmic-watch/internal/risk"
	"github.com/cosmicwatch/cosmic-watch/internal/users"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// ProfileResponse wraps the caller's profile.
type ProfileResponse struct {
	Success bool               `json:"success"`
	User    users.AlertProfile `json:"user"`
}

// GetProfile returns the caller's watch-list and alert settings, creating a
// default profile on first use.
// @Summary Get profile
// @Tags profile
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} respond.ErrorResponse
// @Router /profile [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.loadProfile(r)
	if err != nil {
		h.Logger.Error("Load profile failed", "user_id", UserID(r.Context()), "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to load profile")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, ProfileResponse{Success: true, User: p})
}

// UpdateProfile replaces the watch-list and/or merges alert settings.
// Existing alerts are not regenerated.
// @Summary Update profile
// @Tags profile
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param body body users.ProfileUpdate true "Fields to change"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Router /profile [patch]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var u users.ProfileUpdate
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body: "+err.Error())
		return
	}
	u, err := u.Normalize()
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_PROFILE", err.Error())
		return
	}

	if _, err := h.loadProfile(r); err != nil {
		h.Logger.Error("Load profile failed", "user_id", UserID(r.Context()), "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to load profile")
		return
	}
	if u.Empty() {
		h.GetProfile(w, r)
		return
	}

	p, err := h.Users.UpdateProfile(r.Context(), UserID(r.Context()), u)
	if err != nil {
		h.Logger.Error("Update profile failed", "user_id", UserID(r.Context()), "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to update profile")
		return
	}
	h.Logger.Info("Profile updated", "user_id", p.ID, "watched", len(p.WatchedAsteroidIDs),
		"alerts_enabled", p.AlertsEnabled, "min_risk_level", p.MinRiskLevel)
	respond.WriteJSONObject(w, http.StatusOK, ProfileResponse{Success: true, User: p})
}

func (h *Handler) loadProfile(r *http.Request) (users.AlertProfile, error) {
	id := UserID(r.Context())
	p, err := h.Users.Get(r.Context(), id)
	if !errors.Is(err, users.ErrNotFound) {
		return p, err
	}
	defaultMin := risk.Moderate
	if h.Config != nil {
		defaultMin = h.Config.DefaultMinRisk
	}
	return h.Users.Ensure(r.Context(), id, userName(r.Context()), defaultMin)
}
