package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cosmicwatch/cosmic-watch/internal/api/respond"
	"github.com/cosmicwatch/cosmic-watch/internal/cache"
	"github.com/cosmicwatch/cosmic-watch/internal/feed"
	"github.com/cosmicwatch/cosmic-watch/internal/risk"
)

// FeedResponse is the body of the feed and risk endpoints.
type FeedResponse struct {
	Success   bool          `json:"success"`
	Count     int           `json:"count"`
	StartDate string        `json:"start_date"`
	EndDate   string        `json:"end_date"`
	FetchedAt time.Time     `json:"fetched_at"`
	Asteroids []risk.Scored `json:"asteroids"`
}

// CategoriesResponse groups the feed by risk tier.
type CategoriesResponse struct {
	Success    bool                         `json:"success"`
	EndDate    string                       `json:"end_date"`
	FetchedAt  time.Time                    `json:"fetched_at"`
	Counts     map[risk.Level]int           `json:"counts"`
	Categories map[risk.Level][]risk.Scored `json:"categories"`
}

// AsteroidResponse wraps a single scored object.
type AsteroidResponse struct {
	Success  bool        `json:"success"`
	Asteroid risk.Scored `json:"asteroid"`
}

// GetFeed returns the 7-day feed with a risk assessment on each object.
// @Summary Asteroid feed
// @Description Normalized NEOs for the 7 days ending at date (default: yesterday UTC), each with risk_score, risk_level and rationale.
// @Tags asteroids
// @Produce json
// @Param date query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} FeedResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /asteroids/feed [get]
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	scored := h.Engine.ScoreAll(snap.Objects)
	h.writeCached(w, r, snap, FeedResponse{
		Success:   true,
		Count:     len(scored),
		StartDate: snap.StartDate,
		EndDate:   snap.EndDate,
		FetchedAt: snap.FetchedAt,
		Asteroids: scored,
	})
}

// GetRisk returns the feed sorted by risk score, highest first.
// @Summary Risk-ranked feed
// @Description Same objects as the feed, sorted by risk_score descending. Ties keep feed order.
// @Tags asteroids
// @Produce json
// @Param date query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} FeedResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /asteroids/risk [get]
func (h *Handler) GetRisk(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	ranked := h.Engine.Rank(snap.Objects)
	h.writeCached(w, r, snap, FeedResponse{
		Success:   true,
		Count:     len(ranked),
		StartDate: snap.StartDate,
		EndDate:   snap.EndDate,
		FetchedAt: snap.FetchedAt,
		Asteroids: ranked,
	})
}

// GetCategories returns the feed grouped by risk tier.
// @Summary Feed grouped by risk tier
// @Description Every tier key (LOW, MODERATE, HIGH, CRITICAL) is present; order within a tier follows the feed.
// @Tags asteroids
// @Produce json
// @Param date query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} CategoriesResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /asteroids/categories [get]
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	groups := h.Engine.Categorize(snap.Objects)
	counts := make(map[risk.Level]int, len(groups))
	for level, items := range groups {
		counts[level] = len(items)
	}
	h.writeCached(w, r, snap, CategoriesResponse{
		Success:    true,
		EndDate:    snap.EndDate,
		FetchedAt:  snap.FetchedAt,
		Counts:     counts,
		Categories: groups,
	})
}

// GetAsteroid returns one object by NeoWs id. Lookups bypass the feed cache.
// @Summary Asteroid details
// @Description Fetches one object from NeoWs, normalizes it and attaches a risk assessment.
// @Tags asteroids
// @Produce json
// @Param id path string true "NeoWs object id"
// @Success 200 {object} AsteroidResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /asteroids/{id} [get]
func (h *Handler) GetAsteroid(w http.ResponseWriter, r *http.Request) {
	obj, err := h.Feed.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFeedError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, AsteroidResponse{
		Success:  true,
		Asteroid: risk.Scored{Object: obj, Assessment: h.Engine.Analyze(obj)},
	})
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (feed.Snapshot, bool) {
	snap, err := h.Feed.GetSnapshot(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.writeFeedError(w, err)
		return feed.Snapshot{}, false
	}
	return snap, true
}

// writeCached serializes v once, answers conditional requests with 304 and
// sets Cache-Control from the remaining snapshot lifetime.
func (h *Handler) writeCached(w http.ResponseWriter, r *http.Request, snap feed.Snapshot, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to encode response")
		return
	}
	etag := cache.ComputeETag(data)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}

	ttl := cache.TTLFeed
	if h.Config != nil {
		ttl = h.Config.FeedCacheTTL
	}
	age := time.Since(snap.FetchedAt)
	respond.WriteJSON(w, data, etag, ttl-age, age > time.Second)
}

// writeFeedError maps feed errors to status codes. Upstream and empty-feed
// failures surface their real message.
func (h *Handler) writeFeedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, feed.ErrInvalidDate):
		respond.WriteError(w, http.StatusBadRequest, "INVALID_DATE", err.Error())
	case errors.Is(err, feed.ErrMissingCredential):
		respond.WriteError(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", err.Error())
	case errors.Is(err, feed.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, feed.ErrEmptyFeed):
		respond.WriteError(w, http.StatusInternalServerError, "EMPTY_FEED", err.Error())
	case errors.Is(err, feed.ErrLookupFailed):
		respond.WriteError(w, http.StatusInternalServerError, "LOOKUP_FAILED", err.Error())
	default:
		h.Logger.Error("Feed request failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "UPSTREAM_ERROR", err.Error())
	}
}
