package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cosmicwatch/cosmic-watch/internal/api/respond"
	"github.com/cosmicwatch/cosmic-watch/internal/chat"
)

// ChatRequest is the body of a new chat message.
type ChatRequest struct {
	Text string `json:"text"`
}

// RecentChat returns the newest chat messages, oldest first.
// @Summary Recent chat messages
// @Tags chat
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /chat/recent [get]
func (h *Handler) RecentChat(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Chat.Recent(r.Context(), chat.MessageLimit)
	if err != nil {
		h.Logger.Error("Load chat failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to load messages")
		return
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

// PostChat appends a message as the caller. Text beyond 500 characters is
// truncated.
// @Summary Post chat message
// @Tags chat
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param body body ChatRequest true "Message"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Router /chat/messages [post]
func (h *Handler) PostChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body: "+err.Error())
		return
	}

	author := userName(r.Context())
	if author == "" {
		author = UserID(r.Context())
	}

	msg, err := h.Chat.Save(r.Context(), author, req.Text)
	switch {
	case errors.Is(err, chat.ErrInvalidMessage):
		respond.WriteError(w, http.StatusBadRequest, "INVALID_MESSAGE", err.Error())
		return
	case err != nil:
		h.Logger.Error("Save chat failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to save message")
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, map[string]interface{}{"success": true, "message": msg})
}
