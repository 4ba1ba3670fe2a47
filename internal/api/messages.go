package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"campus-chat/internal/chat"
	"campus-chat/internal/logging"
	"campus-chat/internal/models"
)

// SendMessageRequest is the body of POST /api/sessions/{id}/messages
type SendMessageRequest struct {
	SenderID string `json:"sender_id"`
	Text     string `json:"text"`
}

// SendMessageResponse carries the appended message and, when an AI turn
// settled within the request, its reply
type SendMessageResponse struct {
	Message *models.Message `json:"message"`
	TurnID  string          `json:"turn_id,omitempty"`
	Reply   *models.Message `json:"reply,omitempty"`
}

// MessageHandler handles thread endpoints
type MessageHandler struct {
	directory   *chat.Directory
	threads     *chat.ThreadStore
	coordinator *chat.Coordinator
	logger      *zap.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(directory *chat.Directory, threads *chat.ThreadStore, coordinator *chat.Coordinator, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		directory:   directory,
		threads:     threads,
		coordinator: coordinator,
		logger:      logging.Named(logger, "messages"),
	}
}

// GetMessages handles GET /api/sessions/{id}/messages
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if _, err := h.directory.Get(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}
	messages, err := h.threads.GetThread(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to read thread", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// SendMessage handles POST /api/sessions/{id}/messages.
// With ?wait=true the response is held until the AI turn settles.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.coordinator.Send(r.Context(), sessionID, req.SenderID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := SendMessageResponse{Message: result.Message}
	if result.Turn != nil {
		resp.TurnID = result.Turn.ID
		if r.URL.Query().Get("wait") == "true" {
			select {
			case <-result.Turn.Done():
				resp.Reply = result.Turn.Reply()
			case <-r.Context().Done():
				return
			}
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Interrupt handles POST /api/sessions/{id}/interrupt
func (h *MessageHandler) Interrupt(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if _, err := h.directory.Get(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}
	interrupted := h.coordinator.Cancel(sessionID)
	writeJSON(w, http.StatusOK, map[string]bool{"interrupted": interrupted})
}
