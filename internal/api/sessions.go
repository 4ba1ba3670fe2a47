package api

import (
	"net/http"

	"go.uber.org/zap"

	"campus-chat/internal/chat"
	"campus-chat/internal/logging"
	"campus-chat/internal/models"
)

// SessionView is a directory row as the client renders it
type SessionView struct {
	models.Session
	Typing bool `json:"typing"`
}

// SessionHandler handles directory and request-gating endpoints
type SessionHandler struct {
	directory   *chat.Directory
	threads     *chat.ThreadStore
	gate        *chat.RequestGate
	coordinator *chat.Coordinator
	logger      *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(directory *chat.Directory, threads *chat.ThreadStore, gate *chat.RequestGate, coordinator *chat.Coordinator, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		directory:   directory,
		threads:     threads,
		gate:        gate,
		coordinator: coordinator,
		logger:      logging.Named(logger, "sessions"),
	}
}

func (h *SessionHandler) view(r *http.Request, s models.Session) (SessionView, error) {
	preview, err := h.threads.Preview(r.Context(), s)
	if err != nil {
		return SessionView{}, err
	}
	s.LastMessage = preview.Text
	s.LastMessageTime = preview.Time
	v := SessionView{Session: s}
	if h.coordinator != nil {
		v.Typing = h.coordinator.State(s.ID) == chat.TurnAwaitingReply
	}
	return v, nil
}

// List handles GET /api/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	views := []SessionView{}
	for s, err := range h.directory.ListVisible(r.Context()) {
		if err != nil {
			h.logger.Error("Failed to list sessions", zap.Error(err))
			writeError(w, err)
			return
		}
		v, err := h.view(r, s)
		if err != nil {
			h.logger.Error("Failed to derive preview", zap.String("session_id", s.ID), zap.Error(err))
			writeError(w, err)
			return
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

// Get handles GET /api/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.directory.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := h.view(r, s)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Accept handles POST /api/sessions/{id}/accept
func (h *SessionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	s, err := h.gate.Accept(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": s})
}

// Decline handles POST /api/sessions/{id}/decline.
// close_thread tells the client to leave the thread view.
func (h *SessionHandler) Decline(w http.ResponseWriter, r *http.Request) {
	s, err := h.gate.Decline(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": s, "close_thread": true})
}
