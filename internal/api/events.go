package api

import (
	"net/http"

	"go.uber.org/zap"

	"campus-chat/internal/chat"
	"campus-chat/internal/logging"
)

// SessionEventsHandler serves the SSE stream of a session
type SessionEventsHandler struct {
	broadcaster *EventBroadcaster
	directory   *chat.Directory
	logger      *zap.Logger
}

// NewSessionEventsHandler creates a new handler
func NewSessionEventsHandler(broadcaster *EventBroadcaster, directory *chat.Directory, logger *zap.Logger) *SessionEventsHandler {
	return &SessionEventsHandler{
		broadcaster: broadcaster,
		directory:   directory,
		logger:      logging.Named(logger, "sse"),
	}
}

// HandleEvents handles GET /api/sessions/{id}/events
func (h *SessionEventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if _, err := h.directory.Get(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("Streaming not supported")
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	eventCh := h.broadcaster.Subscribe(sessionID)
	defer h.broadcaster.Unsubscribe(sessionID, eventCh)

	if _, err := w.Write([]byte("event: connected\ndata: {}\n\n")); err != nil {
		h.logger.Warn("Failed to send connected event", zap.Error(err))
		return
	}
	flusher.Flush()

	h.logger.Info("Client connected", zap.String("session_id", sessionID))

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Client disconnected", zap.String("session_id", sessionID))
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			data, err := FormatSSE(event)
			if err != nil {
				h.logger.Warn("Failed to format event", zap.Error(err))
				continue
			}
			if _, err := w.Write(data); err != nil {
				h.logger.Warn("Failed to write event", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}
