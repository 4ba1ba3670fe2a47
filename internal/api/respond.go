package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"campus-chat/internal/chat"
	"campus-chat/internal/profile"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrInvalidInput), errors.Is(err, profile.ErrInvalidProfile):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrSessionNotFound), errors.Is(err, profile.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrSessionNotAccepted),
		errors.Is(err, chat.ErrSessionNotPending),
		errors.Is(err, chat.ErrInvalidTransition),
		errors.Is(err, chat.ErrTurnInProgress):
		return http.StatusConflict
	case errors.Is(err, chat.ErrSessionBlocked):
		return http.StatusGone
	case errors.Is(err, chat.ErrShuttingDown):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	http.Error(w, msg, status)
}
