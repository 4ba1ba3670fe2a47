package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"campus-chat/internal/logging"
	"campus-chat/internal/profile"
)

// ProfileHandler handles profile endpoints
type ProfileHandler struct {
	profiles *profile.Service
	logger   *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profiles *profile.Service, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logging.Named(logger, "profiles"),
	}
}

// Get handles GET /api/profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Update handles PUT /api/profiles/{id}
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var u profile.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	p, err := h.profiles.Update(r.Context(), r.PathValue("id"), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Avatar handles POST /api/profiles/{id}/avatar
func (h *ProfileHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	res, err := h.profiles.RegenerateAvatar(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !res.Generated {
		h.logger.Info("Avatar kept", zap.String("user_id", res.Profile.UserID))
	}
	writeJSON(w, http.StatusOK, res)
}
