package handlers

import (
	"net/http"

	"helicone-chat/internal/models"
	"helicone-chat/internal/services"
)

type HealthHandler struct {
	mode services.Mode
}

func NewHealthHandler(mode services.Mode) *HealthHandler {
	return &HealthHandler{mode: mode}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok", Mode: string(h.mode)})
}
