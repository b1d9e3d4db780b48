package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"impostorparty/internal/shutdown"
)

// AdminHandler exposes the maintenance controls.
type AdminHandler struct {
	coordinator *shutdown.Coordinator
	adminKey    string
}

func NewAdminHandler(coordinator *shutdown.Coordinator, adminKey string) *AdminHandler {
	return &AdminHandler{coordinator: coordinator, adminKey: adminKey}
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	return h.adminKey != "" && r.Header.Get("X-Admin-Key") == h.adminKey
}

type shutdownRequest struct {
	Seconds int    `json:"seconds"`
	Message string `json:"message,omitempty"`
}

// BeginShutdown handles POST /v1/admin/shutdown
func (h *AdminHandler) BeginShutdown(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req shutdownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Seconds <= 0 {
		writeError(w, http.StatusBadRequest, "seconds must be positive")
		return
	}

	if err := h.coordinator.Begin(time.Duration(req.Seconds)*time.Second, req.Message); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "counting down"})
}

// CancelShutdown handles DELETE /v1/admin/shutdown
func (h *AdminHandler) CancelShutdown(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.coordinator.Cancel(); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
