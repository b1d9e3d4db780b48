package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"impostorparty/internal/service"
)

// AuthHandler issues guest identity tokens.
type AuthHandler struct {
	authSvc *service.AuthService
}

func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type guestRequest struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Guest handles POST /v1/auth/guest
func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	var req guestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 32 {
		writeError(w, http.StatusBadRequest, "name must be 1-32 characters")
		return
	}

	resp, err := h.authSvc.IssueGuestIdentity(req.Name, req.AvatarURL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}
