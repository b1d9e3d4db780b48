package handler

import (
	"encoding/json"
	"net/http"

	"impostorparty/internal/game"
	"impostorparty/internal/model"
	"impostorparty/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"
)

// RoomHandler covers the REST side of room management: creation and
// lookup for join screens. Gameplay itself runs over the socket.
type RoomHandler struct {
	registry *game.Registry
	joinBase string // public URL prefix encoded into join QR codes
}

func NewRoomHandler(registry *game.Registry, joinBase string) *RoomHandler {
	return &RoomHandler{registry: registry, joinBase: joinBase}
}

type createRoomRequest struct {
	Options *model.RoomOptions `json:"options,omitempty"`
}

// Create handles POST /v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	opts := model.RoomOptions{}
	if req.Options != nil {
		opts = *req.Options
	}

	room, err := h.registry.CreateRoom(identity, opts)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"roomCode": room.Code()})
}

// Get handles GET /v1/rooms/{code}, the public join-screen view.
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	room, err := h.registry.Find(code)
	if err != nil {
		writeGameError(w, err)
		return
	}

	snap := room.Snapshot("")
	writeJSON(w, http.StatusOK, map[string]any{
		"roomCode": code,
		"phase":    snap.Phase,
		"players":  len(snap.Roster),
		"options":  snap.Options,
	})
}

// QR handles GET /v1/rooms/{code}/qr, a PNG encoding the join link.
func (h *RoomHandler) QR(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if _, err := h.registry.Find(code); err != nil {
		writeGameError(w, err)
		return
	}

	png, err := qrcode.Encode(h.joinBase+"/join/"+code, qrcode.Medium, 256)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
