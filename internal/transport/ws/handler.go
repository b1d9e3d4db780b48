package ws

import (
	"net/http"
	"time"

	"impostorparty/internal/game"
	"impostorparty/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the identity token is the gate, not the origin
	},
}

// Handler upgrades authenticated connections into player sessions.
type Handler struct {
	hub        *Hub
	authSvc    *service.AuthService
	dispatcher *Dispatcher
	registry   *game.Registry
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *Hub, authSvc *service.AuthService, dispatcher *Dispatcher, registry *game.Registry) *Handler {
	return &Handler{
		hub:        hub,
		authSvc:    authSvc,
		dispatcher: dispatcher,
		registry:   registry,
	}
}

// Connect handles GET /v1/ws?token=...
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateIdentityToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sess := &Session{
		SessionID: uuid.NewString(),
		Identity:  h.authSvc.Identity(claims),
		Send:      make(chan []byte, 256),
	}

	h.hub.Register(sess)
	log.Info().Str("player", sess.Identity.ID).Str("session", sess.SessionID).Msg("player connected")

	go h.writePump(wsConn, sess)
	go h.readPump(wsConn, sess)

	// Session resumption: an identity with live room membership is
	// re-attached, not re-joined, and gets the snapshot replayed.
	if room, ok := h.registry.ResolveActiveRoomFor(sess.Identity.ID); ok {
		h.hub.BindMembership(sess.Identity.ID, room.Code(), true)
		if err := room.Reattach(sess.Identity.ID); err == nil {
			log.Info().Str("player", sess.Identity.ID).Str("room", room.Code()).Msg("session resumed")
		}
	}
}

func (h *Handler) readPump(wsConn *websocket.Conn, sess *Session) {
	defer func() {
		h.hub.Unregister(sess)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		sess.Touch()
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("player", sess.Identity.ID).Msg("websocket read error")
			}
			break
		}
		sess.Touch()
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		h.dispatcher.Dispatch(sess, data)
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, sess *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-sess.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			// A reader that stopped answering pings is dead even while
			// writes still succeed.
			if time.Since(sess.LastSeen()) > 2*pongWait {
				return
			}
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
