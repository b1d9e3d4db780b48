package ws

import (
	"encoding/json"
	"sync"
	"time"

	"impostorparty/internal/game"
	"impostorparty/internal/model"

	"github.com/rs/zerolog/log"
)

// Message is the WebSocket envelope format, both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Session is one live connection bound to a player identity. Exactly
// one session per identity is active; a newer connection for the same
// identity replaces the older one.
type Session struct {
	SessionID string
	Identity  model.PlayerIdentity
	Send      chan []byte

	mu       sync.Mutex
	closed   bool
	lastSeen time.Time
}

// closeSend closes the send channel exactly once. Delivery holds the
// same lock, so a broadcast can never race the close.
func (s *Session) closeSend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.Send)
}

// Touch records heartbeat activity.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns the time of the last heartbeat or message.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Hub tracks sessions by identity and by room, and fans events out to
// them. It implements game.Broadcaster.
type Hub struct {
	mu       sync.RWMutex
	byPlayer map[string]*Session
	byRoom   map[string]map[string]*Session

	// onDisconnect hands a dropped identity to session-resumption
	// bookkeeping; set once during wiring.
	onDisconnect func(playerID string)
}

// NewHub creates a new session hub.
func NewHub() *Hub {
	return &Hub{
		byPlayer: make(map[string]*Session),
		byRoom:   make(map[string]map[string]*Session),
	}
}

// SetDisconnectHandler wires the disconnect callback in after
// construction.
func (h *Hub) SetDisconnectHandler(fn func(playerID string)) {
	h.onDisconnect = fn
}

// Register adds a session, revoking any previous session for the same
// identity with a session-replaced notice.
func (h *Hub) Register(sess *Session) {
	h.mu.Lock()
	old := h.byPlayer[sess.Identity.ID]
	h.byPlayer[sess.Identity.ID] = sess
	// Room broadcasts must stop reaching the replaced session now, not
	// when the resume path rebinds.
	for _, members := range h.byRoom {
		if _, ok := members[sess.Identity.ID]; ok {
			members[sess.Identity.ID] = sess
		}
	}
	h.mu.Unlock()

	if old != nil {
		h.deliver(old, game.EvSessionReplaced, model.SessionReplacedNotice{
			Reason: "your identity connected from another device",
		})
		old.closeSend()
		log.Info().Str("player", sess.Identity.ID).Msg("session replaced")
	}
	sess.Touch()
}

// Unregister drops a session on disconnect. A session that was already
// replaced is ignored; only the current session's exit marks the
// player unreachable.
func (h *Hub) Unregister(sess *Session) {
	h.mu.Lock()
	current, ok := h.byPlayer[sess.Identity.ID]
	isCurrent := ok && current == sess
	if isCurrent {
		delete(h.byPlayer, sess.Identity.ID)
	}
	h.mu.Unlock()

	if !isCurrent {
		return
	}
	sess.closeSend()
	log.Info().Str("player", sess.Identity.ID).Msg("session closed")
	if h.onDisconnect != nil {
		h.onDisconnect(sess.Identity.ID)
	}
}

// BindMembership keeps the room index in step with game membership;
// registered as a registry membership listener.
func (h *Hub) BindMembership(playerID, roomCode string, joined bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if joined {
		if h.byRoom[roomCode] == nil {
			h.byRoom[roomCode] = make(map[string]*Session)
		}
		if sess, ok := h.byPlayer[playerID]; ok {
			h.byRoom[roomCode][playerID] = sess
		}
		return
	}
	if members, ok := h.byRoom[roomCode]; ok {
		delete(members, playerID)
		if len(members) == 0 {
			delete(h.byRoom, roomCode)
		}
	}
}

// ToPlayer sends an event to one identity's live session, if any.
func (h *Hub) ToPlayer(roomCode, playerID, msgType string, payload any) {
	h.mu.RLock()
	sess := h.byPlayer[playerID]
	h.mu.RUnlock()
	if sess != nil {
		h.deliver(sess, msgType, payload)
	}
}

// ToRoom sends an event to every session bound to a room.
func (h *Hub) ToRoom(roomCode, msgType string, payload any) {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.byRoom[roomCode]))
	for _, sess := range h.byRoom[roomCode] {
		sessions = append(sessions, sess)
	}
	h.mu.RUnlock()
	for _, sess := range sessions {
		h.deliver(sess, msgType, payload)
	}
}

func (h *Hub) deliver(sess *Session, msgType string, payload any) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("type", msgType).Msg("payload marshal failed")
			return
		}
		raw = data
	}
	data, _ := json.Marshal(&Message{Type: msgType, Payload: raw})
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	select {
	case sess.Send <- data:
	default:
		// Slow consumer: drop rather than block a room's transition.
	}
}
