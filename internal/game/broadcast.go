package game

// Outbound event names. game-state is the full snapshot; vote-update
// is the narrow voting delta; the rest are out-of-band notices.
const (
	EvGameState         = "game-state"
	EvVoteUpdate        = "vote-update"
	EvErrorMessage      = "error-message"
	EvToast             = "toast"
	EvKicked            = "kicked"
	EvSessionReplaced   = "session-replaced"
	EvShutdownCountdown = "shutdown-countdown"
	EvShutdownComplete  = "shutdown-complete"
	EvShutdownCancelled = "shutdown-cancelled"
)

// Broadcaster fans events out to connected sessions. The WebSocket hub
// implements it; the interface lives here to avoid an import cycle.
type Broadcaster interface {
	ToPlayer(roomCode, playerID, msgType string, payload any)
	ToRoom(roomCode, msgType string, payload any)
}

// NopBroadcaster discards everything; used in tests and before the
// transport layer is wired.
type NopBroadcaster struct{}

func (NopBroadcaster) ToPlayer(roomCode, playerID, msgType string, payload any) {}
func (NopBroadcaster) ToRoom(roomCode, msgType string, payload any)             {}
