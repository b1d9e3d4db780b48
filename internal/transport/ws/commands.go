package ws

import (
	"encoding/json"
	"errors"

	"impostorparty/internal/game"
	"impostorparty/internal/model"

	"github.com/rs/zerolog/log"
)

// Inbound command types. All gameplay intents arrive over the socket
// as opaque commands forwarded by the rendering layer.
const (
	CmdCreateRoom       = "create-room"
	CmdJoinRoom         = "join-room"
	CmdLeaveRoom        = "leave-room"
	CmdLeaveMatch       = "leave-match"
	CmdUpdateOptions    = "update-options"
	CmdStartMatch       = "start-match"
	CmdCastVote         = "cast-vote"
	CmdSubmitClue       = "submit-clue"
	CmdKickPlayer       = "kick-player"
	CmdNextRound        = "next-round"
	CmdPlayAgain        = "play-again"
	CmdReturnToLobby    = "return-to-lobby"
	CmdConfirmMigration = "confirm-migration"
	CmdHeartbeat        = "heartbeat"
)

type commandPayload struct {
	RoomID   string             `json:"roomId,omitempty"`
	MatchID  string             `json:"matchId,omitempty"`
	TargetID *string            `json:"targetId,omitempty"`
	Clue     string             `json:"clue,omitempty"`
	Options  *model.RoomOptions `json:"options,omitempty"`
}

type errorPayload struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

// Dispatcher routes inbound commands to the game layer. Command
// failures go back to the issuing session only; they never mutate
// room state or trigger a broadcast.
type Dispatcher struct {
	hub      *Hub
	registry *game.Registry
}

func NewDispatcher(hub *Hub, registry *game.Registry) *Dispatcher {
	return &Dispatcher{hub: hub, registry: registry}
}

// Dispatch parses and executes one command envelope.
func (d *Dispatcher) Dispatch(sess *Session, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		d.sendError(sess, errors.New("malformed command"))
		return
	}
	var p commandPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			d.sendError(sess, errors.New("malformed command payload"))
			return
		}
	}

	if err := d.execute(sess, msg.Type, p); err != nil {
		d.sendError(sess, err)
	}
}

func (d *Dispatcher) execute(sess *Session, cmd string, p commandPayload) error {
	playerID := sess.Identity.ID

	switch cmd {
	case CmdHeartbeat:
		sess.Touch()
		return nil

	case CmdCreateRoom:
		opts := model.RoomOptions{}
		if p.Options != nil {
			opts = *p.Options
		}
		room, err := d.registry.CreateRoom(sess.Identity, opts)
		if err != nil {
			return err
		}
		return room.Reattach(playerID)

	case CmdJoinRoom:
		_, err := d.registry.Join(p.RoomID, sess.Identity)
		return err
	}

	// Everything else operates on a room the player can name or is in.
	room, err := d.resolveRoom(playerID, p.RoomID)
	if err != nil {
		return err
	}

	switch cmd {
	case CmdLeaveRoom:
		return room.Leave(playerID)
	case CmdLeaveMatch:
		return room.LeaveMatch(playerID)
	case CmdUpdateOptions:
		if p.Options == nil {
			return errors.New("missing options")
		}
		return room.UpdateOptions(playerID, *p.Options)
	case CmdStartMatch:
		return room.StartMatch(playerID, p.Options)
	case CmdCastVote:
		target := ""
		if p.TargetID != nil {
			target = *p.TargetID
		}
		return room.CastVote(playerID, p.MatchID, target)
	case CmdSubmitClue:
		return room.SubmitClue(playerID, p.Clue)
	case CmdKickPlayer:
		if p.TargetID == nil {
			return errors.New("missing target")
		}
		return room.Kick(playerID, *p.TargetID)
	case CmdNextRound:
		return room.NextRound(playerID)
	case CmdPlayAgain:
		return room.PlayAgain(playerID)
	case CmdReturnToLobby:
		return room.ReturnToLobby(playerID)
	case CmdConfirmMigration:
		return room.ConfirmMigration(playerID)
	default:
		return errors.New("unknown command: " + cmd)
	}
}

func (d *Dispatcher) resolveRoom(playerID, roomID string) (*game.Room, error) {
	if roomID != "" {
		return d.registry.Find(roomID)
	}
	if room, ok := d.registry.ResolveActiveRoomFor(playerID); ok {
		return room, nil
	}
	return nil, game.ErrNotFound
}

func (d *Dispatcher) sendError(sess *Session, err error) {
	log.Debug().Err(err).Str("player", sess.Identity.ID).Msg("command rejected")
	d.hub.deliver(sess, game.EvErrorMessage, errorPayload{
		Code: errorCode(err),
		Text: err.Error(),
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return "not_found"
	case errors.Is(err, game.ErrInvalidVote):
		return "invalid_vote"
	case errors.Is(err, game.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, game.ErrCapacity):
		return "capacity"
	case errors.Is(err, game.ErrSessionConflict):
		return "session_conflict"
	case errors.Is(err, game.ErrKicked):
		return "kicked"
	case errors.Is(err, game.ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}
