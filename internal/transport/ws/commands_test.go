package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"impostorparty/internal/game"
	"impostorparty/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *Hub, *game.Registry) {
	t.Helper()
	hub := NewHub()
	reg := game.NewRegistry(game.DefaultConfig(), game.DefaultWordBank(), hub, game.NopStore{}, game.NopPresence{})
	reg.OnMembership(hub.BindMembership)
	return NewDispatcher(hub, reg), hub, reg
}

func connect(t *testing.T, hub *Hub, playerID string) *Session {
	t.Helper()
	sess := newTestSession(playerID, 64)
	hub.Register(sess)
	return sess
}

func command(t *testing.T, cmd string, payload commandPayload) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	data, err := json.Marshal(Message{Type: cmd, Payload: raw})
	require.NoError(t, err)
	return data
}

// lastOfType returns the most recent decoded payload of the given type.
func lastOfType(t *testing.T, sess *Session, msgType string) (json.RawMessage, bool) {
	t.Helper()
	var found json.RawMessage
	ok := false
	for {
		select {
		case data := <-sess.Send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Type == msgType {
				found = msg.Payload
				ok = true
			}
		default:
			return found, ok
		}
	}
}

func TestDispatchCreateAndJoin(t *testing.T) {
	t.Parallel()
	d, hub, reg := newTestDispatcher(t)

	host := connect(t, hub, "host")
	d.Dispatch(host, command(t, CmdCreateRoom, commandPayload{}))

	raw, ok := lastOfType(t, host, game.EvGameState)
	require.True(t, ok, "creating a room replays the snapshot to the creator")
	var state model.GameState
	require.NoError(t, json.Unmarshal(raw, &state))
	require.NotEmpty(t, state.RoomCode)
	assert.Equal(t, "host", state.HostID)
	assert.Equal(t, model.PhaseLobby, state.Phase)

	guest := connect(t, hub, "guest")
	d.Dispatch(guest, command(t, CmdJoinRoom, commandPayload{RoomID: state.RoomCode}))

	raw, ok = lastOfType(t, guest, game.EvGameState)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal(raw, &state))
	assert.Len(t, state.Roster, 2)

	room, found := reg.ResolveActiveRoomFor("guest")
	require.True(t, found)
	assert.Equal(t, state.RoomCode, room.Code())
}

func TestDispatchFullMatchFlow(t *testing.T) {
	t.Parallel()
	d, hub, _ := newTestDispatcher(t)

	host := connect(t, hub, "host")
	d.Dispatch(host, command(t, CmdCreateRoom, commandPayload{}))
	raw, ok := lastOfType(t, host, game.EvGameState)
	require.True(t, ok)
	var state model.GameState
	require.NoError(t, json.Unmarshal(raw, &state))
	code := state.RoomCode

	players := map[string]*Session{"host": host}
	for _, id := range []string{"b", "c"} {
		sess := connect(t, hub, id)
		d.Dispatch(sess, command(t, CmdJoinRoom, commandPayload{RoomID: code}))
		players[id] = sess
	}

	d.Dispatch(host, command(t, CmdStartMatch, commandPayload{}))

	// Find the impostor from the per-player views.
	var impostor string
	views := make(map[string]*model.MatchView)
	for id, sess := range players {
		raw, ok := lastOfType(t, sess, game.EvGameState)
		require.True(t, ok)
		var st model.GameState
		require.NoError(t, json.Unmarshal(raw, &st))
		require.NotNil(t, st.Match)
		assert.Equal(t, model.PhasePlaying, st.Phase)
		views[id] = st.Match
		if st.Match.YouAreImpostor {
			impostor = id
		}
	}
	require.NotEmpty(t, impostor)
	for id, v := range views {
		if id == impostor {
			assert.Empty(t, v.SecretWord)
		} else {
			assert.NotEmpty(t, v.SecretWord)
			assert.Empty(t, v.ImpostorID, "the impostor is hidden while the match runs")
		}
	}

	// The impostor votes a friend, the friends vote the impostor.
	matchID := views["host"].MatchID
	var firstFriend string
	for id := range players {
		if id != impostor {
			firstFriend = id
			break
		}
	}
	d.Dispatch(players[impostor], command(t, CmdCastVote, commandPayload{MatchID: matchID, TargetID: &firstFriend}))
	for id, sess := range players {
		if id != impostor {
			d.Dispatch(sess, command(t, CmdCastVote, commandPayload{MatchID: matchID, TargetID: &impostor}))
		}
	}

	raw, ok = lastOfType(t, host, game.EvGameState)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal(raw, &state))
	assert.Equal(t, model.PhaseRoundResult, state.Phase)
	assert.Equal(t, impostor, state.Match.ImpostorID, "roles reveal at round result")
	assert.Equal(t, model.OutcomeImpostorEliminated, state.Match.Outcome)
}

func TestDispatchErrors(t *testing.T) {
	t.Parallel()

	readError := func(t *testing.T, sess *Session) errorPayload {
		t.Helper()
		raw, ok := lastOfType(t, sess, game.EvErrorMessage)
		require.True(t, ok, "expected an error envelope")
		var p errorPayload
		require.NoError(t, json.Unmarshal(raw, &p))
		return p
	}

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		d, hub, _ := newTestDispatcher(t)
		sess := connect(t, hub, "p1")
		d.Dispatch(sess, []byte("{nope"))
		assert.Equal(t, "internal", readError(t, sess).Code)
	})

	t.Run("unknown command", func(t *testing.T) {
		t.Parallel()
		d, hub, _ := newTestDispatcher(t)
		sess := connect(t, hub, "p1")
		d.Dispatch(sess, command(t, "self-destruct", commandPayload{}))
		assert.Equal(t, "internal", readError(t, sess).Code)
	})

	t.Run("no room to act on", func(t *testing.T) {
		t.Parallel()
		d, hub, _ := newTestDispatcher(t)
		sess := connect(t, hub, "p1")
		d.Dispatch(sess, command(t, CmdStartMatch, commandPayload{}))
		assert.Equal(t, "not_found", readError(t, sess).Code)
	})

	t.Run("failures reach only the issuing session", func(t *testing.T) {
		t.Parallel()
		d, hub, _ := newTestDispatcher(t)
		host := connect(t, hub, "host")
		d.Dispatch(host, command(t, CmdCreateRoom, commandPayload{}))
		raw, ok := lastOfType(t, host, game.EvGameState)
		require.True(t, ok)
		var state model.GameState
		require.NoError(t, json.Unmarshal(raw, &state))

		guest := connect(t, hub, "guest")
		d.Dispatch(guest, command(t, CmdJoinRoom, commandPayload{RoomID: state.RoomCode}))
		drainTypes(t, host)
		drainTypes(t, guest)

		d.Dispatch(guest, command(t, CmdStartMatch, commandPayload{}))
		_, hostGot := lastOfType(t, host, game.EvErrorMessage)
		assert.False(t, hostGot)
		assert.Equal(t, "unauthorized", readError(t, guest).Code)
	})
}

func TestErrorCode(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want string
	}{
		{game.ErrNotFound, "not_found"},
		{fmt.Errorf("wrapped: %w", game.ErrInvalidVote), "invalid_vote"},
		{game.ErrInvalidState, "invalid_state"},
		{game.ErrCapacity, "capacity"},
		{game.ErrSessionConflict, "session_conflict"},
		{game.ErrKicked, "kicked"},
		{game.ErrUnauthorized, "unauthorized"},
		{errors.New("anything else"), "internal"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, errorCode(tc.err), "for %v", tc.err)
	}
}
