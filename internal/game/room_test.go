package game

import (
	"sync"
	"testing"
	"time"

	"impostorparty/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEvent struct {
	Room    string
	Player  string
	Type    string
	Payload any
}

// captureBroadcaster records everything sent through it.
type captureBroadcaster struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (b *captureBroadcaster) ToPlayer(roomCode, playerID, msgType string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, capturedEvent{Room: roomCode, Player: playerID, Type: msgType, Payload: payload})
}

func (b *captureBroadcaster) ToRoom(roomCode, msgType string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, capturedEvent{Room: roomCode, Type: msgType, Payload: payload})
}

func (b *captureBroadcaster) typesFor(playerID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var types []string
	for _, ev := range b.events {
		if ev.Player == playerID {
			types = append(types, ev.Type)
		}
	}
	return types
}

func newTestRegistry(cfg Config) (*Registry, *captureBroadcaster) {
	bc := &captureBroadcaster{}
	return NewRegistry(cfg, DefaultWordBank(), bc, NopStore{}, NopPresence{}), bc
}

func identity(id string) model.PlayerIdentity {
	return model.PlayerIdentity{ID: id, Name: "player " + id}
}

// newTestRoom creates a room hosted by "host" with the given extra
// members joined.
func newTestRoom(t *testing.T, reg *Registry, members ...string) *Room {
	t.Helper()
	room, err := reg.CreateRoom(identity("host"), model.RoomOptions{GameMode: model.ModeVoice})
	require.NoError(t, err)
	for _, id := range members {
		require.NoError(t, room.Join(identity(id)))
	}
	return room
}

func TestRoomJoin(t *testing.T) {
	t.Parallel()

	t.Run("enforces the member cap", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.MaxPlayers = 3
		reg, _ := newTestRegistry(cfg)
		room := newTestRoom(t, reg, "b", "c")
		err := room.Join(identity("d"))
		assert.ErrorIs(t, err, ErrCapacity)
	})

	t.Run("rejoining is a reattach, not a duplicate", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(DefaultConfig())
		room := newTestRoom(t, reg, "b")
		require.NoError(t, room.Join(identity("b")))
		snap := room.Snapshot("b")
		assert.Len(t, snap.Roster, 2)
	})

	t.Run("joining mid-match makes a spectating late joiner", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(DefaultConfig())
		room := newTestRoom(t, reg, "b", "c")
		require.NoError(t, room.StartMatch("host", nil))

		require.NoError(t, room.Join(identity("d")))
		snap := room.Snapshot("d")
		require.Len(t, snap.Roster, 4)
		var entry model.RosterEntry
		for _, e := range snap.Roster {
			if e.ID == "d" {
				entry = e
			}
		}
		assert.True(t, entry.IsLateJoiner)
		assert.NotContains(t, snap.Match.Active, "d")
	})
}

func TestRoomHostMigration(t *testing.T) {
	t.Parallel()
	reg, bc := newTestRegistry(DefaultConfig())
	room := newTestRoom(t, reg, "b", "c")

	require.NoError(t, room.Leave("host"))
	assert.Equal(t, "b", room.HostID(), "the room passes to the next member in join order")

	bc.mu.Lock()
	defer bc.mu.Unlock()
	found := false
	for _, ev := range bc.events {
		if ev.Type == EvToast && ev.Player == "" {
			found = true
		}
	}
	assert.True(t, found, "the migration is announced to the room")
}

func TestRoomKick(t *testing.T) {
	t.Parallel()

	t.Run("only the host can kick, and never the host", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(DefaultConfig())
		room := newTestRoom(t, reg, "b", "c")
		assert.ErrorIs(t, room.Kick("b", "c"), ErrUnauthorized)
		assert.ErrorIs(t, room.Kick("host", "host"), ErrInvalidState)
		assert.ErrorIs(t, room.Kick("host", "nobody"), ErrNotFound)
	})

	t.Run("a kicked player cannot rejoin this room", func(t *testing.T) {
		t.Parallel()
		reg, bc := newTestRegistry(DefaultConfig())
		room := newTestRoom(t, reg, "b", "c")

		require.NoError(t, room.Kick("host", "b"))
		assert.Contains(t, bc.typesFor("b"), EvKicked)
		assert.ErrorIs(t, room.Join(identity("b")), ErrKicked)
	})
}

func TestRoomStartMatch(t *testing.T) {
	t.Parallel()

	t.Run("host only", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(DefaultConfig())
		room := newTestRoom(t, reg, "b", "c")
		assert.ErrorIs(t, room.StartMatch("b", nil), ErrUnauthorized)
	})

	t.Run("needs the minimum reachable players", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(DefaultConfig())
		room := newTestRoom(t, reg, "b", "c")
		room.MarkUnreachable("c")
		assert.ErrorIs(t, room.StartMatch("host", nil), ErrCapacity)
	})

	t.Run("no restart over a live match", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(DefaultConfig())
		room := newTestRoom(t, reg, "b", "c")
		require.NoError(t, room.StartMatch("host", nil))
		assert.ErrorIs(t, room.StartMatch("host", nil), ErrInvalidState)
	})

	t.Run("the starter rotates between matches", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(DefaultConfig())
		room := newTestRoom(t, reg, "b", "c")
		require.NoError(t, room.StartMatch("host", nil))
		assert.Equal(t, "b", room.engine.PlayerOrder[0], "the first match starts after the host")
		first := room.engine.PlayerOrder[0]

		driveImpostorOut(t, room)
		require.NoError(t, room.NextRound("host"))
		assert.NotEqual(t, first, room.engine.PlayerOrder[0])
	})
}

// driveImpostorOut votes the current impostor out through the room's
// command surface.
func driveImpostorOut(t *testing.T, room *Room) {
	t.Helper()
	room.mu.Lock()
	impostor := room.engine.ImpostorID
	matchID := room.engine.MatchID
	active := append([]string(nil), room.engine.Active...)
	room.mu.Unlock()

	var friend string
	for _, id := range active {
		if id != impostor {
			friend = id
			break
		}
	}
	require.NoError(t, room.CastVote(impostor, matchID, friend))
	for _, id := range active {
		if id != impostor {
			require.NoError(t, room.CastVote(id, matchID, impostor))
		}
	}
}

func TestRoomCastVote(t *testing.T) {
	t.Parallel()

	t.Run("a vote for a stale match is rejected", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(DefaultConfig())
		room := newTestRoom(t, reg, "b", "c")
		require.NoError(t, room.StartMatch("host", nil))
		err := room.CastVote("b", "some-older-match", "c")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("a full vote resolves and settles scores", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(DefaultConfig())
		room := newTestRoom(t, reg, "b", "c")
		require.NoError(t, room.StartMatch("host", nil))
		impostor := room.engine.ImpostorID

		driveImpostorOut(t, room)

		snap := room.Snapshot("host")
		assert.Equal(t, model.PhaseRoundResult, snap.Phase)
		for _, e := range snap.Roster {
			if e.ID == impostor {
				assert.Equal(t, 0, e.Score)
			} else {
				assert.Equal(t, 2, e.Score)
			}
		}
	})
}

func TestRoomScoreThreshold(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.ScoreThreshold = 2
	reg, _ := newTestRegistry(cfg)
	room := newTestRoom(t, reg, "b", "c")
	require.NoError(t, room.StartMatch("host", nil))

	driveImpostorOut(t, room)

	snap := room.Snapshot("host")
	require.Equal(t, model.PhaseGameOver, snap.Phase)
	require.NotNil(t, snap.Match.GameOver)
	assert.Len(t, snap.Match.GameOver.TiedIDs, 2, "both friends reach the threshold together")
	assert.False(t, snap.Match.GameOver.NoWinner)

	t.Run("next round is not available from game over", func(t *testing.T) {
		assert.ErrorIs(t, room.NextRound("host"), ErrInvalidState)
	})

	t.Run("play again resets the series", func(t *testing.T) {
		require.NoError(t, room.PlayAgain("host"))
		snap := room.Snapshot("host")
		assert.Equal(t, model.PhaseLobby, snap.Phase)
		for _, e := range snap.Roster {
			assert.Zero(t, e.Score)
		}
	})
}

func TestRoomThreshold(t *testing.T) {
	t.Parallel()
	reg, _ := newTestRegistry(DefaultConfig())
	room := newTestRoom(t, reg, "b", "c")

	cases := []struct {
		name   string
		scores map[string]int
		want   model.GameOverResult
		over   bool
	}{
		{
			name:   "below threshold",
			scores: map[string]int{"host": 14, "b": 3},
		},
		{
			name:   "single winner",
			scores: map[string]int{"host": 15, "b": 3},
			want:   model.GameOverResult{WinnerID: "host"},
			over:   true,
		},
		{
			name:   "two-way tie",
			scores: map[string]int{"host": 15, "b": 15, "c": 3},
			want:   model.GameOverResult{TiedIDs: []string{"b", "host"}},
			over:   true,
		},
		{
			name:   "three-way tie has no winner",
			scores: map[string]int{"host": 15, "b": 15, "c": 15},
			want:   model.GameOverResult{TiedIDs: []string{"b", "c", "host"}, NoWinner: true},
			over:   true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			room.mu.Lock()
			room.scores = tc.scores
			got, over := room.thresholdLocked()
			room.mu.Unlock()
			assert.Equal(t, tc.over, over)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRoomImpostorLeavesMidMatch(t *testing.T) {
	t.Parallel()
	reg, _ := newTestRegistry(DefaultConfig())
	room := newTestRoom(t, reg, "b", "c", "d")
	require.NoError(t, room.StartMatch("host", nil))
	impostor := room.engine.ImpostorID

	require.NoError(t, room.Leave(impostor))

	snap := room.Snapshot("host")
	require.Equal(t, model.PhaseRoundResult, snap.Phase)
	assert.Equal(t, model.OutcomeImpostorEliminated, snap.Match.Outcome)
	assert.False(t, snap.Match.ImpostorWon, "walking out forfeits to the friends")
	for _, e := range snap.Roster {
		assert.Equal(t, 1, e.Score, "friends get the elimination bonus, no vote credits")
	}
}

func TestRoomLeaveMatchKeepsMembership(t *testing.T) {
	t.Parallel()
	reg, _ := newTestRegistry(DefaultConfig())
	room := newTestRoom(t, reg, "b", "c", "d")
	require.NoError(t, room.StartMatch("host", nil))

	var friend string
	for _, id := range room.engine.Active {
		if id != room.engine.ImpostorID && id != "host" {
			friend = id
			break
		}
	}

	require.NoError(t, room.LeaveMatch(friend))
	snap := room.Snapshot("host")
	assert.Len(t, snap.Roster, 4, "still a room member")
	assert.NotContains(t, snap.Match.Active, friend)
}

func TestRoomReattach(t *testing.T) {
	t.Parallel()
	reg, _ := newTestRegistry(DefaultConfig())
	room := newTestRoom(t, reg, "b", "c")

	room.MarkUnreachable("b")
	snap := room.Snapshot("host")
	for _, e := range snap.Roster {
		if e.ID == "b" {
			assert.True(t, e.Unreachable)
		}
	}

	require.NoError(t, room.Reattach("b"))
	snap = room.Snapshot("host")
	for _, e := range snap.Roster {
		assert.False(t, e.Unreachable)
	}

	assert.ErrorIs(t, room.Reattach("stranger"), ErrNotFound)
}

func TestRoomReturnToLobby(t *testing.T) {
	t.Parallel()
	reg, _ := newTestRegistry(DefaultConfig())
	room := newTestRoom(t, reg, "b", "c")
	require.NoError(t, room.StartMatch("host", nil))

	assert.ErrorIs(t, room.ReturnToLobby("b"), ErrUnauthorized)
	require.NoError(t, room.ReturnToLobby("host"))

	snap := room.Snapshot("host")
	assert.Equal(t, model.PhaseLobby, snap.Phase)
	assert.Nil(t, snap.Match)
	assert.ErrorIs(t, room.ReturnToLobby("host"), ErrInvalidState)
}

func TestRoomUpdateOptions(t *testing.T) {
	t.Parallel()
	reg, _ := newTestRegistry(DefaultConfig())
	room := newTestRoom(t, reg, "b", "c")

	assert.ErrorIs(t, room.UpdateOptions("b", model.RoomOptions{}), ErrUnauthorized)

	require.NoError(t, room.UpdateOptions("host", model.RoomOptions{
		GameMode:         model.ModeChat,
		ShowImpostorHint: true,
		Language:         "de",
	}))
	snap := room.Snapshot("host")
	assert.Equal(t, model.ModeChat, snap.Options.GameMode)
	assert.True(t, snap.Options.ShowImpostorHint)
	assert.Equal(t, "de", snap.Options.Language)

	require.NoError(t, room.StartMatch("host", nil))
	assert.ErrorIs(t, room.UpdateOptions("host", model.RoomOptions{}), ErrInvalidState)
}

func TestRoomMigration(t *testing.T) {
	t.Parallel()
	reg, _ := newTestRegistry(DefaultConfig())
	rec := &model.RoomRecord{
		Code:          "OLDR",
		HostID:        "host",
		Options:       model.RoomOptions{GameMode: model.ModeVoice},
		Scores:        map[string]int{"host": 7},
		SchemaVersion: model.CurrentSchemaVersion - 1,
		CreatedAt:     time.Now().Add(-time.Hour),
	}
	room := restoreRoom(rec, reg)
	require.NoError(t, room.Join(identity("host")))
	require.NoError(t, room.Join(identity("b")))
	require.NoError(t, room.Join(identity("c")))

	assert.ErrorIs(t, room.StartMatch("host", nil), ErrInvalidState,
		"a legacy room cannot start a match before migrating")
	assert.ErrorIs(t, room.ConfirmMigration("b"), ErrUnauthorized)

	require.NoError(t, room.ConfirmMigration("host"))
	snap := room.Snapshot("host")
	assert.False(t, snap.NeedsMigration)
	for _, e := range snap.Roster {
		assert.Zero(t, e.Score, "legacy scores are discarded on migration")
	}
	require.NoError(t, room.StartMatch("host", nil))

	assert.ErrorIs(t, room.ConfirmMigration("host"), ErrInvalidState)
}
