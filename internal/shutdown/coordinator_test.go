package shutdown

import (
	"sync"
	"testing"
	"time"

	"impostorparty/internal/game"
	"impostorparty/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) ToPlayer(roomCode, playerID, msgType string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, msgType)
}

func (b *recordingBroadcaster) ToRoom(roomCode, msgType string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, msgType)
}

func (b *recordingBroadcaster) has(msgType string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.events {
		if t == msgType {
			return true
		}
	}
	return false
}

func newTestSetup(t *testing.T) (*game.Registry, *recordingBroadcaster, *Coordinator) {
	t.Helper()
	bc := &recordingBroadcaster{}
	reg := game.NewRegistry(game.DefaultConfig(), game.DefaultWordBank(), bc, game.NopStore{}, game.NopPresence{})
	return reg, bc, NewCoordinator(reg, bc)
}

func TestCoordinatorBegin(t *testing.T) {
	t.Parallel()
	reg, bc, c := newTestSetup(t)

	_, err := reg.CreateRoom(model.PlayerIdentity{ID: "host", Name: "host"}, model.RoomOptions{})
	require.NoError(t, err)

	require.NoError(t, c.Begin(time.Hour, "back soon"))
	assert.ErrorIs(t, c.Begin(time.Hour, "again"), game.ErrInvalidState)

	remaining, active := c.Remaining()
	assert.True(t, active)
	assert.Greater(t, remaining, 59*time.Minute)
	assert.Eventually(t, func() bool {
		return bc.has(game.EvShutdownCountdown)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCoordinatorCancel(t *testing.T) {
	t.Parallel()
	reg, bc, c := newTestSetup(t)

	_, err := reg.CreateRoom(model.PlayerIdentity{ID: "host", Name: "host"}, model.RoomOptions{})
	require.NoError(t, err)

	assert.ErrorIs(t, c.Cancel(), game.ErrInvalidState)

	require.NoError(t, c.Begin(time.Hour, ""))
	require.NoError(t, c.Cancel())
	assert.True(t, bc.has(game.EvShutdownCancelled))

	_, active := c.Remaining()
	assert.False(t, active)

	// A cancelled shutdown leaves the system fully operational.
	_, err = reg.CreateRoom(model.PlayerIdentity{ID: "other", Name: "other"}, model.RoomOptions{})
	assert.NoError(t, err)
}

func TestCoordinatorComplete(t *testing.T) {
	t.Parallel()
	reg, bc, c := newTestSetup(t)

	room, err := reg.CreateRoom(model.PlayerIdentity{ID: "host", Name: "host"}, model.RoomOptions{})
	require.NoError(t, err)
	code := room.Code()

	require.NoError(t, c.Begin(500*time.Millisecond, "maintenance"))

	require.Eventually(t, func() bool {
		_, active := c.Remaining()
		return !active && bc.has(game.EvShutdownComplete)
	}, 5*time.Second, 50*time.Millisecond)

	_, err = reg.Find(code)
	assert.ErrorIs(t, err, game.ErrNotFound, "every room is terminated")

	_, err = reg.CreateRoom(model.PlayerIdentity{ID: "late", Name: "late"}, model.RoomOptions{})
	assert.ErrorIs(t, err, game.ErrCapacity, "room creation stays disabled after completion")

	assert.ErrorIs(t, c.Begin(time.Hour, ""), game.ErrInvalidState)
}
