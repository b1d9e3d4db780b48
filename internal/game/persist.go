package game

import (
	"context"
	"time"

	"impostorparty/internal/model"

	"github.com/rs/zerolog/log"
)

// RoomStore is the durable per-room record store. Writes are
// best-effort: gameplay never blocks on them, and a store that stays
// down only costs score durability across restarts.
type RoomStore interface {
	Save(ctx context.Context, rec *model.RoomRecord) error
	Load(ctx context.Context, code string) (*model.RoomRecord, error)
	Delete(ctx context.Context, code string) error
}

// PresenceStore mirrors the identity-to-room index for observability
// and post-restart resumption hints. Best-effort, like RoomStore.
type PresenceStore interface {
	Set(ctx context.Context, playerID, roomCode string) error
	Clear(ctx context.Context, playerID string) error
	Get(ctx context.Context, playerID string) (string, error)
}

// saveWithRetry pushes a record to the store with bounded backoff.
// Runs on its own goroutine; failures are logged and dropped.
func saveWithRetry(store RoomStore, rec *model.RoomRecord) {
	backoff := time.Second
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := store.Save(ctx, rec)
		cancel()
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("room", rec.Code).Int("attempt", attempt).Msg("room record write failed")
		time.Sleep(backoff)
		backoff *= 2
	}
	log.Error().Str("room", rec.Code).Msg("room record write abandoned, continuing in memory")
}

// NopStore keeps nothing. Used in tests.
type NopStore struct{}

func (NopStore) Save(ctx context.Context, rec *model.RoomRecord) error { return nil }
func (NopStore) Load(ctx context.Context, code string) (*model.RoomRecord, error) {
	return nil, nil
}
func (NopStore) Delete(ctx context.Context, code string) error { return nil }

// NopPresence keeps nothing. Used in tests.
type NopPresence struct{}

func (NopPresence) Set(ctx context.Context, playerID, roomCode string) error { return nil }
func (NopPresence) Clear(ctx context.Context, playerID string) error         { return nil }
func (NopPresence) Get(ctx context.Context, playerID string) (string, error) { return "", nil }
