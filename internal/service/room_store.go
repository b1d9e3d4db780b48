package service

import (
	"context"
	"fmt"

	"impostorparty/internal/cache"
	"impostorparty/internal/model"
	"impostorparty/internal/repository"

	"github.com/rs/zerolog/log"
)

// RoomStore pairs the durable Mongo record with a Redis mirror: reads
// prefer the cache, writes go to both. Either side failing degrades to
// the other; total failure degrades to in-memory gameplay.
type RoomStore struct {
	repo  repository.RoomRepo
	cache cache.RoomCache
}

func NewRoomStore(repo repository.RoomRepo, roomCache cache.RoomCache) *RoomStore {
	return &RoomStore{repo: repo, cache: roomCache}
}

func (s *RoomStore) Save(ctx context.Context, rec *model.RoomRecord) error {
	if err := s.cache.Set(ctx, rec); err != nil {
		log.Debug().Err(err).Str("room", rec.Code).Msg("room cache write failed")
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to persist room record: %w", err)
	}
	return nil
}

func (s *RoomStore) Load(ctx context.Context, code string) (*model.RoomRecord, error) {
	rec, err := s.cache.Get(ctx, code)
	if err == nil && rec != nil {
		return rec, nil
	}
	if err != nil {
		log.Debug().Err(err).Str("room", code).Msg("room cache read failed")
	}
	return s.repo.Load(ctx, code)
}

func (s *RoomStore) Delete(ctx context.Context, code string) error {
	if err := s.cache.Delete(ctx, code); err != nil {
		log.Debug().Err(err).Str("room", code).Msg("room cache delete failed")
	}
	return s.repo.Delete(ctx, code)
}
