package game

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"impostorparty/internal/model"

	"github.com/rs/zerolog/log"
)

const (
	roomCodeLen   = 4
	roomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// LifecycleEvent reports room creation and destruction, consumed by
// the shutdown coordinator for inventory.
type LifecycleEvent struct {
	Created  bool
	RoomCode string
}

// Registry is the in-memory directory of all live rooms. It owns the
// identity-to-room index that enforces one active room per player.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	byPlayer map[string]string

	maintenance atomic.Bool

	cfg      Config
	bank     *WordBank
	bc       Broadcaster
	store    RoomStore
	presence PresenceStore

	lifecycleMu sync.Mutex
	lifecycle   []func(LifecycleEvent)
	membership  []func(playerID, roomCode string, joined bool)
}

func NewRegistry(cfg Config, bank *WordBank, bc Broadcaster, store RoomStore, presence PresenceStore) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		byPlayer: make(map[string]string),
		cfg:      cfg,
		bank:     bank,
		bc:       bc,
		store:    store,
		presence: presence,
	}
}

// OnLifecycle registers a room created/destroyed listener.
func (g *Registry) OnLifecycle(fn func(LifecycleEvent)) {
	g.lifecycleMu.Lock()
	defer g.lifecycleMu.Unlock()
	g.lifecycle = append(g.lifecycle, fn)
}

// OnMembership registers a join/leave listener, used by the session
// hub to keep its room index aligned with game membership.
func (g *Registry) OnMembership(fn func(playerID, roomCode string, joined bool)) {
	g.lifecycleMu.Lock()
	defer g.lifecycleMu.Unlock()
	g.membership = append(g.membership, fn)
}

func (g *Registry) emitMembership(playerID, roomCode string, joined bool) {
	g.lifecycleMu.Lock()
	fns := make([]func(string, string, bool), len(g.membership))
	copy(fns, g.membership)
	g.lifecycleMu.Unlock()
	for _, fn := range fns {
		fn(playerID, roomCode, joined)
	}
}

func (g *Registry) emit(ev LifecycleEvent) {
	g.lifecycleMu.Lock()
	fns := make([]func(LifecycleEvent), len(g.lifecycle))
	copy(fns, g.lifecycle)
	g.lifecycleMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// DisableCreation permanently stops new rooms from being created; used
// once a maintenance shutdown completes.
func (g *Registry) DisableCreation() {
	g.maintenance.Store(true)
}

// CreateRoom builds a room with a fresh collision-checked code and the
// creator as host. Joining detaches the creator from any prior room.
func (g *Registry) CreateRoom(host model.PlayerIdentity, opts model.RoomOptions) (*Room, error) {
	if g.maintenance.Load() {
		return nil, fmt.Errorf("%w: maintenance in progress, no new rooms", ErrCapacity)
	}
	if opts.GameMode == "" {
		opts.GameMode = model.ModeVoice
	}

	g.DetachFromCurrent(host.ID)

	g.mu.Lock()
	code, err := g.uniqueCodeLocked()
	if err != nil {
		g.mu.Unlock()
		return nil, err
	}
	room := newRoom(code, host, opts, g)
	g.rooms[code] = room
	g.byPlayer[host.ID] = code
	g.mu.Unlock()

	g.emitMembership(host.ID, code, true)
	g.mirrorPresence(host.ID, code)
	room.persistFresh()
	g.emit(LifecycleEvent{Created: true, RoomCode: code})
	log.Info().Str("room", code).Str("host", host.ID).Msg("room created")
	return room, nil
}

// Find resolves a room by code, restoring it from the durable store if
// the process has been restarted since it was last live.
func (g *Registry) Find(code string) (*Room, error) {
	g.mu.RLock()
	room, ok := g.rooms[code]
	g.mu.RUnlock()
	if ok {
		return room, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	rec, err := g.store.Load(ctx, code)
	if err != nil {
		log.Warn().Err(err).Str("room", code).Msg("room record load failed")
		return nil, ErrNotFound
	}
	if rec == nil {
		return nil, ErrNotFound
	}

	g.mu.Lock()
	if existing, ok := g.rooms[code]; ok {
		g.mu.Unlock()
		return existing, nil
	}
	room = restoreRoom(rec, g)
	g.rooms[code] = room
	g.mu.Unlock()

	g.emit(LifecycleEvent{Created: true, RoomCode: code})
	log.Info().Str("room", code).Int("schema", rec.SchemaVersion).Msg("room restored from store")
	return room, nil
}

// Join resolves a room and adds the player, first detaching them from
// any other room they are silently still a member of.
func (g *Registry) Join(code string, identity model.PlayerIdentity) (*Room, error) {
	room, err := g.Find(code)
	if err != nil {
		return nil, err
	}
	if prior, ok := g.ResolveActiveRoomFor(identity.ID); ok && prior != room {
		_ = prior.Leave(identity.ID)
	}
	if err := room.Join(identity); err != nil {
		return nil, err
	}
	return room, nil
}

// ResolveActiveRoomFor returns the room a player is currently a member
// of, if any. This is the authoritative reconnection lookup.
func (g *Registry) ResolveActiveRoomFor(playerID string) (*Room, bool) {
	g.mu.RLock()
	code, ok := g.byPlayer[playerID]
	if !ok {
		g.mu.RUnlock()
		return nil, false
	}
	room, ok := g.rooms[code]
	g.mu.RUnlock()
	return room, ok
}

// DetachFromCurrent removes a player from whatever room they are in;
// joining a new room implies leaving the old one.
func (g *Registry) DetachFromCurrent(playerID string) {
	room, ok := g.ResolveActiveRoomFor(playerID)
	if !ok {
		return
	}
	_ = room.Leave(playerID)
}

// Destroy removes a room and cancels everything scheduled against it.
func (g *Registry) Destroy(code string) {
	g.mu.Lock()
	room, ok := g.rooms[code]
	if !ok {
		g.mu.Unlock()
		return
	}
	delete(g.rooms, code)
	g.mu.Unlock()

	members := room.close()
	g.mu.Lock()
	for _, id := range members {
		if g.byPlayer[id] == code {
			delete(g.byPlayer, id)
		}
	}
	g.mu.Unlock()
	for _, id := range members {
		g.emitMembership(id, code, false)
		g.clearPresence(id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := g.store.Delete(ctx, code); err != nil {
		log.Warn().Err(err).Str("room", code).Msg("room record delete failed")
	}

	g.emit(LifecycleEvent{Created: false, RoomCode: code})
	log.Info().Str("room", code).Msg("room destroyed")
}

// Rooms snapshots the live room set.
func (g *Registry) Rooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// indexAdd and indexRemove keep the player index in step with room
// membership. Called by rooms under their own lock; the registry lock
// is never held while a room lock is taken, so the order is safe.
func (g *Registry) indexAdd(playerID, code string) {
	g.mu.Lock()
	g.byPlayer[playerID] = code
	g.mu.Unlock()
	g.emitMembership(playerID, code, true)
	g.mirrorPresence(playerID, code)
}

func (g *Registry) indexRemove(playerID, code string) {
	g.mu.Lock()
	if g.byPlayer[playerID] == code {
		delete(g.byPlayer, playerID)
	}
	g.mu.Unlock()
	g.emitMembership(playerID, code, false)
	g.clearPresence(playerID)
}

func (g *Registry) mirrorPresence(playerID, code string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := g.presence.Set(ctx, playerID, code); err != nil {
			log.Debug().Err(err).Str("player", playerID).Msg("presence mirror failed")
		}
	}()
}

func (g *Registry) clearPresence(playerID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := g.presence.Clear(ctx, playerID); err != nil {
			log.Debug().Err(err).Str("player", playerID).Msg("presence clear failed")
		}
	}()
}

func (g *Registry) uniqueCodeLocked() (string, error) {
	for attempts := 0; attempts < 10; attempts++ {
		b := make([]byte, roomCodeLen)
		if _, err := crand.Read(b); err != nil {
			return "", err
		}
		code := make([]byte, roomCodeLen)
		for i := range code {
			code[i] = roomCodeChars[int(b[i])%len(roomCodeChars)]
		}
		if _, taken := g.rooms[string(code)]; !taken {
			return string(code), nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique room code")
}
