package shutdown

import (
	"fmt"
	"sync"
	"time"

	"impostorparty/internal/game"
	"impostorparty/internal/model"

	"github.com/rs/zerolog/log"
)

// Coordinator drives operator-initiated maintenance: a broadcast
// countdown, then coordinated termination of every room. A completed
// shutdown disables room creation for the rest of the process.
type Coordinator struct {
	mu        sync.Mutex
	reg       *game.Registry
	bc        game.Broadcaster
	inventory map[string]bool

	active   bool
	finished bool
	message  string
	deadline time.Time
	stop     chan struct{}
}

func NewCoordinator(reg *game.Registry, bc game.Broadcaster) *Coordinator {
	c := &Coordinator{
		reg:       reg,
		bc:        bc,
		inventory: make(map[string]bool),
	}
	reg.OnLifecycle(func(ev game.LifecycleEvent) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if ev.Created {
			c.inventory[ev.RoomCode] = true
		} else {
			delete(c.inventory, ev.RoomCode)
		}
	})
	return c
}

// Begin starts a maintenance countdown of the given length.
func (c *Coordinator) Begin(d time.Duration, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active || c.finished {
		return fmt.Errorf("%w: shutdown already in progress", game.ErrInvalidState)
	}
	c.active = true
	c.message = message
	c.deadline = time.Now().Add(d)
	c.stop = make(chan struct{})
	log.Warn().Dur("countdown", d).Msg("maintenance shutdown started")

	go c.run(c.stop)
	return nil
}

// Cancel aborts a running countdown and resumes normal operation.
func (c *Coordinator) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || c.finished {
		return fmt.Errorf("%w: no shutdown to cancel", game.ErrInvalidState)
	}
	c.active = false
	close(c.stop)
	for code := range c.inventory {
		c.bc.ToRoom(code, game.EvShutdownCancelled, nil)
	}
	log.Warn().Msg("maintenance shutdown cancelled")
	return nil
}

// Remaining reports the countdown state.
func (c *Coordinator) Remaining() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return 0, false
	}
	return time.Until(c.deadline), true
}

func (c *Coordinator) run(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	c.broadcastCountdown()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			remaining := time.Until(c.deadline)
			c.mu.Unlock()
			if remaining <= 0 {
				c.complete()
				return
			}
			c.broadcastCountdown()
		}
	}
}

func (c *Coordinator) broadcastCountdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	payload := model.ShutdownCountdown{
		RemainingSeconds: int(time.Until(c.deadline).Round(time.Second).Seconds()),
		Message:          c.message,
	}
	for code := range c.inventory {
		c.bc.ToRoom(code, game.EvShutdownCountdown, payload)
	}
}

// complete force-terminates every room and permanently disables room
// creation for this process.
func (c *Coordinator) complete() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	c.finished = true
	codes := make([]string, 0, len(c.inventory))
	for code := range c.inventory {
		codes = append(codes, code)
	}
	c.mu.Unlock()

	c.reg.DisableCreation()
	for _, code := range codes {
		c.bc.ToRoom(code, game.EvShutdownComplete, nil)
		c.reg.Destroy(code)
	}
	log.Warn().Int("rooms", len(codes)).Msg("maintenance shutdown complete")
}
