package game

import (
	"errors"
	"fmt"
)

// Command failures are sentinels so transports can map them with
// errors.Is without inspecting text. None of them mutate room state.
var (
	ErrNotFound        = errors.New("room not found")
	ErrUnauthorized    = errors.New("not permitted")
	ErrInvalidState    = errors.New("command not valid in current phase")
	ErrInvalidVote     = errors.New("invalid vote")
	ErrCapacity        = errors.New("capacity exceeded")
	ErrSessionConflict = errors.New("session conflict")
)

// ErrKicked is a flavor of ErrUnauthorized: the player was removed by
// the host and may not rejoin this room instance.
var ErrKicked = fmt.Errorf("%w: kicked from room", ErrUnauthorized)
