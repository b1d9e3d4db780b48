package game

import "time"

// VoteOpenPolicy controls when voting opens during a chat-mode clue
// round. The default opens voting once every active player has
// submitted a clue, or when the clue phase completes, whichever first.
type VoteOpenPolicy string

const (
	VoteOpenAfterClues VoteOpenPolicy = "after-clues"
	VoteOpenImmediate  VoteOpenPolicy = "immediate"
)

// Config carries the gameplay tunables shared by rooms and engines.
type Config struct {
	MinPlayers     int
	MaxPlayers     int
	MaxRounds      int
	MaxTieReplays  int
	ScoreThreshold int
	ClueTimeout    time.Duration
	MaxClueLength  int
	RoomGrace      time.Duration
	VoteOpenPolicy VoteOpenPolicy
	Language       string
}

func DefaultConfig() Config {
	return Config{
		MinPlayers:     3,
		MaxPlayers:     10,
		MaxRounds:      3,
		MaxTieReplays:  3,
		ScoreThreshold: 15,
		ClueTimeout:    90 * time.Second,
		MaxClueLength:  100,
		RoomGrace:      60 * time.Second,
		VoteOpenPolicy: VoteOpenAfterClues,
		Language:       "en",
	}
}
