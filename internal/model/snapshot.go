package model

import "time"

// GameState is the full room+match snapshot broadcast after every
// mutating transition. It is composed per recipient: the secret word is
// withheld from the impostor and roles are withheld from everyone else
// until the round resolves.
type GameState struct {
	RoomCode string        `json:"roomCode"`
	HostID   string        `json:"hostId"`
	Options  RoomOptions   `json:"options"`
	Roster   []RosterEntry `json:"roster"`
	// Former lists players who disconnected for good; their scores
	// remain visible on the results screen.
	Former []RosterEntry `json:"formerPlayers,omitempty"`
	Phase  Phase         `json:"phase"`

	NeedsMigration bool `json:"needsMigration,omitempty"`

	Match *MatchView `json:"match,omitempty"`
}

// MatchView is the phase-dependent slice of match state a recipient
// is allowed to see.
type MatchView struct {
	MatchID      string   `json:"matchId"`
	CurrentRound int      `json:"currentRound"`
	PlayerOrder  []string `json:"playerOrder"`
	Active       []string `json:"activePlayers"`
	Eliminated   []string `json:"eliminatedPlayers"`

	// Recipient's own card.
	YouAreImpostor bool   `json:"youAreImpostor"`
	SecretWord     string `json:"secretWord,omitempty"`
	SecretCategory string `json:"secretCategory,omitempty"`

	CanVote  bool     `json:"canVote"`
	MyVote   string   `json:"myVote,omitempty"`
	HasVoted bool     `json:"hasVoted"`
	Voted    []string `json:"votedPlayers"`

	Chat *ChatView `json:"chat,omitempty"`

	// Populated from round_result onward.
	Outcome      RoundOutcome    `json:"outcome,omitempty"`
	ImpostorID   string          `json:"impostorId,omitempty"`
	EliminatedID string          `json:"eliminatedId,omitempty"`
	ImpostorWon  bool            `json:"impostorWon,omitempty"`
	GameOver     *GameOverResult `json:"gameOver,omitempty"`
}

// ChatView is the clue sub-state shown in chat mode.
type ChatView struct {
	CurrentTurnID string    `json:"currentTurnPlayerId"`
	TurnStartedAt time.Time `json:"turnStartedAt"`
	TimeoutMs     int       `json:"timeoutMs"`
	Submitted     []string  `json:"submittedPlayers"`
	Revealed      []Clue    `json:"revealedClues"`
	MySubmitted   bool      `json:"mySubmitted"`
}

// VoteUpdate is the narrow delta broadcast during active voting.
type VoteUpdate struct {
	Voted    []string `json:"votedPlayers"`
	MyVote   string   `json:"myVote,omitempty"`
	HasVoted bool     `json:"hasVoted"`
	Active   []string `json:"activePlayers"`
}

// Notice payloads for out-of-band events.
type Notice struct {
	Text string `json:"text"`
}

type KickedNotice struct {
	Reason string `json:"reason"`
}

type SessionReplacedNotice struct {
	Reason string `json:"reason"`
}

type ShutdownCountdown struct {
	RemainingSeconds int    `json:"remainingSeconds"`
	Message          string `json:"message,omitempty"`
}
