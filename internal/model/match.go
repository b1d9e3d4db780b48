package model

import "time"

// Phase is the match state machine position.
type Phase string

const (
	PhaseLobby       Phase = "lobby"
	PhasePlaying     Phase = "playing"
	PhaseClueRound   Phase = "clue_round"
	PhaseRoundResult Phase = "round_result"
	PhaseGameOver    Phase = "game_over"
)

func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo reports whether moving from p to target is a legal
// state machine edge; the match engine routes every phase change
// through this check. A clue round may follow another clue round: a
// friend elimination under immediate voting resolves before the clues
// finish.
func (p Phase) CanTransitionTo(target Phase) bool {
	valid := map[Phase][]Phase{
		PhaseLobby:       {PhasePlaying, PhaseClueRound},
		PhasePlaying:     {PhaseClueRound, PhaseRoundResult, PhaseLobby},
		PhaseClueRound:   {PhasePlaying, PhaseClueRound, PhaseRoundResult, PhaseLobby},
		PhaseRoundResult: {PhasePlaying, PhaseClueRound, PhaseGameOver, PhaseLobby},
		PhaseGameOver:    {PhaseLobby},
	}
	for _, t := range valid[p] {
		if t == target {
			return true
		}
	}
	return false
}

// Clue is a revealed chat-mode hint. Clues are only published once the
// submitting player's turn has completed.
type Clue struct {
	PlayerID string    `json:"playerId"`
	Text     string    `json:"text"`
	Round    int       `json:"round"`
	GivenAt  time.Time `json:"givenAt"`
}

// RoundOutcome describes how a voting round resolved.
type RoundOutcome string

const (
	OutcomeImpostorEliminated RoundOutcome = "impostor_eliminated"
	OutcomeFriendEliminated   RoundOutcome = "friend_eliminated"
	OutcomeTie                RoundOutcome = "tie"
	OutcomeImpostorSurvived   RoundOutcome = "impostor_survived"
	OutcomeAttrition          RoundOutcome = "attrition"
)

// GameOverResult names the winner once a score threshold is reached.
// With two leaders it is a tie; with three or more there is no winner.
type GameOverResult struct {
	WinnerID string   `json:"winnerId,omitempty"`
	TiedIDs  []string `json:"tiedIds,omitempty"`
	NoWinner bool     `json:"noWinner"`
}
