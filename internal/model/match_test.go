package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseCanTransitionTo(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from  Phase
		to    Phase
		legal bool
	}{
		{PhaseLobby, PhasePlaying, true},
		{PhaseLobby, PhaseClueRound, true},
		{PhaseLobby, PhaseGameOver, false},
		{PhaseClueRound, PhasePlaying, true},
		{PhaseClueRound, PhaseClueRound, true},
		{PhasePlaying, PhasePlaying, false},
		{PhasePlaying, PhaseRoundResult, true},
		{PhaseRoundResult, PhasePlaying, true},
		{PhaseRoundResult, PhaseGameOver, true},
		{PhaseGameOver, PhaseLobby, true},
		{PhaseGameOver, PhasePlaying, false},
		{PhaseRoundResult, PhaseLobby, true},
	}
	for _, tc := range cases {
		t.Run(tc.from.String()+"->"+tc.to.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.legal, tc.from.CanTransitionTo(tc.to))
		})
	}
}
