package game

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"impostorparty/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Engine is the state machine for a single match. It is not safe for
// concurrent use; the owning Room serializes every call.
type Engine struct {
	MatchID    string
	Generation int64 // bumped on every transition; stamps scheduled timers

	Phase model.Phase
	Mode  model.GameMode

	SecretWord     string
	SecretCategory string
	ImpostorID     string

	PlayerOrder  []string
	CurrentRound int
	Active       []string
	Eliminated   []string

	votes      map[string]string
	tieReplays int

	chat *chatState

	// Scoring credits accumulated during the match, applied to the
	// room's cumulative scores only when the match resolves.
	pending map[string]int

	Outcome      model.RoundOutcome
	EliminatedID string
	ImpostorWon  bool
	GameOver     *model.GameOverResult

	cfg Config
	rng *rand.Rand
}

type chatState struct {
	turnIdx       int
	currentTurnID string
	turnStartedAt time.Time
	queued        map[string]string
	submitted     map[string]bool
	revealed      []model.Clue
	done          bool
}

// RoundResolution describes the effect of a completed voting round.
type RoundResolution struct {
	Outcome      model.RoundOutcome
	EliminatedID string
	MatchEnded   bool
	ImpostorWon  bool
	ScoreDeltas  map[string]int // non-nil only when MatchEnded
}

// NewEngine deals a fresh match: fixed player order starting at
// startIdx, a uniformly random impostor, and a secret word drawn from
// the bank. In chat mode the match opens with a clue round.
func NewEngine(players []string, startIdx int, opts model.RoomOptions, bank *WordBank, cfg Config, rng *rand.Rand) (*Engine, error) {
	if len(players) < cfg.MinPlayers {
		return nil, fmt.Errorf("%w: need at least %d players", ErrCapacity, cfg.MinPlayers)
	}
	order := make([]string, 0, len(players))
	for i := range players {
		order = append(order, players[(startIdx+i)%len(players)])
	}

	lang := opts.Language
	if lang == "" {
		lang = cfg.Language
	}
	category, word := bank.Pick(rng, lang)

	e := &Engine{
		MatchID:        uuid.NewString(),
		Phase:          model.PhaseLobby,
		Mode:           opts.GameMode,
		SecretWord:     word,
		SecretCategory: category,
		ImpostorID:     order[rng.Intn(len(order))],
		PlayerOrder:    order,
		CurrentRound:   1,
		Active:         slices.Clone(order),
		votes:          make(map[string]string),
		pending:        make(map[string]int),
		cfg:            cfg,
		rng:            rng,
	}

	if e.Mode == model.ModeChat {
		e.setPhase(model.PhaseClueRound)
		e.startClueRound()
	} else {
		e.setPhase(model.PhasePlaying)
	}
	return e, nil
}

// setPhase is the single path for phase changes. An edge the phase
// model rejects is a bug in the caller; it is applied anyway so the
// match does not wedge, and logged.
func (e *Engine) setPhase(target model.Phase) {
	if !e.Phase.CanTransitionTo(target) {
		log.Error().
			Str("match", e.MatchID).
			Stringer("from", e.Phase).
			Stringer("to", target).
			Msg("illegal phase transition")
	}
	e.Phase = target
}

func (e *Engine) isActive(id string) bool {
	return slices.Contains(e.Active, id)
}

// VotingOpen reports whether votes are currently accepted.
func (e *Engine) VotingOpen() bool {
	switch e.Phase {
	case model.PhasePlaying:
		return true
	case model.PhaseClueRound:
		if e.cfg.VoteOpenPolicy == VoteOpenImmediate {
			return true
		}
		return e.allCluesIn()
	default:
		return false
	}
}

func (e *Engine) allCluesIn() bool {
	if e.chat == nil {
		return false
	}
	for _, id := range e.Active {
		if !e.chat.submitted[id] {
			return false
		}
	}
	return true
}

// CastVote records, changes, or retracts (empty target) a vote.
// Returns whether the round is now fully voted and whether the command
// changed anything (a repeated identical vote is a no-op).
func (e *Engine) CastVote(voter, target string) (resolved, changed bool, err error) {
	if !e.VotingOpen() {
		return false, false, fmt.Errorf("%w: voting is closed", ErrInvalidState)
	}
	if !e.isActive(voter) {
		return false, false, fmt.Errorf("%w: voter is not in the active match", ErrInvalidVote)
	}
	if target == voter {
		return false, false, fmt.Errorf("%w: cannot vote for yourself", ErrInvalidVote)
	}
	if target != "" && !e.isActive(target) {
		return false, false, fmt.Errorf("%w: target is not an active player", ErrInvalidVote)
	}

	prev, had := e.votes[voter]
	if target == "" {
		if !had {
			return false, false, nil
		}
		delete(e.votes, voter)
		return false, true, nil
	}
	if had && prev == target {
		return len(e.votes) == len(e.Active), false, nil
	}
	e.votes[voter] = target
	return len(e.votes) == len(e.Active), true, nil
}

// Votes returns the ids of players whose vote is currently recorded.
func (e *Engine) Votes() []string {
	voted := make([]string, 0, len(e.votes))
	for id := range e.votes {
		voted = append(voted, id)
	}
	slices.Sort(voted)
	return voted
}

// VoteOf returns the recorded target for a voter, if any.
func (e *Engine) VoteOf(voter string) (string, bool) {
	t, ok := e.votes[voter]
	return t, ok
}

// ResolveRound tallies a fully voted round. The caller must only
// invoke it after CastVote reported resolution.
func (e *Engine) ResolveRound() *RoundResolution {
	counts := make(map[string]int)
	for _, target := range e.votes {
		counts[target]++
	}
	max := 0
	var leaders []string
	for id, n := range counts {
		switch {
		case n > max:
			max = n
			leaders = []string{id}
		case n == max:
			leaders = append(leaders, id)
		}
	}

	if len(leaders) != 1 {
		// Tie: the round replays with the same round number. A round
		// that keeps tying past the cap ends the match by attrition.
		e.tieReplays++
		if e.tieReplays > e.cfg.MaxTieReplays {
			return e.endAsImpostorWin(model.OutcomeAttrition)
		}
		e.votes = make(map[string]string)
		e.Generation++
		e.Outcome = model.OutcomeTie
		return &RoundResolution{Outcome: model.OutcomeTie}
	}

	eliminated := leaders[0]
	e.creditCorrectVoters()

	if eliminated == e.ImpostorID {
		return e.endAsImpostorCaught(eliminated)
	}
	return e.eliminateFriend(eliminated)
}

// creditCorrectVoters awards the per-round +1 to friends whose vote
// landed on the impostor, on every round that actually resolves.
func (e *Engine) creditCorrectVoters() {
	for voter, target := range e.votes {
		if voter != e.ImpostorID && target == e.ImpostorID {
			e.pending[voter]++
		}
	}
}

func (e *Engine) endAsImpostorCaught(eliminated string) *RoundResolution {
	e.Active = slices.DeleteFunc(e.Active, func(id string) bool { return id == eliminated })
	e.Eliminated = append(e.Eliminated, eliminated)

	// Every friend gets the elimination bonus; the impostor keeps the
	// survival rate only for rounds completed before being caught.
	for _, id := range e.PlayerOrder {
		if id != e.ImpostorID {
			e.pending[id]++
		}
	}
	e.pending[e.ImpostorID] += 2 * (e.CurrentRound - 1)

	e.setPhase(model.PhaseRoundResult)
	e.Generation++
	e.Outcome = model.OutcomeImpostorEliminated
	e.EliminatedID = eliminated
	e.ImpostorWon = false
	return &RoundResolution{
		Outcome:      model.OutcomeImpostorEliminated,
		EliminatedID: eliminated,
		MatchEnded:   true,
		ScoreDeltas:  e.flushPending(),
	}
}

func (e *Engine) eliminateFriend(eliminated string) *RoundResolution {
	e.Active = slices.DeleteFunc(e.Active, func(id string) bool { return id == eliminated })
	e.Eliminated = append(e.Eliminated, eliminated)
	e.EliminatedID = eliminated

	if e.CurrentRound >= e.cfg.MaxRounds {
		res := e.endAsImpostorWin(model.OutcomeImpostorSurvived)
		res.EliminatedID = eliminated
		return res
	}

	e.CurrentRound++
	e.tieReplays = 0
	e.votes = make(map[string]string)
	e.Generation++
	e.Outcome = model.OutcomeFriendEliminated
	if e.Mode == model.ModeChat {
		e.setPhase(model.PhaseClueRound)
		e.startClueRound()
	}
	return &RoundResolution{
		Outcome:      model.OutcomeFriendEliminated,
		EliminatedID: eliminated,
	}
}

func (e *Engine) endAsImpostorWin(outcome model.RoundOutcome) *RoundResolution {
	e.pending[e.ImpostorID] += 2*e.cfg.MaxRounds + 4
	e.setPhase(model.PhaseRoundResult)
	e.Generation++
	e.Outcome = outcome
	e.ImpostorWon = true
	return &RoundResolution{
		Outcome:     outcome,
		MatchEnded:  true,
		ImpostorWon: true,
		ScoreDeltas: e.flushPending(),
	}
}

func (e *Engine) flushPending() map[string]int {
	deltas := e.pending
	e.pending = make(map[string]int)
	return deltas
}

// MarkGameOver moves a resolved match to the terminal phase once the
// room's cumulative score threshold has been reached.
func (e *Engine) MarkGameOver(res model.GameOverResult) {
	e.setPhase(model.PhaseGameOver)
	e.Generation++
	e.GameOver = &res
}

func (e *Engine) startClueRound() {
	e.chat = &chatState{
		queued:        make(map[string]string),
		submitted:     make(map[string]bool),
		revealed:      e.clueHistory(),
		currentTurnID: e.Active[0],
		turnStartedAt: time.Now(),
	}
}

func (e *Engine) clueHistory() []model.Clue {
	if e.chat == nil {
		return nil
	}
	return e.chat.revealed
}

// SubmitClue records a clue for the current round. A player whose turn
// has not yet arrived may pre-submit; the clue is queued and released
// when their turn starts. One clue per player per round.
func (e *Engine) SubmitClue(player, text string) error {
	if e.Mode != model.ModeChat {
		return fmt.Errorf("%w: clues are only used in chat mode", ErrInvalidState)
	}
	if e.Phase != model.PhaseClueRound || e.chat == nil || e.chat.done {
		return fmt.Errorf("%w: the clue phase is not running", ErrInvalidState)
	}
	if !e.isActive(player) {
		return fmt.Errorf("%w: player is not in the active match", ErrInvalidState)
	}
	if e.chat.submitted[player] {
		return fmt.Errorf("%w: clue already submitted this round", ErrInvalidState)
	}
	if len(text) > e.cfg.MaxClueLength {
		return fmt.Errorf("%w: clue exceeds %d characters", ErrInvalidState, e.cfg.MaxClueLength)
	}

	e.chat.submitted[player] = true
	if player == e.chat.currentTurnID {
		e.completeTurn(text)
		return nil
	}
	e.chat.queued[player] = text
	return nil
}

// TimeOutTurn auto-advances the current clue turn with an empty clue.
// A stale generation means the match already moved on; it is a no-op.
func (e *Engine) TimeOutTurn(gen int64) bool {
	if gen != e.Generation || e.Phase != model.PhaseClueRound || e.chat == nil || e.chat.done {
		return false
	}
	e.chat.submitted[e.chat.currentTurnID] = true
	e.completeTurn("")
	return true
}

// completeTurn reveals the finished turn's clue and advances to the
// next active player, releasing any queued pre-submission.
func (e *Engine) completeTurn(text string) {
	if text != "" {
		e.chat.revealed = append(e.chat.revealed, model.Clue{
			PlayerID: e.chat.currentTurnID,
			Text:     text,
			Round:    e.CurrentRound,
			GivenAt:  time.Now(),
		})
	}
	e.Generation++

	e.chat.turnIdx++
	if e.chat.turnIdx >= len(e.Active) {
		e.chat.done = true
		e.chat.currentTurnID = ""
		e.setPhase(model.PhasePlaying)
		return
	}
	e.chat.currentTurnID = e.Active[e.chat.turnIdx]
	e.chat.turnStartedAt = time.Now()
	if queued, ok := e.chat.queued[e.chat.currentTurnID]; ok {
		delete(e.chat.queued, e.chat.currentTurnID)
		e.completeTurn(queued)
	}
}

// RemovePlayer pulls a leaver or kick target out of the live match:
// their vote and clue state is cancelled immediately. They stay in
// PlayerOrder for history. Returns whether the remaining votes now
// cover every active player, in which case the caller must resolve.
func (e *Engine) RemovePlayer(id string) (resolved bool) {
	if !e.isActive(id) {
		return false
	}
	e.Active = slices.DeleteFunc(e.Active, func(p string) bool { return p == id })
	delete(e.votes, id)
	for voter, target := range e.votes {
		if target == id {
			delete(e.votes, voter)
		}
	}
	e.Generation++

	if e.chat != nil && !e.chat.done {
		delete(e.chat.queued, id)
		if e.chat.currentTurnID == id {
			// Their open turn closes with no clue.
			e.chat.turnIdx--
			e.completeTurn("")
		} else if i := slices.Index(e.Active, e.chat.currentTurnID); i >= 0 {
			e.chat.turnIdx = i
		}
	}
	return e.VotingOpen() && len(e.Active) > 0 && len(e.votes) == len(e.Active)
}

// CurrentTurn returns the player whose clue turn is open, if any.
func (e *Engine) CurrentTurn() (string, bool) {
	if e.Phase != model.PhaseClueRound || e.chat == nil || e.chat.done || e.chat.currentTurnID == "" {
		return "", false
	}
	return e.chat.currentTurnID, true
}

// View composes the slice of match state the given recipient may see.
// Roles and the secret stay hidden until the match resolves. showHint
// puts the category on the impostor card.
func (e *Engine) View(playerID string, showHint bool) *model.MatchView {
	v := &model.MatchView{
		MatchID:      e.MatchID,
		CurrentRound: e.CurrentRound,
		PlayerOrder:  slices.Clone(e.PlayerOrder),
		Active:       slices.Clone(e.Active),
		Eliminated:   slices.Clone(e.Eliminated),
		CanVote:      e.VotingOpen() && e.isActive(playerID),
		Voted:        e.Votes(),
	}
	if t, ok := e.votes[playerID]; ok {
		v.MyVote = t
		v.HasVoted = true
	}

	if playerID == e.ImpostorID {
		v.YouAreImpostor = true
		// The impostor card never carries the word.
		if showHint {
			v.SecretCategory = e.SecretCategory
		}
	} else {
		v.SecretWord = e.SecretWord
		v.SecretCategory = e.SecretCategory
	}

	if e.Mode == model.ModeChat && e.chat != nil {
		v.Chat = &model.ChatView{
			CurrentTurnID: e.chat.currentTurnID,
			TurnStartedAt: e.chat.turnStartedAt,
			TimeoutMs:     int(e.cfg.ClueTimeout.Milliseconds()),
			Revealed:      slices.Clone(e.chat.revealed),
			MySubmitted:   e.chat.submitted[playerID],
		}
		submitted := make([]string, 0, len(e.chat.submitted))
		for id, ok := range e.chat.submitted {
			if ok {
				submitted = append(submitted, id)
			}
		}
		slices.Sort(submitted)
		v.Chat.Submitted = submitted
	}

	if e.Phase == model.PhaseRoundResult || e.Phase == model.PhaseGameOver {
		v.Outcome = e.Outcome
		v.ImpostorID = e.ImpostorID
		v.EliminatedID = e.EliminatedID
		v.ImpostorWon = e.ImpostorWon
		v.GameOver = e.GameOver
	}
	return v
}
