package game

import (
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"impostorparty/internal/model"

	"github.com/rs/zerolog/log"
)

// Room is the aggregate for one lobby of players across successive
// matches. All commands against a room are serialized by its mutex, so
// every broadcast reflects exactly one consistent transition.
type Room struct {
	mu sync.Mutex

	code      string
	hostID    string
	createdAt time.Time

	members     []model.PlayerIdentity // join order, drives host migration
	lateJoiner  map[string]bool
	unreachable map[string]bool
	kicked      map[string]bool // non-rejoinable for this room instance
	scores      map[string]int  // cumulative across matches
	former      map[string]model.FormerPlayer

	options model.RoomOptions
	engine  *Engine

	needsMigration bool
	lastStarterID  string
	closed         bool

	destroyTimer *time.Timer
	turnTimer    *time.Timer
	captureTimer *time.Timer

	cfg   Config
	bank  *WordBank
	rng   *rand.Rand
	bc    Broadcaster
	store RoomStore
	reg   *Registry
}

func newRoom(code string, host model.PlayerIdentity, opts model.RoomOptions, reg *Registry) *Room {
	r := &Room{
		code:          code,
		hostID:        host.ID,
		createdAt:     time.Now(),
		members:       []model.PlayerIdentity{host},
		lateJoiner:    make(map[string]bool),
		unreachable:   make(map[string]bool),
		kicked:        make(map[string]bool),
		scores:        map[string]int{host.ID: 0},
		former:        make(map[string]model.FormerPlayer),
		options:       opts,
		lastStarterID: host.ID,
		cfg:           reg.cfg,
		bank:          reg.bank,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		bc:            reg.bc,
		store:         reg.store,
		reg:           reg,
	}
	return r
}

// restoreRoom rebuilds a room from its persisted record after a
// restart. Members rejoin through the normal path; records written
// under an older schema are only usable after the host confirms
// migration.
func restoreRoom(rec *model.RoomRecord, reg *Registry) *Room {
	r := &Room{
		code:          rec.Code,
		hostID:        rec.HostID,
		createdAt:     rec.CreatedAt,
		lateJoiner:    make(map[string]bool),
		unreachable:   make(map[string]bool),
		kicked:        make(map[string]bool),
		scores:        make(map[string]int),
		former:        make(map[string]model.FormerPlayer),
		options:       rec.Options,
		lastStarterID: rec.HostID,
		cfg:           reg.cfg,
		bank:          reg.bank,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		bc:            reg.bc,
		store:         reg.store,
		reg:           reg,
	}
	if rec.SchemaVersion < model.CurrentSchemaVersion {
		r.needsMigration = true
	} else {
		for id, s := range rec.Scores {
			r.scores[id] = s
		}
		for id, f := range rec.FormerPlayers {
			r.former[id] = f
		}
	}
	r.scheduleDestroyLocked()
	return r
}

func (r *Room) Code() string { return r.code }

// HostID returns the current host under the room lock.
func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID
}

func (r *Room) memberIdx(id string) int {
	return slices.IndexFunc(r.members, func(m model.PlayerIdentity) bool { return m.ID == id })
}

func (r *Room) isMember(id string) bool { return r.memberIdx(id) >= 0 }

func (r *Room) matchLive() bool {
	return r.engine != nil &&
		(r.engine.Phase == model.PhasePlaying || r.engine.Phase == model.PhaseClueRound)
}

// Join adds a player, or re-attaches them if they are already a
// member. Joining while a match runs makes them a late joiner who
// spectates until the next match.
func (r *Room) Join(identity model.PlayerIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrNotFound
	}
	if r.kicked[identity.ID] {
		return ErrKicked
	}
	if r.isMember(identity.ID) {
		r.reattachLocked(identity.ID)
		return nil
	}
	if len(r.members) >= r.cfg.MaxPlayers {
		return fmt.Errorf("%w: room is full", ErrCapacity)
	}

	r.members = append(r.members, identity)
	if _, ok := r.scores[identity.ID]; !ok {
		r.scores[identity.ID] = 0
	}
	// A returning former player picks their score back up.
	delete(r.former, identity.ID)
	if r.matchLive() {
		r.lateJoiner[identity.ID] = true
	}
	r.cancelDestroyLocked()
	r.reg.indexAdd(identity.ID, r.code)

	log.Info().Str("room", r.code).Str("player", identity.ID).Msg("player joined")
	r.broadcastStateLocked()
	r.persistLocked()
	return nil
}

// Reattach resumes an existing membership after a reconnect: voting
// state, turn position, and scores are untouched, and the current
// snapshot is replayed.
func (r *Room) Reattach(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.isMember(playerID) {
		return ErrNotFound
	}
	r.reattachLocked(playerID)
	return nil
}

func (r *Room) reattachLocked(playerID string) {
	wasUnreachable := r.unreachable[playerID]
	delete(r.unreachable, playerID)
	r.cancelDestroyLocked()
	if wasUnreachable {
		// Everyone sees the reachability change.
		r.broadcastStateLocked()
	} else {
		r.bc.ToPlayer(r.code, playerID, EvGameState, r.snapshotForLocked(playerID))
	}
}

// Leave removes a player from the room. A leaving host hands the room
// to the next member in join order; the last member out starts the
// destruction grace window.
func (r *Room) Leave(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.isMember(playerID) {
		return ErrNotFound
	}
	r.removeMemberLocked(playerID)
	return nil
}

// LeaveMatch pulls a player out of the running match while keeping
// their room membership.
func (r *Room) LeaveMatch(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.isMember(playerID) {
		return ErrNotFound
	}
	if !r.matchLive() {
		return fmt.Errorf("%w: no match in progress", ErrInvalidState)
	}
	r.removeFromMatchLocked(playerID)
	r.broadcastStateLocked()
	return nil
}

// Kick removes a player at the host's request and bars them from
// rejoining this room instance.
func (r *Room) Kick(requesterID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrNotFound
	}
	if requesterID != r.hostID {
		return fmt.Errorf("%w: only the host can kick", ErrUnauthorized)
	}
	if targetID == r.hostID {
		return fmt.Errorf("%w: the host cannot be kicked", ErrInvalidState)
	}
	if !r.isMember(targetID) {
		return fmt.Errorf("%w: no such member", ErrNotFound)
	}

	r.kicked[targetID] = true
	r.bc.ToPlayer(r.code, targetID, EvKicked, model.KickedNotice{Reason: "removed by the host"})
	name := r.memberName(targetID)
	r.removeMemberLocked(targetID)
	r.bc.ToRoom(r.code, EvToast, model.Notice{Text: name + " was removed from the room"})
	return nil
}

func (r *Room) memberName(id string) string {
	if i := r.memberIdx(id); i >= 0 {
		return r.members[i].Name
	}
	if f, ok := r.former[id]; ok {
		return f.Name
	}
	return id
}

// removeMemberLocked handles the shared leave/kick path.
func (r *Room) removeMemberLocked(playerID string) {
	r.removeFromMatchLocked(playerID)

	idx := r.memberIdx(playerID)
	if idx < 0 {
		return
	}
	r.members = slices.Delete(r.members, idx, idx+1)
	delete(r.lateJoiner, playerID)
	delete(r.unreachable, playerID)
	r.reg.indexRemove(playerID, r.code)

	if playerID == r.hostID && len(r.members) > 0 {
		r.hostID = r.members[0].ID
		log.Info().Str("room", r.code).Str("host", r.hostID).Msg("host migrated")
		r.bc.ToRoom(r.code, EvToast, model.Notice{Text: r.memberName(r.hostID) + " is now the host"})
	}

	if len(r.members) == 0 {
		r.scheduleDestroyLocked()
	}
	r.broadcastStateLocked()
	r.persistLocked()
}

// removeFromMatchLocked cancels a departing player's live match state.
// An impostor walking out ends the match in the friends' favor.
func (r *Room) removeFromMatchLocked(playerID string) {
	if !r.matchLive() {
		return
	}
	if playerID == r.engine.ImpostorID {
		res := r.engine.endAsImpostorCaught(playerID)
		r.afterResolutionLocked(res)
		return
	}
	resolved := r.engine.RemovePlayer(playerID)
	if len(r.engine.Active) < 2 {
		// Not enough players left to vote anyone out.
		r.cancelTurnTimerLocked()
		r.engine = nil
		return
	}
	if resolved {
		r.afterResolutionLocked(r.engine.ResolveRound())
		return
	}
	r.scheduleTurnTimerLocked()
}

// UpdateOptions merges host-supplied options. Only allowed while no
// match is in progress.
func (r *Room) UpdateOptions(requesterID string, opts model.RoomOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrNotFound
	}
	if requesterID != r.hostID {
		return fmt.Errorf("%w: only the host can change options", ErrUnauthorized)
	}
	if r.matchLive() {
		return fmt.Errorf("%w: options are locked during a match", ErrInvalidState)
	}

	if opts.GameMode != "" {
		r.options.GameMode = opts.GameMode
	}
	if opts.Language != "" {
		r.options.Language = opts.Language
	}
	r.options.ShowImpostorHint = opts.ShowImpostorHint

	r.broadcastStateLocked()
	r.persistLocked()
	return nil
}

// StartMatch deals a new match. Host only, lobby only, and at least
// the minimum player count must be reachable.
func (r *Room) StartMatch(requesterID string, opts *model.RoomOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrNotFound
	}
	if requesterID != r.hostID {
		return fmt.Errorf("%w: only the host can start a match", ErrUnauthorized)
	}
	if r.needsMigration {
		return fmt.Errorf("%w: room requires migration first", ErrInvalidState)
	}
	if r.engine != nil {
		return fmt.Errorf("%w: a match already exists", ErrInvalidState)
	}
	if opts != nil {
		if opts.GameMode != "" {
			r.options.GameMode = opts.GameMode
		}
		if opts.Language != "" {
			r.options.Language = opts.Language
		}
		r.options.ShowImpostorHint = opts.ShowImpostorHint
	}
	return r.dealMatchLocked()
}

// NextRound starts the next match of the series from round_result.
func (r *Room) NextRound(requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrNotFound
	}
	if requesterID != r.hostID {
		return fmt.Errorf("%w: only the host can continue", ErrUnauthorized)
	}
	if r.engine == nil || r.engine.Phase != model.PhaseRoundResult {
		return fmt.Errorf("%w: no round result to continue from", ErrInvalidState)
	}
	r.engine = nil
	return r.dealMatchLocked()
}

// PlayAgain resets the series from game_over back to the lobby. The
// score reset here is the explicit one: a fresh race to the threshold.
func (r *Room) PlayAgain(requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrNotFound
	}
	if requesterID != r.hostID {
		return fmt.Errorf("%w: only the host can restart", ErrUnauthorized)
	}
	if r.engine == nil || r.engine.Phase != model.PhaseGameOver {
		return fmt.Errorf("%w: the game is not over", ErrInvalidState)
	}

	r.engine = nil
	r.scores = make(map[string]int)
	for _, m := range r.members {
		r.scores[m.ID] = 0
	}
	r.former = make(map[string]model.FormerPlayer)
	clear(r.lateJoiner)

	r.broadcastStateLocked()
	r.persistLocked()
	return nil
}

// ReturnToLobby aborts the current match without scoring.
func (r *Room) ReturnToLobby(requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrNotFound
	}
	if requesterID != r.hostID {
		return fmt.Errorf("%w: only the host can return the room to the lobby", ErrUnauthorized)
	}
	if r.engine == nil {
		return fmt.Errorf("%w: already in the lobby", ErrInvalidState)
	}

	r.cancelTurnTimerLocked()
	r.engine = nil
	clear(r.lateJoiner)
	r.broadcastStateLocked()
	return nil
}

func (r *Room) dealMatchLocked() error {
	eligible := make([]string, 0, len(r.members))
	for _, m := range r.members {
		if !r.unreachable[m.ID] {
			eligible = append(eligible, m.ID)
		}
	}
	if len(eligible) < r.cfg.MinPlayers {
		return fmt.Errorf("%w: need %d reachable players", ErrCapacity, r.cfg.MinPlayers)
	}

	// Rotate the starter: the player right after the previous starter
	// (the host, for the first match).
	startIdx := 0
	if i := slices.Index(eligible, r.lastStarterID); i >= 0 {
		startIdx = (i + 1) % len(eligible)
	}

	engine, err := NewEngine(eligible, startIdx, r.options, r.bank, r.cfg, r.rng)
	if err != nil {
		return err
	}
	r.engine = engine
	r.lastStarterID = engine.PlayerOrder[0]
	clear(r.lateJoiner)

	log.Info().Str("room", r.code).Str("match", engine.MatchID).
		Str("mode", string(r.options.GameMode)).Int("players", len(eligible)).Msg("match started")

	r.scheduleTurnTimerLocked()
	r.broadcastStateLocked()
	return nil
}

// CastVote records a player's vote (empty target retracts). Repeating
// an identical vote is a no-op with no broadcast. A non-empty matchID
// must name the current match, so a vote delayed on the wire cannot
// land in a later one.
func (r *Room) CastVote(voterID, matchID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.isMember(voterID) {
		return ErrNotFound
	}
	if r.engine == nil {
		return fmt.Errorf("%w: no match in progress", ErrInvalidState)
	}
	if matchID != "" && matchID != r.engine.MatchID {
		return fmt.Errorf("%w: match is no longer current", ErrNotFound)
	}

	resolved, changed, err := r.engine.CastVote(voterID, targetID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if resolved {
		r.afterResolutionLocked(r.engine.ResolveRound())
		return nil
	}
	r.broadcastVoteUpdateLocked()
	return nil
}

// SubmitClue records a chat-mode clue for the submitting player.
func (r *Room) SubmitClue(playerID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.isMember(playerID) {
		return ErrNotFound
	}
	if r.engine == nil {
		return fmt.Errorf("%w: no match in progress", ErrInvalidState)
	}
	if err := r.engine.SubmitClue(playerID, text); err != nil {
		return err
	}
	r.scheduleTurnTimerLocked()
	r.broadcastStateLocked()
	return nil
}

// ConfirmMigration rebuilds a legacy room in place: configuration and
// membership carry over, old match and score state is discarded.
func (r *Room) ConfirmMigration(requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrNotFound
	}
	if requesterID != r.hostID {
		return fmt.Errorf("%w: only the host can migrate the room", ErrUnauthorized)
	}
	if !r.needsMigration {
		return fmt.Errorf("%w: room does not need migration", ErrInvalidState)
	}

	r.needsMigration = false
	r.engine = nil
	r.scores = make(map[string]int)
	for _, m := range r.members {
		r.scores[m.ID] = 0
	}
	r.former = make(map[string]model.FormerPlayer)
	clear(r.lateJoiner)
	clear(r.kicked)

	log.Info().Str("room", r.code).Msg("room migrated to current schema")
	r.broadcastStateLocked()
	r.persistLocked()
	return nil
}

// MarkUnreachable flags a disconnected member without touching their
// match state; their votes and clues stand, and they resume in place
// if they reconnect. With no match running, a capture timer eventually
// moves them to the former-player roster.
func (r *Room) MarkUnreachable(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.isMember(playerID) {
		return
	}
	r.unreachable[playerID] = true
	if !r.matchLive() {
		r.scheduleCaptureLocked()
	}
	r.broadcastStateLocked()
}

// afterResolutionLocked applies the side effects of a voting round
// resolution: scoring, former-player capture, threshold detection.
func (r *Room) afterResolutionLocked(res *RoundResolution) {
	if res == nil {
		return
	}
	switch {
	case res.MatchEnded:
		r.cancelTurnTimerLocked()
		for id, d := range res.ScoreDeltas {
			r.scores[id] += d
		}
		r.captureFormerLocked()
		if winner, over := r.thresholdLocked(); over {
			r.engine.MarkGameOver(winner)
		}
		r.persistLocked()
	case res.Outcome == model.OutcomeTie:
		r.bc.ToRoom(r.code, EvToast, model.Notice{Text: "The vote tied, the round replays"})
	default:
		// Friend eliminated, next round begins.
		r.scheduleTurnTimerLocked()
	}
	r.broadcastStateLocked()
}

// captureFormerLocked is the scoring checkpoint at which members who
// disconnected and never came back stop blocking the roster.
func (r *Room) captureFormerLocked() {
	for id := range r.unreachable {
		r.removeToFormerLocked(id)
	}
}

func (r *Room) removeToFormerLocked(id string) {
	idx := r.memberIdx(id)
	if idx < 0 {
		return
	}
	identity := r.members[idx]
	r.members = slices.Delete(r.members, idx, idx+1)
	delete(r.lateJoiner, id)
	delete(r.unreachable, id)
	r.former[id] = model.FormerPlayer{
		Name:      identity.Name,
		AvatarURL: identity.AvatarURL,
		LeftAt:    time.Now(),
	}
	r.reg.indexRemove(id, r.code)

	if id == r.hostID && len(r.members) > 0 {
		r.hostID = r.members[0].ID
		r.bc.ToRoom(r.code, EvToast, model.Notice{Text: r.memberName(r.hostID) + " is now the host"})
	}
	if len(r.members) == 0 {
		r.scheduleDestroyLocked()
	}
}

func (r *Room) thresholdLocked() (model.GameOverResult, bool) {
	max := 0
	for _, s := range r.scores {
		if s > max {
			max = s
		}
	}
	if max < r.cfg.ScoreThreshold {
		return model.GameOverResult{}, false
	}
	var leaders []string
	for id, s := range r.scores {
		if s == max {
			leaders = append(leaders, id)
		}
	}
	slices.Sort(leaders)
	switch len(leaders) {
	case 1:
		return model.GameOverResult{WinnerID: leaders[0]}, true
	case 2:
		return model.GameOverResult{TiedIDs: leaders}, true
	default:
		return model.GameOverResult{TiedIDs: leaders, NoWinner: true}, true
	}
}

// Snapshot returns the state view for one recipient.
func (r *Room) Snapshot(playerID string) *model.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotForLocked(playerID)
}

func (r *Room) snapshotForLocked(playerID string) *model.GameState {
	s := &model.GameState{
		RoomCode:       r.code,
		HostID:         r.hostID,
		Options:        r.options,
		Phase:          model.PhaseLobby,
		NeedsMigration: r.needsMigration,
	}
	for _, m := range r.members {
		s.Roster = append(s.Roster, model.RosterEntry{
			ID:           m.ID,
			Name:         m.Name,
			AvatarURL:    m.AvatarURL,
			IsHost:       m.ID == r.hostID,
			IsLateJoiner: r.lateJoiner[m.ID],
			Unreachable:  r.unreachable[m.ID],
			Score:        r.scores[m.ID],
		})
	}
	formerIDs := make([]string, 0, len(r.former))
	for id := range r.former {
		formerIDs = append(formerIDs, id)
	}
	slices.Sort(formerIDs)
	for _, id := range formerIDs {
		f := r.former[id]
		s.Former = append(s.Former, model.RosterEntry{
			ID:          id,
			Name:        f.Name,
			AvatarURL:   f.AvatarURL,
			Unreachable: true,
			Score:       r.scores[id],
		})
	}
	if r.engine != nil {
		s.Phase = r.engine.Phase
		s.Match = r.engine.View(playerID, r.options.ShowImpostorHint)
	}
	return s
}

func (r *Room) broadcastStateLocked() {
	for _, m := range r.members {
		r.bc.ToPlayer(r.code, m.ID, EvGameState, r.snapshotForLocked(m.ID))
	}
}

func (r *Room) broadcastVoteUpdateLocked() {
	if r.engine == nil {
		return
	}
	voted := r.engine.Votes()
	active := slices.Clone(r.engine.Active)
	for _, m := range r.members {
		u := model.VoteUpdate{Voted: voted, Active: active}
		if t, ok := r.engine.VoteOf(m.ID); ok {
			u.MyVote = t
			u.HasVoted = true
		}
		r.bc.ToPlayer(r.code, m.ID, EvVoteUpdate, u)
	}
}

func (r *Room) scheduleTurnTimerLocked() {
	r.cancelTurnTimerLocked()
	if r.engine == nil {
		return
	}
	if _, ok := r.engine.CurrentTurn(); !ok {
		return
	}
	gen := r.engine.Generation
	r.turnTimer = time.AfterFunc(r.cfg.ClueTimeout, func() { r.handleTurnTimeout(gen) })
}

func (r *Room) cancelTurnTimerLocked() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
}

func (r *Room) handleTurnTimeout(gen int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.engine == nil {
		return
	}
	if !r.engine.TimeOutTurn(gen) {
		return // stale timer, the match already moved on
	}
	log.Debug().Str("room", r.code).Int64("gen", gen).Msg("clue turn timed out")
	r.scheduleTurnTimerLocked()
	r.broadcastStateLocked()
}

func (r *Room) scheduleDestroyLocked() {
	if r.destroyTimer != nil {
		return
	}
	r.destroyTimer = time.AfterFunc(r.cfg.RoomGrace, func() {
		r.mu.Lock()
		empty := len(r.members) == 0 && !r.closed
		r.mu.Unlock()
		if empty {
			r.reg.Destroy(r.code)
		}
	})
}

func (r *Room) cancelDestroyLocked() {
	if r.destroyTimer != nil {
		r.destroyTimer.Stop()
		r.destroyTimer = nil
	}
}

func (r *Room) scheduleCaptureLocked() {
	if r.captureTimer != nil {
		return
	}
	r.captureTimer = time.AfterFunc(2*r.cfg.RoomGrace, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.captureTimer = nil
		if r.closed || r.matchLive() {
			return
		}
		if len(r.unreachable) == 0 {
			return
		}
		r.captureFormerLocked()
		r.broadcastStateLocked()
		r.persistLocked()
	})
}

// close tears the room down: every pending timer dies with it, so no
// stale callback can resurrect a destroyed room.
func (r *Room) close() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cancelTurnTimerLocked()
	r.cancelDestroyLocked()
	if r.captureTimer != nil {
		r.captureTimer.Stop()
		r.captureTimer = nil
	}
	r.engine = nil
	ids := make([]string, 0, len(r.members))
	for _, m := range r.members {
		ids = append(ids, m.ID)
	}
	r.members = nil
	return ids
}

// persistFresh writes the initial record for a newly created room.
func (r *Room) persistFresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persistLocked()
}

func (r *Room) persistLocked() {
	rec := &model.RoomRecord{
		Code:          r.code,
		HostID:        r.hostID,
		Options:       r.options,
		Scores:        make(map[string]int, len(r.scores)),
		FormerPlayers: make(map[string]model.FormerPlayer, len(r.former)),
		SchemaVersion: model.CurrentSchemaVersion,
		CreatedAt:     r.createdAt,
		UpdatedAt:     time.Now(),
	}
	for id, s := range r.scores {
		rec.Scores[id] = s
	}
	for id, f := range r.former {
		rec.FormerPlayers[id] = f
	}
	go saveWithRetry(r.store, rec)
}
