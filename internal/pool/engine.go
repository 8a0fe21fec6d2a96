package pool

import (
	"math/rand"
	"strconv"
	"time"
)

// shuffleIDs is a package-level indirection over math/rand.Shuffle so tests
// can substitute a deterministic order; production code leaves it as-is.
var shuffleIDs = func(ids []string) {
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}

// now is a package-level indirection over time.Now so tests can freeze the
// clock for date-gated operations.
var now = time.Now

func (p *Pool) validateStatus(expected PoolState) *Error {
	if p.Status != expected {
		return errInvalidState(expected, p.Status)
	}
	return nil
}

// rosterList returns the chosen_* slice matching a position.
func rosterList(r *PoolerRoster, pos Position) []uint32 {
	switch pos {
	case PositionF:
		return r.ChosenForwards
	case PositionD:
		return r.ChosenDefenders
	default:
		return r.ChosenGoalies
	}
}

func setRosterList(r *PoolerRoster, pos Position, list []uint32) {
	switch pos {
	case PositionF:
		r.ChosenForwards = list
	case PositionD:
		r.ChosenDefenders = list
	default:
		r.ChosenGoalies = list
	}
}

func maxForPosition(s PoolSettings, pos Position) int {
	switch pos {
	case PositionF:
		return s.NumberForwards
	case PositionD:
		return s.NumberDefenders
	default:
		return s.NumberGoalies
	}
}

// calculateCumulatedSalaryCap sums the salary of every starter (forwards,
// defenders, goalies — never reservists) currently on roster.
func calculateCumulatedSalaryCap(roster *PoolerRoster, ctx *PoolContext) float64 {
	var total float64
	for _, id := range append(append(append([]uint32{}, roster.ChosenForwards...), roster.ChosenDefenders...), roster.ChosenGoalies...) {
		if pl, ok := ctx.Players[playerKey(id)]; ok && pl.SalaryCap != nil {
			total += *pl.SalaryCap
		}
	}
	return total
}

func playerKey(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}

// canAddPlayerToRoster reports whether player can join roster as a starter
// given the pool's salary cap (if any). A player without a salary value can
// never be added as a starter when a cap is configured.
func canAddPlayerToRoster(player Player, roster *PoolerRoster, ctx *PoolContext, settings PoolSettings) bool {
	if settings.SalaryCap == nil {
		return true
	}
	if player.SalaryCap == nil {
		return false
	}
	cumulated := calculateCumulatedSalaryCap(roster, ctx)
	return cumulated+*player.SalaryCap <= *settings.SalaryCap
}

// addDraftedPlayer places player onto drafter's roster (starter slot if
// room and cap allow, reservists otherwise), records it in ctx.Players and
// the draft log.
func addDraftedPlayer(ctx *PoolContext, player Player, drafterID string, settings PoolSettings) {
	roster := ctx.PoolerRoster[drafterID]
	placed := false
	if canAddPlayerToRoster(player, roster, ctx, settings) {
		list := rosterList(roster, player.Position)
		if len(list) < maxForPosition(settings, player.Position) {
			setRosterList(roster, player.Position, append(list, player.ID))
			placed = true
		}
	}
	if !placed {
		roster.ChosenReservists = append(roster.ChosenReservists, player.ID)
	}
	ctx.Players[playerKey(player.ID)] = player
	ctx.PlayersNameDrafted = append(ctx.PlayersNameDrafted, player.ID)
}

func rosterFullCapacity(settings PoolSettings) int {
	return settings.NumberForwards + settings.NumberDefenders + settings.NumberGoalies + settings.NumberReservists
}

// isDraftDone reports whether every participant's roster has reached full
// capacity. When it transitions to true for the first time, it also
// materializes a fresh identity-mapped tradable_picks matrix (matching the
// reference's is_draft_done side effect), sized from dynasty_settings if
// present.
func isDraftDone(ctx *PoolContext, settings PoolSettings, participants []string) bool {
	capacity := rosterFullCapacity(settings)
	for _, id := range participants {
		if ctx.PoolerRoster[id].TotalCount() < capacity {
			return false
		}
	}
	if settings.DynastySettings != nil {
		picks := make([]map[string]string, settings.DynastySettings.TradablePicks)
		for r := range picks {
			m := make(map[string]string, len(participants))
			for _, id := range participants {
				m[id] = id
			}
			picks[r] = m
		}
		ctx.TradablePicks = picks
	}
	return true
}

// serpentineIndex is the non-dynasty turn formula: order reverses every
// odd round.
func serpentineIndex(n, numDrafters int) int {
	round := n / numDrafters
	if round%2 == 1 {
		return numDrafters - 1 - (n % numDrafters)
	}
	return n % numDrafters
}

// reverseIndex is the dynasty turn formula: always the reverse order,
// independent of round parity.
func reverseIndex(n, numDrafters int) int {
	return numDrafters - 1 - (n % numDrafters)
}

// StartDraft shuffles the room's participants, freezes them onto the pool,
// and initializes the draft context.
func (p *Pool) StartDraft(actor string, roomUsers []RoomUser) *Error {
	if err := p.validateStatus(StateCreated); err != nil {
		return err
	}
	if !p.HasOwnerRights(actor) {
		return errNotAuthorized("only the owner can start the draft")
	}
	if len(roomUsers) != p.Settings.NumberPoolers {
		return errInvariant("expected %d participants, got %d", p.Settings.NumberPoolers, len(roomUsers))
	}

	shuffled := make([]RoomUser, len(roomUsers))
	copy(shuffled, roomUsers)
	ids := make([]string, len(shuffled))
	for i, u := range shuffled {
		ids[i] = u.ID
	}
	shuffleIDs(ids)
	byID := make(map[string]RoomUser, len(shuffled))
	for _, u := range shuffled {
		byID[u.ID] = u
	}
	orderedUsers := make([]RoomUser, len(ids))
	for i, id := range ids {
		orderedUsers[i] = byID[id]
	}

	participants := make([]PoolUser, len(orderedUsers))
	for i, u := range orderedUsers {
		participants[i] = PoolUserFromRoomUser(u)
	}

	p.Context = NewPoolContext(ids)
	p.Participants = participants
	p.DraftOrder = ids
	p.Status = StateDraft
	return nil
}

// DraftPlayer resolves the current turn, validates it, and places player
// onto the expected drafter's roster.
func (p *Pool) DraftPlayer(actor string, player Player) *Error {
	if err := p.validateStatus(StateDraft); err != nil {
		return err
	}
	if p.Context == nil || p.DraftOrder == nil {
		return errInvariant("draft has not been initialized")
	}
	for _, roster := range p.Context.PoolerRoster {
		if roster.ValidatePlayerPossession(player.ID) {
			return errInvariant("player %d is already owned", player.ID)
		}
	}

	draftedBefore := p.Context.PlayersNameDrafted
	var drafter string
	var err *Error
	if p.isDynastyDraft() {
		drafter, err = p.findDynastyNextDrafter()
	} else {
		n := len(p.Context.PlayersNameDrafted)
		idx := serpentineIndex(n, len(p.DraftOrder))
		drafter = p.DraftOrder[idx]
	}
	if err != nil {
		p.Context.PlayersNameDrafted = draftedBefore
		return err
	}

	if actor != drafter && !p.HasOwnerRights(actor) {
		p.Context.PlayersNameDrafted = draftedBefore
		return errNotYourTurn(drafter)
	}

	addDraftedPlayer(p.Context, player, drafter, p.Settings)

	if isDraftDone(p.Context, p.Settings, p.DraftOrder) {
		p.Status = StateInProgress
	}
	return nil
}

// isDynastyDraft reports whether the current draft must use the dynasty
// (always-reverse, past_tradable_picks-remapped) turn formula rather than
// the plain serpentine one. draft_player and undo_draft_player must agree
// on this discriminant exactly, or undo resolves a different drafter than
// draft assigned and corrupts roster state.
func (p *Pool) isDynastyDraft() bool {
	return p.Settings.DynastySettings != nil && p.Context.PastTradablePicks != nil
}

// findDynastyNextDrafter resolves the dynasty turn using the always-reverse
// formula, remapping through past_tradable_picks and skipping full rosters.
func (p *Pool) findDynastyNextDrafter() (string, *Error) {
	numDrafters := len(p.DraftOrder)
	capacity := rosterFullCapacity(p.Settings)
	continueCount := 0

	for {
		if continueCount >= numDrafters {
			return "", newErr(KindInvariantViolated, "All poolers have the maximum amount player drafted.")
		}
		n := len(p.Context.PlayersNameDrafted)
		idx := reverseIndex(n, numDrafters)
		drafter := p.DraftOrder[idx]

		past := p.Context.PastTradablePicks
		if len(past) > 0 && n < len(past)*numDrafters {
			round := n / numDrafters
			if mapped, ok := past[round][drafter]; ok {
				drafter = mapped
			}
		}

		if p.Context.PoolerRoster[drafter].TotalCount() >= capacity {
			p.Context.PlayersNameDrafted = append(p.Context.PlayersNameDrafted, 0)
			continueCount++
			continue
		}
		return drafter, nil
	}
}

// UndoDraftPlayer pops the most recent real pick (discarding skip
// sentinels), recomputes who drafted it, and removes it from their roster.
func (p *Pool) UndoDraftPlayer(actor string) *Error {
	if err := p.validateStatus(StateDraft); err != nil {
		return err
	}
	if !p.HasOwnerRights(actor) {
		return errNotAuthorized("only the owner can undo a pick")
	}
	if p.Context == nil {
		return errInvariant("draft has not been initialized")
	}

	draftedBefore := p.Context.PlayersNameDrafted
	var latestPickID uint32
	found := false
	for !found {
		if len(p.Context.PlayersNameDrafted) == 0 {
			p.Context.PlayersNameDrafted = draftedBefore
			return newErr(KindInvariantViolated, "There is nothing to undo yet.")
		}
		last := len(p.Context.PlayersNameDrafted) - 1
		latestPickID = p.Context.PlayersNameDrafted[last]
		p.Context.PlayersNameDrafted = p.Context.PlayersNameDrafted[:last]
		if latestPickID != 0 {
			found = true
		}
	}

	numDrafters := len(p.DraftOrder)
	pickNumber := len(p.Context.PlayersNameDrafted)

	var latestDrafter string
	if p.isDynastyDraft() {
		idx := reverseIndex(pickNumber, numDrafters)
		latestDrafter = p.DraftOrder[idx]
		past := p.Context.PastTradablePicks
		if pickNumber < len(past)*numDrafters {
			round := pickNumber / numDrafters
			if mapped, ok := past[round][latestDrafter]; ok {
				latestDrafter = mapped
			}
		}
	} else {
		idx := serpentineIndex(pickNumber, numDrafters)
		latestDrafter = p.DraftOrder[idx]
	}

	roster := p.Context.PoolerRoster[latestDrafter]
	if !roster.RemoveForward(latestPickID) {
		if !roster.RemoveDefender(latestPickID) {
			if !roster.RemoveGoalie(latestPickID) {
				roster.RemoveReservist(latestPickID)
			}
		}
	}
	delete(p.Context.Players, playerKey(latestPickID))
	return nil
}

// FillSpot promotes a reservist into the matching starter slot.
func (p *Pool) FillSpot(actor, target string, playerID uint32) *Error {
	if err := p.validateStatus(StateInProgress); err != nil {
		return err
	}
	if !p.IsParticipant(target) {
		return errNotFound("participant")
	}
	if actor != target && !p.HasPrivileges(actor) {
		return errNotAuthorized("actor may not modify this participant's roster")
	}
	player, ok := p.Context.Players[playerKey(playerID)]
	if !ok {
		return errNotFound("player")
	}
	roster := p.Context.PoolerRoster[target]
	inReservists := false
	for _, id := range roster.ChosenReservists {
		if id == playerID {
			inReservists = true
			break
		}
	}
	if !inReservists {
		return errInvariant("player %d is not a reservist for %s", playerID, target)
	}
	if roster.ValidatePlayerPossessionStarterOnly(playerID) {
		return errInvariant("player %d is already a starter", playerID)
	}
	if !canAddPlayerToRoster(player, roster, p.Context, p.Settings) {
		return errInvariant("salary cap does not permit promoting player %d", playerID)
	}
	list := rosterList(roster, player.Position)
	if len(list) >= maxForPosition(p.Settings, player.Position) {
		return errInvariant("no space for that player")
	}
	roster.RemoveReservist(playerID)
	setRosterList(roster, player.Position, append(list, playerID))
	return nil
}

// ValidatePlayerPossessionStarterOnly reports whether playerID is in one of
// the three starter lists (excludes reservists).
func (r *PoolerRoster) ValidatePlayerPossessionStarterOnly(playerID uint32) bool {
	for _, id := range r.ChosenForwards {
		if id == playerID {
			return true
		}
	}
	for _, id := range r.ChosenDefenders {
		if id == playerID {
			return true
		}
	}
	for _, id := range r.ChosenGoalies {
		if id == playerID {
			return true
		}
	}
	return false
}

// AddPlayer is an admin operation that grants target a new reservist.
func (p *Pool) AddPlayer(actor, target string, player Player) *Error {
	if err := p.validateStatus(StateInProgress); err != nil {
		return err
	}
	if !p.HasPrivileges(actor) {
		return errNotAuthorized("admin rights required")
	}
	for _, roster := range p.Context.PoolerRoster {
		if roster.ValidatePlayerPossession(player.ID) {
			return errInvariant("player %d is already owned", player.ID)
		}
	}
	roster, ok := p.Context.PoolerRoster[target]
	if !ok {
		return errNotFound("participant")
	}
	roster.ChosenReservists = append(roster.ChosenReservists, player.ID)
	p.Context.Players[playerKey(player.ID)] = player
	return nil
}

// RemovePlayer is an admin operation that strips playerID from target's
// roster.
func (p *Pool) RemovePlayer(actor, target string, playerID uint32) *Error {
	if err := p.validateStatus(StateInProgress); err != nil {
		return err
	}
	if !p.HasPrivileges(actor) {
		return errNotAuthorized("admin rights required")
	}
	roster, ok := p.Context.PoolerRoster[target]
	if !ok {
		return errNotFound("participant")
	}
	if !roster.ValidatePlayerPossession(playerID) {
		return errInvariant("%s does not own player %d", target, playerID)
	}
	if !roster.RemoveForward(playerID) {
		if !roster.RemoveDefender(playerID) {
			if !roster.RemoveGoalie(playerID) {
				roster.RemoveReservist(playerID)
			}
		}
	}
	return nil
}

// ModifyRoster overwrites target's four roster lists, subject to the
// date gate, size limits, cap check, ownership and dedup validation.
func (p *Pool) ModifyRoster(actor, target string, forwards, defenders, goalies, reservists []uint32) *Error {
	if err := p.validateStatus(StateInProgress); err != nil {
		return err
	}
	if actor != target && !p.HasPrivileges(actor) {
		return errNotAuthorized("actor may not modify this participant's roster")
	}

	today := now()
	effectiveDate := today
	if today.Hour() >= 12 {
		effectiveDate = today.AddDate(0, 0, 1)
	}
	todayStr := effectiveDate.Format("2006-01-02")
	if todayStr > p.SeasonStart {
		allowed := false
		for _, d := range p.Settings.RosterModificationDate {
			if d == todayStr {
				allowed = true
				break
			}
		}
		if !allowed {
			return errTooLate("roster modifications are not permitted today")
		}
	}

	if len(forwards) > p.Settings.NumberForwards {
		return errInvariant("too many forwards")
	}
	if len(defenders) > p.Settings.NumberDefenders {
		return errInvariant("too many defenders")
	}
	if len(goalies) > p.Settings.NumberGoalies {
		return errInvariant("too many goalies")
	}

	roster, ok := p.Context.PoolerRoster[target]
	if !ok {
		return errNotFound("participant")
	}
	priorTotal := roster.TotalCount()
	newTotal := len(forwards) + len(defenders) + len(goalies) + len(reservists)
	if newTotal != priorTotal {
		return errInvariant("total roster size must remain %d", priorTotal)
	}

	if p.Settings.SalaryCap != nil {
		var sum float64
		for _, id := range append(append([]uint32{}, forwards...), append(defenders, goalies...)...) {
			pl, ok := p.Context.Players[playerKey(id)]
			if !ok || pl.SalaryCap == nil {
				return errInvariant("player %d has no salary value", id)
			}
			sum += *pl.SalaryCap
		}
		if sum > *p.Settings.SalaryCap {
			return errInvariant("roster exceeds salary cap")
		}
	}

	seen := map[uint32]bool{}
	all := append(append(append(append([]uint32{}, forwards...), defenders...), goalies...), reservists...)
	for _, id := range all {
		if seen[id] {
			return errInvariant("duplicate player %d", id)
		}
		seen[id] = true
		if !roster.ValidatePlayerPossession(id) {
			return errInvariant("%s does not own player %d", target, id)
		}
	}

	roster.ChosenForwards = forwards
	roster.ChosenDefenders = defenders
	roster.ChosenGoalies = goalies
	roster.ChosenReservists = reservists
	return nil
}

// ProtectPlayers records actor's dynasty-protection selections.
func (p *Pool) ProtectPlayers(actor string, protectedIDs []uint32) *Error {
	if err := p.validateStatus(StateDynasty); err != nil {
		return err
	}
	if !p.IsParticipant(actor) {
		return errNotAuthorized("only participants may protect players")
	}
	want := 0
	if p.Settings.DynastySettings != nil {
		want = p.Settings.DynastySettings.NextSeasonNumberPlayersProtected
	}
	if len(protectedIDs) != want {
		return errInvariant("expected %d protected players, got %d", want, len(protectedIDs))
	}
	roster := p.Context.PoolerRoster[actor]
	for _, id := range protectedIDs {
		if !roster.ValidatePlayerPossession(id) {
			return errInvariant("%s does not own player %d", actor, id)
		}
	}
	if p.Context.ProtectedPlayers == nil {
		p.Context.ProtectedPlayers = map[string][]uint32{}
	}
	p.Context.ProtectedPlayers[actor] = protectedIDs
	return nil
}

// CompleteProtection rebuilds every participant's roster from their
// protected set, prunes dropped players from context.Players, and opens
// the next draft.
func (p *Pool) CompleteProtection(actor string) *Error {
	if err := p.validateStatus(StateDynasty); err != nil {
		return err
	}
	if !p.HasOwnerRights(actor) {
		return errNotAuthorized("only the owner can complete protection")
	}
	want := 0
	if p.Settings.DynastySettings != nil {
		want = p.Settings.DynastySettings.NextSeasonNumberPlayersProtected
	}
	for _, participant := range p.Participants {
		protected := p.Context.ProtectedPlayers[participant.ID]
		if len(protected) != want {
			return errInvariant("participant %s has not protected %d players", participant.ID, want)
		}
	}

	retained := map[uint32]bool{}
	for _, participant := range p.Participants {
		roster := p.Context.PoolerRoster[participant.ID]
		roster.ChosenForwards = []uint32{}
		roster.ChosenDefenders = []uint32{}
		roster.ChosenGoalies = []uint32{}
		roster.ChosenReservists = []uint32{}
		for _, id := range p.Context.ProtectedPlayers[participant.ID] {
			player := p.Context.Players[playerKey(id)]
			if canAddPlayerToRoster(player, roster, p.Context, p.Settings) {
				list := rosterList(roster, player.Position)
				if len(list) < maxForPosition(p.Settings, player.Position) {
					setRosterList(roster, player.Position, append(list, id))
				} else {
					roster.ChosenReservists = append(roster.ChosenReservists, id)
				}
			} else {
				roster.ChosenReservists = append(roster.ChosenReservists, id)
			}
			retained[id] = true
		}
	}

	for key, pl := range p.Context.Players {
		if !retained[pl.ID] {
			delete(p.Context.Players, key)
		}
	}

	p.Status = StateDraft
	return nil
}

// MarkAsFinal computes the season's final rank and closes the pool out.
func (p *Pool) MarkAsFinal(actor string) *Error {
	if err := p.validateStatus(StateInProgress); err != nil {
		return err
	}
	if !p.HasPrivileges(actor) {
		return errNotAuthorized("admin rights required")
	}
	todayStr := now().Format("2006-01-02")
	if !(todayStr > p.SeasonEnd) {
		return errTooEarly("the season has not ended yet")
	}
	for _, byUser := range p.Context.ScoreByDay {
		for _, drp := range byUser {
			if !drp.IsCumulated {
				return errInvariant("score_by_day contains non-cumulated entries")
			}
		}
	}
	rank, err := ComputeFinalRank(p)
	if err != nil {
		return err
	}
	p.FinalRank = rank
	p.Status = StateFinal
	return nil
}

// GenerateDynasty produces the next season's pool from a finalized one.
// season supplies POOL_CREATION_SEASON/START_SEASON_DATE/END_SEASON_DATE for
// the new pool, per spec.md §4.1 — the new season's constants, not the old
// pool's.
func (p *Pool) GenerateDynasty(actor, newPoolName string, season SeasonConstants) (*Pool, *Error) {
	if err := p.validateStatus(StateFinal); err != nil {
		return nil, err
	}
	if !p.HasPrivileges(actor) {
		return nil, errNotAuthorized("admin rights required")
	}
	if p.Settings.DynastySettings == nil {
		return nil, errInvariant("pool has no dynasty settings")
	}

	newSettings := p.Settings
	ds := *p.Settings.DynastySettings
	ds.PastSeasonPoolName = append([]string{p.Name}, ds.PastSeasonPoolName...)
	ds.NextSeasonPoolName = nil
	newSettings.DynastySettings = &ds

	protected := map[string][]uint32{}
	for _, participant := range p.Participants {
		protected[participant.ID] = []uint32{}
	}

	draftOrder := make([]string, len(p.FinalRank))
	for i, id := range p.FinalRank {
		draftOrder[len(p.FinalRank)-1-i] = id
	}

	newCtx := &PoolContext{
		PoolerRoster:       clonePoolerRosters(p.Context.PoolerRoster),
		PlayersNameDrafted: []uint32{},
		ScoreByDay:         map[string]map[string]DailyRosterPoints{},
		TradablePicks:      []map[string]string{},
		PastTradablePicks:  p.Context.TradablePicks,
		ProtectedPlayers:   protected,
		Players:            clonePlayers(p.Context.Players),
	}

	newPool := &Pool{
		Name:         newPoolName,
		Owner:        p.Owner,
		Participants: append([]PoolUser{}, p.Participants...),
		Settings:     newSettings,
		Status:       StateDynasty,
		FinalRank:    nil,
		DraftOrder:   draftOrder,
		Trades:       nil,
		Context:      newCtx,
		DateUpdated:  0,
		SeasonStart:  season.StartSeasonDate,
		SeasonEnd:    season.EndSeasonDate,
		Season:       season.PoolCreationSeason,
	}

	oldDS := *p.Settings.DynastySettings
	name := newPoolName
	oldDS.NextSeasonPoolName = &name
	p.Settings.DynastySettings = &oldDS

	return newPool, nil
}

func clonePoolerRosters(in map[string]*PoolerRoster) map[string]*PoolerRoster {
	out := make(map[string]*PoolerRoster, len(in))
	for k, v := range in {
		cp := *v
		cp.ChosenForwards = append([]uint32{}, v.ChosenForwards...)
		cp.ChosenDefenders = append([]uint32{}, v.ChosenDefenders...)
		cp.ChosenGoalies = append([]uint32{}, v.ChosenGoalies...)
		cp.ChosenReservists = append([]uint32{}, v.ChosenReservists...)
		out[k] = &cp
	}
	return out
}

func clonePlayers(in map[string]Player) map[string]Player {
	out := make(map[string]Player, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ComputeFinalRank is implemented in ranking.go.
