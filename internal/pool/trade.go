package pool

const (
	maxTradeItemsPerSide = 5
	cooldownMillis       = 86_400_000
)

// validateTradeSide checks a single side's item list against the owning
// user's current roster and the pool's tradable_picks ownership matrix.
func validateTradeSide(ctx *PoolContext, user string, items TradeItems) *Error {
	if len(items.Players) == 0 && len(items.Picks) == 0 {
		return errInvariant("a trade side must not be empty")
	}
	if len(items.Players)+len(items.Picks) > maxTradeItemsPerSide {
		return errInvariant("a trade side may not exceed %d items", maxTradeItemsPerSide)
	}
	roster, ok := ctx.PoolerRoster[user]
	if !ok {
		return errNotFound("participant")
	}
	for _, playerID := range items.Players {
		if !roster.ValidatePlayerPossession(playerID) {
			return errInvariant("%s does not own player %d", user, playerID)
		}
	}
	for _, pick := range items.Picks {
		if int(pick.Round) >= len(ctx.TradablePicks) {
			return errInvariant("round %d has no tradable picks", pick.Round)
		}
		owner, ok := ctx.TradablePicks[pick.Round][pick.From]
		if !ok || owner != user {
			return errInvariant("%s does not control the round %d pick from %s", user, pick.Round, pick.From)
		}
	}
	return nil
}

// validateTrade checks both sides of a proposed trade.
func validateTrade(ctx *PoolContext, t Trade) *Error {
	if err := validateTradeSide(ctx, t.ProposedBy, t.FromItems); err != nil {
		return err
	}
	return validateTradeSide(ctx, t.AskTo, t.ToItems)
}

// CreateTrade appends a new NEW trade after validating both sides and the
// one-active-trade-per-proposer rule.
func (p *Pool) CreateTrade(actor string, t Trade, nowMillis int64, tradeDeadlineDate, today string) *Error {
	if err := p.validateStatus(StateInProgress); err != nil {
		return err
	}
	if today > tradeDeadlineDate {
		return errTooLate("the trade deadline has passed")
	}
	if actor != t.ProposedBy && !p.HasPrivileges(actor) {
		return errNotAuthorized("actor may not propose on another user's behalf")
	}
	if !p.IsParticipant(t.ProposedBy) || !p.IsParticipant(t.AskTo) {
		return errInvariant("both sides of a trade must be participants")
	}
	for _, existing := range p.Trades {
		if existing.Status == TradeNew && existing.ProposedBy == t.ProposedBy {
			return errInvariant("%s already has an outstanding trade", t.ProposedBy)
		}
	}
	if err := validateTrade(p.Context, t); err != nil {
		return err
	}

	t.ID = uint32(len(p.Trades))
	t.DateCreated = nowMillis
	t.Status = TradeNew
	p.Trades = append(p.Trades, t)
	return nil
}

// DeleteTrade removes a NEW trade entirely; no cancellation record is kept.
func (p *Pool) DeleteTrade(actor string, tradeID uint32) *Error {
	if err := p.validateStatus(StateInProgress); err != nil {
		return err
	}
	idx, t, err := p.findNewTrade(tradeID)
	if err != nil {
		return err
	}
	if actor != t.ProposedBy && !p.HasPrivileges(actor) {
		return errNotAuthorized("actor may not cancel this trade")
	}
	p.Trades = append(p.Trades[:idx], p.Trades[idx+1:]...)
	return nil
}

// RespondTrade accepts or refuses a NEW trade. Acceptance replays validation
// against a scratch copy of the context and only commits on success.
func (p *Pool) RespondTrade(actor string, tradeID uint32, accept bool, nowMillis int64) *Error {
	if err := p.validateStatus(StateInProgress); err != nil {
		return err
	}
	idx, t, err := p.findNewTrade(tradeID)
	if err != nil {
		return err
	}
	privileged := p.HasPrivileges(actor)
	if actor != t.AskTo && !privileged {
		return errNotAuthorized("actor may not respond to this trade")
	}
	if !privileged && nowMillis-t.DateCreated < cooldownMillis {
		return errTooEarly("trades are subject to a 24-hour cooling-off period")
	}

	if !accept {
		p.Trades[idx].Status = TradeRefused
		return nil
	}

	scratch := cloneContext(p.Context)
	if err := validateTrade(scratch, *t); err != nil {
		return err
	}
	tradeRosterItems(scratch, *t)
	p.Context = scratch
	p.Trades[idx].Status = TradeAccepted
	p.Trades[idx].DateAccepted = nowMillis
	return nil
}

func (p *Pool) findNewTrade(tradeID uint32) (int, *Trade, *Error) {
	for i := range p.Trades {
		if p.Trades[i].ID == tradeID {
			if p.Trades[i].Status != TradeNew {
				return 0, nil, errInvariant("trade %d is not pending", tradeID)
			}
			return i, &p.Trades[i], nil
		}
	}
	return 0, nil, errNotFound("trade")
}

// tradeRosterItems moves every player and pick named by t from the
// proposer's side to the asked side and vice versa.
func tradeRosterItems(ctx *PoolContext, t Trade) {
	movePlayers(ctx, t.ProposedBy, t.AskTo, t.FromItems.Players)
	movePlayers(ctx, t.AskTo, t.ProposedBy, t.ToItems.Players)
	movePicks(ctx, t.AskTo, t.FromItems.Picks)
	movePicks(ctx, t.ProposedBy, t.ToItems.Picks)
}

func movePlayers(ctx *PoolContext, from, to string, playerIDs []uint32) {
	fromRoster := ctx.PoolerRoster[from]
	toRoster := ctx.PoolerRoster[to]
	for _, id := range playerIDs {
		if !fromRoster.RemoveForward(id) {
			if !fromRoster.RemoveDefender(id) {
				if !fromRoster.RemoveGoalie(id) {
					fromRoster.RemoveReservist(id)
				}
			}
		}
		toRoster.ChosenReservists = append(toRoster.ChosenReservists, id)
	}
}

func movePicks(ctx *PoolContext, destination string, picks []Pick) {
	for _, pick := range picks {
		if int(pick.Round) < len(ctx.TradablePicks) {
			ctx.TradablePicks[pick.Round][pick.From] = destination
		}
	}
}

// cloneContext deep-copies a PoolContext so trade validation/application can
// be attempted against a scratch copy and discarded on failure.
func cloneContext(ctx *PoolContext) *PoolContext {
	out := &PoolContext{
		PoolerRoster:       clonePoolerRosters(ctx.PoolerRoster),
		Players:            clonePlayers(ctx.Players),
		PlayersNameDrafted: append([]uint32{}, ctx.PlayersNameDrafted...),
		ScoreByDay:         ctx.ScoreByDay,
		TradablePicks:      clonePickMatrix(ctx.TradablePicks),
		PastTradablePicks:  ctx.PastTradablePicks,
		ProtectedPlayers:   cloneProtected(ctx.ProtectedPlayers),
	}
	return out
}

func clonePickMatrix(in []map[string]string) []map[string]string {
	out := make([]map[string]string, len(in))
	for i, round := range in {
		m := make(map[string]string, len(round))
		for k, v := range round {
			m[k] = v
		}
		out[i] = m
	}
	return out
}

func cloneProtected(in map[string][]uint32) map[string][]uint32 {
	if in == nil {
		return nil
	}
	out := make(map[string][]uint32, len(in))
	for k, v := range in {
		out[k] = append([]uint32{}, v...)
	}
	return out
}
