package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftedPool(t *testing.T, settings PoolSettings, owner string, ids ...string) *Pool {
	t.Helper()
	p := newTestPool(t, settings, owner)
	orig := shuffleIDs
	shuffleIDs = func(ids []string) {}
	defer func() { shuffleIDs = orig }()
	require.Nil(t, p.StartDraft(owner, withRooms(ids...)))
	return p
}

// Scenario 4: trade acceptance moves players and rewrites picks.
func TestRespondTradeAcceptMovesPlayersAndPicks(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 2
	settings.NumberForwards = 1
	settings.NumberDefenders = 0
	settings.NumberGoalies = 0
	settings.NumberReservists = 1
	settings.DynastySettings = &DynastySettings{TradablePicks: 1}
	p := draftedPool(t, settings, "A", "A", "B")

	require.Nil(t, p.DraftPlayer("A", player(1, PositionF)))
	require.Nil(t, p.DraftPlayer("B", player(2, PositionF)))
	require.Nil(t, p.DraftPlayer("B", player(3, PositionF)))
	require.Nil(t, p.DraftPlayer("A", player(4, PositionF)))
	require.Equal(t, StateInProgress, p.Status)
	require.NotEmpty(t, p.Context.TradablePicks)

	trade := Trade{
		ProposedBy: "A",
		AskTo:      "B",
		FromItems:  TradeItems{Players: []uint32{1}, Picks: []Pick{{Round: 0, From: "A"}}},
		ToItems:    TradeItems{Players: []uint32{2}},
	}
	require.Nil(t, p.CreateTrade("A", trade, 1000, "2026-03-01", "2026-01-15"))
	require.Len(t, p.Trades, 1)

	require.Nil(t, p.RespondTrade("B", p.Trades[0].ID, true, int64(1000+cooldownMillis)))

	assert.False(t, p.Context.PoolerRoster["A"].ValidatePlayerPossession(1))
	assert.True(t, p.Context.PoolerRoster["B"].ValidatePlayerPossession(1))
	assert.False(t, p.Context.PoolerRoster["B"].ValidatePlayerPossession(2))
	assert.True(t, p.Context.PoolerRoster["A"].ValidatePlayerPossession(2))
	assert.Equal(t, "B", p.Context.TradablePicks[0]["A"])
	assert.Equal(t, TradeAccepted, p.Trades[0].Status)
}

// Round-trip law: create_trade then delete_trade leaves trades empty and
// rosters unchanged.
func TestCreateThenDeleteTradeLeavesNoTrace(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 2
	settings.NumberForwards = 1
	settings.NumberDefenders = 0
	settings.NumberGoalies = 0
	settings.NumberReservists = 1
	p := draftedPool(t, settings, "A", "A", "B")
	require.Nil(t, p.DraftPlayer("A", player(1, PositionF)))
	require.Nil(t, p.DraftPlayer("B", player(2, PositionF)))
	require.Nil(t, p.DraftPlayer("B", player(3, PositionF)))
	require.Nil(t, p.DraftPlayer("A", player(4, PositionF)))

	trade := Trade{
		ProposedBy: "A",
		AskTo:      "B",
		FromItems:  TradeItems{Players: []uint32{1}},
		ToItems:    TradeItems{Players: []uint32{2}},
	}
	require.Nil(t, p.CreateTrade("A", trade, 1000, "2026-03-01", "2026-01-15"))
	require.Len(t, p.Trades, 1)

	before := snapshotRoster(p.Context.PoolerRoster["A"])
	require.Nil(t, p.DeleteTrade("A", p.Trades[0].ID))

	assert.Empty(t, p.Trades)
	assert.Equal(t, before, snapshotRoster(p.Context.PoolerRoster["A"]))
}

// respond_trade(accept=false) never mutates rosters or tradable_picks.
func TestRespondTradeRefuseDoesNotMutate(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 2
	settings.NumberForwards = 1
	settings.NumberDefenders = 0
	settings.NumberGoalies = 0
	settings.NumberReservists = 1
	p := draftedPool(t, settings, "A", "A", "B")
	require.Nil(t, p.DraftPlayer("A", player(1, PositionF)))
	require.Nil(t, p.DraftPlayer("B", player(2, PositionF)))
	require.Nil(t, p.DraftPlayer("B", player(3, PositionF)))
	require.Nil(t, p.DraftPlayer("A", player(4, PositionF)))

	trade := Trade{
		ProposedBy: "A",
		AskTo:      "B",
		FromItems:  TradeItems{Players: []uint32{1}},
		ToItems:    TradeItems{Players: []uint32{2}},
	}
	require.Nil(t, p.CreateTrade("A", trade, 1000, "2026-03-01", "2026-01-15"))

	beforeA := snapshotRoster(p.Context.PoolerRoster["A"])
	beforeB := snapshotRoster(p.Context.PoolerRoster["B"])

	require.Nil(t, p.RespondTrade("B", p.Trades[0].ID, false, int64(1000+cooldownMillis)))

	assert.Equal(t, TradeRefused, p.Trades[0].Status)
	assert.Equal(t, beforeA, snapshotRoster(p.Context.PoolerRoster["A"]))
	assert.Equal(t, beforeB, snapshotRoster(p.Context.PoolerRoster["B"]))
}

func TestCreateTradeRejectsSecondOutstandingFromSameProposer(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 2
	settings.NumberForwards = 2
	settings.NumberDefenders = 0
	settings.NumberGoalies = 0
	settings.NumberReservists = 1
	p := draftedPool(t, settings, "A", "A", "B")
	require.Nil(t, p.DraftPlayer("A", player(1, PositionF)))
	require.Nil(t, p.DraftPlayer("B", player(2, PositionF)))
	require.Nil(t, p.DraftPlayer("B", player(3, PositionF)))
	require.Nil(t, p.DraftPlayer("A", player(4, PositionF)))
	require.Nil(t, p.DraftPlayer("A", player(5, PositionF)))
	require.Nil(t, p.DraftPlayer("B", player(6, PositionF)))

	t1 := Trade{ProposedBy: "A", AskTo: "B", FromItems: TradeItems{Players: []uint32{1}}, ToItems: TradeItems{Players: []uint32{2}}}
	require.Nil(t, p.CreateTrade("A", t1, 1000, "2026-03-01", "2026-01-15"))

	t2 := Trade{ProposedBy: "A", AskTo: "B", FromItems: TradeItems{Players: []uint32{4}}, ToItems: TradeItems{Players: []uint32{3}}}
	err := p.CreateTrade("A", t2, 1000, "2026-03-01", "2026-01-15")
	require.NotNil(t, err)
	assert.Equal(t, KindInvariantViolated, err.Kind)
}

func TestRespondTradeBeforeCooldownRequiresPrivileges(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 2
	settings.NumberForwards = 1
	settings.NumberDefenders = 0
	settings.NumberGoalies = 0
	settings.NumberReservists = 1
	p := draftedPool(t, settings, "A", "A", "B")
	require.Nil(t, p.DraftPlayer("A", player(1, PositionF)))
	require.Nil(t, p.DraftPlayer("B", player(2, PositionF)))
	require.Nil(t, p.DraftPlayer("B", player(3, PositionF)))
	require.Nil(t, p.DraftPlayer("A", player(4, PositionF)))

	trade := Trade{ProposedBy: "A", AskTo: "B", FromItems: TradeItems{Players: []uint32{1}}, ToItems: TradeItems{Players: []uint32{2}}}
	require.Nil(t, p.CreateTrade("A", trade, 1000, "2026-03-01", "2026-01-15"))

	err := p.RespondTrade("B", p.Trades[0].ID, true, 1500)
	require.NotNil(t, err)
	assert.Equal(t, KindTooEarly, err.Kind)
}
