package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 5: dynasty rollover. Old pool final_rank=[A,B,C,D], dynasty
// tradable_picks=2. New pool's draft_order is the reverse of final_rank,
// past_tradable_picks is the old pool's tradable_picks, tradable_picks
// starts empty, and status is Dynasty.
func TestGenerateDynastyReversesDraftOrderAndCarriesPicks(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 4
	settings.DynastySettings = &DynastySettings{TradablePicks: 2, NextSeasonNumberPlayersProtected: 1}
	p := newTestPool(t, settings, "A")
	p.Participants = []PoolUser{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}}
	p.Status = StateFinal
	p.FinalRank = []string{"A", "B", "C", "D"}
	oldPicks := []map[string]string{
		{"A": "A", "B": "C", "C": "C", "D": "D"},
		{"A": "A", "B": "B", "C": "C", "D": "D"},
	}
	p.Context = &PoolContext{
		PoolerRoster: map[string]*PoolerRoster{
			"A": {ChosenForwards: []uint32{1}},
			"B": {ChosenForwards: []uint32{2}},
			"C": {ChosenForwards: []uint32{3}},
			"D": {ChosenForwards: []uint32{4}},
		},
		Players: map[string]Player{
			"1": player(1, PositionF), "2": player(2, PositionF),
			"3": player(3, PositionF), "4": player(4, PositionF),
		},
		TradablePicks: oldPicks,
	}

	nextSeason := SeasonConstants{
		StartSeasonDate:    "2026-10-01",
		EndSeasonDate:      "2027-04-15",
		PoolCreationSeason: 20262027,
		TradeDeadlineDate:  "2027-03-01",
	}
	newPool, err := p.GenerateDynasty("A", "season-2", nextSeason)
	require.Nil(t, err)
	assert.Equal(t, StateDynasty, newPool.Status)
	assert.Equal(t, []string{"D", "C", "B", "A"}, newPool.DraftOrder)
	assert.Equal(t, oldPicks, newPool.Context.PastTradablePicks)
	assert.Len(t, newPool.Context.TradablePicks, 0)
	assert.Equal(t, nextSeason.PoolCreationSeason, newPool.Season)
	assert.Equal(t, nextSeason.StartSeasonDate, newPool.SeasonStart)
	assert.Equal(t, nextSeason.EndSeasonDate, newPool.SeasonEnd)
	assert.Equal(t, []string{"test-pool"}, newPool.Settings.DynastySettings.PastSeasonPoolName)
	require.NotNil(t, p.Settings.DynastySettings.NextSeasonPoolName)
	assert.Equal(t, "season-2", *p.Settings.DynastySettings.NextSeasonPoolName)
}

func TestProtectPlayersThenCompleteProtectionRebuildsRosters(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 2
	settings.NumberForwards = 1
	settings.NumberReservists = 1
	settings.DynastySettings = &DynastySettings{TradablePicks: 1, NextSeasonNumberPlayersProtected: 1}
	p := newTestPool(t, settings, "A")
	p.Participants = []PoolUser{{ID: "A"}, {ID: "B"}}
	p.Status = StateDynasty
	p.DraftOrder = []string{"B", "A"}
	p.Context = &PoolContext{
		PoolerRoster: map[string]*PoolerRoster{
			"A": {ChosenForwards: []uint32{1}, ChosenReservists: []uint32{2}},
			"B": {ChosenForwards: []uint32{3}},
		},
		Players: map[string]Player{
			"1": player(1, PositionF), "2": player(2, PositionF), "3": player(3, PositionF),
		},
		ProtectedPlayers: map[string][]uint32{},
	}

	require.Nil(t, p.ProtectPlayers("A", []uint32{2}))
	require.Nil(t, p.ProtectPlayers("B", []uint32{3}))
	require.Nil(t, p.CompleteProtection("A"))

	assert.Equal(t, StateDraft, p.Status)
	assert.Equal(t, []uint32{2}, p.Context.PoolerRoster["A"].ChosenForwards)
	assert.Empty(t, p.Context.PoolerRoster["A"].ChosenReservists)
	assert.Equal(t, []uint32{3}, p.Context.PoolerRoster["B"].ChosenForwards)
	_, playerOneStillTracked := p.Context.Players["1"]
	assert.False(t, playerOneStillTracked, "dropped (unprotected) player must be pruned from context.players")
}

func TestCompleteProtectionRejectsIncompleteProtection(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 1
	settings.DynastySettings = &DynastySettings{NextSeasonNumberPlayersProtected: 1}
	p := newTestPool(t, settings, "A")
	p.Participants = []PoolUser{{ID: "A"}}
	p.Status = StateDynasty
	p.Context = &PoolContext{
		PoolerRoster:     map[string]*PoolerRoster{"A": {}},
		Players:          map[string]Player{},
		ProtectedPlayers: map[string][]uint32{},
	}

	err := p.CompleteProtection("A")
	require.NotNil(t, err)
	assert.Equal(t, KindInvariantViolated, err.Kind)
}

// Dynasty draft turn: past_tradable_picks remaps the tentative drafter, and
// a full roster is skipped with a sentinel 0 pick rather than assigned.
func TestDynastyDraftRemapsThroughPastTradablePicksAndSkipsFullRoster(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 2
	settings.NumberForwards = 1
	settings.NumberDefenders = 0
	settings.NumberGoalies = 0
	settings.NumberReservists = 0
	settings.DynastySettings = &DynastySettings{TradablePicks: 1}
	p := newTestPool(t, settings, "A")
	p.Participants = []PoolUser{{ID: "A"}, {ID: "B"}}
	p.DraftOrder = []string{"A", "B"}
	p.Status = StateDraft
	p.Context = NewPoolContext([]string{"A", "B"})
	// Round 0's pick originating from B (the reverse-order tentative
	// drafter at n=0) was traded to A.
	p.Context.PastTradablePicks = []map[string]string{{"A": "A", "B": "A"}}

	// n=0: reverseIndex(0,2) -> draft_order[1] = "B" tentatively, remapped
	// via past_tradable_picks[0]["B"] = "A".
	require.Nil(t, p.DraftPlayer("A", player(1, PositionF)))
	assert.Equal(t, []uint32{1}, p.Context.PoolerRoster["A"].ChosenForwards)

	// n=1: reverseIndex(1,2) -> draft_order[0] = "A" tentatively, remapped
	// via past_tradable_picks[0]["A"] = "A" (unchanged) — but A's roster is
	// already full (1/1), so this turn is skipped with a sentinel, and the
	// pick actually falls to B.
	require.Nil(t, p.DraftPlayer("B", player(2, PositionF)))
	assert.Contains(t, p.Context.PlayersNameDrafted, uint32(0))
	assert.Equal(t, []uint32{2}, p.Context.PoolerRoster["B"].ChosenForwards)
}

func TestDynastyDraftStallsWhenEveryRosterIsFull(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 2
	settings.NumberForwards = 0
	settings.NumberDefenders = 0
	settings.NumberGoalies = 0
	settings.NumberReservists = 0
	settings.DynastySettings = &DynastySettings{TradablePicks: 1}
	p := newTestPool(t, settings, "A")
	p.Participants = []PoolUser{{ID: "A"}, {ID: "B"}}
	p.DraftOrder = []string{"A", "B"}
	p.Status = StateDraft
	p.Context = NewPoolContext([]string{"A", "B"})
	p.Context.PastTradablePicks = []map[string]string{{"A": "A", "B": "B"}}

	err := p.DraftPlayer("A", player(1, PositionF))
	require.NotNil(t, err)
	assert.Equal(t, KindInvariantViolated, err.Kind)
}
