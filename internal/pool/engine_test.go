package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seasonConstants() SeasonConstants {
	return SeasonConstants{
		StartSeasonDate:    "2025-10-01",
		EndSeasonDate:      "2026-04-15",
		PoolCreationSeason: 20252026,
		TradeDeadlineDate:  "2026-03-01",
	}
}

func newTestPool(t *testing.T, settings PoolSettings, owner string) *Pool {
	t.Helper()
	return NewPool("test-pool", owner, settings, seasonConstants())
}

func player(id uint32, pos Position) Player {
	return Player{ID: id, Name: "player", Position: pos}
}

func withRooms(ids ...string) []RoomUser {
	out := make([]RoomUser, len(ids))
	for i, id := range ids {
		out[i] = RoomUser{ID: id, Name: id}
	}
	return out
}

func TestStartDraftFreezesOrderAndContext(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 2
	p := newTestPool(t, settings, "A")

	orig := shuffleIDs
	shuffleIDs = func(ids []string) {}
	defer func() { shuffleIDs = orig }()

	err := p.StartDraft("A", withRooms("A", "B"))
	require.Nil(t, err)
	assert.Equal(t, StateDraft, p.Status)
	assert.Equal(t, []string{"A", "B"}, p.DraftOrder)
	assert.NotNil(t, p.Context)
	assert.Len(t, p.Context.PoolerRoster, 2)
}

// Scenario 1: serpentine draft of 2 users, 2 F slots each, no reservists.
func TestSerpentineDraftTwoUsers(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 2
	settings.NumberForwards = 2
	settings.NumberDefenders = 0
	settings.NumberGoalies = 0
	settings.NumberReservists = 0
	p := newTestPool(t, settings, "A")

	orig := shuffleIDs
	shuffleIDs = func(ids []string) {}
	defer func() { shuffleIDs = orig }()
	require.Nil(t, p.StartDraft("A", withRooms("A", "B")))

	require.Nil(t, p.DraftPlayer("A", player(1, PositionF)))
	require.Nil(t, p.DraftPlayer("B", player(2, PositionF)))
	require.Nil(t, p.DraftPlayer("B", player(3, PositionF)))
	require.Nil(t, p.DraftPlayer("A", player(4, PositionF)))

	assert.Equal(t, []uint32{1, 4}, p.Context.PoolerRoster["A"].ChosenForwards)
	assert.Equal(t, []uint32{2, 3}, p.Context.PoolerRoster["B"].ChosenForwards)
	assert.Equal(t, StateInProgress, p.Status)
}

// Scenario 2: reservist overflow.
func TestDraftReservistOverflow(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 2
	settings.NumberForwards = 1
	settings.NumberDefenders = 0
	settings.NumberGoalies = 0
	settings.NumberReservists = 1
	p := newTestPool(t, settings, "A")
	orig := shuffleIDs
	shuffleIDs = func(ids []string) {}
	defer func() { shuffleIDs = orig }()
	require.Nil(t, p.StartDraft("A", withRooms("A", "B")))

	require.Nil(t, p.DraftPlayer("A", player(1, PositionF)))
	require.Nil(t, p.DraftPlayer("B", player(2, PositionF)))
	require.Nil(t, p.DraftPlayer("B", player(4, PositionF)))
	require.Nil(t, p.DraftPlayer("A", player(3, PositionF)))

	assert.Equal(t, []uint32{1}, p.Context.PoolerRoster["A"].ChosenForwards)
	assert.Equal(t, []uint32{3}, p.Context.PoolerRoster["A"].ChosenReservists)
}

// Scenario 3: salary cap refuses starter, accepts reservist.
func TestDraftSalaryCapOverflowToReservists(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 2
	settings.NumberForwards = 2
	settings.NumberDefenders = 0
	settings.NumberGoalies = 0
	settings.NumberReservists = 1
	cap := 10.0
	settings.SalaryCap = &cap
	p := newTestPool(t, settings, "A")
	orig := shuffleIDs
	shuffleIDs = func(ids []string) {}
	defer func() { shuffleIDs = orig }()
	require.Nil(t, p.StartDraft("A", withRooms("A", "B")))

	nineDotO := 9.0
	starter := player(1, PositionF)
	starter.SalaryCap = &nineDotO
	require.Nil(t, p.DraftPlayer("A", starter))
	require.Nil(t, p.DraftPlayer("B", player(2, PositionF)))

	twoDotO := 2.0
	overflow := player(3, PositionF)
	overflow.SalaryCap = &twoDotO
	require.Nil(t, p.DraftPlayer("B", player(4, PositionF)))
	require.Nil(t, p.DraftPlayer("A", overflow))

	assert.Equal(t, []uint32{1}, p.Context.PoolerRoster["A"].ChosenForwards)
	assert.Equal(t, []uint32{3}, p.Context.PoolerRoster["A"].ChosenReservists)
}

func TestDraftPlayerWrongTurn(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 2
	p := newTestPool(t, settings, "A")
	orig := shuffleIDs
	shuffleIDs = func(ids []string) {}
	defer func() { shuffleIDs = orig }()
	require.Nil(t, p.StartDraft("A", withRooms("A", "B")))

	err := p.DraftPlayer("B", player(1, PositionF))
	require.NotNil(t, err)
	assert.Equal(t, KindNotYourTurn, err.Kind)
}

// Round-trip law: draft_player followed by undo_draft_player restores state.
func TestDraftThenUndoRoundTrips(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 2
	p := newTestPool(t, settings, "A")
	orig := shuffleIDs
	shuffleIDs = func(ids []string) {}
	defer func() { shuffleIDs = orig }()
	require.Nil(t, p.StartDraft("A", withRooms("A", "B")))

	before := snapshotRoster(p.Context.PoolerRoster["A"])
	beforeDrafted := append([]uint32{}, p.Context.PlayersNameDrafted...)

	require.Nil(t, p.DraftPlayer("A", player(1, PositionF)))
	require.Nil(t, p.UndoDraftPlayer("A"))

	assert.Equal(t, before, snapshotRoster(p.Context.PoolerRoster["A"]))
	assert.Equal(t, beforeDrafted, p.Context.PlayersNameDrafted)
	_, stillThere := p.Context.Players[playerKey(1)]
	assert.False(t, stillThere)
}

func snapshotRoster(r *PoolerRoster) PoolerRoster {
	return PoolerRoster{
		ChosenForwards:   append([]uint32{}, r.ChosenForwards...),
		ChosenDefenders:  append([]uint32{}, r.ChosenDefenders...),
		ChosenGoalies:    append([]uint32{}, r.ChosenGoalies...),
		ChosenReservists: append([]uint32{}, r.ChosenReservists...),
	}
}

func TestModifyRosterRejectsDuplicateAcrossLists(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 1
	settings.NumberForwards = 2
	settings.NumberDefenders = 0
	settings.NumberGoalies = 0
	settings.NumberReservists = 0
	p := newTestPool(t, settings, "A")
	orig := shuffleIDs
	shuffleIDs = func(ids []string) {}
	defer func() { shuffleIDs = orig }()
	require.Nil(t, p.StartDraft("A", withRooms("A")))
	require.Nil(t, p.DraftPlayer("A", player(1, PositionF)))
	require.Nil(t, p.DraftPlayer("A", player(2, PositionF)))

	origNow := now
	defer func() { now = origNow }()
	now = func() time.Time { return time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC) }

	err := p.ModifyRoster("A", "A", []uint32{1}, nil, nil, []uint32{1})
	require.NotNil(t, err)
	assert.Equal(t, KindInvariantViolated, err.Kind)
}

func TestFillSpotPromotesReservist(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.NumberPoolers = 1
	settings.NumberForwards = 1
	settings.NumberDefenders = 0
	settings.NumberGoalies = 0
	settings.NumberReservists = 1
	p := newTestPool(t, settings, "A")
	orig := shuffleIDs
	shuffleIDs = func(ids []string) {}
	defer func() { shuffleIDs = orig }()
	require.Nil(t, p.StartDraft("A", withRooms("A")))
	require.Nil(t, p.DraftPlayer("A", player(1, PositionF)))
	require.Nil(t, p.DraftPlayer("A", player(2, PositionF)))
	require.Equal(t, StateInProgress, p.Status)

	require.Nil(t, p.RemovePlayer("A", "A", 1))
	err := p.FillSpot("A", "A", 2)
	require.Nil(t, err)
	assert.Equal(t, []uint32{2}, p.Context.PoolerRoster["A"].ChosenForwards)
}
