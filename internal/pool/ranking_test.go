package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u8(v uint8) *uint8 { return &v }

// Scenario 6: final ranking with ignore_x_worst_players.
func TestComputeFinalRankIgnoresWorstPlayers(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.ForwardsSettings = SkaterSettings{PointsPerGoals: 1}
	settings.IgnoreXWorstPlayers = &PlayerTypeSettings{Forwards: 1}

	p := &Pool{
		Participants: []PoolUser{{ID: "A"}, {ID: "B"}},
		Settings:     settings,
		Context: &PoolContext{
			ScoreByDay: map[string]map[string]DailyRosterPoints{
				"A": {
					"d1": {IsCumulated: true, Roster: Roster{F: map[string]*SkaterPoints{
						"p1": {G: 10}, "p2": {G: 20}, "p3": {G: 30},
					}}},
				},
				"B": {
					"d1": {IsCumulated: true, Roster: Roster{F: map[string]*SkaterPoints{
						"p4": {G: 15}, "p5": {G: 15}, "p6": {G: 15},
					}}},
				},
			},
		},
	}

	rank, err := ComputeFinalRank(p)
	require.Nil(t, err)
	assert.Equal(t, []string{"A", "B"}, rank)
}

func TestComputeFinalRankTieBreaksOnGames(t *testing.T) {
	settings := DefaultPoolSettings()
	settings.ForwardsSettings = SkaterSettings{PointsPerGoals: 1}
	p := &Pool{
		Participants: []PoolUser{{ID: "A"}, {ID: "B"}},
		Settings:     settings,
		Context: &PoolContext{
			ScoreByDay: map[string]map[string]DailyRosterPoints{
				"A": {
					"d1": {IsCumulated: true, Roster: Roster{F: map[string]*SkaterPoints{"p1": {G: 5}}}},
					"d2": {IsCumulated: true, Roster: Roster{F: map[string]*SkaterPoints{"p1": {G: 5}}}},
				},
				"B": {
					"d1": {IsCumulated: true, Roster: Roster{F: map[string]*SkaterPoints{"p2": {G: 10}}}},
				},
			},
		},
	}

	rank, err := ComputeFinalRank(p)
	require.Nil(t, err)
	assert.Equal(t, []string{"B", "A"}, rank)
}

func TestSkaterPointsHattrickBonus(t *testing.T) {
	s := SkaterSettings{PointsPerGoals: 2, PointsPerAssists: 1, PointsPerHattricks: 5, PointsPerShootoutGoals: 1}
	p := SkaterPoints{G: 3, A: 1, SOG: u8(2)}
	assert.Equal(t, uint16(2*3+1+5+2), p.GetTotalPoints(s))
}

func TestGoalyPointsWinShutoutOvertime(t *testing.T) {
	s := GoaliesSettings{PointsPerWins: 2, PointsPerShutouts: 3, PointsPerOvertimes: 1, PointsPerGoals: 1, PointsPerAssists: 1}
	p := GoalyPoints{G: 1, A: 1, W: true, SO: true, OT: true}
	assert.Equal(t, uint16(1+1+2+3+1), p.GetTotalPoints(s))
}
