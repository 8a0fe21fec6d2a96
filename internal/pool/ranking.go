package pool

import "sort"

// userTotals is one participant's season aggregate: a grand total plus the
// three per-position maps get_total_points folds into.
type userTotals struct {
	points    uint16
	games     uint16
	forwards  map[string]*playerTotal
	defenders map[string]*playerTotal
	goalies   map[string]*playerTotal
}

func newUserTotals() *userTotals {
	return &userTotals{
		forwards:  map[string]*playerTotal{},
		defenders: map[string]*playerTotal{},
		goalies:   map[string]*playerTotal{},
	}
}

// ComputeFinalRank aggregates context.score_by_day into a season total per
// participant, applies ignore_x_worst_players, and orders users by points
// desc then games asc, matching spec.md §4.3.
func ComputeFinalRank(p *Pool) ([]string, *Error) {
	if p.Context == nil {
		return nil, errInvariant("pool has no context to rank")
	}

	totals := make(map[string]*userTotals, len(p.Participants))
	for _, participant := range p.Participants {
		totals[participant.ID] = newUserTotals()
	}

	for userID, byDay := range p.Context.ScoreByDay {
		t, ok := totals[userID]
		if !ok {
			continue
		}
		for _, drp := range byDay {
			points, games := drp.GetTotalPoints(p.Settings, t.forwards, t.defenders, t.goalies)
			t.points += points
			t.games += games
		}
	}

	for _, t := range totals {
		if p.Settings.IgnoreXWorstPlayers != nil {
			ignore := p.Settings.IgnoreXWorstPlayers
			subtractWorst(t, t.forwards, ignore.Forwards)
			subtractWorst(t, t.defenders, ignore.Defense)
			subtractWorst(t, t.goalies, ignore.Goalies)
		}
	}

	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := totals[ids[i]], totals[ids[j]]
		if ti.points != tj.points {
			return ti.points > tj.points
		}
		return ti.games < tj.games
	})
	return ids, nil
}

// subtractWorst sorts byPosition ascending by (points, games) and removes
// the first x players' contribution from the user's season total.
func subtractWorst(t *userTotals, byPosition map[string]*playerTotal, x int) {
	if x <= 0 || len(byPosition) == 0 {
		return
	}
	keys := make([]string, 0, len(byPosition))
	for k := range byPosition {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := byPosition[keys[i]], byPosition[keys[j]]
		if a.Points != b.Points {
			return a.Points < b.Points
		}
		return a.Games < b.Games
	})
	if x > len(keys) {
		x = len(keys)
	}
	for _, k := range keys[:x] {
		worst := byPosition[k]
		t.points -= worst.Points
		t.games -= worst.Games
	}
}
