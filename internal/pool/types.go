// Package pool implements the Pool State Engine: the deterministic, I/O-free
// state machine that governs a single fantasy hockey pool's lifecycle.
package pool

// PoolState is the pool's lifecycle status, a closed sum type.
type PoolState string

const (
	StateCreated    PoolState = "Created"
	StateDraft      PoolState = "Draft"
	StateInProgress PoolState = "InProgress"
	StateFinal      PoolState = "Final"
	StateDynasty    PoolState = "Dynasty"
)

// DraftType selects the turn-order rule a pool was configured with. Only
// Serpentine is ever actually applied by draft_player's turn formula
// (see engine.go); Standard is accepted and stored for compatibility with
// pools that declare it, matching the reference engine's behavior.
type DraftType string

const (
	DraftSerpentine DraftType = "Serpentine"
	DraftStandard   DraftType = "Standard"
)

// Position is a player's roster slot category.
type Position string

const (
	PositionF Position = "F"
	PositionD Position = "D"
	PositionG Position = "G"
)

// TradeStatus is the lifecycle of a single trade proposal.
type TradeStatus string

const (
	TradeNew       TradeStatus = "NEW"
	TradeAccepted  TradeStatus = "ACCEPTED"
	TradeCancelled TradeStatus = "CANCELLED"
	TradeRefused   TradeStatus = "REFUSED"
)

// PlayerTypeSettings caps how many players of each position are ignored
// (when computing final rank) or otherwise position-scoped.
type PlayerTypeSettings struct {
	Forwards int `json:"forwards"`
	Defense  int `json:"defense"`
	Goalies  int `json:"goalies"`
}

// DynastySettings configures multi-season carryover.
type DynastySettings struct {
	NextSeasonNumberPlayersProtected int      `json:"next_season_number_players_protected"`
	TradablePicks                    int      `json:"tradable_picks"`
	PastSeasonPoolName               []string `json:"past_season_pool_name"`
	NextSeasonPoolName               *string  `json:"next_season_pool_name,omitempty"`
}

// SkaterSettings are the per-point scoring weights for forwards/defensemen.
type SkaterSettings struct {
	PointsPerGoals         int `json:"points_per_goals"`
	PointsPerAssists       int `json:"points_per_assists"`
	PointsPerHattricks     int `json:"points_per_hattricks"`
	PointsPerShootoutGoals int `json:"points_per_shootout_goals"`
}

// GoaliesSettings are the per-point scoring weights for goalies.
type GoaliesSettings struct {
	PointsPerWins      int `json:"points_per_wins"`
	PointsPerShutouts  int `json:"points_per_shutouts"`
	PointsPerOvertimes int `json:"points_per_overtimes"`
	PointsPerGoals     int `json:"points_per_goals"`
	PointsPerAssists   int `json:"points_per_assists"`
}

// PoolSettings is the per-phase configuration of a pool.
type PoolSettings struct {
	NumberPoolers           int                 `json:"number_poolers"`
	DraftType               DraftType           `json:"draft_type"`
	Assistants              []string            `json:"assistants"`
	NumberForwards          int                 `json:"number_forwards"`
	NumberDefenders         int                 `json:"number_defenders"`
	NumberGoalies           int                 `json:"number_goalies"`
	NumberReservists        int                 `json:"number_reservists"`
	SalaryCap               *float64            `json:"salary_cap,omitempty"`
	RosterModificationDate  []string            `json:"roster_modification_date"`
	ForwardsSettings        SkaterSettings      `json:"forwards_settings"`
	DefenseSettings         SkaterSettings      `json:"defense_settings"`
	GoaliesSettings         GoaliesSettings     `json:"goalies_settings"`
	IgnoreXWorstPlayers     *PlayerTypeSettings `json:"ignore_x_worst_players,omitempty"`
	DynastySettings         *DynastySettings    `json:"dynasty_settings,omitempty"`
}

// DefaultPoolSettings mirrors the reference engine's PoolSettings::new().
func DefaultPoolSettings() PoolSettings {
	return PoolSettings{
		NumberPoolers:    6,
		DraftType:        DraftSerpentine,
		Assistants:       []string{},
		NumberForwards:   9,
		NumberDefenders:  4,
		NumberGoalies:    2,
		NumberReservists: 2,
		ForwardsSettings: SkaterSettings{PointsPerGoals: 2, PointsPerAssists: 1, PointsPerHattricks: 3, PointsPerShootoutGoals: 1},
		DefenseSettings:  SkaterSettings{PointsPerGoals: 3, PointsPerAssists: 2, PointsPerHattricks: 2, PointsPerShootoutGoals: 1},
		GoaliesSettings:  GoaliesSettings{PointsPerWins: 2, PointsPerShutouts: 3, PointsPerGoals: 3, PointsPerAssists: 2, PointsPerOvertimes: 1},
	}
}

// PoolUser is a participant as recorded on the pool once the draft starts.
type PoolUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsOwned bool   `json:"is_owned"`
}

// RoomUser is a draft-room participant prior to (or during) the draft,
// sourced from the Draft Room Coordinator rather than the store.
type RoomUser struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   *string `json:"email,omitempty"`
	IsReady bool    `json:"is_ready"`
}

// PoolUserFromRoomUser converts a room participant into a persisted
// PoolUser, matching the reference conversion (`is_owned = email.is_some()`).
func PoolUserFromRoomUser(u RoomUser) PoolUser {
	return PoolUser{ID: u.ID, Name: u.Name, IsOwned: u.Email != nil}
}

// Player is a drafted/owned NHL player.
type Player struct {
	ID                       uint32   `json:"id"`
	Name                     string   `json:"name"`
	Team                     *uint32  `json:"team,omitempty"`
	Position                 Position `json:"position"`
	Age                      *uint8   `json:"age,omitempty"`
	SalaryCap                *float64 `json:"salary_cap,omitempty"`
	ContractExpirationSeason *uint32  `json:"contract_expiration_season,omitempty"`
}

// Pick is a future tradable draft pick, identified by its round and the
// participant it originated from.
type Pick struct {
	Round uint8  `json:"round"`
	From  string `json:"from"`
}

// TradeItems is one side of a trade offer.
type TradeItems struct {
	Players []uint32 `json:"players"`
	Picks   []Pick   `json:"picks"`
}

// Trade is a single proposal between two participants.
type Trade struct {
	ID           uint32      `json:"id"`
	ProposedBy   string      `json:"proposed_by"`
	AskTo        string      `json:"ask_to"`
	FromItems    TradeItems  `json:"from_items"`
	ToItems      TradeItems  `json:"to_items"`
	Status       TradeStatus `json:"status"`
	DateCreated  int64       `json:"date_created"`
	DateAccepted int64       `json:"date_accepted"`
}

// PoolerRoster is one participant's four ordered player-id lists.
type PoolerRoster struct {
	ChosenForwards   []uint32 `json:"chosen_forwards"`
	ChosenDefenders  []uint32 `json:"chosen_defenders"`
	ChosenGoalies    []uint32 `json:"chosen_goalies"`
	ChosenReservists []uint32 `json:"chosen_reservists"`
}

func newPoolerRoster() PoolerRoster {
	return PoolerRoster{
		ChosenForwards:   []uint32{},
		ChosenDefenders:  []uint32{},
		ChosenGoalies:    []uint32{},
		ChosenReservists: []uint32{},
	}
}

func removeFrom(list []uint32, playerID uint32) ([]uint32, bool) {
	for i, id := range list {
		if id == playerID {
			out := make([]uint32, 0, len(list)-1)
			out = append(out, list[:i]...)
			out = append(out, list[i+1:]...)
			return out, true
		}
	}
	return list, false
}

// RemoveForward removes playerID from the forwards list if present.
func (r *PoolerRoster) RemoveForward(playerID uint32) bool {
	out, ok := removeFrom(r.ChosenForwards, playerID)
	r.ChosenForwards = out
	return ok
}

// RemoveDefender removes playerID from the defenders list if present.
func (r *PoolerRoster) RemoveDefender(playerID uint32) bool {
	out, ok := removeFrom(r.ChosenDefenders, playerID)
	r.ChosenDefenders = out
	return ok
}

// RemoveGoalie removes playerID from the goalies list if present.
func (r *PoolerRoster) RemoveGoalie(playerID uint32) bool {
	out, ok := removeFrom(r.ChosenGoalies, playerID)
	r.ChosenGoalies = out
	return ok
}

// RemoveReservist removes playerID from the reservists list if present.
func (r *PoolerRoster) RemoveReservist(playerID uint32) bool {
	out, ok := removeFrom(r.ChosenReservists, playerID)
	r.ChosenReservists = out
	return ok
}

// ValidatePlayerPossession reports whether playerID sits in any of the
// four roster lists.
func (r *PoolerRoster) ValidatePlayerPossession(playerID uint32) bool {
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
	for _, id := range r.ChosenReservists {
		if id == playerID {
			return true
		}
	}
	return false
}

// TotalCount is the total number of players currently rostered (including
// reservists).
func (r *PoolerRoster) TotalCount() int {
	return len(r.ChosenForwards) + len(r.ChosenDefenders) + len(r.ChosenGoalies) + len(r.ChosenReservists)
}

// SkaterPoints is one day's raw box-score line for a forward/defenseman.
type SkaterPoints struct {
	G   uint8  `json:"G"`
	A   uint8  `json:"A"`
	SOG *uint8 `json:"SOG,omitempty"`
}

// GetTotalPoints applies the scoring weights to a single day's line.
func (p SkaterPoints) GetTotalPoints(s SkaterSettings) uint16 {
	total := uint16(p.G)*uint16(s.PointsPerGoals) + uint16(p.A)*uint16(s.PointsPerAssists)
	if p.SOG != nil {
		total += uint16(*p.SOG) * uint16(s.PointsPerShootoutGoals)
	}
	if p.G >= 3 {
		total += uint16(s.PointsPerHattricks)
	}
	return total
}

// GoalyPoints is one day's raw box-score line for a goaltender.
type GoalyPoints struct {
	G  uint8 `json:"G"`
	A  uint8 `json:"A"`
	W  bool  `json:"W"`
	SO bool  `json:"SO"`
	OT bool  `json:"OT"`
}

// GetTotalPoints applies the scoring weights to a single day's line.
func (p GoalyPoints) GetTotalPoints(s GoaliesSettings) uint16 {
	total := uint16(p.G)*uint16(s.PointsPerGoals) + uint16(p.A)*uint16(s.PointsPerAssists)
	if p.W {
		total += uint16(s.PointsPerWins)
	}
	if p.SO {
		total += uint16(s.PointsPerShutouts)
	}
	if p.OT {
		total += uint16(s.PointsPerOvertimes)
	}
	return total
}

// Roster is one day's per-position map of player id to their (optional,
// since not every rostered player necessarily played) box-score line.
type Roster struct {
	F map[string]*SkaterPoints `json:"F"`
	D map[string]*SkaterPoints `json:"D"`
	G map[string]*GoalyPoints  `json:"G"`
}

// DailyRosterPoints is one participant's scored roster for a single date.
type DailyRosterPoints struct {
	Roster      Roster `json:"roster"`
	IsCumulated bool   `json:"is_cumulated"`
}

// playerTotal accumulates points and games played for a single player.
type playerTotal struct {
	Points uint16
	Games  uint16
}

// GetTotalPoints sums the day's points across F/D/G and folds the
// per-player running totals into the supplied accumulator maps, matching
// the reference's get_total_points exactly (one map per position, each
// keyed by player id).
func (d DailyRosterPoints) GetTotalPoints(settings PoolSettings, forwards, defenders, goalies map[string]*playerTotal) (uint16, uint16) {
	var totalPoints, games uint16

	for playerID, sp := range d.Roster.F {
		if sp == nil {
			continue
		}
		daily := sp.GetTotalPoints(settings.ForwardsSettings)
		totalPoints += daily
		games++
		if acc, ok := forwards[playerID]; ok {
			acc.Points += daily
			acc.Games++
		} else {
			forwards[playerID] = &playerTotal{Points: daily, Games: 1}
		}
	}
	for playerID, sp := range d.Roster.D {
		if sp == nil {
			continue
		}
		daily := sp.GetTotalPoints(settings.DefenseSettings)
		totalPoints += daily
		games++
		if acc, ok := defenders[playerID]; ok {
			acc.Points += daily
			acc.Games++
		} else {
			defenders[playerID] = &playerTotal{Points: daily, Games: 1}
		}
	}
	for playerID, gp := range d.Roster.G {
		if gp == nil {
			continue
		}
		daily := gp.GetTotalPoints(settings.GoaliesSettings)
		totalPoints += daily
		games++
		if acc, ok := goalies[playerID]; ok {
			acc.Points += daily
			acc.Games++
		} else {
			goalies[playerID] = &playerTotal{Points: daily, Games: 1}
		}
	}

	return totalPoints, games
}

// PoolContext holds everything that exists only once a draft has started.
type PoolContext struct {
	PoolerRoster        map[string]*PoolerRoster               `json:"pooler_roster"`
	Players             map[string]Player                      `json:"players"`
	PlayersNameDrafted  []uint32                                `json:"players_name_drafted"`
	ScoreByDay          map[string]map[string]DailyRosterPoints `json:"score_by_day"`
	TradablePicks       []map[string]string                     `json:"tradable_picks"`
	PastTradablePicks   []map[string]string                     `json:"past_tradable_picks"`
	ProtectedPlayers    map[string][]uint32                     `json:"protected_players,omitempty"`
}

// NewPoolContext builds the empty context created by start_draft, one empty
// roster per participant. PastTradablePicks is left nil (only
// GenerateDynasty fills it), so a pool's first draft uses the serpentine
// turn order.
func NewPoolContext(participantIDs []string) *PoolContext {
	rosters := make(map[string]*PoolerRoster, len(participantIDs))
	for _, id := range participantIDs {
		r := newPoolerRoster()
		rosters[id] = &r
	}
	return &PoolContext{
		PoolerRoster:       rosters,
		Players:            map[string]Player{},
		PlayersNameDrafted: []uint32{},
		ScoreByDay:         map[string]map[string]DailyRosterPoints{},
		TradablePicks:      []map[string]string{},
	}
}

// Pool is the top-level aggregate, keyed by unique Name.
type Pool struct {
	Name         string          `json:"name"`
	Owner        string          `json:"owner"`
	Participants []PoolUser      `json:"participants"`
	Settings     PoolSettings    `json:"settings"`
	Status       PoolState       `json:"status"`
	FinalRank    []string        `json:"final_rank,omitempty"`
	DraftOrder   []string        `json:"draft_order,omitempty"`
	Trades       []Trade         `json:"trades,omitempty"`
	Context      *PoolContext    `json:"context,omitempty"`
	DateUpdated  int64           `json:"date_updated"`
	SeasonStart  string          `json:"season_start"`
	SeasonEnd    string          `json:"season_end"`
	Season       uint32          `json:"season"`
}

// NewPool constructs a freshly created pool in state Created, matching
// Pool::new in the reference engine.
func NewPool(name, owner string, settings PoolSettings, seasonConstants SeasonConstants) *Pool {
	return &Pool{
		Name:         name,
		Owner:        owner,
		Participants: []PoolUser{},
		Settings:     settings,
		Status:       StateCreated,
		DateUpdated:  0,
		SeasonStart:  seasonConstants.StartSeasonDate,
		SeasonEnd:    seasonConstants.EndSeasonDate,
		Season:       seasonConstants.PoolCreationSeason,
	}
}

// SeasonConstants are the build/config-time constants spec.md §6 calls out
// as "build-time configuration" — loaded from pkg/config in this Go port
// rather than hard-coded, but identical in spirit and default value.
type SeasonConstants struct {
	StartSeasonDate    string
	EndSeasonDate      string
	PoolCreationSeason uint32
	TradeDeadlineDate  string
}

// HasOwnerRights reports whether u is the pool's owner.
func (p *Pool) HasOwnerRights(u string) bool {
	return p.Owner == u
}

// HasAssistantRights reports whether u is listed as an assistant.
func (p *Pool) HasAssistantRights(u string) bool {
	for _, a := range p.Settings.Assistants {
		if a == u {
			return true
		}
	}
	return false
}

// HasPrivileges reports owner-or-assistant rights.
func (p *Pool) HasPrivileges(u string) bool {
	return p.HasOwnerRights(u) || p.HasAssistantRights(u)
}

// IsParticipant reports whether u is among the pool's participants.
func (p *Pool) IsParticipant(u string) bool {
	for _, pu := range p.Participants {
		if pu.ID == u {
			return true
		}
	}
	return false
}
