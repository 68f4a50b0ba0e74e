package models

import "time"

type Gameweek struct {
	ID           int
	DeadlineTime time.Time
	IsCurrent    bool
	IsFinished   bool
}

// Live reports whether the gameweek is in progress: current and not yet finished.
func (g Gameweek) Live() bool {
	return g.IsCurrent && !g.IsFinished
}

type Period struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Months []int  `json:"months"`
}

func (p Period) HasMonth(month int) bool {
	for _, m := range p.Months {
		if m == month {
			return true
		}
	}
	return false
}

// PeriodMapping maps Period.ID to the ordered gameweek ids falling in that period.
type PeriodMapping map[string][]int

type GameweekPoints struct {
	Event  int `json:"event"`
	Points int `json:"points"`
}

type ManagerEntry struct {
	TeamID      int
	ManagerName string
	TeamName    string
	History     []GameweekPoints
}

// LivePlayerStats maps a player id to their live total points for the active gameweek.
type LivePlayerStats map[int]int

type Pick struct {
	Element    int
	Multiplier int
}

type StandingsEntry struct {
	Rank        int    `json:"rank"`
	TeamID      int    `json:"team_id"`
	ManagerName string `json:"manager_name"`
	TeamName    string `json:"team_name"`
	Points      int    `json:"points"`
	LivePoints  int    `json:"live_points"`
	HasLiveData bool   `json:"has_live_data"`
}

// Session is the data loaded once at startup (or on an explicit reload).
// It is never mutated after construction; a reload replaces it wholesale.
type Session struct {
	ID           string
	LoadedAt     time.Time
	Gameweeks    []Gameweek
	Mapping      PeriodMapping
	Managers     []ManagerEntry
	LiveGameweek *int
}

// Snapshot is the outcome of one aggregation pass.
type Snapshot struct {
	PeriodID      string           `json:"period_id"`
	PeriodName    string           `json:"period_name"`
	Gameweeks     []int            `json:"gameweeks"`
	Entries       []StandingsEntry `json:"entries"`
	LiveGameweek  *int             `json:"live_gameweek,omitempty"`
	LiveInPeriod  bool             `json:"live_in_period"`
	LiveAvailable bool             `json:"live_available"`
	Generation    uint64           `json:"generation"`
	UpdatedAt     time.Time        `json:"updated_at"`
}
