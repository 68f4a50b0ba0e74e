package models

// Wire shapes of the upstream fantasy API. Only the fields the standings
// pipeline reads are declared; the proxy forwards bodies untouched.

type BootstrapResponse struct {
	Events []Event `json:"events"`
}

type Event struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DeadlineTime string `json:"deadline_time"`
	IsCurrent    bool   `json:"is_current"`
	IsNext       bool   `json:"is_next"`
	Finished     bool   `json:"finished"`
}

type LeagueStandingsResponse struct {
	League    LeagueInfo      `json:"league"`
	Standings LeagueStandings `json:"standings"`
}

type LeagueInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type LeagueStandings struct {
	HasNext bool           `json:"has_next"`
	Page    int            `json:"page"`
	Results []LeagueResult `json:"results"`
}

type LeagueResult struct {
	Entry      int    `json:"entry"`
	PlayerName string `json:"player_name"`
	EntryName  string `json:"entry_name"`
	Rank       int    `json:"rank"`
	Total      int    `json:"total"`
}

type HistoryResponse struct {
	Current []HistoryEvent `json:"current"`
}

type HistoryEvent struct {
	Event       int `json:"event"`
	Points      int `json:"points"`
	TotalPoints int `json:"total_points"`
}

type LiveResponse struct {
	Elements []LiveElement `json:"elements"`
}

type LiveElement struct {
	ID    int       `json:"id"`
	Stats LiveStats `json:"stats"`
}

type LiveStats struct {
	Minutes     int `json:"minutes"`
	TotalPoints int `json:"total_points"`
}

type PicksResponse struct {
	ActiveChip string     `json:"active_chip"`
	Picks      []WirePick `json:"picks"`
}

type WirePick struct {
	Element       int  `json:"element"`
	Position      int  `json:"position"`
	Multiplier    int  `json:"multiplier"`
	IsCaptain     bool `json:"is_captain"`
	IsViceCaptain bool `json:"is_vice_captain"`
}
