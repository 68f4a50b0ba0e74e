package fpl

import (
	"context"
	"fmt"
	"time"

	"github.com/omarshaarawi/fplstandings/internal/models"
)

// maxStandingsPages bounds pagination of classic league standings (50 entries per page).
const maxStandingsPages = 20

func BootstrapPath() string {
	return "/api/bootstrap-static/"
}

func HistoryPath(teamID string) string {
	return fmt.Sprintf("/api/entry/%s/history/", teamID)
}

func PicksPath(teamID, eventID string) string {
	return fmt.Sprintf("/api/entry/%s/event/%s/picks/", teamID, eventID)
}

func LivePath(eventID string) string {
	return fmt.Sprintf("/api/event/%s/live/", eventID)
}

func LeagueStandingsPath(leagueID string) string {
	return fmt.Sprintf("/api/leagues-classic/%s/standings/", leagueID)
}

type API struct {
	client *Client
}

func NewAPI(client *Client) *API {
	return &API{client: client}
}

// GetGameweeks fetches the bootstrap feed and converts its events to gameweeks.
func (a *API) GetGameweeks(ctx context.Context) ([]models.Gameweek, error) {
	var resp models.BootstrapResponse
	if err := a.client.Get(ctx, BootstrapPath(), &resp); err != nil {
		return nil, fmt.Errorf("fetching bootstrap data: %w", err)
	}

	gameweeks := make([]models.Gameweek, 0, len(resp.Events))
	for _, ev := range resp.Events {
		deadline, err := time.Parse(time.RFC3339, ev.DeadlineTime)
		if err != nil {
			return nil, fmt.Errorf("parsing deadline of gameweek %d: %w", ev.ID, err)
		}
		gameweeks = append(gameweeks, models.Gameweek{
			ID:           ev.ID,
			DeadlineTime: deadline,
			IsCurrent:    ev.IsCurrent,
			IsFinished:   ev.Finished,
		})
	}
	return gameweeks, nil
}

// GetLeagueMembers returns every member of a classic league, following pagination.
func (a *API) GetLeagueMembers(ctx context.Context, leagueID int) ([]models.LeagueResult, error) {
	var members []models.LeagueResult
	for page := 1; page <= maxStandingsPages; page++ {
		path := LeagueStandingsPath(fmt.Sprint(leagueID))
		if page > 1 {
			path = fmt.Sprintf("%s?page_standings=%d", path, page)
		}

		var resp models.LeagueStandingsResponse
		if err := a.client.Get(ctx, path, &resp); err != nil {
			return nil, fmt.Errorf("fetching league %d standings page %d: %w", leagueID, page, err)
		}
		members = append(members, resp.Standings.Results...)
		if !resp.Standings.HasNext {
			break
		}
	}
	return members, nil
}

func (a *API) GetHistory(ctx context.Context, teamID int) ([]models.GameweekPoints, error) {
	var resp models.HistoryResponse
	if err := a.client.Get(ctx, HistoryPath(fmt.Sprint(teamID)), &resp); err != nil {
		return nil, fmt.Errorf("fetching history for team %d: %w", teamID, err)
	}

	history := make([]models.GameweekPoints, len(resp.Current))
	for i, h := range resp.Current {
		history[i] = models.GameweekPoints{Event: h.Event, Points: h.Points}
	}
	return history, nil
}

func (a *API) GetLiveStats(ctx context.Context, eventID int) (models.LivePlayerStats, error) {
	var resp models.LiveResponse
	if err := a.client.Get(ctx, LivePath(fmt.Sprint(eventID)), &resp); err != nil {
		return nil, fmt.Errorf("fetching live data for gameweek %d: %w", eventID, err)
	}

	stats := make(models.LivePlayerStats, len(resp.Elements))
	for _, el := range resp.Elements {
		stats[el.ID] = el.Stats.TotalPoints
	}
	return stats, nil
}

func (a *API) GetPicks(ctx context.Context, teamID, eventID int) ([]models.Pick, error) {
	var resp models.PicksResponse
	if err := a.client.Get(ctx, PicksPath(fmt.Sprint(teamID), fmt.Sprint(eventID)), &resp); err != nil {
		return nil, fmt.Errorf("fetching picks for team %d gameweek %d: %w", teamID, eventID, err)
	}

	picks := make([]models.Pick, len(resp.Picks))
	for i, p := range resp.Picks {
		picks[i] = models.Pick{Element: p.Element, Multiplier: p.Multiplier}
	}
	return picks, nil
}
