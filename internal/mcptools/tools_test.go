package mcptools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/omarshaarawi/fplstandings/internal/models"
)

var testPeriods = []models.Period{
	{ID: "aug-sep", Name: "August + September", Months: []int{8, 9}},
	{ID: "oct-nov", Name: "October + November", Months: []int{10, 11}},
}

type fakeStandings struct {
	session *models.Session
	err     error
}

func (f *fakeStandings) Periods() []models.Period { return testPeriods }
func (f *fakeStandings) Session() *models.Session { return f.session }
func (f *fakeStandings) Selected() models.Period { return testPeriods[1] }

func (f *fakeStandings) ResolvePeriod(query string) (models.Period, error) {
	for _, p := range testPeriods {
		if p.ID == query || strings.EqualFold(p.Name, query) {
			return p, nil
		}
	}
	if query == "" {
		return testPeriods[1], nil
	}
	return models.Period{}, fmt.Errorf("unknown period: %q", query)
}

func (f *fakeStandings) Standings(ctx context.Context, periodID string) (*models.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Snapshot{
		PeriodID: periodID,
		Entries: []models.StandingsEntry{
			{Rank: 1, TeamID: 1, ManagerName: "Ann", TeamName: "Ann FC", Points: 18},
		},
	}, nil
}

type fakeRefresher struct {
	calls int
}

func (f *fakeRefresher) Trigger(ctx context.Context) (*models.Snapshot, error) {
	f.calls++
	return &models.Snapshot{PeriodID: "oct-nov", Generation: 9}, nil
}

func connect(t *testing.T, server *mcp.Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	if _, err := server.Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if len(res.Content) == 0 {
		t.Fatalf("call %s: empty content", name)
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("call %s: content is %T", name, res.Content[0])
	}
	return res, text.Text
}

func TestTools_Listed(t *testing.T) {
	session := connect(t, NewServer(&fakeStandings{}, &fakeRefresher{}, "test"))

	res, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"list_periods", "period_standings", "refresh_standings"} {
		if !names[want] {
			t.Errorf("tool %q not registered", want)
		}
	}
}

func TestListPeriods(t *testing.T) {
	standings := &fakeStandings{session: &models.Session{
		Mapping: models.PeriodMapping{"aug-sep": {1, 2, 3}, "oct-nov": {}},
	}}
	session := connect(t, NewServer(standings, &fakeRefresher{}, "test"))

	_, text := callTool(t, session, "list_periods", map[string]any{})

	var out struct {
		Periods []periodInfo `json:"periods"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Periods) != 2 {
		t.Fatalf("periods = %d, want 2", len(out.Periods))
	}
	if got := out.Periods[0].Gameweeks; len(got) != 3 {
		t.Errorf("aug-sep gameweeks = %v", got)
	}
	if !out.Periods[1].Selected || out.Periods[0].Selected {
		t.Errorf("selected flags = %v, %v", out.Periods[0].Selected, out.Periods[1].Selected)
	}
}

func TestPeriodStandings(t *testing.T) {
	session := connect(t, NewServer(&fakeStandings{}, &fakeRefresher{}, "test"))

	res, text := callTool(t, session, "period_standings", map[string]any{"period": "August + September"})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", text)
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(text), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.PeriodID != "aug-sep" || len(snap.Entries) != 1 || snap.Entries[0].ManagerName != "Ann" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestPeriodStandings_Errors(t *testing.T) {
	session := connect(t, NewServer(&fakeStandings{err: errors.New("league data not loaded")}, &fakeRefresher{}, "test"))

	res, text := callTool(t, session, "period_standings", map[string]any{"period": "nope"})
	if !res.IsError || !strings.Contains(text, "unknown period") {
		t.Errorf("unknown period: IsError=%v text=%q", res.IsError, text)
	}

	res, text = callTool(t, session, "period_standings", map[string]any{"period": "aug-sep"})
	if !res.IsError || !strings.Contains(text, "not loaded") {
		t.Errorf("not loaded: IsError=%v text=%q", res.IsError, text)
	}
}

func TestRefreshStandings(t *testing.T) {
	refresher := &fakeRefresher{}
	session := connect(t, NewServer(&fakeStandings{}, refresher, "test"))

	res, text := callTool(t, session, "refresh_standings", map[string]any{})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", text)
	}
	if refresher.calls != 1 {
		t.Errorf("trigger calls = %d, want 1", refresher.calls)
	}
	if !strings.Contains(text, `"generation": 9`) {
		t.Errorf("result = %s", text)
	}
}
