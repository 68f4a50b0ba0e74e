package fpl_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/omarshaarawi/fplstandings/internal/api/fpl"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc, retries int) *fpl.API {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := fpl.NewClient(fpl.ClientConfig{
		BaseURL:    srv.URL,
		Timeout:    2 * time.Second,
		MaxRetries: retries,
	})
	return fpl.NewAPI(client)
}

func TestGetGameweeks(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/bootstrap-static/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"events":[
			{"id":1,"deadline_time":"2024-08-16T17:30:00Z","is_current":false,"finished":true},
			{"id":2,"deadline_time":"2024-08-24T10:00:00Z","is_current":true,"finished":false}
		]}`))
	}, 0)

	gws, err := api.GetGameweeks(context.Background())
	if err != nil {
		t.Fatalf("GetGameweeks() error = %v", err)
	}
	if len(gws) != 2 {
		t.Fatalf("len = %d, want 2", len(gws))
	}
	if !gws[0].IsFinished || gws[0].Live() {
		t.Errorf("gameweek 1 = %+v, want finished and not live", gws[0])
	}
	if !gws[1].Live() {
		t.Errorf("gameweek 2 = %+v, want live", gws[1])
	}
	want := time.Date(2024, 8, 24, 10, 0, 0, 0, time.UTC)
	if !gws[1].DeadlineTime.Equal(want) {
		t.Errorf("deadline = %v, want %v", gws[1].DeadlineTime, want)
	}
}

func TestGetGameweeks_BadDeadline(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events":[{"id":1,"deadline_time":"yesterday"}]}`))
	}, 0)

	if _, err := api.GetGameweeks(context.Background()); err == nil {
		t.Error("expected error for unparseable deadline")
	}
}

func TestGetLeagueMembers_FollowsPages(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/leagues-classic/286461/standings/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch r.URL.Query().Get("page_standings") {
		case "":
			w.Write([]byte(`{"standings":{"has_next":true,"results":[{"entry":1,"player_name":"Ann","entry_name":"A FC"}]}}`))
		case "2":
			w.Write([]byte(`{"standings":{"has_next":false,"results":[{"entry":2,"player_name":"Bob","entry_name":"B FC"}]}}`))
		default:
			t.Errorf("unexpected page %q", r.URL.RawQuery)
		}
	}, 0)

	members, err := api.GetLeagueMembers(context.Background(), 286461)
	if err != nil {
		t.Fatalf("GetLeagueMembers() error = %v", err)
	}
	if len(members) != 2 || members[0].PlayerName != "Ann" || members[1].EntryName != "B FC" {
		t.Errorf("members = %+v", members)
	}
}

func TestGetHistoryLiveAndPicks(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/entry/7/history/":
			w.Write([]byte(`{"current":[{"event":1,"points":50},{"event":2,"points":60}]}`))
		case "/api/event/2/live/":
			w.Write([]byte(`{"elements":[{"id":10,"stats":{"total_points":8}},{"id":11,"stats":{"total_points":2}}]}`))
		case "/api/entry/7/event/2/picks/":
			w.Write([]byte(`{"picks":[{"element":10,"multiplier":2},{"element":11,"multiplier":0}]}`))
		default:
			http.NotFound(w, r)
		}
	}, 0)
	ctx := context.Background()

	history, err := api.GetHistory(ctx, 7)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(history) != 2 || history[1].Event != 2 || history[1].Points != 60 {
		t.Errorf("history = %+v", history)
	}

	live, err := api.GetLiveStats(ctx, 2)
	if err != nil {
		t.Fatalf("GetLiveStats() error = %v", err)
	}
	if live[10] != 8 || live[11] != 2 {
		t.Errorf("live = %v", live)
	}

	picks, err := api.GetPicks(ctx, 7, 2)
	if err != nil {
		t.Fatalf("GetPicks() error = %v", err)
	}
	if len(picks) != 2 || picks[0].Multiplier != 2 || picks[1].Multiplier != 0 {
		t.Errorf("picks = %+v", picks)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"current":[]}`))
	}, 2)

	if _, err := api.GetHistory(context.Background(), 1); err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestClient_DoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}, 3)

	_, err := api.GetHistory(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error")
	}
	var statusErr *fpl.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected StatusError 404, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestClient_GetRawReturnsBodyVerbatim(t *testing.T) {
	body := `{"events":[],"extra":{"kept":true}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	client := fpl.NewClient(fpl.ClientConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})

	raw, err := client.GetRaw(context.Background(), fpl.BootstrapPath())
	if err != nil {
		t.Fatalf("GetRaw() error = %v", err)
	}
	if string(raw) != body {
		t.Errorf("body = %q, want %q", raw, body)
	}
}

func TestPaths(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{fpl.BootstrapPath(), "/api/bootstrap-static/"},
		{fpl.HistoryPath("5"), "/api/entry/5/history/"},
		{fpl.PicksPath("5", "3"), "/api/entry/5/event/3/picks/"},
		{fpl.LivePath("3"), "/api/event/3/live/"},
		{fpl.LeagueStandingsPath("286461"), "/api/leagues-classic/286461/standings/"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
