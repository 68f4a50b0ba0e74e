package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/omarshaarawi/fplstandings/internal/models"
	"github.com/omarshaarawi/fplstandings/internal/repository/memory"
	"github.com/omarshaarawi/fplstandings/internal/standings"
)

var (
	ErrNotLoaded     = errors.New("league data not loaded")
	ErrUnknownPeriod = errors.New("unknown period")
	// ErrSuperseded is returned by Recompute when a newer pass was triggered
	// before this one finished; its result was discarded.
	ErrSuperseded = errors.New("recompute superseded by a newer trigger")
)

// Upstream is the subset of the fantasy API the service reads from.
type Upstream interface {
	GetGameweeks(ctx context.Context) ([]models.Gameweek, error)
	GetLeagueMembers(ctx context.Context, leagueID int) ([]models.LeagueResult, error)
	GetHistory(ctx context.Context, teamID int) ([]models.GameweekPoints, error)
	standings.LiveSource
}

// Listener is called with every snapshot that becomes the current one.
type Listener func(snapshot *models.Snapshot)

type Options struct {
	LeagueID    int
	Periods     []models.Period
	Location    *time.Location
	Concurrency int
	Clock       clockwork.Clock
	Logger      *slog.Logger
}

type StandingsService struct {
	api        Upstream
	repo       *memory.Repository
	aggregator *standings.Aggregator
	leagueID   int
	periods    []models.Period
	location   *time.Location
	parallel   int
	clock      clockwork.Clock
	logger     *slog.Logger

	generation atomic.Uint64

	notifyMu     sync.Mutex
	lastNotified uint64

	mu        sync.RWMutex
	selected  string
	listeners []Listener
	loadErr   error
}

func NewStandingsService(api Upstream, repo *memory.Repository, opts Options) *StandingsService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if len(opts.Periods) == 0 {
		opts.Periods = standings.DefaultPeriods
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}

	return &StandingsService{
		api:        api,
		repo:       repo,
		aggregator: standings.NewAggregator(api, opts.Logger, opts.Concurrency),
		leagueID:   opts.LeagueID,
		periods:    opts.Periods,
		location:   opts.Location,
		parallel:   opts.Concurrency,
		clock:      opts.Clock,
		logger:     opts.Logger,
		selected:   opts.Periods[0].ID,
	}
}

// Subscribe registers l to receive every applied snapshot.
func (s *StandingsService) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Load fetches bootstrap, league and history data, replaces the session and
// recomputes the selected period. History failures are isolated per manager;
// bootstrap or league failures fail the load and keep the previous session.
func (s *StandingsService) Load(ctx context.Context) (*models.Snapshot, error) {
	session, err := s.fetchSession(ctx)
	s.mu.Lock()
	s.loadErr = err
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("Failed to load league data", "league_id", s.leagueID, "error", err)
		return nil, err
	}

	first := s.repo.GetSession() == nil
	s.repo.SaveSession(session)
	s.logger.Info("League data loaded",
		"session", session.ID, "managers", len(session.Managers), "gameweeks", len(session.Gameweeks))

	if first && session.LiveGameweek != nil {
		if id, ok := standings.PeriodOf(s.periods, session.Mapping, *session.LiveGameweek); ok {
			s.mu.Lock()
			s.selected = id
			s.mu.Unlock()
		}
	}

	return s.Recompute(ctx)
}

func (s *StandingsService) fetchSession(ctx context.Context) (*models.Session, error) {
	gameweeks, err := s.api.GetGameweeks(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	mapping := standings.MapGameweeks(s.periods, gameweeks, s.location)

	members, err := s.api.GetLeagueMembers(ctx, s.leagueID)
	if err != nil {
		return nil, fmt.Errorf("league: %w", err)
	}

	managers := make([]models.ManagerEntry, len(members))
	var g errgroup.Group
	g.SetLimit(s.parallel)
	for i, m := range members {
		managers[i] = models.ManagerEntry{
			TeamID:      m.Entry,
			ManagerName: m.PlayerName,
			TeamName:    m.EntryName,
			History:     []models.GameweekPoints{},
		}
		g.Go(func() error {
			history, err := s.api.GetHistory(ctx, m.Entry)
			if err != nil {
				s.logger.Warn("Failed to fetch manager history", "manager", m.PlayerName, "team_id", m.Entry, "error", err)
				return nil
			}
			managers[i].History = history
			return nil
		})
	}
	_ = g.Wait()

	return &models.Session{
		ID:           uuid.NewString(),
		LoadedAt:     s.clock.Now(),
		Gameweeks:    gameweeks,
		Mapping:      mapping,
		Managers:     managers,
		LiveGameweek: standings.LiveGameweek(gameweeks),
	}, nil
}

// Recompute runs an aggregation pass for the selected period. Every call takes
// a new generation token; the result is applied only if no newer call started
// in the meantime, otherwise ErrSuperseded is returned with the discarded result.
func (s *StandingsService) Recompute(ctx context.Context) (*models.Snapshot, error) {
	session := s.repo.GetSession()
	if session == nil {
		return nil, ErrNotLoaded
	}

	token := s.generation.Add(1)
	period := s.Selected()
	snap := s.compute(ctx, session, period)
	snap.Generation = token

	// A caller that gave up would otherwise store live points degraded by its
	// own cancellation.
	if err := ctx.Err(); err != nil {
		s.logger.Debug("Discarding cancelled standings pass", "period", period.ID, "generation", token, "error", err)
		return nil, err
	}

	applied := s.repo.SaveSnapshotIf(snap, func(current *models.Snapshot) bool {
		if token != s.generation.Load() {
			return false
		}
		return current == nil || current.Generation < token
	})
	if !applied {
		s.logger.Debug("Discarding superseded standings", "period", period.ID, "generation", token)
		return snap, ErrSuperseded
	}

	s.logger.Info("Standings updated",
		"period", period.ID, "generation", token, "live", snap.LiveInPeriod, "live_available", snap.LiveAvailable)
	s.notify(snap)
	return snap, nil
}

// notify delivers snapshots to listeners one at a time and in generation
// order; a snapshot older than one already delivered is dropped.
func (s *StandingsService) notify(snap *models.Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.Generation <= s.lastNotified {
		return
	}
	s.lastNotified = snap.Generation

	s.mu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(snap)
	}
}

// Standings computes a period on demand without touching the selection or the
// stored snapshot.
func (s *StandingsService) Standings(ctx context.Context, periodID string) (*models.Snapshot, error) {
	period, ok := standings.FindPeriod(s.periods, periodID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, periodID)
	}
	session := s.repo.GetSession()
	if session == nil {
		return nil, ErrNotLoaded
	}
	return s.compute(ctx, session, period), nil
}

// Select changes the selected period and recomputes it.
func (s *StandingsService) Select(ctx context.Context, periodID string) (*models.Snapshot, error) {
	if _, ok := standings.FindPeriod(s.periods, periodID); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, periodID)
	}
	s.mu.Lock()
	s.selected = periodID
	s.mu.Unlock()

	return s.Recompute(ctx)
}

func (s *StandingsService) compute(ctx context.Context, session *models.Session, period models.Period) *models.Snapshot {
	res := s.aggregator.Aggregate(ctx, standings.Input{
		PeriodID:     period.ID,
		Mapping:      session.Mapping,
		Managers:     session.Managers,
		LiveGameweek: session.LiveGameweek,
	})

	return &models.Snapshot{
		PeriodID:      period.ID,
		PeriodName:    period.Name,
		Gameweeks:     res.Gameweeks,
		Entries:       res.Entries,
		LiveGameweek:  session.LiveGameweek,
		LiveInPeriod:  res.LiveInPeriod,
		LiveAvailable: res.LiveAvailable,
		UpdatedAt:     s.clock.Now(),
	}
}

func (s *StandingsService) Latest() *models.Snapshot {
	return s.repo.GetSnapshot()
}

func (s *StandingsService) Session() *models.Session {
	return s.repo.GetSession()
}

func (s *StandingsService) Periods() []models.Period {
	return s.periods
}

func (s *StandingsService) Selected() models.Period {
	s.mu.RLock()
	id := s.selected
	s.mu.RUnlock()

	period, _ := standings.FindPeriod(s.periods, id)
	return period
}

type Status struct {
	LeagueID       int        `json:"league_id"`
	SessionID      string     `json:"session_id,omitempty"`
	LoadedAt       *time.Time `json:"loaded_at,omitempty"`
	Managers       int        `json:"managers"`
	LiveGameweek   *int       `json:"live_gameweek,omitempty"`
	SelectedPeriod string     `json:"selected_period"`
	Generation     uint64     `json:"generation"`
	LastError      string     `json:"last_error,omitempty"`
}

func (s *StandingsService) Status() Status {
	st := Status{
		LeagueID:       s.leagueID,
		SelectedPeriod: s.Selected().ID,
		Generation:     s.generation.Load(),
	}

	s.mu.RLock()
	if s.loadErr != nil {
		st.LastError = s.loadErr.Error()
	}
	s.mu.RUnlock()

	if session := s.repo.GetSession(); session != nil {
		loadedAt := session.LoadedAt
		st.SessionID = session.ID
		st.LoadedAt = &loadedAt
		st.Managers = len(session.Managers)
		st.LiveGameweek = session.LiveGameweek
	}
	return st
}
