package standings

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/omarshaarawi/fplstandings/internal/models"
)

const defaultConcurrency = 8

// LiveSource provides in-progress data for the live gameweek.
type LiveSource interface {
	GetLiveStats(ctx context.Context, eventID int) (models.LivePlayerStats, error)
	GetPicks(ctx context.Context, teamID, eventID int) ([]models.Pick, error)
}

type Input struct {
	PeriodID     string
	Mapping      models.PeriodMapping
	Managers     []models.ManagerEntry
	LiveGameweek *int
}

type Result struct {
	Entries   []models.StandingsEntry
	Gameweeks []int
	// LiveInPeriod is true when the live gameweek belongs to the period,
	// whether or not its live stats could be fetched.
	LiveInPeriod bool
	// LiveAvailable is true when live stats were fetched for this pass.
	LiveAvailable bool
}

type Aggregator struct {
	source      LiveSource
	logger      *slog.Logger
	concurrency int
}

func NewAggregator(source LiveSource, logger *slog.Logger, concurrency int) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Aggregator{source: source, logger: logger, concurrency: concurrency}
}

// Aggregate computes ranked standings for in.PeriodID. Live data failures never
// fail the pass: a live stats failure degrades every manager to historical
// points, a picks failure degrades only that manager.
func (a *Aggregator) Aggregate(ctx context.Context, in Input) Result {
	gameweeks := in.Mapping[in.PeriodID]
	if gameweeks == nil {
		gameweeks = []int{}
	}

	liveInPeriod := in.LiveGameweek != nil && containsInt(gameweeks, *in.LiveGameweek)
	exclude := 0
	if in.LiveGameweek != nil {
		exclude = *in.LiveGameweek
	}

	var stats models.LivePlayerStats
	if liveInPeriod && a.source != nil {
		s, err := a.source.GetLiveStats(ctx, *in.LiveGameweek)
		if err != nil {
			a.logger.Warn("Live stats unavailable, using historical points only",
				"period", in.PeriodID, "gameweek", *in.LiveGameweek, "error", err)
		} else {
			stats = s
		}
	}

	inPeriod := make(map[int]struct{}, len(gameweeks))
	for _, id := range gameweeks {
		inPeriod[id] = struct{}{}
	}

	entries := make([]models.StandingsEntry, len(in.Managers))
	for i, m := range in.Managers {
		entries[i] = models.StandingsEntry{
			TeamID:      m.TeamID,
			ManagerName: m.ManagerName,
			TeamName:    m.TeamName,
			Points:      HistoricalPoints(m.History, inPeriod, exclude),
		}
	}

	if stats != nil {
		a.addLivePoints(ctx, entries, *in.LiveGameweek, stats)
	}

	return Result{
		Entries:       Rank(entries),
		Gameweeks:     gameweeks,
		LiveInPeriod:  liveInPeriod,
		LiveAvailable: stats != nil,
	}
}

func (a *Aggregator) addLivePoints(ctx context.Context, entries []models.StandingsEntry, gameweek int, stats models.LivePlayerStats) {
	var g errgroup.Group
	g.SetLimit(a.concurrency)

	for i := range entries {
		entry := &entries[i]
		g.Go(func() error {
			picks, err := a.source.GetPicks(ctx, entry.TeamID, gameweek)
			if err != nil {
				a.logger.Warn("Picks unavailable, manager keeps historical points",
					"team_id", entry.TeamID, "gameweek", gameweek, "error", err)
				return nil
			}
			entry.LivePoints = LivePoints(picks, stats)
			entry.Points += entry.LivePoints
			entry.HasLiveData = true
			return nil
		})
	}
	_ = g.Wait()
}

// HistoricalPoints sums history points for gameweeks in the period, skipping
// excludeEvent so the live gameweek is not counted twice.
func HistoricalPoints(history []models.GameweekPoints, inPeriod map[int]struct{}, excludeEvent int) int {
	total := 0
	for _, h := range history {
		if h.Event == excludeEvent {
			continue
		}
		if _, ok := inPeriod[h.Event]; ok {
			total += h.Points
		}
	}
	return total
}

// LivePoints weights each picked player's live total by the pick multiplier.
// Benched picks (multiplier 0) and players without live stats contribute nothing.
func LivePoints(picks []models.Pick, stats models.LivePlayerStats) int {
	total := 0
	for _, p := range picks {
		if p.Multiplier <= 0 {
			continue
		}
		total += stats[p.Element] * p.Multiplier
	}
	return total
}

// Rank orders entries by points descending, keeping input order among ties,
// and numbers them by position starting at 1.
func Rank(entries []models.StandingsEntry) []models.StandingsEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Points > entries[j].Points
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
