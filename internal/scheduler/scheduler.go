package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/omarshaarawi/fplstandings/internal/models"
	"github.com/omarshaarawi/fplstandings/internal/service"
)

type State string

const (
	StateIdle       State = "idle"
	StateLiveActive State = "live-active"
)

// Recomputer is the recompute entry point shared by the timer and manual triggers.
type Recomputer interface {
	Recompute(ctx context.Context) (*models.Snapshot, error)
	Latest() *models.Snapshot
}

type Options struct {
	LiveInterval time.Duration
	Location     *time.Location
	Logger       *slog.Logger

	// DigestCron, when set, schedules a standings digest (standard 5-field cron).
	DigestCron string
	// SendMessage receives the digest text. The digest is skipped when nil.
	SendMessage func(string) error
}

// Scheduler drives live refreshes. It is IDLE until a standings pass reports
// the live gameweek inside the selected period, then re-runs the pass every
// LiveInterval until a pass reports otherwise.
type Scheduler struct {
	s           gocron.Scheduler
	recomputer  Recomputer
	interval    time.Duration
	digestCron  string
	sendMessage func(string) error
	logger      *slog.Logger

	mu        sync.Mutex
	state     State
	liveJobID uuid.UUID
}

func NewScheduler(recomputer Recomputer, opts Options) (*Scheduler, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.LiveInterval <= 0 {
		opts.LiveInterval = 2 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(opts.Location),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:           s,
		recomputer:  recomputer,
		interval:    opts.LiveInterval,
		digestCron:  opts.DigestCron,
		sendMessage: opts.SendMessage,
		logger:      opts.Logger,
		state:       StateIdle,
	}, nil
}

func (s *Scheduler) Start() error {
	if s.digestCron != "" && s.sendMessage != nil {
		if _, err := cron.ParseStandard(s.digestCron); err != nil {
			return fmt.Errorf("invalid digest cron %q: %w", s.digestCron, err)
		}
		_, err := s.s.NewJob(
			gocron.CronJob(s.digestCron, false),
			gocron.NewTask(s.sendDigest),
			gocron.WithName("standings-digest"),
		)
		if err != nil {
			return fmt.Errorf("failed to create digest job: %w", err)
		}
	}

	s.s.Start()
	return nil
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Observe applies the state transition implied by a freshly applied snapshot.
// It is registered as a standings listener.
func (s *Scheduler) Observe(snap *models.Snapshot) {
	if snap == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case snap.LiveInPeriod && s.state == StateIdle:
		job, err := s.s.NewJob(
			gocron.DurationJob(s.interval),
			gocron.NewTask(s.refreshLive),
			gocron.WithName("live-refresh"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			s.logger.Error("Failed to create live refresh job", "error", err)
			return
		}
		s.liveJobID = job.ID()
		s.state = StateLiveActive
		s.logger.Info("Live refresh started", "period", snap.PeriodID, "interval", s.interval)

	case !snap.LiveInPeriod && s.state == StateLiveActive:
		if err := s.s.RemoveJob(s.liveJobID); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
			s.logger.Error("Failed to remove live refresh job", "error", err)
		}
		s.liveJobID = uuid.Nil
		s.state = StateIdle
		s.logger.Info("Live refresh stopped", "period", snap.PeriodID)
	}
}

// Trigger runs a recompute immediately, sharing the entry point of the timer.
func (s *Scheduler) Trigger(ctx context.Context) (*models.Snapshot, error) {
	snap, err := s.recomputer.Recompute(ctx)
	if errors.Is(err, service.ErrSuperseded) {
		s.logger.Debug("Manual refresh superseded by a newer pass")
		return snap, nil
	}
	return snap, err
}

func (s *Scheduler) refreshLive() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	if _, err := s.recomputer.Recompute(ctx); err != nil && !errors.Is(err, service.ErrSuperseded) {
		s.logger.Error("Failed to refresh live standings", "error", err)
	}
}

func (s *Scheduler) sendDigest() {
	snap := s.recomputer.Latest()
	if snap == nil {
		s.logger.Warn("No standings to send in digest")
		return
	}
	if err := s.sendMessage(service.FormatStandings(snap)); err != nil {
		s.logger.Error("Failed to send standings digest", "error", err)
	}
}
