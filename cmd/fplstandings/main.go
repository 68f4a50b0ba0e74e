package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/omarshaarawi/fplstandings/internal/api/fpl"
	"github.com/omarshaarawi/fplstandings/internal/bot"
	"github.com/omarshaarawi/fplstandings/internal/cache"
	"github.com/omarshaarawi/fplstandings/internal/config"
	"github.com/omarshaarawi/fplstandings/internal/handlers"
	"github.com/omarshaarawi/fplstandings/internal/logger"
	"github.com/omarshaarawi/fplstandings/internal/mcptools"
	"github.com/omarshaarawi/fplstandings/internal/proxy"
	"github.com/omarshaarawi/fplstandings/internal/repository/memory"
	"github.com/omarshaarawi/fplstandings/internal/scheduler"
	"github.com/omarshaarawi/fplstandings/internal/service"
	"github.com/omarshaarawi/fplstandings/internal/standings"
	"github.com/omarshaarawi/fplstandings/internal/websocket"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("Error running application", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("Error loading .env file", "error", err)
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}

	log, logLevel := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	loc, err := cfg.Refresh.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fpl.NewClient(fpl.ClientConfig{
		BaseURL:    cfg.FPLAPI.BaseURL,
		Timeout:    cfg.FPLAPI.Timeout,
		MaxRetries: cfg.FPLAPI.MaxRetries,
		Logger:     log,
	})
	api := fpl.NewAPI(client)

	repo := memory.NewRepository()
	standingsService := service.NewStandingsService(api, repo, service.Options{
		LeagueID:    cfg.FPLAPI.LeagueID,
		Periods:     standings.DefaultPeriods,
		Location:    loc,
		Concurrency: cfg.FPLAPI.FetchConcurrency,
		Logger:      log,
	})

	responseCache, closeCache, err := newCache(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer closeCache()

	var telegramBot *bot.TelegramBot
	var sendMessage func(string) error
	if cfg.TelegramBot.Enabled() {
		sendMessage = func(text string) error {
			return telegramBot.SendMessage(text)
		}
	}

	sched, err := scheduler.NewScheduler(standingsService, scheduler.Options{
		LiveInterval: cfg.Refresh.LiveInterval,
		Location:     loc,
		Logger:       log,
		DigestCron:   cfg.Refresh.DigestCron,
		SendMessage:  sendMessage,
	})
	if err != nil {
		return err
	}

	hub := websocket.NewHub(standingsService, log)
	go hub.Run(ctx)

	standingsService.Subscribe(sched.Observe)
	standingsService.Subscribe(hub.Publish)

	if cfg.TelegramBot.Enabled() {
		telegramBot, err = bot.NewTelegramBot(cfg.TelegramBot.Token, cfg.TelegramBot.ChatID, bot.NewHandler(standingsService, sched), log)
		if err != nil {
			return err
		}
	}

	if err := sched.Start(); err != nil {
		return err
	}
	defer func() {
		err := sched.Stop()
		if err != nil {
			slog.Error("Error stopping scheduler", "error", err)
		}
	}()

	mcpServer := mcptools.NewServer(standingsService, sched, version)
	h := handlers.New(standingsService, sched, handlers.Options{
		Proxy:    proxy.New(client, responseCache, log),
		Hub:      hub,
		MCP:      mcptools.Handler(mcpServer),
		Logger:   log,
		LogLevel: logLevel,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Server.Addr, "league_id", cfg.FPLAPI.LeagueID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Error starting HTTP server", "error", err)
			stop()
		}
	}()

	if telegramBot != nil {
		go func() {
			if err := telegramBot.Start(ctx); err != nil {
				slog.Error("Error running telegram bot", "error", err)
			}
		}()
	}

	// A failed initial load leaves the service serving 503 until POST /api/reload succeeds.
	go func() {
		if _, err := standingsService.Load(ctx); err != nil && !errors.Is(err, service.ErrSuperseded) {
			slog.Warn("Initial load failed", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newCache picks Redis when configured, otherwise an in-process cache.
func newCache(ctx context.Context, cfg config.Redis, log *slog.Logger) (cache.Cache, func(), error) {
	if cfg.Addr == "" {
		log.Info("Using in-memory proxy cache")
		return cache.NewMemory(nil), func() {}, nil
	}

	rc, err := cache.NewRedis(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Using Redis proxy cache", "addr", cfg.Addr)
	return rc, func() {
		if err := rc.Close(); err != nil {
			log.Error("Error closing Redis", "error", err)
		}
	}, nil
}
