// Package handlers serves the standings HTTP API and mounts the proxy,
// websocket and MCP endpoints.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/omarshaarawi/fplstandings/internal/logger"
	"github.com/omarshaarawi/fplstandings/internal/models"
	"github.com/omarshaarawi/fplstandings/internal/scheduler"
	"github.com/omarshaarawi/fplstandings/internal/service"
)

type StandingsService interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Select(ctx context.Context, periodID string) (*models.Snapshot, error)
	Standings(ctx context.Context, periodID string) (*models.Snapshot, error)
	Latest() *models.Snapshot
	Session() *models.Session
	Periods() []models.Period
	Selected() models.Period
	Status() service.Status
}

type Refresher interface {
	Trigger(ctx context.Context) (*models.Snapshot, error)
	State() scheduler.State
}

// Mounter registers its own routes, as the proxy does.
type Mounter interface {
	Register(r chi.Router)
}

type Hub interface {
	ServeWs(w http.ResponseWriter, r *http.Request)
	ClientCount() int
}

type Handlers struct {
	service   StandingsService
	refresher Refresher
	proxy     Mounter
	hub       Hub
	mcp       http.Handler
	logger    *slog.Logger
	logLevel  *slog.LevelVar
}

// Options holds the optional surfaces. LogLevel, when set, is reported by
// /api/status and changed through PUT /api/log-level/{level}.
type Options struct {
	Proxy    Mounter
	Hub      Hub
	MCP      http.Handler
	Logger   *slog.Logger
	LogLevel *slog.LevelVar
}

func New(svc StandingsService, refresher Refresher, opts Options) *Handlers {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handlers{
		service:   svc,
		refresher: refresher,
		proxy:     opts.Proxy,
		hub:       opts.Hub,
		mcp:       opts.MCP,
		logger:    opts.Logger,
		logLevel:  opts.LogLevel,
	}
}

func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}).Handler)

	r.Get("/health", h.handleHealth)

	if h.proxy != nil {
		h.proxy.Register(r)
	}

	r.Get("/api/periods", h.handleGetPeriods)
	r.Get("/api/standings", h.handleGetStandings)
	r.Get("/api/standings/{periodId}", h.handleGetPeriodStandings)
	r.Put("/api/selection/{periodId}", h.handleSelectPeriod)
	r.Post("/api/refresh", h.handleRefresh)
	r.Post("/api/reload", h.handleReload)
	r.Get("/api/status", h.handleGetStatus)
	if h.logLevel != nil {
		r.Put("/api/log-level/{level}", h.handleSetLogLevel)
	}

	if h.hub != nil {
		r.Get("/ws", h.hub.ServeWs)
	}
	if h.mcp != nil {
		r.Handle("/mcp", h.mcp)
	}

	return r
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]string{"status": "ok"})
}

type periodResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Months    []int  `json:"months"`
	Gameweeks []int  `json:"gameweeks"`
	Selected  bool   `json:"selected"`
}

func (h *Handlers) handleGetPeriods(w http.ResponseWriter, r *http.Request) {
	session := h.service.Session()
	if session == nil {
		h.respondError(w, service.ErrNotLoaded)
		return
	}

	selected := h.service.Selected().ID
	periods := h.service.Periods()
	out := make([]periodResponse, 0, len(periods))
	for _, p := range periods {
		gameweeks := session.Mapping[p.ID]
		if gameweeks == nil {
			gameweeks = []int{}
		}
		out = append(out, periodResponse{
			ID:        p.ID,
			Name:      p.Name,
			Months:    p.Months,
			Gameweeks: gameweeks,
			Selected:  p.ID == selected,
		})
	}
	respondOK(w, out)
}

func (h *Handlers) handleGetStandings(w http.ResponseWriter, r *http.Request) {
	snap := h.service.Latest()
	if snap == nil {
		h.respondError(w, service.ErrNotLoaded)
		return
	}
	respondOK(w, snap)
}

func (h *Handlers) handleGetPeriodStandings(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Standings(r.Context(), chi.URLParam(r, "periodId"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, snap)
}

func (h *Handlers) handleSelectPeriod(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Select(r.Context(), chi.URLParam(r, "periodId"))
	if err != nil && !errors.Is(err, service.ErrSuperseded) {
		h.respondError(w, err)
		return
	}
	respondOK(w, snap)
}

func (h *Handlers) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.refresher.Trigger(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, snap)
}

func (h *Handlers) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Load(r.Context())
	if errors.Is(err, service.ErrSuperseded) {
		err = nil
	}
	if err != nil {
		h.logger.Warn("Reload failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, &APIError{Message: "Failed to load league data"})
		return
	}
	respondOK(w, snap)
}

type statusResponse struct {
	service.Status
	Refresher scheduler.State `json:"refresher"`
	Clients   int             `json:"ws_clients"`
	LogLevel  string          `json:"log_level,omitempty"`
}

func (h *Handlers) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:    h.service.Status(),
		Refresher: h.refresher.State(),
	}
	if h.hub != nil {
		resp.Clients = h.hub.ClientCount()
	}
	if h.logLevel != nil {
		resp.LogLevel = h.logLevel.Level().String()
	}
	respondOK(w, resp)
}

func (h *Handlers) handleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "level")
	level, ok := logger.LookupLevel(name)
	if !ok {
		respondJSON(w, http.StatusBadRequest, &APIError{Message: "unknown log level: " + name})
		return
	}
	h.logLevel.Set(level)
	h.logger.Info("Log level changed", "level", level.String())
	respondOK(w, map[string]string{"log_level": level.String()})
}
