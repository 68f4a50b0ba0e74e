// Package proxy forwards a fixed set of GET endpoints to the upstream fantasy
// API, adding CORS headers and a cache policy suited to each endpoint.
package proxy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/singleflight"

	"github.com/omarshaarawi/fplstandings/internal/api/fpl"
	"github.com/omarshaarawi/fplstandings/internal/cache"
)

const (
	cacheLong    = "s-maxage=3600, stale-while-revalidate"
	cacheShort   = "s-maxage=300, stale-while-revalidate"
	cacheNone    = "no-cache, no-store, must-revalidate"
	upstreamWait = 30 * time.Second
)

var errInvalidJSON = errors.New("upstream returned invalid JSON")

// RawFetcher fetches an upstream path and returns the body untouched.
type RawFetcher interface {
	GetRaw(ctx context.Context, path string) ([]byte, error)
}

// endpoint describes one proxied route. path builds the upstream path from
// the request and reports false for a malformed parameter.
type endpoint struct {
	name         string
	errMessage   string
	cacheControl string
	ttl          time.Duration
	path         func(r *http.Request) (string, bool)
}

type Proxy struct {
	fetcher RawFetcher
	cache   cache.Cache
	flight  singleflight.Group
	logger  *slog.Logger
}

func New(fetcher RawFetcher, c cache.Cache, logger *slog.Logger) *Proxy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Proxy{fetcher: fetcher, cache: c, logger: logger}
}

// Register mounts the proxy routes on r. Each route also answers with a
// trailing slash, matching the upstream spelling.
func (p *Proxy) Register(r chi.Router) {
	routes := []struct {
		pattern string
		ep      endpoint
	}{
		{"/api/bootstrap-static", endpoint{
			name:         "bootstrap",
			errMessage:   "Failed to fetch bootstrap data",
			cacheControl: cacheLong,
			ttl:          time.Hour,
			path: func(r *http.Request) (string, bool) {
				return fpl.BootstrapPath(), true
			},
		}},
		{"/api/entry/{teamId}/history", endpoint{
			name:         "history",
			errMessage:   "Failed to fetch manager history",
			cacheControl: cacheShort,
			ttl:          5 * time.Minute,
			path: func(r *http.Request) (string, bool) {
				teamID, ok := idParam(r, "teamId")
				return fpl.HistoryPath(teamID), ok
			},
		}},
		{"/api/entry/{teamId}/event/{eventId}/picks", endpoint{
			name:         "picks",
			errMessage:   "Failed to fetch manager picks",
			cacheControl: cacheNone,
			path: func(r *http.Request) (string, bool) {
				teamID, ok1 := idParam(r, "teamId")
				eventID, ok2 := idParam(r, "eventId")
				return fpl.PicksPath(teamID, eventID), ok1 && ok2
			},
		}},
		{"/api/event/{eventId}/live", endpoint{
			name:         "live",
			errMessage:   "Failed to fetch live gameweek data",
			cacheControl: cacheNone,
			path: func(r *http.Request) (string, bool) {
				eventID, ok := idParam(r, "eventId")
				return fpl.LivePath(eventID), ok
			},
		}},
		{"/api/leagues-classic/{leagueId}/standings", endpoint{
			name:         "league",
			errMessage:   "Failed to fetch league standings",
			cacheControl: cacheShort,
			ttl:          5 * time.Minute,
			path: func(r *http.Request) (string, bool) {
				leagueID, ok := idParam(r, "leagueId")
				return fpl.LeagueStandingsPath(leagueID), ok
			},
		}},
	}

	for _, route := range routes {
		h := p.handler(route.ep)
		r.Get(route.pattern, h)
		r.Get(route.pattern+"/", h)
	}
}

func (p *Proxy) handler(ep endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET")

		path, ok := ep.path(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid path parameter")
			return
		}

		body, err := p.fetch(r.Context(), path, ep.ttl)
		if err != nil {
			p.logger.Warn("Proxy request failed", "endpoint", ep.name, "path", path, "error", err)
			writeError(w, http.StatusInternalServerError, ep.errMessage)
			return
		}

		w.Header().Set("Cache-Control", ep.cacheControl)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}

func (p *Proxy) fetch(ctx context.Context, path string, ttl time.Duration) ([]byte, error) {
	if ttl > 0 && p.cache != nil {
		body, ok, err := p.cache.Get(ctx, path)
		if err != nil {
			p.logger.Warn("Cache read failed", "path", path, "error", err)
		} else if ok {
			return body, nil
		}
	}

	v, err, _ := p.flight.Do(path, func() (interface{}, error) {
		// Detached from the first caller so its cancellation does not fail
		// the requests sharing this flight.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), upstreamWait)
		defer cancel()

		body, err := p.fetcher.GetRaw(fetchCtx, path)
		if err != nil {
			return nil, err
		}
		if !jsoniter.Valid(body) {
			return nil, errInvalidJSON
		}
		if ttl > 0 && p.cache != nil {
			if err := p.cache.Set(fetchCtx, path, body, ttl); err != nil {
				p.logger.Warn("Cache write failed", "path", path, "error", err)
			}
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func idParam(r *http.Request, name string) (string, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return raw, false
	}
	return strconv.Itoa(id), true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	body, _ := jsoniter.Marshal(map[string]string{"error": message})
	w.Write(body)
}
