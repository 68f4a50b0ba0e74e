package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server      Server
	FPLAPI      FPLAPI
	Refresh     Refresh
	Redis       Redis
	TelegramBot TelegramBot
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

type Server struct {
	Addr string `envconfig:"HTTP_ADDR" default:":8080"`
}

type FPLAPI struct {
	BaseURL          string        `envconfig:"FPL_BASE_URL" default:"https://fantasy.premierleague.com"`
	LeagueID         int           `envconfig:"LEAGUE_ID" default:"286461"`
	Timeout          time.Duration `envconfig:"FPL_TIMEOUT" default:"10s"`
	MaxRetries       int           `envconfig:"FPL_MAX_RETRIES" default:"2"`
	FetchConcurrency int           `envconfig:"FETCH_CONCURRENCY" default:"8"`
}

type Refresh struct {
	LiveInterval   time.Duration `envconfig:"LIVE_REFRESH_INTERVAL" default:"2m"`
	PeriodTimezone string        `envconfig:"PERIOD_TIMEZONE" default:"Local"`
	DigestCron     string        `envconfig:"DIGEST_CRON"`
}

// Redis is optional. An empty address selects the in-memory response cache.
type Redis struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// TelegramBot is optional. The bot is only started when Token is set.
type TelegramBot struct {
	Token  string `envconfig:"TELEGRAM_TOKEN"`
	ChatID int64  `envconfig:"CHAT_ID"`
}

func New() (*Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	if err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.FPLAPI.LeagueID <= 0 {
		return fmt.Errorf("LEAGUE_ID must be positive, got %d", c.FPLAPI.LeagueID)
	}
	if c.FPLAPI.FetchConcurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive, got %d", c.FPLAPI.FetchConcurrency)
	}
	if c.Refresh.LiveInterval <= 0 {
		return fmt.Errorf("LIVE_REFRESH_INTERVAL must be positive, got %s", c.Refresh.LiveInterval)
	}
	return nil
}

// Location resolves PERIOD_TIMEZONE. "Local" and "" map to the process time zone.
func (r Refresh) Location() (*time.Location, error) {
	if r.PeriodTimezone == "" || r.PeriodTimezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.PeriodTimezone)
	if err != nil {
		return nil, fmt.Errorf("loading PERIOD_TIMEZONE %q: %w", r.PeriodTimezone, err)
	}
	return loc, nil
}

func (t TelegramBot) Enabled() bool {
	return t.Token != ""
}
