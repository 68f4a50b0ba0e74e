package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/omarshaarawi/fplstandings/internal/models"
	"github.com/omarshaarawi/fplstandings/internal/service"
)

type StandingsService interface {
	ResolvePeriod(query string) (models.Period, error)
	Standings(ctx context.Context, periodID string) (*models.Snapshot, error)
	Select(ctx context.Context, periodID string) (*models.Snapshot, error)
	Latest() *models.Snapshot
	Session() *models.Session
	Periods() []models.Period
	Selected() models.Period
	Status() service.Status
}

type Refresher interface {
	Trigger(ctx context.Context) (*models.Snapshot, error)
}

type Handler struct {
	standings StandingsService
	refresher Refresher
}

func NewHandler(standings StandingsService, refresher Refresher) *Handler {
	return &Handler{standings: standings, refresher: refresher}
}

func (h *Handler) HandleCommand(ctx context.Context, update tgbotapi.Update) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")
	command := strings.ToLower(update.Message.Command())
	args := update.Message.CommandArguments()
	msg.ParseMode = "Markdown"

	switch command {
	case "start":
		msg.Text = "Welcome to the league standings bot! Use /help to see available commands."
	case "help":
		msg.Text = "Available commands:\n/standings [period] - Standings for a period (default: selected)\n/periods - List periods and their gameweeks\n/select <period> - Change the selected period\n/refresh - Recompute the selected period now\n/status - Show data and refresh status"
	case "standings":
		h.handleStandings(ctx, &msg, args)
	case "periods":
		h.handlePeriods(&msg)
	case "select":
		h.handleSelect(ctx, &msg, args)
	case "refresh":
		h.handleRefresh(ctx, &msg)
	case "status":
		msg.Text = service.FormatStatus(h.standings.Status())
	default:
		msg.Text = "Unknown command. Use /help to see available commands."
	}

	return msg
}

func (h *Handler) handleStandings(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	if strings.TrimSpace(args) == "" {
		if snap := h.standings.Latest(); snap != nil {
			msg.Text = service.FormatStandings(snap)
			return
		}
	}

	period, err := h.standings.ResolvePeriod(args)
	if err != nil {
		msg.Text = fmt.Sprintf("Unknown period %q. Use /periods to see the options.", args)
		return
	}
	snap, err := h.standings.Standings(ctx, period.ID)
	if err != nil {
		msg.Text = errorText("Error fetching standings", err)
		return
	}
	msg.Text = service.FormatStandings(snap)
}

func (h *Handler) handlePeriods(msg *tgbotapi.MessageConfig) {
	session := h.standings.Session()
	if session == nil {
		msg.Text = errorText("Error listing periods", service.ErrNotLoaded)
		return
	}
	msg.Text = service.FormatPeriods(h.standings.Periods(), session.Mapping, h.standings.Selected().ID)
}

func (h *Handler) handleSelect(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	if strings.TrimSpace(args) == "" {
		msg.Text = "Please provide a period. Usage: /select <period>"
		return
	}
	period, err := h.standings.ResolvePeriod(args)
	if err != nil {
		msg.Text = fmt.Sprintf("Unknown period %q. Use /periods to see the options.", args)
		return
	}
	snap, err := h.standings.Select(ctx, period.ID)
	if err != nil && !errors.Is(err, service.ErrSuperseded) {
		msg.Text = errorText("Error selecting period", err)
		return
	}
	msg.Text = service.FormatStandings(snap)
}

func (h *Handler) handleRefresh(ctx context.Context, msg *tgbotapi.MessageConfig) {
	snap, err := h.refresher.Trigger(ctx)
	if err != nil {
		msg.Text = errorText("Error refreshing standings", err)
		return
	}
	msg.Text = service.FormatStandings(snap)
}

func errorText(prefix string, err error) string {
	if errors.Is(err, service.ErrNotLoaded) {
		return prefix + ": league data is not loaded yet."
	}
	return fmt.Sprintf("%s: %v", prefix, err)
}
