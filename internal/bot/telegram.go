package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const commandTimeout = 30 * time.Second

type TelegramBot struct {
	bot     *tgbotapi.BotAPI
	handler *Handler
	chatID  int64
	logger  *slog.Logger
}

func NewTelegramBot(token string, chatID int64, handler *Handler, logger *slog.Logger) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TelegramBot{
		bot:     bot,
		handler: handler,
		chatID:  chatID,
		logger:  logger,
	}, nil
}

func (t *TelegramBot) Start(ctx context.Context) error {
	t.logger.Info("Authorized on account", "username", t.bot.Self.UserName)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	defer t.bot.StopReceivingUpdates()

	for {
		select {
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
			msg := t.handler.HandleCommand(cmdCtx, update)
			cancel()
			if _, err := t.bot.Send(msg); err != nil {
				t.logger.Error("Error sending message", "error", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// SendMessage posts text to the configured chat.
func (t *TelegramBot) SendMessage(text string) error {
	if t.chatID == 0 {
		return fmt.Errorf("chat ID not set")
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Error("Error sending message", "error", err)
		return err
	}
	return nil
}
