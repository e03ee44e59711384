// Package telegram sends operator notifications through a Telegram bot.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/parisxmas/leadsite/internal/models"
	"github.com/parisxmas/leadsite/internal/notify"
)

type Sink struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// New authenticates the bot against the Bot API. An empty endpoint uses the
// public API.
func New(token, endpoint string, chatID int64) (*Sink, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}
	return &Sink{bot: bot, chatID: chatID}, nil
}

func (s *Sink) Name() string { return "telegram" }

// Deliver sends the operator message. The Bot API client has no context
// support, so only an already-cancelled ctx is honoured.
func (s *Sink) Deliver(ctx context.Context, lead models.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(s.chatID, notify.OperatorMessage(lead))
	msg.DisableWebPagePreview = true
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}
