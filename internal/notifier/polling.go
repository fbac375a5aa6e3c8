package notifier

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	log "github.com/sirupsen/logrus"
)

// Telegram rejects messages longer than this.
const maxMessageLen = 4096

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	t.handler = handler
	log.Info("telegram polling started")
	t.bot.Start(ctx)
	log.Info("telegram polling stopped")
}

func (t *TelegramNotifier) onUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	t.handleUpdate(ctx, update)
}

// handleUpdate answers commands from the configured chat only.
func (t *TelegramNotifier) handleUpdate(ctx context.Context, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Text == "" || t.handler == nil {
		return
	}
	chatID := chatIDString(update.Message.Chat.ID)
	if t.ChatID != "" && chatID != t.ChatID {
		log.WithField("chat_id", chatID).Warn("ignoring command from unknown chat")
		return
	}

	text := strings.TrimSpace(update.Message.Text)
	log.WithField("command", text).Info("received command")
	reply := t.handler(ctx, text)
	if reply == "" {
		return
	}
	for _, chunk := range splitMessage(reply, maxMessageLen) {
		if err := t.sendTo(ctx, chatID, chunk); err != nil {
			log.WithError(err).Error("send reply")
			return
		}
	}
}
