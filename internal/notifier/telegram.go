package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	log "github.com/sirupsen/logrus"
)

// messageSender is the slice of the bot API the notifier uses.
type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	ChatID string

	bot     *bot.Bot
	sender  messageSender
	handler CommandHandler
	backoff time.Duration
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) (*TelegramNotifier, error) {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	t := &TelegramNotifier{ChatID: chatID, backoff: time.Second}
	b, err := bot.New(botToken,
		bot.WithHTTPClient(30*time.Second, &http.Client{Timeout: 35 * time.Second, Transport: transport}),
		bot.WithDefaultHandler(t.onUpdate),
	)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	t.bot = b
	t.sender = b
	return t, nil
}

// Send sends an HTML message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	return t.sendTo(ctx, t.ChatID, text)
}

func (t *TelegramNotifier) sendTo(ctx context.Context, chatID, text string) error {
	_, err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := t.backoff << uint(i)
		log.WithError(err).WithFields(log.Fields{
			"attempt": i + 1,
			"of":      maxRetries + 1,
			"backoff": backoff,
		}).Warn("telegram send failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// Notify implements the scheduler's report sink.
func (t *TelegramNotifier) Notify(ctx context.Context, text string) error {
	return t.SendWithRetry(ctx, text, 3)
}

const (
	preOpen  = "<pre>"
	preClose = "</pre>"
)

// splitMessage breaks text on line boundaries so no chunk exceeds limit.
// A <pre> block cut across chunks is closed and reopened so each chunk
// parses as HTML on its own.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	budget := limit - len(preClose)
	var chunks []string
	var cur strings.Builder
	inPre := false
	for _, line := range strings.SplitAfter(text, "\n") {
		if cur.Len()+len(line) > budget && cur.Len() > 0 {
			if inPre {
				cur.WriteString(preClose)
			}
			chunks = append(chunks, cur.String())
			cur.Reset()
			if inPre {
				cur.WriteString(preOpen)
			}
		}
		cur.WriteString(line)
		inPre = preOpenAfter(line, inPre)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// preOpenAfter reports whether a <pre> block is still open after line.
func preOpenAfter(line string, open bool) bool {
	o, c := strings.LastIndex(line, preOpen), strings.LastIndex(line, preClose)
	if o < 0 && c < 0 {
		return open
	}
	return o > c
}

func chatIDString(id int64) string { return strconv.FormatInt(id, 10) }
