package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
)

// SecretHeader carries the secret registered with setWebhook
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxUpdateBytes caps a webhook body
const maxUpdateBytes = 1 << 20

// Webhook accepts updates pushed by the Bot API. Each update is acknowledged
// at once and handled on its own goroutine.
type Webhook struct {
	bot    *Bot
	secret string
	// ctx outlives individual requests; cancelled at shutdown
	ctx    context.Context
	logger *slog.Logger
}

// NewWebhook creates the webhook receiver. An empty secret disables the
// header check.
func NewWebhook(ctx context.Context, bot *Bot, secret string, logger *slog.Logger) *Webhook {
	return &Webhook{
		bot:    bot,
		secret: secret,
		ctx:    ctx,
		logger: logger.With(slog.String("component", "telegram_webhook")),
	}
}

// Register points the Bot API at url
func (w *Webhook) Register(ctx context.Context, client *Client, url string) error {
	if err := client.SetWebhook(ctx, url, w.secret); err != nil {
		return err
	}
	w.logger.Info("webhook registered")
	return nil
}

func (w *Webhook) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if w.secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(w.secret)) != 1 {
			rw.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	var upd Update
	if err := json.NewDecoder(http.MaxBytesReader(rw, r.Body, maxUpdateBytes)).Decode(&upd); err != nil {
		w.logger.Warn("bad update body", slog.String("error", err.Error()))
		rw.WriteHeader(http.StatusBadRequest)
		return
	}

	w.bot.Dispatch(w.ctx, upd)
	rw.WriteHeader(http.StatusOK)
}
