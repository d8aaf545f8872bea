package telegram

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/services/scheduler"
)

// Handler answers one engine event
type Handler interface {
	Handle(ctx context.Context, ev model.Event) model.Render
}

// Bot connects the Bot API to the conversation engine
type Bot struct {
	client  *Client
	handler Handler
	logger  *slog.Logger
	// replyTimeout bounds handling of a single update
	replyTimeout time.Duration

	wg sync.WaitGroup
}

// NewBot creates a new Bot
func NewBot(client *Client, handler Handler, logger *slog.Logger) *Bot {
	return &Bot{
		client:       client,
		handler:      handler,
		logger:       logger.With(slog.String("component", "telegram")),
		replyTimeout: 30 * time.Second,
	}
}

var _ scheduler.Sender = (*Bot)(nil)

// Dispatch handles upd on its own goroutine
func (b *Bot) Dispatch(ctx context.Context, upd Update) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.HandleUpdate(ctx, upd)
	}()
}

// Wait blocks until every dispatched update is handled
func (b *Bot) Wait() {
	b.wg.Wait()
}

// HandleUpdate runs one update through the engine and delivers the reply.
// Button presses edit the message that carried the button; everything else
// gets a new message.
func (b *Bot) HandleUpdate(ctx context.Context, upd Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic handling update",
				slog.Int64("update_id", upd.UpdateID),
				slog.Any("panic", r),
			)
		}
	}()

	ev, ok := ToEvent(upd)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, b.replyTimeout)
	defer cancel()

	render := b.handler.Handle(ctx, ev)
	logger := b.logger.With(slog.String("user", string(ev.UserID)), slog.Int64("update_id", upd.UpdateID))

	if cq := upd.CallbackQuery; cq != nil {
		if err := b.client.AnswerCallbackQuery(ctx, cq.ID, render.Notice); err != nil {
			logger.Warn("failed to answer callback", slog.String("error", err.Error()))
		}
		if cq.Message != nil {
			err := b.client.EditMessageText(ctx, cq.Message.Chat.ID, cq.Message.MessageID, render.Text, Keyboard(render.Options))
			var apiErr *APIError
			if err == nil || (errors.As(err, &apiErr) && apiErr.NotModified()) {
				return
			}
			logger.Warn("edit failed, sending new message", slog.String("error", err.Error()))
		}
	}

	if err := b.Send(ctx, ev.UserID, render); err != nil {
		logger.Error("failed to send reply", slog.String("error", err.Error()))
	}
}

// Send delivers a render as a new message to a player's private chat
func (b *Bot) Send(ctx context.Context, to model.PlayerID, r model.Render) error {
	chatID, err := ChatID(to)
	if err != nil {
		return fmt.Errorf("player %s has no telegram chat: %w", to, err)
	}
	_, err = b.client.SendMessage(ctx, chatID, r.Text, Keyboard(r.Options))
	return err
}

// WebhookPath derives the unguessable path segment used for the webhook
// from the bot token
func WebhookPath(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h[:16])
}
