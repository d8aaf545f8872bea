package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/teamfinder/internal/dependencies/random"
)

// Poller receives updates with getUpdates long polling
type Poller struct {
	client  *Client
	bot     *Bot
	random  random.Random
	logger  *slog.Logger
	timeout time.Duration
	// backoff after a failed poll, doubled up to maxBackoff
	backoff    time.Duration
	maxBackoff time.Duration
}

// NewPoller creates a new Poller
func NewPoller(client *Client, bot *Bot, rnd random.Random, timeout time.Duration, logger *slog.Logger) *Poller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Poller{
		client:     client,
		bot:        bot,
		random:     rnd,
		logger:     logger.With(slog.String("component", "telegram_poller")),
		timeout:    timeout,
		backoff:    time.Second,
		maxBackoff: time.Minute,
	}
}

// Run polls until ctx is cancelled, then waits for in-flight updates
func (p *Poller) Run(ctx context.Context) {
	defer p.bot.Wait()

	// getUpdates is refused while a webhook is registered
	if err := p.client.DeleteWebhook(ctx); err != nil {
		p.logger.Warn("failed to delete webhook", slog.String("error", err.Error()))
	}

	p.logger.Info("polling started")
	var offset int64
	delay := p.backoff

	for ctx.Err() == nil {
		updates, err := p.client.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			wait := delay + time.Duration(p.random.Intn(int(delay/time.Millisecond)+1))*time.Millisecond
			p.logger.Warn("poll failed",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", wait),
			)
			if !sleep(ctx, wait) {
				break
			}
			delay = min(delay*2, p.maxBackoff)
			continue
		}
		delay = p.backoff

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			p.bot.Dispatch(ctx, upd)
		}
	}
	p.logger.Info("polling stopped")
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
