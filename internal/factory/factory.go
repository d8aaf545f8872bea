package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mcoot/teamfinder/internal/config"
	"github.com/mcoot/teamfinder/internal/dependencies/clock"
	"github.com/mcoot/teamfinder/internal/dependencies/random"
	"github.com/mcoot/teamfinder/internal/services/auth"
	"github.com/mcoot/teamfinder/internal/services/availability"
	"github.com/mcoot/teamfinder/internal/services/conversation"
	"github.com/mcoot/teamfinder/internal/services/profile"
	"github.com/mcoot/teamfinder/internal/services/scheduler"
	"github.com/mcoot/teamfinder/internal/session"
	memsession "github.com/mcoot/teamfinder/internal/session/memory"
	redissession "github.com/mcoot/teamfinder/internal/session/redis"
	"github.com/mcoot/teamfinder/internal/storage"
	"github.com/mcoot/teamfinder/internal/storage/memory"
	"github.com/mcoot/teamfinder/internal/storage/postgres"
	redisstorage "github.com/mcoot/teamfinder/internal/storage/redis"
	"github.com/mcoot/teamfinder/internal/telegram"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage  storage.Storage
	Sessions session.Store

	// External dependencies
	Clock    clock.Clock
	Calendar *clock.Calendar
	Random   random.Random

	// Services
	Profiles     *profile.Service
	Availability *availability.Service
	Engine       *conversation.Engine
	Auth         *auth.Service
	// Scheduler is nil when there is nothing to deliver through
	Scheduler     *scheduler.Service
	NotifyEnabled bool

	// Telegram is nil when no bot token is configured
	Telegram *telegram.Client
	Bot      *telegram.Bot

	closers []io.Closer
}

// Settings are the tunables newWithDependencies needs from config
type Settings struct {
	StoreTimeout time.Duration
	MatchLimit   int
	MenuLink     string
	NotifyTimes  []string
	// NotifyEnabled runs reminders on schedule; manual broadcasts work either way
	NotifyEnabled bool
	AdminKeyHash  string
}

// Dependencies are the externally built pieces of an App
type Dependencies struct {
	Storage  storage.Storage
	Sessions session.Store
	Clock    clock.Clock
	Calendar *clock.Calendar
	Random   random.Random
	// Sender delivers scheduled reminders; nil disables the scheduler
	Sender scheduler.Sender
}

// New creates a new application with all dependencies wired from cfg
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()
	calendar, err := clock.NewCalendar(clk, cfg.Timezone)
	if err != nil {
		return nil, err
	}

	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	store, redisClient, err := newStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage, err)
	}
	if c, ok := store.(io.Closer); ok {
		closers = append(closers, c)
	}

	var sessions session.Store
	switch cfg.SessionStore {
	case config.StorageRedis:
		if redisClient == nil {
			redisClient, err = dialRedis(cfg.RedisURL)
			if err != nil {
				closeAll()
				return nil, fmt.Errorf("open redis session store: %w", err)
			}
			closers = append(closers, redisClient)
		}
		sessions = redissession.New(redisClient, clk, cfg.SessionTTL)
	default:
		sessions = memsession.New(clk, cfg.SessionTTL)
	}

	deps := Dependencies{
		Storage:  store,
		Sessions: sessions,
		Clock:    clk,
		Calendar: calendar,
		Random:   random.New(),
	}

	var tg *telegram.Client
	if cfg.Telegram.Token != "" {
		tg = telegram.NewClient(cfg.Telegram.Token, cfg.Telegram.APIURL)
	} else {
		logger.Warn("no bot token configured; running without telegram")
	}

	settings := Settings{
		StoreTimeout:  cfg.StoreTimeout,
		MatchLimit:    cfg.MatchLimit,
		MenuLink:      cfg.MenuLink(),
		NotifyTimes:   cfg.NotifyTimes,
		NotifyEnabled: cfg.NotifyEnabled,
		AdminKeyHash:  cfg.AdminKeyHash,
	}

	app, err := newWithDependencies(deps, tg, settings, logger)
	if err != nil {
		closeAll()
		return nil, err
	}
	app.closers = closers
	return app, nil
}

// newWithDependencies wires services over the given dependencies. With a
// telegram client the bot becomes the reminder sender.
func newWithDependencies(deps Dependencies, tg *telegram.Client, settings Settings, logger *slog.Logger) (*App, error) {
	timeout := settings.StoreTimeout
	if timeout <= 0 {
		timeout = storage.DefaultTimeout
	}

	profiles := profile.New(deps.Storage, deps.Clock, timeout, logger)
	avail := availability.New(deps.Storage, deps.Calendar, timeout, logger)
	engine := conversation.New(profiles, avail, deps.Sessions, conversation.Config{
		MatchLimit:     settings.MatchLimit,
		TodayURL:       settings.MenuLink,
		SessionTimeout: timeout,
	}, logger)

	authService, err := auth.New(settings.AdminKeyHash, logger)
	if err != nil {
		return nil, fmt.Errorf("admin key hash: %w", err)
	}

	app := &App{
		Storage:      deps.Storage,
		Sessions:     deps.Sessions,
		Clock:        deps.Clock,
		Calendar:     deps.Calendar,
		Random:       deps.Random,
		Profiles:     profiles,
		Availability: avail,
		Engine:       engine,
		Auth:         authService,
		Telegram:     tg,
	}

	sender := deps.Sender
	if tg != nil {
		app.Bot = telegram.NewBot(tg, engine, logger)
		sender = app.Bot
	}

	if sender != nil {
		app.NotifyEnabled = settings.NotifyEnabled
		app.Scheduler, err = scheduler.New(profiles, sender, deps.Calendar, deps.Clock, deps.Random, settings.NotifyTimes, logger)
		if err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Close releases storage connections
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// newStorage opens the configured backend. The redis client is returned
// so the session store can share the connection pool.
func newStorage(cfg *config.Config) (storage.Storage, *goredis.Client, error) {
	switch cfg.Storage {
	case config.StorageRedis:
		s, err := redisstorage.New(cfg.RedisOptions())
		if err != nil {
			return nil, nil, err
		}
		return s, s.Client(), nil
	case config.StoragePostgres:
		s, err := postgres.New(cfg.PostgresOptions())
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case config.StorageMemory, "":
		return memory.New(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

func dialRedis(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
