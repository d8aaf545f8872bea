// Package scheduler sends the twice-daily "playing today?" reminder to every
// registered player.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/teamfinder/internal/dependencies/clock"
	"github.com/mcoot/teamfinder/internal/dependencies/random"
	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/services/conversation"
	"github.com/mcoot/teamfinder/internal/services/profile"
)

const minutesPerDay = 24 * 60

// DefaultTimes are the local trigger times used when none are configured
var DefaultTimes = []string{"10:00", "18:00"}

// Sender delivers one render to one player over the chat transport
type Sender interface {
	Send(ctx context.Context, to model.PlayerID, r model.Render) error
}

// Report summarises one broadcast
type Report struct {
	RunID     string           `json:"run_id"`
	StartedAt time.Time        `json:"started_at"`
	Attempted int              `json:"attempted"`
	Delivered int              `json:"delivered"`
	Failed    []model.PlayerID `json:"failed"`
}

// Service fires broadcasts at fixed local times
type Service struct {
	profiles *profile.Service
	sender   Sender
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger

	// trigger times as minutes after UTC midnight, ascending
	triggers []int
	// wait blocks for d or until ctx ends; false means ctx ended
	wait func(ctx context.Context, d time.Duration) bool
}

// New builds a scheduler. times are "HH:MM" in the calendar's display zone
// and are converted to UTC once, here.
func New(
	profiles *profile.Service,
	sender Sender,
	calendar *clock.Calendar,
	clk clock.Clock,
	rnd random.Random,
	times []string,
	logger *slog.Logger,
) (*Service, error) {
	if len(times) == 0 {
		times = DefaultTimes
	}

	offset := int(calendar.Offset() / time.Minute)
	seen := make(map[int]bool, len(times))
	triggers := make([]int, 0, len(times))
	for _, t := range times {
		local, err := ParseClock(t)
		if err != nil {
			return nil, err
		}
		utc := ((local-offset)%minutesPerDay + minutesPerDay) % minutesPerDay
		if !seen[utc] {
			seen[utc] = true
			triggers = append(triggers, utc)
		}
	}
	sort.Ints(triggers)

	return &Service{
		profiles: profiles,
		sender:   sender,
		clock:    clk,
		random:   rnd,
		logger:   logger.With(slog.String("component", "scheduler")),
		triggers: triggers,
		wait:     sleep,
	}, nil
}

// ParseClock parses "HH:MM" into minutes after midnight
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// NextRun returns the first trigger strictly after now
func (s *Service) NextRun(now time.Time) time.Time {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, m := range s.triggers {
		at := midnight.Add(time.Duration(m) * time.Minute)
		if at.After(now) {
			return at
		}
	}
	return midnight.AddDate(0, 0, 1).Add(time.Duration(s.triggers[0]) * time.Minute)
}

// Run broadcasts at every trigger until ctx is cancelled
func (s *Service) Run(ctx context.Context) {
	s.logger.Info("scheduler started", slog.Any("utc_minutes", s.triggers))
	for {
		next := s.NextRun(s.clock.Now())
		s.logger.Debug("next broadcast", slog.Time("at", next))

		if !s.wait(ctx, next.Sub(s.clock.Now())) {
			s.logger.Info("scheduler stopped")
			return
		}
		if _, err := s.Broadcast(ctx); err != nil {
			s.logger.Error("broadcast failed", slog.String("error", err.Error()))
		}
	}
}

// Broadcast sends the reminder to every registered player. A failed
// delivery is logged and skipped; only failing to list players is an error.
func (s *Service) Broadcast(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     s.random.UUID(),
		StartedAt: s.clock.Now(),
		Failed:    []model.PlayerID{},
	}
	logger := s.logger.With(slog.String("run_id", report.RunID))

	players, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range players {
		if ctx.Err() != nil {
			break
		}
		report.Attempted++
		if err := s.sender.Send(ctx, p.ID, conversation.Reminder(p)); err != nil {
			derr := &model.DeliveryError{Recipient: p.ID, Err: err}
			logger.Warn("reminder not delivered", slog.String("error", derr.Error()))
			report.Failed = append(report.Failed, p.ID)
			continue
		}
		report.Delivered++
	}

	logger.Info("broadcast finished",
		slog.Int("attempted", report.Attempted),
		slog.Int("delivered", report.Delivered),
		slog.Int("failed", len(report.Failed)),
	)
	return report, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d < 0 {
		d = 0
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
