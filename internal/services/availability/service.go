package availability

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/teamfinder/internal/dependencies/clock"
	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/storage"
)

// Service is the availability store adapter. It owns the rule that an
// available declaration always carries at least one window.
type Service struct {
	storage  storage.Storage
	calendar *clock.Calendar
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a new availability Service
func New(storage storage.Storage, calendar *clock.Calendar, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		storage:  storage,
		calendar: calendar,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "availability")),
	}
}

// Today returns the current date in the display timezone
func (s *Service) Today() model.Date {
	return s.calendar.Today()
}

// Get returns a player's declaration for date, or model.ErrDeclarationNotFound
func (s *Service) Get(ctx context.Context, id model.PlayerID, date model.Date) (*model.DailyDeclaration, error) {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	decl, err := s.storage.GetDeclaration(ctx, id, date)
	if err != nil {
		return nil, storage.Wrap("get_declaration", err)
	}
	return decl, nil
}

// Declare stores that the player is available in the given windows.
// An empty window set is rejected with a ValidationError.
func (s *Service) Declare(ctx context.Context, id model.PlayerID, date model.Date, windows []model.TimeWindow) (*model.DailyDeclaration, error) {
	return s.save(ctx, &model.DailyDeclaration{
		PlayerID:    id,
		Date:        date,
		IsAvailable: true,
		Windows:     model.SortWindows(windows),
	}, windows)
}

// DeclareUnavailable stores that the player will not play on date
func (s *Service) DeclareUnavailable(ctx context.Context, id model.PlayerID, date model.Date) (*model.DailyDeclaration, error) {
	return s.save(ctx, &model.DailyDeclaration{
		PlayerID:    id,
		Date:        date,
		IsAvailable: false,
		Windows:     []model.TimeWindow{},
	}, nil)
}

// List returns declarations for date joined with profiles, filtered by pred
func (s *Service) List(ctx context.Context, date model.Date, pred storage.DeclarationPredicate) ([]model.PlayerDeclaration, error) {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	entries, err := s.storage.ListDeclarations(ctx, date, pred)
	if err != nil {
		return nil, storage.Wrap("list_declarations", err)
	}
	return entries, nil
}

// Available returns everyone who declared at least one window for date
func (s *Service) Available(ctx context.Context, date model.Date) ([]model.PlayerDeclaration, error) {
	return s.List(ctx, date, storage.OnlyAvailable)
}

func (s *Service) save(ctx context.Context, decl *model.DailyDeclaration, raw []model.TimeWindow) (*model.DailyDeclaration, error) {
	// SortWindows drops unknown values, so check the input first
	for _, w := range raw {
		if !w.Valid() {
			return nil, &model.ValidationError{Field: "windows", Reason: "unknown window " + string(w)}
		}
	}
	if err := decl.Validate(); err != nil {
		return nil, err
	}
	decl.UpdatedAt = s.calendar.Now().UTC()

	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.storage.SaveDeclaration(ctx, decl); err != nil {
		return nil, storage.Wrap("save_declaration", err)
	}
	s.logger.Info("declaration saved",
		slog.String("player", string(decl.PlayerID)),
		slog.String("date", string(decl.Date)),
		slog.Bool("available", decl.IsAvailable),
		slog.Int("windows", len(decl.Windows)),
	)
	return decl, nil
}
