package profile

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/mcoot/teamfinder/internal/dependencies/clock"
	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/storage"
)

// Service is the profile store adapter. Every call is bounded by the
// configured timeout; backend failures come back as *model.StoreError and
// absent profiles as model.ErrPlayerNotFound.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a new profile Service
func New(storage storage.Storage, clock clock.Clock, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "profile")),
	}
}

// Get retrieves a player's profile
func (s *Service) Get(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	player, err := s.storage.GetPlayer(ctx, id)
	if err != nil {
		return nil, storage.Wrap("get_player", err)
	}
	return player, nil
}

// List returns every registered player
func (s *Service) List(ctx context.Context) ([]*model.Player, error) {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	players, err := s.storage.ListPlayers(ctx)
	if err != nil {
		return nil, storage.Wrap("list_players", err)
	}
	return players, nil
}

// Upsert validates and stores a complete profile.
// CreatedAt survives from an existing row; UpdatedAt is always refreshed.
func (s *Service) Upsert(ctx context.Context, player model.Player) (*model.Player, error) {
	player.Nickname = model.NormalizeNickname(player.Nickname)
	player.Roles = slices.Clone(player.Roles)
	if err := player.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if player.CreatedAt.IsZero() {
		existing, err := s.Get(ctx, player.ID)
		switch {
		case err == nil:
			player.CreatedAt = existing.CreatedAt
		case model.IsNotFound(err):
			player.CreatedAt = now
		default:
			return nil, err
		}
	}
	player.UpdatedAt = now

	if err := s.save(ctx, &player); err != nil {
		return nil, err
	}
	s.logger.Info("profile saved",
		slog.String("player", string(player.ID)),
		slog.String("rank", string(player.Rank)),
	)
	return &player, nil
}

// Patch copies a single field from draft onto the stored profile and saves
// it. Every other field of the stored profile is preserved.
func (s *Service) Patch(ctx context.Context, id model.PlayerID, field model.ProfileField, draft model.Player) (*model.Player, error) {
	if !field.Valid() {
		return nil, &model.ValidationError{Field: string(field), Reason: "is not editable"}
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patched := *current
	patched.Roles = slices.Clone(current.Roles)
	switch field {
	case model.FieldNickname:
		patched.Nickname = model.NormalizeNickname(draft.Nickname)
	case model.FieldRank:
		patched.Rank = draft.Rank
	case model.FieldRoles:
		patched.Roles = slices.Clone(draft.Roles)
	}

	if err := patched.Validate(); err != nil {
		return nil, err
	}
	patched.UpdatedAt = s.clock.Now()

	if err := s.save(ctx, &patched); err != nil {
		return nil, err
	}
	s.logger.Info("profile patched",
		slog.String("player", string(id)),
		slog.String("field", string(field)),
	)
	return &patched, nil
}

// Delete removes a profile and its declarations. Administrative only.
func (s *Service) Delete(ctx context.Context, id model.PlayerID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.storage.DeletePlayer(ctx, id); err != nil {
		return storage.Wrap("delete_player", err)
	}
	s.logger.Info("profile deleted", slog.String("player", string(id)))
	return nil
}

func (s *Service) save(ctx context.Context, player *model.Player) error {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	return storage.Wrap("save_player", s.storage.SavePlayer(ctx, player))
}
