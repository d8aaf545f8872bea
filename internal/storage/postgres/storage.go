package postgres

import (
	"context"
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/storage"
)

// Storage is a PostgreSQL implementation of the storage interface, via gorm
type Storage struct {
	db *gorm.DB
}

// New connects to PostgreSQL and migrates the schema
func New(cfg Config) (*Storage, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	s := NewWithDB(db)
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing gorm handle (for testing with other dialects)
func NewWithDB(db *gorm.DB) *Storage {
	return &Storage{db: db}
}

// Migrate creates or updates the tables
func (s *Storage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&playerRow{}, &declarationRow{})
}

// Close releases the connection pool
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	row := playerToRow(player)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "handle", "nickname", "rank", "roles", "updated_at"}),
	}).Create(row).Error
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var row playerRow
	err := s.db.WithContext(ctx).Where("id = ?", string(id)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("player_id = ?", string(id)).Delete(&declarationRow{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", string(id)).Delete(&playerRow{}).Error
	})
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	var rows []playerRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	players := make([]*model.Player, len(rows))
	for i := range rows {
		players[i] = rows[i].toModel()
	}
	return players, nil
}

// Declaration operations

func (s *Storage) SaveDeclaration(ctx context.Context, decl *model.DailyDeclaration) error {
	row := declarationToRow(decl)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_available", "windows", "updated_at"}),
	}).Create(row).Error
}

func (s *Storage) GetDeclaration(ctx context.Context, playerID model.PlayerID, date model.Date) (*model.DailyDeclaration, error) {
	var row declarationRow
	err := s.db.WithContext(ctx).
		Where("player_id = ? AND date = ?", string(playerID), string(date)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrDeclarationNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

func (s *Storage) ListDeclarations(ctx context.Context, date model.Date, pred storage.DeclarationPredicate) ([]model.PlayerDeclaration, error) {
	db := s.db.WithContext(ctx)

	var declRows []declarationRow
	if err := db.Where("date = ?", string(date)).Order("updated_at, player_id").Find(&declRows).Error; err != nil {
		return nil, err
	}

	decls := make([]*model.DailyDeclaration, 0, len(declRows))
	ids := make([]string, 0, len(declRows))
	for i := range declRows {
		decl := declRows[i].toModel()
		if pred != nil && !pred(decl) {
			continue
		}
		decls = append(decls, decl)
		ids = append(ids, declRows[i].PlayerID)
	}
	if len(decls) == 0 {
		return []model.PlayerDeclaration{}, nil
	}

	var playerRows []playerRow
	if err := db.Where("id IN ?", ids).Find(&playerRows).Error; err != nil {
		return nil, err
	}
	players := make(map[model.PlayerID]*model.Player, len(playerRows))
	for i := range playerRows {
		p := playerRows[i].toModel()
		players[p.ID] = p
	}

	entries := make([]model.PlayerDeclaration, 0, len(decls))
	for _, decl := range decls {
		player, ok := players[decl.PlayerID]
		if !ok {
			continue
		}
		entries = append(entries, model.PlayerDeclaration{Player: *player, Declaration: *decl})
	}
	storage.SortPlayerDeclarations(entries)
	return entries, nil
}
