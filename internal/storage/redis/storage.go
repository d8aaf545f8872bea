package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Client exposes the underlying connection so other components can share it
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// MULTI/EXEC so the profile and the index change together
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, playerKey(player.ID), data, 0)
	pipe.SAdd(ctx, playersIndexKey(), string(player.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	dates, err := s.client.SMembers(ctx, datesForPlayerIndexKey(id)).Result()
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, playerKey(id))
	pipe.SRem(ctx, playersIndexKey(), string(id))
	for _, d := range dates {
		date := model.Date(d)
		pipe.Del(ctx, declarationKey(date, id))
		pipe.SRem(ctx, declarationsForDateIndexKey(date), string(id))
	}
	pipe.Del(ctx, datesForPlayerIndexKey(id))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	ids, err := s.client.SMembers(ctx, playersIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Player{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = playerKey(model.PlayerID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Deleted between SMEMBERS and MGET
		}
		var player model.Player
		if err := json.Unmarshal([]byte(str), &player); err != nil {
			continue // Skip invalid data
		}
		players = append(players, &player)
	}
	storage.SortPlayers(players)
	return players, nil
}

// Declaration operations

func (s *Storage) SaveDeclaration(ctx context.Context, decl *model.DailyDeclaration) error {
	data, err := json.Marshal(decl)
	if err != nil {
		return err
	}

	ttl := s.cfg.DeclarationTTL
	dateIndex := declarationsForDateIndexKey(decl.Date)
	playerIndex := datesForPlayerIndexKey(decl.PlayerID)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, declarationKey(decl.Date, decl.PlayerID), data, ttl)
	pipe.SAdd(ctx, dateIndex, string(decl.PlayerID))
	pipe.SAdd(ctx, playerIndex, string(decl.Date))
	if ttl > 0 {
		// Keep index TTLs in sync; the newest declaration extends the player's
		pipe.Expire(ctx, dateIndex, ttl)
		pipe.Expire(ctx, playerIndex, ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetDeclaration(ctx context.Context, playerID model.PlayerID, date model.Date) (*model.DailyDeclaration, error) {
	data, err := s.client.Get(ctx, declarationKey(date, playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrDeclarationNotFound
		}
		return nil, err
	}

	var decl model.DailyDeclaration
	if err := json.Unmarshal(data, &decl); err != nil {
		return nil, err
	}
	return &decl, nil
}

func (s *Storage) ListDeclarations(ctx context.Context, date model.Date, pred storage.DeclarationPredicate) ([]model.PlayerDeclaration, error) {
	ids, err := s.client.SMembers(ctx, declarationsForDateIndexKey(date)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.PlayerDeclaration{}, nil
	}

	declKeys := make([]string, len(ids))
	for i, id := range ids {
		declKeys[i] = declarationKey(date, model.PlayerID(id))
	}

	declValues, err := s.client.MGet(ctx, declKeys...).Result()
	if err != nil {
		return nil, err
	}

	decls := make([]model.DailyDeclaration, 0, len(declValues))
	for _, val := range declValues {
		str, ok := val.(string)
		if !ok {
			continue // Declaration may have expired
		}
		var decl model.DailyDeclaration
		if err := json.Unmarshal([]byte(str), &decl); err != nil {
			continue
		}
		if pred != nil && !pred(&decl) {
			continue
		}
		decls = append(decls, decl)
	}
	if len(decls) == 0 {
		return []model.PlayerDeclaration{}, nil
	}

	playerKeys := make([]string, len(decls))
	for i, d := range decls {
		playerKeys[i] = playerKey(d.PlayerID)
	}
	playerValues, err := s.client.MGet(ctx, playerKeys...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.PlayerDeclaration, 0, len(decls))
	for i, val := range playerValues {
		str, ok := val.(string)
		if !ok {
			continue // Player deleted
		}
		var player model.Player
		if err := json.Unmarshal([]byte(str), &player); err != nil {
			continue
		}
		entries = append(entries, model.PlayerDeclaration{Player: player, Declaration: decls[i]})
	}
	storage.SortPlayerDeclarations(entries)
	return entries, nil
}
