package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/teamfinder/internal/dependencies/clock"
	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/session"
)

const keyPrefix = "teamfinder:session:"

// Store keeps sessions as JSON values whose TTL is refreshed on every save
type Store struct {
	client *redis.Client
	clock  clock.Clock
	ttl    time.Duration
}

// New creates a session store on an existing client, usually the one shared
// with the redis record store
func New(client *redis.Client, clk clock.Clock, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &Store{client: client, clock: clk, ttl: ttl}
}

var _ session.Store = (*Store)(nil)

func sessionKey(id model.PlayerID) string {
	return keyPrefix + string(id)
}

func (r *Store) Get(ctx context.Context, id model.PlayerID) (*session.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &session.Session{}, nil
		}
		return nil, err
	}

	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *Store) Save(ctx context.Context, id model.PlayerID, s *session.Session) error {
	cp := s.Clone()
	cp.UpdatedAt = r.clock.Now()

	data, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(id), data, r.ttl).Err()
}

func (r *Store) Delete(ctx context.Context, id model.PlayerID) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}
