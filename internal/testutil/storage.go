package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/storage"
)

// ErrInjected is the default failure returned by FaultyStorage
var ErrInjected = errors.New("injected storage failure")

// Storage operation names accepted by FaultyStorage.FailOn
const (
	OpSavePlayer       = "SavePlayer"
	OpGetPlayer        = "GetPlayer"
	OpDeletePlayer     = "DeletePlayer"
	OpListPlayers      = "ListPlayers"
	OpSaveDeclaration  = "SaveDeclaration"
	OpGetDeclaration   = "GetDeclaration"
	OpListDeclarations = "ListDeclarations"
)

// FaultyStorage wraps a Storage and fails chosen operations on demand.
// It also counts writes so tests can assert that nothing was stored.
type FaultyStorage struct {
	inner storage.Storage

	mu       sync.Mutex
	failures map[string]error
	block    map[string]bool
	calls    map[string]int
}

// NewFaultyStorage wraps inner
func NewFaultyStorage(inner storage.Storage) *FaultyStorage {
	return &FaultyStorage{
		inner:    inner,
		failures: make(map[string]error),
		block:    make(map[string]bool),
		calls:    make(map[string]int),
	}
}

var _ storage.Storage = (*FaultyStorage)(nil)

// FailOn makes op return err (ErrInjected if err is nil) until Heal is called
func (f *FaultyStorage) FailOn(op string, err error) {
	if err == nil {
		err = ErrInjected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
}

// BlockOn makes op wait for its context to expire, simulating a hung store
func (f *FaultyStorage) BlockOn(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block[op] = true
}

// Heal clears every injected failure
func (f *FaultyStorage) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = make(map[string]error)
	f.block = make(map[string]bool)
}

// Calls returns how many times op was invoked
func (f *FaultyStorage) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Writes returns the total number of save and delete calls
func (f *FaultyStorage) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[OpSavePlayer] + f.calls[OpSaveDeclaration] + f.calls[OpDeletePlayer]
}

func (f *FaultyStorage) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.failures[op]
	blocked := f.block[op]
	f.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *FaultyStorage) SavePlayer(ctx context.Context, player *model.Player) error {
	if err := f.enter(ctx, OpSavePlayer); err != nil {
		return err
	}
	return f.inner.SavePlayer(ctx, player)
}

func (f *FaultyStorage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	if err := f.enter(ctx, OpGetPlayer); err != nil {
		return nil, err
	}
	return f.inner.GetPlayer(ctx, id)
}

func (f *FaultyStorage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	if err := f.enter(ctx, OpDeletePlayer); err != nil {
		return err
	}
	return f.inner.DeletePlayer(ctx, id)
}

func (f *FaultyStorage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	if err := f.enter(ctx, OpListPlayers); err != nil {
		return nil, err
	}
	return f.inner.ListPlayers(ctx)
}

func (f *FaultyStorage) SaveDeclaration(ctx context.Context, decl *model.DailyDeclaration) error {
	if err := f.enter(ctx, OpSaveDeclaration); err != nil {
		return err
	}
	return f.inner.SaveDeclaration(ctx, decl)
}

func (f *FaultyStorage) GetDeclaration(ctx context.Context, playerID model.PlayerID, date model.Date) (*model.DailyDeclaration, error) {
	if err := f.enter(ctx, OpGetDeclaration); err != nil {
		return nil, err
	}
	return f.inner.GetDeclaration(ctx, playerID, date)
}

func (f *FaultyStorage) ListDeclarations(ctx context.Context, date model.Date, pred storage.DeclarationPredicate) ([]model.PlayerDeclaration, error) {
	if err := f.enter(ctx, OpListDeclarations); err != nil {
		return nil, err
	}
	return f.inner.ListDeclarations(ctx, date, pred)
}
