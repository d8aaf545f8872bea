package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mcoot/teamfinder/internal/model"
)

// DefaultTimeout bounds a single storage call when no timeout is configured
const DefaultTimeout = 5 * time.Second

// WithTimeout bounds one storage call
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Wrap turns a backend failure into a *model.StoreError.
// Not-found sentinels pass through untouched so callers can branch on them.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if model.IsNotFound(err) {
		return err
	}
	var se *model.StoreError
	if errors.As(err, &se) {
		return err
	}
	return &model.StoreError{Op: op, Err: err}
}
