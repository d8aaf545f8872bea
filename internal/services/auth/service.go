package auth

import (
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Errors
var (
	ErrAdminDisabled      = errors.New("admin access is not configured")
	ErrInvalidCredentials = errors.New("invalid admin key")
)

// Service checks the operator's admin key against a bcrypt hash.
// There is a single operator and no sessions: every admin request carries
// the key.
type Service struct {
	hash   []byte
	logger *slog.Logger
}

// New creates an admin auth Service. An empty hash disables admin access.
func New(hash string, logger *slog.Logger) (*Service, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, err
		}
	}
	return &Service{
		hash:   []byte(hash),
		logger: logger.With(slog.String("component", "auth")),
	}, nil
}

// Enabled reports whether an admin key is configured
func (s *Service) Enabled() bool {
	return len(s.hash) > 0
}

// Verify checks key against the configured hash
func (s *Service) Verify(key string) error {
	if !s.Enabled() {
		return ErrAdminDisabled
	}
	if key == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(key)); err != nil {
		s.logger.Warn("rejected admin key")
		return ErrInvalidCredentials
	}
	return nil
}

// HashKey produces the value for TEAMFINDER_ADMIN_KEY_HASH
func HashKey(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
