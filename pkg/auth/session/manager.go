// Package session tracks which issued access tokens are still live so logout can
// revoke a token before it expires.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrMissingAccessID is returned for a blank token id.
var ErrMissingAccessID = errors.New("access id is required")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(accessID string) string
}

// AccessSessionChecker is what the auth middleware needs.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager keeps one Redis key per access token (the jti). The key holds the
// operator id and expires with the token.
type Manager struct {
	store sessionStore
	ttl   time.Duration
}

func NewManager(store sessionStore, ttl time.Duration) (*Manager, error) {
	switch {
	case store == nil:
		return nil, errors.New("session store is required")
	case ttl <= 0:
		return nil, fmt.Errorf("session ttl must be positive, got %s", ttl)
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// NewAccessID mints the jti shared by the token and its session key.
func NewAccessID() string {
	return uuid.NewString()
}

func (m *Manager) key(accessID string) (string, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return "", ErrMissingAccessID
	}
	return m.store.SessionKey(accessID), nil
}

// Start marks accessID as live for operatorID.
func (m *Manager) Start(ctx context.Context, accessID string, operatorID uuid.UUID) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, key, operatorID.String(), m.ttl)
}

// Revoke ends the session. Revoking an unknown or expired session is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// Owner returns the operator holding accessID. ok is false once the session
// ended.
func (m *Manager) Owner(ctx context.Context, accessID string) (operatorID uuid.UUID, ok bool, err error) {
	key, err := m.key(accessID)
	if err != nil {
		return uuid.Nil, false, err
	}
	raw, err := m.store.Get(ctx, key)
	switch {
	case errors.Is(err, redis.Nil):
		return uuid.Nil, false, nil
	case err != nil:
		return uuid.Nil, false, fmt.Errorf("load session: %w", err)
	}
	operatorID, err = uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("session %s holds %q: %w", accessID, raw, err)
	}
	return operatorID, true, nil
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	_, ok, err := m.Owner(ctx, accessID)
	return ok, err
}
