package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
)

// maxUpdateAttempts bounds the optimistic retries when another writer touched the cart.
const maxUpdateAttempts = 5

// Store persists one cart aggregate per register.
type Store interface {
	Load(ctx context.Context, registerID uuid.UUID) (*Aggregate, error)
	Update(ctx context.Context, registerID uuid.UUID, fn func(*Aggregate) error) (*Aggregate, error)
	Delete(ctx context.Context, registerID uuid.UUID) error
}

type sessionClient interface {
	CartKey(registerID string) string
	Get(ctx context.Context, key string) (string, error)
	Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error
	Del(ctx context.Context, keys ...string) error
}

// RedisStore keeps carts as JSON documents keyed by register.
type RedisStore struct {
	client sessionClient
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed cart store. A zero ttl keeps carts until cleared.
func NewRedisStore(client sessionClient, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Load returns the stored cart or a fresh empty one.
func (s *RedisStore) Load(ctx context.Context, registerID uuid.UUID) (*Aggregate, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(registerID.String()))
	if errors.Is(err, redis.Nil) {
		return New(), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return decode(raw)
}

// Update loads the cart under WATCH, applies fn and writes the result in a MULTI block.
// When fn fails nothing is written and the error is returned unchanged.
func (s *RedisStore) Update(ctx context.Context, registerID uuid.UUID, fn func(*Aggregate) error) (*Aggregate, error) {
	key := s.client.CartKey(registerID.String())

	var result *Aggregate
	txf := func(tx *redis.Tx) error {
		agg := New()
		raw, err := tx.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		default:
			if agg, err = decode(raw); err != nil {
				return err
			}
		}

		if err := fn(agg); err != nil {
			return err
		}

		payload, err := json.Marshal(agg)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		result = agg
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart is being modified concurrently")
}

// Delete drops the stored cart. Deleting a missing cart is not an error.
func (s *RedisStore) Delete(ctx context.Context, registerID uuid.UUID) error {
	if err := s.client.Del(ctx, s.client.CartKey(registerID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}

func decode(raw string) (*Aggregate, error) {
	agg := New()
	if err := json.Unmarshal([]byte(raw), agg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart")
	}
	if agg.Lines == nil {
		agg.Lines = []Line{}
	}
	return agg, nil
}
