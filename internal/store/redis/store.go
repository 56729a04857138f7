// Package redis keeps channel stories in Redis.
//
// Each channel maps to one string key. Updates use optimistic WATCH/MULTI
// transactions and retry when another writer touches the key first.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"advpal/internal/store"
)

// DefaultKeyPrefix is prepended to channel ids to form Redis keys.
const DefaultKeyPrefix = "advpal:story:"

const defaultMaxRetries = 32

// ErrConflict is returned when an update loses every optimistic retry.
var ErrConflict = errors.New("story update conflicted with concurrent writers")

// Config holds connection settings.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store implements [store.Store] on a Redis client.
type Store struct {
	client     *goredis.Client
	prefix     string
	maxRetries int
}

// Open connects to Redis and verifies the connection with PING.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return New(client, cfg.KeyPrefix), nil
}

// New wraps an existing client. An empty prefix selects [DefaultKeyPrefix].
func New(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix, maxRetries: defaultMaxRetries}
}

func (s *Store) key(channel string) (string, error) {
	if err := store.ValidateChannel(channel); err != nil {
		return "", err
	}
	return s.prefix + channel, nil
}

// Load reads the channel's key.
func (s *Store) Load(ctx context.Context, channel string) ([]byte, error) {
	key, err := s.key(channel)
	if err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read story: %w", err)
	}
	return data, nil
}

// Update runs fn inside a WATCH on the channel's key. fn is re-run when the
// key changes before the transaction commits.
func (s *Store) Update(ctx context.Context, channel string, fn store.UpdateFunc) error {
	key, err := s.key(channel)
	if err != nil {
		return err
	}

	txf := func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			current = nil
		} else if err != nil {
			return fmt.Errorf("failed to read story: %w", err)
		}

		next, changed, err := fn(current)
		if err != nil || !changed {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			if next == nil {
				pipe.Del(ctx, key)
			} else {
				pipe.Set(ctx, key, next, 0)
			}
			return nil
		})
		return err
	}

	for i := 0; i < s.maxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
