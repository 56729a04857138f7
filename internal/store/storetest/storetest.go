// Package storetest holds the behaviour every store backend must satisfy.
package storetest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advpal/internal/store"
)

// Run exercises a fresh store returned by newStore against the [store.Store] contract.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("load empty channel", func(t *testing.T) {
		s := newStore(t)

		blob, err := s.Load(context.Background(), "empty")

		assert.Nil(t, blob)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update writes and load reads", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.Update(ctx, "chan-1", func(current []byte) ([]byte, bool, error) {
			assert.Nil(t, current)
			return []byte(`{"v":1}`), true, nil
		})
		require.NoError(t, err)

		err = s.Update(ctx, "chan-1", func(current []byte) ([]byte, bool, error) {
			assert.Equal(t, `{"v":1}`, string(current))
			return []byte(`{"v":2}`), true, nil
		})
		require.NoError(t, err)

		blob, err := s.Load(ctx, "chan-1")
		require.NoError(t, err)
		assert.Equal(t, `{"v":2}`, string(blob))
	})

	t.Run("unchanged update writes nothing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.Update(ctx, "quiet", func(current []byte) ([]byte, bool, error) {
			return []byte("ignored"), false, nil
		})
		require.NoError(t, err)

		_, err = s.Load(ctx, "quiet")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("failed update writes nothing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seed(t, s, "failing", "before")
		boom := errors.New("boom")

		err := s.Update(ctx, "failing", func(current []byte) ([]byte, bool, error) {
			return []byte("after"), true, boom
		})
		assert.ErrorIs(t, err, boom)

		blob, err := s.Load(ctx, "failing")
		require.NoError(t, err)
		assert.Equal(t, "before", string(blob))
	})

	t.Run("nil blob deletes", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seed(t, s, "doomed", "data")

		err := s.Update(ctx, "doomed", func(current []byte) ([]byte, bool, error) {
			return nil, true, nil
		})
		require.NoError(t, err)

		_, err = s.Load(ctx, "doomed")
		assert.ErrorIs(t, err, store.ErrNotFound)

		err = s.Update(ctx, "doomed", func(current []byte) ([]byte, bool, error) {
			return nil, true, nil
		})
		assert.NoError(t, err, "deleting a missing blob is not an error")
	})

	t.Run("channels are independent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seed(t, s, "alpha", "a")
		seed(t, s, "beta", "b")

		a, err := s.Load(ctx, "alpha")
		require.NoError(t, err)
		b, err := s.Load(ctx, "beta")
		require.NoError(t, err)
		assert.Equal(t, "a", string(a))
		assert.Equal(t, "b", string(b))
	})

	t.Run("invalid channel", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, channel := range []string{"", "../escape", "a/b", ".hidden"} {
			_, err := s.Load(ctx, channel)
			assert.ErrorIs(t, err, store.ErrInvalidChannel, channel)

			err = s.Update(ctx, channel, func([]byte) ([]byte, bool, error) {
				return []byte("x"), true, nil
			})
			assert.ErrorIs(t, err, store.ErrInvalidChannel, channel)
		}
	})

	t.Run("concurrent updates are serialised", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		const workers = 8

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.Update(ctx, "counter", func(current []byte) ([]byte, bool, error) {
					n := 0
					if current != nil {
						var err error
						if n, err = strconv.Atoi(string(current)); err != nil {
							return nil, false, err
						}
					}
					return []byte(strconv.Itoa(n + 1)), true, nil
				})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		blob, err := s.Load(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(workers), string(blob))
	})
}

func seed(t *testing.T, s store.Store, channel, value string) {
	t.Helper()
	err := s.Update(context.Background(), channel, func([]byte) ([]byte, bool, error) {
		return []byte(value), true, nil
	})
	require.NoError(t, err)
}
