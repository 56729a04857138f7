package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advpal/internal/store"
	"advpal/internal/store/storetest"
)

// These tests need a live server; set ADVPAL_TEST_REDIS_ADDR to run them.
func testAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("ADVPAL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ADVPAL_TEST_REDIS_ADDR not set")
	}
	return addr
}

func TestStore(t *testing.T) {
	addr := testAddr(t)

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(context.Background(), Config{
			Addr:      addr,
			KeyPrefix: "advpal-test:" + uuid.NewString() + ":",
		})
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestStore_KeyPrefix(t *testing.T) {
	addr := testAddr(t)
	ctx := context.Background()
	prefix := "advpal-test:" + uuid.NewString() + ":"

	s, err := Open(ctx, Config{Addr: addr, KeyPrefix: prefix})
	require.NoError(t, err)
	defer s.Close()

	err = s.Update(ctx, "general", func([]byte) ([]byte, bool, error) {
		return []byte("blob"), true, nil
	})
	require.NoError(t, err)

	got, err := s.client.Get(ctx, prefix+"general").Result()
	require.NoError(t, err)
	assert.Equal(t, "blob", got)
	s.client.Del(ctx, prefix+"general")
}

func TestOpen_Unreachable(t *testing.T) {
	_, err := Open(context.Background(), Config{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestNew_DefaultPrefix(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	s := New(client, "")
	defer s.Close()

	key, err := s.key("general")
	require.NoError(t, err)
	assert.Equal(t, DefaultKeyPrefix+"general", key)

	_, err = s.key("../x")
	assert.ErrorIs(t, err, store.ErrInvalidChannel)
}
