package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("Connects to a running Redis", func(t *testing.T) {
		// Given: a running Redis
		server := miniredis.RunT(t)

		// When: the storage is created
		redisStorage, err := NewRedisStorage(ctx, server.Addr(), "", 0)

		// Then: the connection is usable and closes cleanly
		require.NoError(t, err)
		require.NoError(t, redisStorage.Connection.Set(ctx, "k", "v", 0).Err())
		got, err := server.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
		require.NoError(t, redisStorage.Close())
	})

	t.Run("Checks the password", func(t *testing.T) {
		// Given: a Redis that requires a password
		server := miniredis.RunT(t)
		server.RequireAuth("secret")

		// When: the storage is created with a wrong password
		redisStorage, err := NewRedisStorage(ctx, server.Addr(), "wrong", 0)

		// Then: the connection is refused
		require.Error(t, err)
		assert.Nil(t, redisStorage)
	})
}
