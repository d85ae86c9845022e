package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	tokens, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, tokens.Empty())

	require.NoError(t, store.Save(ctx, Tokens{Access: "acc", Refresh: "ref"}))
	tokens, err = store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, Tokens{Access: "acc", Refresh: "ref"}, tokens)

	require.NoError(t, store.Save(ctx, Tokens{Access: "acc2", Refresh: "ref"}))
	tokens, err = store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "acc2", tokens.Access)

	require.NoError(t, store.Clear(ctx))
	tokens, err = store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, Tokens{}, tokens)

	require.NoError(t, store.Clear(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")
	store := NewFileStore(path)
	exerciseStore(t, store)

	require.NoError(t, store.Save(context.Background(), Tokens{Access: "a", Refresh: "r"}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"access_token": "a"`)
	require.Contains(t, string(data), `"refresh_token": "r"`)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "sealion:")
	exerciseStore(t, store)

	require.NoError(t, store.Save(context.Background(), Tokens{Access: "a", Refresh: "r"}))
	access, err := mr.Get("sealion:access_token")
	require.NoError(t, err)
	require.Equal(t, "a", access)
	refresh, err := mr.Get("sealion:refresh_token")
	require.NoError(t, err)
	require.Equal(t, "r", refresh)
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisStore(client, "x:").Load(context.Background())
	require.ErrorIs(t, err, ErrStoreUnavailable)
}
