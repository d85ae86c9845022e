package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the token pair under two keys sharing a prefix. Both keys
// are written and removed in a single MULTI/EXEC.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) accessKey() string  { return r.prefix + AccessKey }
func (r *RedisStore) refreshKey() string { return r.prefix + RefreshKey }

// Load implements Store.
func (r *RedisStore) Load(ctx context.Context) (Tokens, error) {
	values, err := r.client.MGet(ctx, r.accessKey(), r.refreshKey()).Result()
	if err != nil {
		return Tokens{}, fmt.Errorf("%w: mget: %v", ErrStoreUnavailable, err)
	}
	var tokens Tokens
	if s, ok := values[0].(string); ok {
		tokens.Access = s
	}
	if s, ok := values[1].(string); ok {
		tokens.Refresh = s
	}
	return tokens, nil
}

// Save implements Store.
func (r *RedisStore) Save(ctx context.Context, tokens Tokens) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.accessKey(), tokens.Access, 0)
		if tokens.Refresh == "" {
			pipe.Del(ctx, r.refreshKey())
		} else {
			pipe.Set(ctx, r.refreshKey(), tokens.Refresh, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: save: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Clear implements Store.
func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.accessKey(), r.refreshKey()).Err(); err != nil {
		return fmt.Errorf("%w: clear: %v", ErrStoreUnavailable, err)
	}
	return nil
}
