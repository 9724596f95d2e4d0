package infra

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV é o segundo nível remoto do cache, compartilhado entre réplicas.
// A expiração fica a cargo do próprio Redis (SET ... EX).
type RedisKV struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisKV(rdb *redis.Client, prefix string) *RedisKV {
	if prefix == "" {
		prefix = "africa:cache:"
	}
	return &RedisKV{rdb: rdb, prefix: prefix}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKVNotFound
	}
	return b, err
}

func (r *RedisKV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.rdb.Set(ctx, r.prefix+key, value, ttl).Err()
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.prefix+key).Err()
}
