package infra

import (
	"context"
	"errors"
	"time"
)

var (
	ErrKVNotFound = errors.New("kv: key not found")
	ErrKVExpired  = errors.New("kv: key expired")
)

// KV é um armazenamento chave/valor com TTL usado como segundo nível do TTLCache
// e como store do último dataset de fronteiras bom conhecido.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Put grava com TTL; ttl <= 0 significa sem expiração.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
