package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"africa-gateway/middleware/ratelimit/domain"
)

// RedisStatsStore agrega decisões em hashes do Redis:
//
//	{prefix}:total               campo = resultado
//	{prefix}:minute:YYYYMMDDhhmm campo = resultado (expira em ttl)
//	{prefix}:route               campo = "METHOD /rota:resultado"
//	{prefix}:class               campo = "classe:resultado"
//	{prefix}:key:{cliente}       campo = resultado (só com trackKeys, expira em ttl)
type RedisStatsStore struct {
	rdb *redis.Client

	prefix    string
	ttl       time.Duration
	perMinute bool
	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

// WithStatsBucket aceita "minute" (padrão) ou "none".
func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.perMinute = strings.ToLower(strings.TrimSpace(bucket)) != "none"
	}
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:       rdb,
		prefix:    "africa:ingress",
		ttl:       24 * time.Hour,
		perMinute: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	outcome := string(ev.Outcome)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", outcome, 1)

	if s.perMinute {
		bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, outcome, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}
	if route := strings.TrimSpace(ev.Method + " " + ev.Route); route != "" {
		pipe.HIncrBy(ctx, s.prefix+":route", route+":"+outcome, 1)
	}
	if ev.Class != "" {
		pipe.HIncrBy(ctx, s.prefix+":class", string(ev.Class)+":"+outcome, 1)
	}
	if s.trackKeys {
		if k := strings.TrimSpace(string(ev.Key)); k != "" {
			keyKey := s.prefix + ":key:" + k
			pipe.HIncrBy(ctx, keyKey, outcome, 1)
			if s.ttl > 0 {
				pipe.Expire(ctx, keyKey, s.ttl)
			}
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}
