package infra

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"africa-gateway/middleware/ratelimit/domain"
)

// Store mantém um token bucket por (classe, cliente). Cada classe tem sua política;
// classes sem política usam a padrão.
type Store struct {
	mu       sync.Mutex
	entries  map[entryKey]*storeEntry
	fallback domain.Policy
	policies map[domain.Class]domain.Policy

	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type entryKey struct {
	class domain.Class
	key   domain.Key
}

type storeEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type StoreOption func(*Store)

// WithClassPolicy define a política de uma classe de rota.
func WithClassPolicy(class domain.Class, rps float64, burst int) StoreOption {
	return func(s *Store) { s.policies[class] = domain.Policy{RPS: rps, Burst: burst} }
}

func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *Store) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *Store) { s.cleanupEvery = d }
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func NewStore(rps float64, burst int, opts ...StoreOption) *Store {
	s := &Store{
		entries:      make(map[entryKey]*storeEntry),
		fallback:     domain.Policy{RPS: rps, Burst: burst},
		policies:     make(map[domain.Class]domain.Policy),
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy implementa domain.LimiterStore.
func (s *Store) Policy(class domain.Class) domain.Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policyLocked(class)
}

// Get implementa domain.LimiterStore.
func (s *Store) Get(class domain.Class, key domain.Key) domain.Limiter {
	return s.limiter(class, key)
}

func (s *Store) limiter(class domain.Class, key domain.Key) *rate.Limiter {
	k := entryKey{class: class, key: key}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[k]; ok {
		ent.lastSeen = now
		return ent.lim
	}
	p := s.policyLocked(class)
	lim := rate.NewLimiter(rate.Limit(p.RPS), p.Burst)
	s.entries[k] = &storeEntry{lim: lim, lastSeen: now}
	return lim
}

func (s *Store) policyLocked(class domain.Class) domain.Policy {
	if p, ok := s.policies[class]; ok {
		return p
	}
	return s.fallback
}

// Len é o número de buckets vivos.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup remove buckets sem uso há mais de idleTTL.
func (s *Store) Cleanup() {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor roda Cleanup periodicamente até o ctx terminar.
func (s *Store) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}
	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
