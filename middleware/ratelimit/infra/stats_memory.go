package infra

import (
	"context"
	"sync"

	"africa-gateway/middleware/ratelimit/domain"
)

// Counters conta decisões por resultado.
type Counters map[domain.Outcome]int64

func (c Counters) clone() Counters {
	out := make(Counters, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// MemoryStatsStore guarda contadores em memória, sem expiração.
// Serve para testes e para rodar sem Redis.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   Counters
	byRoute map[string]Counters
	byClass map[domain.Class]Counters
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{
		total:   Counters{},
		byRoute: make(map[string]Counters),
		byClass: make(map[domain.Class]Counters),
	}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Route

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total[ev.Outcome]++
	if s.byRoute[route] == nil {
		s.byRoute[route] = Counters{}
	}
	s.byRoute[route][ev.Outcome]++
	if ev.Class != "" {
		if s.byClass[ev.Class] == nil {
			s.byClass[ev.Class] = Counters{}
		}
		s.byClass[ev.Class][ev.Outcome]++
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total.clone()
}

func (s *MemoryStatsStore) ByRoute(route string) Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byRoute[route].clone()
}

func (s *MemoryStatsStore) ByClass(class domain.Class) Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byClass[class].clone()
}
