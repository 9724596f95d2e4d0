package application

import (
	"math"
	"time"

	"africa-gateway/middleware/ratelimit/domain"
)

// Service decide allow/deny para um (classe, cliente).
type Service struct {
	Store domain.LimiterStore

	// RetryAfter fixo; quando zero, é derivado da política (tempo até o próximo token).
	RetryAfter time.Duration
}

func (s Service) Decide(class domain.Class, key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}
	if class == "" {
		class = domain.DefaultClass
	}

	policy := s.Store.Policy(class)
	lim := s.Store.Get(class, key)
	if lim == nil || lim.Allow() {
		return domain.Decision{Allowed: true, Policy: policy}
	}
	return domain.Decision{Allowed: false, Policy: policy, RetryAfter: s.retryAfter(policy)}
}

func (s Service) retryAfter(p domain.Policy) time.Duration {
	if s.RetryAfter > 0 {
		return s.RetryAfter
	}
	if p.RPS <= 0 {
		return time.Second
	}
	// arredonda para cima em segundos inteiros (Retry-After não aceita fração)
	secs := math.Ceil(1 / p.RPS)
	return time.Duration(secs) * time.Second
}
