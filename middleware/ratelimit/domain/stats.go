package domain

import (
	"context"
	"time"
)

// Outcome é o resultado da proteção de entrada para uma requisição.
type Outcome string

const (
	OutcomeAllowed     Outcome = "allowed"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeOverloaded  Outcome = "overloaded"
)

// StatsEvent registra uma decisão. Route deve ser o padrão da rota (não o path cru)
// para manter a cardinalidade baixa no Redis.
type StatsEvent struct {
	Key     Key
	Class   Class
	Outcome Outcome

	Method string
	Route  string

	At time.Time
}

// StatsStore persiste eventos. Erros são best-effort: nunca derrubam a requisição.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
