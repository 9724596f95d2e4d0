package application

import (
	"context"
	"time"

	"africa-gateway/middleware/ratelimit/domain"
)

// ConcurrencyService controla as requisições em voo.
// AcquireTimeout <= 0 espera até o ctx da requisição terminar.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire devolve (release, true) ou (nil, false) quando não houve vaga a tempo.
func (s ConcurrencyService) Acquire(ctx context.Context) (func(), bool) {
	if s.Pool == nil {
		return func() {}, true
	}
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}
	return s.Pool.Acquire(ctx)
}

// Saturation é a fração de vagas ocupadas (0 quando não há pool).
func (s ConcurrencyService) Saturation() float64 {
	if s.Pool == nil || s.Pool.Cap() == 0 {
		return 0
	}
	return float64(s.Pool.InUse()) / float64(s.Pool.Cap())
}
