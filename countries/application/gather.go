package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"africa-gateway/countries/domain"
)

// Op é uma operação best-effort executada por Gather.
// Um erro retornado vira um Outcome Failed no slot correspondente.
type Op[T any] func(ctx context.Context) (domain.Outcome[T], error)

// Gather executa ops com no máximo limit em paralelo e devolve um resultado por op,
// na mesma ordem de entrada.
//
// O timeout de cada op começa a contar depois que ela consegue uma vaga.
// Erro, panic ou timeout de uma op não afetam as outras; Gather nunca falha.
// limit <= 0 significa sem limite; timeout <= 0 significa sem timeout por op.
func Gather[T any](ctx context.Context, limit int, timeout time.Duration, ops ...Op[T]) []domain.Outcome[T] {
	out := make([]domain.Outcome[T], len(ops))
	if len(ops) == 0 {
		return out
	}
	if limit <= 0 || limit > len(ops) {
		limit = len(ops)
	}

	slots := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, op := range ops {
		wg.Add(1)
		go func(i int, op Op[T]) {
			defer wg.Done()
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				out[i] = domain.FailedWith[T](ctx.Err())
				return
			}
			defer func() { <-slots }()
			out[i] = runOp(ctx, timeout, op)
		}(i, op)
	}
	wg.Wait()
	return out
}

type opResult[T any] struct {
	outcome domain.Outcome[T]
	err     error
}

// runOp libera o chamador no timeout mesmo que a op ignore o ctx;
// a goroutine da op termina sozinha e o resultado tardio é descartado.
func runOp[T any](ctx context.Context, timeout time.Duration, op Op[T]) domain.Outcome[T] {
	opCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		opCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	done := make(chan opResult[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- opResult[T]{err: fmt.Errorf("operation panicked: %v", r)}
			}
		}()
		o, err := op(opCtx)
		done <- opResult[T]{outcome: o, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return domain.FailedWith[T](r.err)
		}
		return r.outcome
	case <-opCtx.Done():
		return domain.FailedWith[T](fmt.Errorf("operation abandoned: %w", opCtx.Err()))
	}
}
