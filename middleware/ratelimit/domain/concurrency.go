package domain

import "context"

// SlotPool é um recurso de capacidade finita (requisições em voo).
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx terminar; o release
// retornado deve ser chamado exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
	InUse() int
	Cap() int
}
