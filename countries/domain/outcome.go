package domain

// OutcomeState distingue "valor ausente porque não se aplica" de "valor ausente porque a busca falhou".
type OutcomeState int

const (
	Failed OutcomeState = iota
	Missing
	Present
)

func (s OutcomeState) String() string {
	switch s {
	case Present:
		return "present"
	case Missing:
		return "missing"
	default:
		return "failed"
	}
}

// Outcome é o resultado tipado de uma busca best-effort.
type Outcome[T any] struct {
	Value T
	State OutcomeState
	Err   error
}

func Found[T any](v T) Outcome[T] { return Outcome[T]{Value: v, State: Present} }

func Absent[T any]() Outcome[T] { return Outcome[T]{State: Missing} }

func FailedWith[T any](err error) Outcome[T] { return Outcome[T]{State: Failed, Err: err} }

// OK informa se há valor.
func (o Outcome[T]) OK() bool { return o.State == Present }

// Ptr retorna ponteiro para o valor, ou nil quando ausente (vira null no JSON).
func (o Outcome[T]) Ptr() *T {
	if o.State != Present {
		return nil
	}
	v := o.Value
	return &v
}
