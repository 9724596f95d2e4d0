package domain

import "time"

// Key identifica o cliente (IP, header de API key...).
type Key string

// Class agrupa rotas com o mesmo custo. Rotas que disparam muitas buscas
// nos upstreams (ex.: /economic-data completo) usam uma classe mais restrita.
type Class string

const DefaultClass Class = "default"

// Policy é a configuração de um token bucket.
type Policy struct {
	RPS   float64
	Burst int
}

// Limiter decide se uma ação é permitida agora.
type Limiter interface {
	Allow() bool
}

// LimiterStore entrega um limiter por (classe, chave) e a política de cada classe.
type LimiterStore interface {
	Get(class Class, key Key) Limiter
	Policy(class Class) Policy
}

type Decision struct {
	Allowed bool
	Policy  Policy

	// RetryAfter só é preenchido quando Allowed == false.
	RetryAfter time.Duration
}
