// Package ratelimit protege a API contra excesso de tráfego: token bucket por cliente
// e classe de rota, e teto de requisições em voo.
//
// Camadas:
//
//   - domain: tipos e contratos (sem net/http)
//   - application: decisão allow/deny e aquisição de vaga com timeout
//   - infra: token buckets (x/time/rate), semáforo, estatísticas em memória/Redis
//   - ratelimit (este pacote): middlewares HTTP, extração de chave e classe, respostas
//
// Bloqueios respondem JSON {"detail": ...}: 429 com Retry-After no rate limit,
// 503 quando não há vaga. Paths isentos (ex.: /health, /metrics) nunca são limitados.
package ratelimit
