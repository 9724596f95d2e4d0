// Package countries é o adapter HTTP do agregador de dados de países africanos.
//
// Camadas (mesma divisão de middleware/ratelimit):
//
//   - domain: tipos, erros e contratos (sem net/http)
//   - application: executor de concorrência limitada e serviço de agregação
//   - infra: cache com TTL, backings KV, clientes dos upstreams, métricas
//   - countries (este pacote): rotas, JSON e tradução de erros para status
//
// Erros viram JSON {"detail": "..."}: domain.ErrNotFound => 404,
// domain.ErrUpstreamUnavailable => 503.
package countries
