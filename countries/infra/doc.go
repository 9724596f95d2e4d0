// Package infra contém as implementações concretas dos contratos de domain.
//
//   - TTLCache: cache genérico com TTL, carregamento single-flight e segundo nível opcional (KV)
//   - RedisKV / BoltKV: backings de KV (go-redis e bbolt)
//   - RestCountriesClient, WorldBankClient, NaturalEarthClient: clientes dos upstreams
//   - Metrics: contadores e histogramas Prometheus de upstream, cache e HTTP
package infra
