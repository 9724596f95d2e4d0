// Package infra implementa os contratos de domain para a proteção de entrada.
//
//   - Store: token bucket por (classe, cliente) com golang.org/x/time/rate e limpeza de ociosos
//   - NewChanPool: semáforo de requisições em voo
//   - MemoryStatsStore / RedisStatsStore: contadores de decisões
package infra
