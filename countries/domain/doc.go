// Package domain define tipos e contratos do agregador de dados de países africanos.
//
// Este pacote não depende de net/http nem de clientes concretos. As camadas
// application (composição/orquestração) e infra (HTTP upstream, cache, Redis, bbolt)
// consomem e implementam os contratos definidos aqui.
package domain
