// Package application contém os casos de uso do agregador de dados africanos.
//
// Depende apenas de domain: recebe clientes e caches já construídos (ver cmd/gateway)
// e não conhece net/http. Gather é o executor de concorrência limitada usado
// para espalhar as buscas de indicadores.
package application
