// Package application tem as regras da proteção de entrada: decisão de rate limit
// por classe de rota e aquisição de vaga com timeout.
//
// Depende apenas de domain; não conhece net/http.
package application
