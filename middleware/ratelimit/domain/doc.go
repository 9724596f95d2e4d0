// Package domain define os tipos da proteção de entrada do gateway:
// chaves e classes de limite, políticas de token bucket, decisões e eventos de estatística.
//
// Não depende de net/http nem de implementações concretas.
package domain
