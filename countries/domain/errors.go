package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable: dataset obrigatório (diretório de países) indisponível. Vira 503.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrNotFound: código não resolve para um registro conhecido, ou feature ausente. Vira 404.
	ErrNotFound = errors.New("not found")
)

// UpstreamError carrega detalhes de uma falha de upstream.
// Status é 0 quando não houve resposta HTTP (timeout, rede, payload inválido).
type UpstreamError struct {
	Source string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: upstream returned status %d", e.Source, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
	return e.Source + ": upstream unavailable"
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstreamUnavailable}
	}
	return []error{ErrUpstreamUnavailable, e.Err}
}
