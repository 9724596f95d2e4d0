package domain

import "context"

// CountryDirectory busca a lista de países de uma região.
// Falhas devem embrulhar ErrUpstreamUnavailable.
type CountryDirectory interface {
	FetchRegion(ctx context.Context, region string) ([]Country, error)
}

// IndicatorSource busca o valor mais recente de um indicador.
// Nunca retorna erro: falhas viram Outcome com State == Failed.
type IndicatorSource interface {
	FetchIndicator(ctx context.Context, country, indicator string) Outcome[IndicatorValue]
}

// BoundaryDataset busca a coleção global de fronteiras. Nunca falha:
// no pior caso retorna uma coleção vazia com BoundaryEmpty.
type BoundaryDataset interface {
	FetchDataset(ctx context.Context) (FeatureCollection, BoundarySource)
}

// Cache é um cache por chave com carregamento single-flight.
type Cache[V any] interface {
	GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error)
}

// Prober sonda um upstream para /status.
type Prober interface {
	Probe(ctx context.Context) UpstreamStatus
}
