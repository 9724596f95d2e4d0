package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"africa-gateway/internal/logging"
)

// TTLOptions configura um TTLCache.
type TTLOptions struct {
	Name    string
	TTL     time.Duration
	Enabled bool
	Now     func() time.Time

	// Backing é o segundo nível opcional (Redis, bbolt). Valores vão em JSON.
	Backing KV
	Metrics *Metrics
	Logger  logging.Logger
}

type ttlEntry[V any] struct {
	value      V
	insertedAt time.Time
}

// backingEntry é o formato gravado no segundo nível. InsertedAt viaja junto
// para que uma réplica que lê o valor expire no mesmo instante que quem o gravou.
type backingEntry[V any] struct {
	Value      V         `json:"value"`
	InsertedAt time.Time `json:"inserted_at"`
}

type inflight[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// TTLCache é um cache em memória com expiração por idade e carregamento single-flight.
//
// Com Enabled=false, Set continua gravando mas Get nunca retorna hit;
// GetOrLoad continua coalescendo chamadas concorrentes da mesma chave.
type TTLCache[V any] struct {
	opts TTLOptions

	mu      sync.RWMutex
	entries map[string]ttlEntry[V]
	calls   map[string]*inflight[V]
}

func NewTTLCache[V any](opts TTLOptions) *TTLCache[V] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	if opts.Name == "" {
		opts.Name = "default"
	}
	return &TTLCache[V]{
		opts:    opts,
		entries: make(map[string]ttlEntry[V]),
		calls:   make(map[string]*inflight[V]),
	}
}

// Get retorna o valor se presente e com idade menor que o TTL.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookupLocked(key)
}

// Set grava (ou substitui) o valor com timestamp atual.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = ttlEntry[V]{value: value, insertedAt: c.opts.Now()}
	c.mu.Unlock()
}

// Delete invalida a chave nos dois níveis.
func (c *TTLCache[V]) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	if c.opts.Backing != nil {
		if err := c.opts.Backing.Delete(ctx, c.backingKey(key)); err != nil && !errors.Is(err, ErrKVNotFound) {
			c.opts.Logger.Warn(ctx, "cache backing delete failed",
				logging.String("cache", c.opts.Name), logging.String("key", key), logging.Err(err))
		}
	}
}

// GetOrLoad retorna o valor em cache ou executa load uma única vez por chave,
// entregando o mesmo resultado (valor ou erro) a todos que esperavam.
// Erros não são cacheados.
//
// O load roda desacoplado do cancelamento de quem o disparou; cada chamador
// deixa de esperar quando o próprio ctx termina.
func (c *TTLCache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		c.opts.Metrics.ObserveCache(c.opts.Name, "hit")
		return v, nil
	}

	c.mu.Lock()
	if v, ok := c.lookupLocked(key); ok {
		c.mu.Unlock()
		c.opts.Metrics.ObserveCache(c.opts.Name, "hit")
		return v, nil
	}
	call, running := c.calls[key]
	if !running {
		call = &inflight[V]{done: make(chan struct{})}
		c.calls[key] = call
		go c.run(context.WithoutCancel(ctx), key, call, load)
	}
	c.mu.Unlock()

	if running {
		c.opts.Metrics.ObserveCache(c.opts.Name, "coalesced")
	} else {
		c.opts.Metrics.ObserveCache(c.opts.Name, "miss")
	}

	select {
	case <-call.done:
		return call.value, call.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

func (c *TTLCache[V]) run(ctx context.Context, key string, call *inflight[V], load func(context.Context) (V, error)) {
	var insertedAt time.Time
	call.value, insertedAt, call.err = c.fill(ctx, key, load)

	c.mu.Lock()
	if call.err == nil {
		c.entries[key] = ttlEntry[V]{value: call.value, insertedAt: insertedAt}
	}
	delete(c.calls, key)
	c.mu.Unlock()

	close(call.done)
}

// fill devolve o valor e o instante de inserção: o original quando veio do
// segundo nível, agora quando veio do loader.
func (c *TTLCache[V]) fill(ctx context.Context, key string, load func(context.Context) (V, error)) (v V, insertedAt time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero V
			v, err = zero, fmt.Errorf("cache %s: loader panic: %v", c.opts.Name, r)
		}
	}()

	if e, ok := c.readBacking(ctx, key); ok {
		c.opts.Metrics.ObserveCache(c.opts.Name, "backing_hit")
		return e.Value, e.InsertedAt, nil
	}
	v, err = load(ctx)
	if err != nil {
		return v, time.Time{}, err
	}
	insertedAt = c.opts.Now()
	c.writeBacking(ctx, key, backingEntry[V]{Value: v, InsertedAt: insertedAt})
	return v, insertedAt, nil
}

func (c *TTLCache[V]) lookupLocked(key string) (V, bool) {
	var zero V
	if !c.opts.Enabled {
		return zero, false
	}
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.opts.Now().Sub(e.insertedAt) >= c.opts.TTL {
		return zero, false
	}
	return e.value, true
}

// readBacking só aceita entradas com idade menor que o TTL, medida a partir
// da inserção original; o TTL do próprio backing não é confiável para isso.
func (c *TTLCache[V]) readBacking(ctx context.Context, key string) (backingEntry[V], bool) {
	var zero backingEntry[V]
	if c.opts.Backing == nil || !c.opts.Enabled {
		return zero, false
	}
	raw, err := c.opts.Backing.Get(ctx, c.backingKey(key))
	if err != nil {
		if !errors.Is(err, ErrKVNotFound) && !errors.Is(err, ErrKVExpired) {
			c.opts.Logger.Warn(ctx, "cache backing read failed",
				logging.String("cache", c.opts.Name), logging.String("key", key), logging.Err(err))
		}
		return zero, false
	}
	var e backingEntry[V]
	if err := json.Unmarshal(raw, &e); err != nil || e.InsertedAt.IsZero() {
		c.opts.Logger.Warn(ctx, "cache backing value undecodable",
			logging.String("cache", c.opts.Name), logging.String("key", key), logging.Err(err))
		return zero, false
	}
	if c.opts.Now().Sub(e.InsertedAt) >= c.opts.TTL {
		return zero, false
	}
	return e, true
}

func (c *TTLCache[V]) writeBacking(ctx context.Context, key string, e backingEntry[V]) {
	if c.opts.Backing == nil || !c.opts.Enabled {
		return
	}
	raw, err := json.Marshal(e)
	if err != nil {
		c.opts.Logger.Warn(ctx, "cache backing encode failed",
			logging.String("cache", c.opts.Name), logging.String("key", key), logging.Err(err))
		return
	}
	if err := c.opts.Backing.Put(ctx, c.backingKey(key), raw, c.opts.TTL); err != nil {
		c.opts.Logger.Warn(ctx, "cache backing write failed",
			logging.String("cache", c.opts.Name), logging.String("key", key), logging.Err(err))
	}
}

func (c *TTLCache[V]) backingKey(key string) string {
	return c.opts.Name + ":" + key
}
