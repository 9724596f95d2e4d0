package ratelimit

import (
	"math"
	"net/http"
	"time"

	"africa-gateway/internal/logging"
	"africa-gateway/middleware/ratelimit/application"
	"africa-gateway/middleware/ratelimit/domain"
)

type Options struct {
	Store domain.LimiterStore
	Stats domain.StatsStore

	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool
	ClassFn            ClassFunc
	Exempt             []string

	// RetryAfter fixo; zero deriva da política da classe.
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
	Logger              logging.Logger
}

// Middleware aplica o token bucket por (classe, cliente) e responde 429 quando esgotado.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.ClassFn == nil {
		opts.ClassFn = func(*http.Request) domain.Class { return domain.DefaultClass }
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	exempt := exemptSet(opts.Exempt)
	svc := application.Service{Store: opts.Store, RetryAfter: opts.RetryAfter}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			key := opts.KeyFn(r)
			class := opts.ClassFn(r)
			dec := svc.Decide(class, domain.Key(key))

			if opts.AddRateLimitHeaders {
				h := w.Header()
				h.Set("X-RateLimit-Key", key)
				h.Set("X-RateLimit-Class", string(class))
				h.Set("X-RateLimit-RPS", formatFloat(dec.Policy.RPS))
				h.Set("X-RateLimit-Burst", formatInt(dec.Policy.Burst))
			}

			outcome := domain.OutcomeAllowed
			if !dec.Allowed {
				outcome = domain.OutcomeRateLimited
			}
			record(r, opts.Stats, opts.Logger, domain.StatsEvent{
				Key:     domain.Key(key),
				Class:   class,
				Outcome: outcome,
				Method:  r.Method,
				Route:   routeLabel(r.URL.Path),
				At:      time.Now(),
			})

			if !dec.Allowed {
				secs := int(math.Ceil(dec.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", formatInt(secs))
				writeDetail(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func record(r *http.Request, stats domain.StatsStore, log logging.Logger, ev domain.StatsEvent) {
	if stats == nil {
		return
	}
	if err := stats.Record(r.Context(), ev); err != nil {
		log.Debug(r.Context(), "ingress stats not recorded", logging.Err(err))
	}
}
