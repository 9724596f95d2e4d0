package ratelimit

import (
	"net/http"
	"time"

	"africa-gateway/internal/logging"
	"africa-gateway/middleware/ratelimit/application"
	"africa-gateway/middleware/ratelimit/domain"
	"africa-gateway/middleware/ratelimit/infra"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	Exempt         []string
	Stats          domain.StatsStore
	KeyFn          KeyFunc
	Logger         logging.Logger
}

// ConcurrencyMiddleware limita as requisições em voo a Max. Max <= 0 desliga.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc("", false)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	exempt := exemptSet(opts.Exempt)
	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			release, ok := svc.Acquire(r.Context())
			if !ok {
				opts.Logger.Warn(r.Context(), "request rejected, no free slot",
					logging.String("path", r.URL.Path), logging.Int("max", opts.Max))
				record(r, opts.Stats, opts.Logger, domain.StatsEvent{
					Key:     domain.Key(opts.KeyFn(r)),
					Outcome: domain.OutcomeOverloaded,
					Method:  r.Method,
					Route:   routeLabel(r.URL.Path),
					At:      time.Now(),
				})
				w.Header().Set("Retry-After", "1")
				writeDetail(w, opts.RejectStatus, "Server busy, try again later")
				return
			}
			defer release()
			next.ServeHTTP(w, r)
		})
	}
}
