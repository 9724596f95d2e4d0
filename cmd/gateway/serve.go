package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"africa-gateway/countries"
	"africa-gateway/countries/application"
	"africa-gateway/countries/domain"
	"africa-gateway/countries/infra"
	"africa-gateway/internal/logging"
	"africa-gateway/middleware/ratelimit"
	rldomain "africa-gateway/middleware/ratelimit/domain"
	rlinfra "africa-gateway/middleware/ratelimit/infra"
	"africa-gateway/middleware/requestlog"

	"github.com/redis/go-redis/v9"
)

// classHeavy agrupa a rota que dispara uma chamada por país.
const classHeavy rldomain.Class = "heavy"

// exemptPaths nunca passam por rate limit nem pelo limite de concorrência.
var exemptPaths = []string{"/health", "/metrics"}

type app struct {
	handler http.Handler
	limiter *rlinfra.Store
	closers []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg config, lg logging.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	var metrics *infra.Metrics
	if cfg.metrics {
		if metrics, err = infra.NewMetrics(nil); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	var rdb *redis.Client
	var backing infra.KV
	if cfg.redisURL != "" {
		opts, err := redis.ParseURL(cfg.redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opts)
		a.closers = append(a.closers, rdb.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		perr := rdb.Ping(pingCtx).Err()
		cancel()
		if perr != nil {
			// o cache remoto é opcional; falhas de leitura viram miss
			lg.Warn(ctx, "redis ping failed, L2 cache will miss until it recovers", logging.Err(perr))
		}
		backing = infra.NewRedisKV(rdb, "")
	}

	var boundaryStore infra.KV
	if cfg.boundaryStorePath != "" {
		bolt, err := infra.OpenBoltKV(cfg.boundaryStorePath, "")
		if err != nil {
			return nil, fmt.Errorf("open boundary store: %w", err)
		}
		a.closers = append(a.closers, bolt.Close)
		boundaryStore = bolt
	}

	rc := infra.NewRestCountriesClient(infra.RestCountriesOptions{
		BaseURL: cfg.restCountriesURL,
		Timeout: cfg.apiTimeout,
		Metrics: metrics,
		Logger:  lg,
	})
	wb := infra.NewWorldBankClient(infra.WorldBankOptions{
		BaseURL: cfg.worldBankURL,
		Timeout: cfg.apiTimeout,
		RPS:     cfg.worldBankRPS,
		Burst:   cfg.worldBankBurst,
		Metrics: metrics,
		Logger:  lg,
	})
	ne := infra.NewNaturalEarthClient(infra.NaturalEarthOptions{
		URL:          cfg.naturalEarthURL,
		Timeout:      cfg.apiTimeout,
		Store:        boundaryStore,
		SnapshotPath: cfg.boundarySnapshotPath,
		Metrics:      metrics,
		Logger:       lg,
	})

	cacheOpts := func(name string, kv infra.KV) infra.TTLOptions {
		return infra.TTLOptions{
			Name:    name,
			TTL:     cfg.cacheTTL,
			Enabled: cfg.cacheEnabled,
			Backing: kv,
			Metrics: metrics,
			Logger:  lg,
		}
	}

	svc := application.NewService(application.Deps{
		Directory:  rc,
		Indicators: wb,
		Boundaries: ne,
		Probers: []domain.Prober{
			infra.NewHTTPProber(infra.SourceRestCountries, rc.BaseURL(), cfg.apiTimeout),
			infra.NewHTTPProber(infra.SourceWorldBank, wb.BaseURL(), cfg.apiTimeout),
			infra.NewHTTPProber(infra.SourceNaturalEarth, ne.URL(), cfg.apiTimeout),
		},
		CountryCache:   infra.NewTTLCache[[]domain.Country](cacheOpts("countries", backing)),
		IndicatorCache: infra.NewTTLCache[domain.IndicatorValue](cacheOpts("indicators", backing)),

		// o dataset de fronteiras já tem o próprio nível persistente (bolt)
		BoundaryCache: infra.NewTTLCache[domain.BoundarySnapshot](cacheOpts("boundaries", nil)),
		Settings:      cfg.settings,
		Logger:        lg,
	})

	h := countries.NewHandler(countries.HandlerOptions{
		Service:  svc,
		Metrics:  metrics,
		Logger:   lg,
		Location: cfg.location,
	})

	var stats rldomain.StatsStore
	if cfg.rateStatsEnabled {
		statsClient := rdb
		if cfg.rateStatsRedisAddr != "" {
			statsClient = redis.NewClient(&redis.Options{
				Addr:     cfg.rateStatsRedisAddr,
				Password: cfg.rateStatsRedisPassword,
				DB:       cfg.rateStatsRedisDB,
			})
			a.closers = append(a.closers, statsClient.Close)

			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			_, err := statsClient.Ping(pingCtx).Result()
			cancel()
			if err != nil {
				return nil, fmt.Errorf("redis stats ping error: %w", err)
			}
		}
		stats = rlinfra.NewRedisStatsStore(
			statsClient,
			rlinfra.WithStatsPrefix(cfg.rateStatsPrefix),
			rlinfra.WithStatsTTL(cfg.rateStatsTTL),
			rlinfra.WithStatsBucket(cfg.rateStatsBucket),
			rlinfra.WithStatsTrackKeys(cfg.rateStatsTrackKeys),
		)
	}

	h = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.concurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.concurrencyTimeout,
		Exempt:         exemptPaths,
		Stats:          stats,
		KeyFn:          ratelimit.DefaultKeyFunc(cfg.rateKeyHeader, cfg.trustXFF),
		Logger:         lg,
	})(h)
	if cfg.rateEnabled {
		a.limiter = rlinfra.NewStore(cfg.rateRPS, cfg.rateBurst,
			rlinfra.WithClassPolicy(classHeavy, cfg.rateHeavyRPS, cfg.rateHeavyBurst))
		h = ratelimit.Middleware(ratelimit.Options{
			Store:               a.limiter,
			Stats:               stats,
			KeyHeader:           cfg.rateKeyHeader,
			TrustXForwardedFor:  cfg.trustXFF,
			ClassFn:             ratelimit.ExactPathClasses(map[string]rldomain.Class{"/economic-data": classHeavy}),
			Exempt:              exemptPaths,
			RetryAfter:          cfg.retryAfter,
			AddRateLimitHeaders: cfg.addHeaders,
			Logger:              lg,
		})(h)
	}
	a.handler = requestlog.Middleware(requestlog.Options{Logger: lg})(h)
	return a, nil
}

func runServe(ctx context.Context, cfg config) error {
	lg := logging.NewFromEnv()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer a.close()
	if a.limiter != nil {
		a.limiter.StartJanitor(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,

		// /economic-data pode levar vários segundos com o upstream lento
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("africa-gateway listening on %s (version %s, tz %s)", cfg.listenAddr, cfg.settings.Version, cfg.location)
	log.Printf("cache: enabled=%v ttl=%s redis=%v boundaryStore=%q snapshot=%q", cfg.cacheEnabled, cfg.cacheTTL, cfg.redisURL != "", cfg.boundaryStorePath, cfg.boundarySnapshotPath)
	log.Printf("upstreams: timeout=%s gatherLimit=%d gatherTimeout=%s worldBankRPS=%.2f", cfg.apiTimeout, cfg.settings.GatherLimit, cfg.settings.GatherTimeout, cfg.worldBankRPS)
	log.Printf("rate: enabled=%v rps=%.3f burst=%d heavyRPS=%.3f heavyBurst=%d keyHeader=%q trustXFF=%v", cfg.rateEnabled, cfg.rateRPS, cfg.rateBurst, cfg.rateHeavyRPS, cfg.rateHeavyBurst, cfg.rateKeyHeader, cfg.trustXFF)
	log.Printf("rate-stats: enabled=%v redisAddr=%q bucket=%q ttl=%s trackKeys=%v", cfg.rateStatsEnabled, cfg.rateStatsRedisAddr, cfg.rateStatsBucket, cfg.rateStatsTTL, cfg.rateStatsTrackKeys)
	log.Printf("concurrency: max=%d acquireTimeout=%s", cfg.concurrencyMax, cfg.concurrencyTimeout)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
