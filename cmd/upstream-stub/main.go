// Command upstream-stub serve versões locais de REST Countries, Banco Mundial e
// Natural Earth para desenvolvimento. Aponte o gateway para ele com:
//
//	REST_COUNTRIES_URL=http://localhost:8081/rest/v3.1
//	WORLD_BANK_API_URL=http://localhost:8081/wb/v2
//	NATURAL_EARTH_URL=http://localhost:8081/ne/countries.geojson
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"africa-gateway/middleware/ratelimit"
	"africa-gateway/middleware/ratelimit/infra"
)

func main() {
	opts := stubOptions{
		Delay: envDuration("STUB_DELAY", 0),
		Fail:  make(map[string]bool),
		Debug: os.Getenv("STUB_DEBUG") == "true",
	}
	for _, s := range strings.Split(os.Getenv("STUB_FAIL"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			opts.Fail[s] = true
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	h := newStubHandler(opts)

	// STUB_RPS simula o throttling do upstream (429), útil para exercitar WORLDBANK_RPS
	if rps, err := strconv.ParseFloat(os.Getenv("STUB_RPS"), 64); err == nil && rps > 0 {
		store := infra.NewStore(rps, 1)
		store.StartJanitor(ctx)
		h = ratelimit.Middleware(ratelimit.Options{
			Store:               store,
			AddRateLimitHeaders: true,
		})(h)
	}

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("upstream stub listening on %s (delay=%s fail=%v)", addr, opts.Delay, opts.Fail)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return def
	}
	return d
}
