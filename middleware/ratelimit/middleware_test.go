package ratelimit

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"africa-gateway/middleware/ratelimit/domain"
	"africa-gateway/middleware/ratelimit/infra"
)

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
}

func do(h http.Handler, path, remote string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "http://example"+path, nil)
	r.RemoteAddr = remote
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_AllowsThenRejectsSameKey(t *testing.T) {
	stats := infra.NewMemoryStatsStore()
	calls := 0
	h := Middleware(Options{
		Store:               infra.NewStore(0.02, 1),
		Stats:               stats,
		RetryAfter:          time.Second,
		AddRateLimitHeaders: true,
	})(okHandler(&calls))

	w1 := do(h, "/african-capitals", "10.0.0.1:1234")
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	for _, hdr := range []string{"X-RateLimit-Key", "X-RateLimit-Class", "X-RateLimit-RPS", "X-RateLimit-Burst"} {
		if w1.Header().Get(hdr) == "" {
			t.Fatalf("expected %s header to be set", hdr)
		}
	}

	w2 := do(h, "/african-capitals", "10.0.0.1:1234")
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After=1, got %q", got)
	}
	var body map[string]string
	if err := json.Unmarshal(w2.Body.Bytes(), &body); err != nil || body["detail"] != "Too Many Requests" {
		t.Fatalf("expected JSON detail body, got %q (%v)", w2.Body.String(), err)
	}

	if calls != 1 {
		t.Fatalf("expected next handler to be called once, got %d", calls)
	}
	total := stats.Total()
	if total[domain.OutcomeAllowed] != 1 || total[domain.OutcomeRateLimited] != 1 {
		t.Fatalf("unexpected stats: %v", total)
	}
}

func TestMiddleware_KeyByHeader(t *testing.T) {
	calls := 0
	h := Middleware(Options{Store: infra.NewStore(0.02, 1), KeyHeader: "X-Api-Key"})(okHandler(&calls))

	for _, key := range []string{"k1", "k2"} {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.Header.Set("X-Api-Key", key)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for key %s, got %d", key, w.Code)
		}
	}
}

func TestMiddleware_HeavyClassIsolated(t *testing.T) {
	store := infra.NewStore(100, 100, infra.WithClassPolicy("heavy", 0.02, 1))
	calls := 0
	h := Middleware(Options{
		Store:   store,
		ClassFn: ExactPathClasses(map[string]domain.Class{"/economic-data": "heavy"}),
	})(okHandler(&calls))

	if w := do(h, "/economic-data", "10.0.0.1:1"); w.Code != http.StatusOK {
		t.Fatalf("expected first heavy request to pass, got %d", w.Code)
	}
	w := do(h, "/economic-data", "10.0.0.1:1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second heavy request to be limited, got %d", w.Code)
	}
	// 1/0.02 = 50s
	if got := w.Header().Get("Retry-After"); got != "50" {
		t.Fatalf("expected Retry-After derived from policy (50), got %q", got)
	}
	if w := do(h, "/economic-data/KE", "10.0.0.1:1"); w.Code != http.StatusOK {
		t.Fatalf("expected profile route in default class to pass, got %d", w.Code)
	}
}

func TestMiddleware_ExemptPaths(t *testing.T) {
	calls := 0
	h := Middleware(Options{Store: infra.NewStore(0.02, 1), Exempt: []string{"/health"}})(okHandler(&calls))

	for i := 0; i < 5; i++ {
		if w := do(h, "/health", "10.0.0.1:1"); w.Code != http.StatusOK {
			t.Fatalf("exempt path must never be limited, got %d on try %d", w.Code, i)
		}
	}
}

func TestRouteLabel(t *testing.T) {
	cases := map[string]string{
		"/":                   "/",
		"":                    "/",
		"/map-data":           "/map-data",
		"/map-data/":          "/map-data",
		"/economic-data/KE":   "/economic-data/*",
		"/country-profile/ZA": "/country-profile/*",
	}
	for in, want := range cases {
		if got := routeLabel(in); got != want {
			t.Fatalf("routeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
