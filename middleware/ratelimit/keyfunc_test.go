package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"africa-gateway/middleware/ratelimit/domain"
)

func TestDefaultKeyFunc(t *testing.T) {
	tests := []struct {
		name      string
		keyHeader string
		trustXFF  bool
		headers   map[string]string
		remote    string
		want      string
	}{
		{
			name:      "header wins",
			keyHeader: "X-Client",
			headers:   map[string]string{"X-Client": " client-123 "},
			remote:    "10.0.0.1:1234",
			want:      "client-123",
		},
		{
			name:     "first forwarded ip when trusted",
			trustXFF: true,
			headers:  map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"},
			remote:   "10.0.0.9:5555",
			want:     "1.2.3.4",
		},
		{
			name:    "forwarded header ignored when not trusted",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4"},
			remote:  "10.0.0.9:5555",
			want:    "10.0.0.9",
		},
		{
			name:   "remote addr without port",
			remote: "10.0.0.9",
			want:   "10.0.0.9",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := DefaultKeyFunc(tt.keyHeader, tt.trustXFF)(r); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExactPathClasses(t *testing.T) {
	fn := ExactPathClasses(map[string]domain.Class{"/economic-data": "heavy"})

	if got := fn(httptest.NewRequest(http.MethodGet, "http://example/economic-data", nil)); got != "heavy" {
		t.Fatalf("expected heavy, got %q", got)
	}
	if got := fn(httptest.NewRequest(http.MethodGet, "http://example/economic-data/KE", nil)); got != domain.DefaultClass {
		t.Fatalf("expected default class, got %q", got)
	}
}
