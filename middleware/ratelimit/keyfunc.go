package ratelimit

import (
	"net"
	"net/http"
	"strings"

	"africa-gateway/middleware/ratelimit/domain"
)

// KeyFunc extrai a chave do cliente.
type KeyFunc func(r *http.Request) string

// ClassFunc classifica a requisição em uma classe de custo.
type ClassFunc func(r *http.Request) domain.Class

// DefaultKeyFunc usa, nesta ordem: o header keyHeader, o primeiro IP do
// X-Forwarded-For (se trustXFF) e o host de RemoteAddr.
func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}
		if trustXFF {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}
		addr := strings.TrimSpace(r.RemoteAddr)
		if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
			return host
		}
		if addr != "" {
			return addr
		}
		return "unknown"
	}
}

// ExactPathClasses mapeia paths exatos para classes; o resto cai em domain.DefaultClass.
func ExactPathClasses(rules map[string]domain.Class) ClassFunc {
	return func(r *http.Request) domain.Class {
		if c, ok := rules[r.URL.Path]; ok {
			return c
		}
		return domain.DefaultClass
	}
}

// routeLabel reduz o path ao primeiro segmento para manter a cardinalidade baixa
// ("/economic-data/KE" => "/economic-data/*").
func routeLabel(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}
	first, rest, found := strings.Cut(trimmed, "/")
	if !found || rest == "" {
		return "/" + first
	}
	return "/" + first + "/*"
}

func exemptSet(paths []string) map[string]bool {
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out[p] = true
		}
	}
	return out
}
