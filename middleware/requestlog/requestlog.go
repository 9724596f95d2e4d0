// Package requestlog gera/propaga o request id e registra início e fim de cada requisição.
//
// Headers de resposta: X-Request-ID e X-Process-Time (segundos, float).
package requestlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"africa-gateway/internal/logging"
)

const (
	HeaderRequestID   = "X-Request-ID"
	HeaderProcessTime = "X-Process-Time"
)

type Options struct {
	Logger logging.Logger

	// TrustIncomingID reaproveita um X-Request-ID válido (uuid) enviado pelo cliente.
	TrustIncomingID bool
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if opts.TrustIncomingID {
				if v := strings.TrimSpace(r.Header.Get(HeaderRequestID)); v != "" {
					if _, err := uuid.Parse(v); err == nil {
						id = v
					}
				}
			}
			if id == "" {
				id = uuid.NewString()
			}
			ctx := logging.WithRequestID(r.Context(), id)
			r = r.WithContext(ctx)

			log.Info(ctx, "request started", logging.String("method", r.Method), logging.String("path", r.URL.Path))
			start := time.Now()

			tw := &timingWriter{ResponseWriter: w, id: id, start: start, status: http.StatusOK}
			defer func() {
				if rec := recover(); rec != nil {
					log.Error(ctx, "request failed",
						logging.String("method", r.Method),
						logging.String("path", r.URL.Path),
						logging.Any("panic", rec),
						logging.Duration("duration", time.Since(start)))
					if !tw.wroteHeader {
						http.Error(tw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					}
					return
				}
				if !tw.wroteHeader {
					tw.WriteHeader(http.StatusOK)
				}
				log.Info(ctx, "request completed",
					logging.String("method", r.Method),
					logging.String("path", r.URL.Path),
					logging.Int("status", tw.status),
					logging.Duration("duration", time.Since(start)))
			}()

			next.ServeHTTP(tw, r)
		})
	}
}

// timingWriter grava os headers de rastreio logo antes do status sair.
type timingWriter struct {
	http.ResponseWriter
	id          string
	start       time.Time
	status      int
	wroteHeader bool
}

func (w *timingWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
	h := w.ResponseWriter.Header()
	h.Set(HeaderRequestID, w.id)
	h.Set(HeaderProcessTime, strconv.FormatFloat(time.Since(w.start).Seconds(), 'f', -1, 64))
	w.ResponseWriter.WriteHeader(code)
}

func (w *timingWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *timingWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
