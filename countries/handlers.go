package countries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"africa-gateway/countries/domain"
	"africa-gateway/countries/infra"
	"africa-gateway/internal/logging"
)

// Service é o que o adapter precisa da camada application.
type Service interface {
	CapitalsByRegion(ctx context.Context) ([]domain.RegionCapitals, error)
	EconomicProfile(ctx context.Context, code string) (*domain.EconomicProfile, error)
	CountryProfile(ctx context.Context, code string) (*domain.CountryProfile, error)
	AllEconomicData(ctx context.Context) ([]domain.EconomicSummary, error)
	MapData(ctx context.Context) domain.FeatureCollection
	CountryMap(ctx context.Context, code string) (domain.FeatureCollection, error)
	Status(ctx context.Context) domain.ServiceStatus
}

type HandlerOptions struct {
	Service Service
	Metrics *infra.Metrics
	Logger  logging.Logger

	// Location é o fuso de /health (padrão UTC).
	Location *time.Location
	Now      func() time.Time
}

type handler struct {
	svc     Service
	metrics *infra.Metrics
	log     logging.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewHandler monta as rotas da API. Só GET é aceito; o resto responde 405.
func NewHandler(opts HandlerOptions) http.Handler {
	h := &handler{
		svc:     opts.Service,
		metrics: opts.Metrics,
		log:     opts.Logger,
		loc:     opts.Location,
		now:     opts.Now,
	}
	if h.log == nil {
		h.log = logging.Noop()
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.now == nil {
		h.now = time.Now
	}

	mux := http.NewServeMux()
	h.route(mux, "/health", h.health)
	h.route(mux, "/status", h.status)
	h.route(mux, "/african-capitals", h.capitals)
	h.route(mux, "/economic-data", h.allEconomicData)
	h.route(mux, "/economic-data/{code}", h.economicProfile)
	h.route(mux, "/country-profile/{code}", h.countryProfile)
	h.route(mux, "/map-data", h.mapData)
	h.route(mux, "/map-data/{code}", h.countryMap)
	if opts.Metrics != nil {
		h.route(mux, "/metrics", opts.Metrics.Handler().ServeHTTP)
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	return mux
}

func (h *handler) route(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			h.metrics.ObserveHTTP(pattern, r.Method, sw.status, time.Since(start))
		}()

		if r.Method != http.MethodGet {
			sw.Header().Set("Allow", http.MethodGet)
			writeDetail(sw, http.StatusMethodNotAllowed, "Method Not Allowed")
			return
		}
		fn(sw, r)
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	h.log.Info(r.Context(), "health check requested")
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   h.now().In(h.loc).Format(time.RFC3339Nano),
	})
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status(r.Context()))
}

func (h *handler) capitals(w http.ResponseWriter, r *http.Request) {
	regions, err := h.svc.CapitalsByRegion(r.Context())
	if err != nil {
		h.fail(w, r, err, "country data", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"african_capitals_by_region": regions})
}

func (h *handler) allEconomicData(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.AllEconomicData(r.Context())
	if err != nil {
		h.fail(w, r, err, "economic data", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"economic_data": data})
}

func (h *handler) economicProfile(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	p, err := h.svc.EconomicProfile(r.Context(), code)
	if err != nil {
		h.fail(w, r, err, "economic data", fmt.Sprintf("Economic data not found for country code: %s", code))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) countryProfile(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	p, err := h.svc.CountryProfile(r.Context(), code)
	if err != nil {
		h.fail(w, r, err, "country profile", fmt.Sprintf("Country profile not found for country code: %s", code))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) mapData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.MapData(r.Context()))
}

func (h *handler) countryMap(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	fc, err := h.svc.CountryMap(r.Context(), code)
	if err != nil {
		h.fail(w, r, err, "map data", fmt.Sprintf("Map data not found for country code: %s", code))
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

// fail traduz erros de domínio em status + {"detail"}.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error, what, notFound string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if notFound == "" {
			notFound = "Not Found"
		}
		writeDetail(w, http.StatusNotFound, notFound)
	case errors.Is(err, domain.ErrUpstreamUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		h.log.Warn(r.Context(), "upstream unavailable", logging.String("path", r.URL.Path), logging.Err(err))
		writeDetail(w, http.StatusServiceUnavailable,
			fmt.Sprintf("Unable to fetch %s. Service may be temporarily unavailable.", what))
	case errors.Is(err, context.Canceled):
		// cliente foi embora; ninguém lê a resposta
		h.log.Debug(r.Context(), "request canceled", logging.String("path", r.URL.Path))
	default:
		h.log.Error(r.Context(), "request failed", logging.String("path", r.URL.Path), logging.Err(err))
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
