package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"africa-gateway/countries/domain"
)

// HTTPProber sonda um upstream com HEAD, tentando de novo até Retries vezes.
// Qualquer resposta abaixo de 500 conta como "up": o objetivo é alcançabilidade.
type HTTPProber struct {
	Name    string
	URL     string
	Client  *http.Client
	Retries int
	Backoff time.Duration
}

func NewHTTPProber(name, url string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		Name:    name,
		URL:     url,
		Client:  newHTTPClient(nil, timeout),
		Retries: 2,
		Backoff: 200 * time.Millisecond,
	}
}

func (p *HTTPProber) Probe(ctx context.Context) domain.UpstreamStatus {
	st := domain.UpstreamStatus{Name: p.Name, URL: p.URL, Status: "down"}
	for attempt := 0; attempt <= p.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				st.Status = "down: " + ctx.Err().Error()
				return st
			case <-time.After(p.Backoff * time.Duration(attempt)):
			}
		}
		st.Attempts = attempt + 1

		status, err := p.once(ctx)
		if err == nil && status < http.StatusInternalServerError {
			st.Status = "up"
			return st
		}
		if err != nil {
			st.Status = "down: " + err.Error()
		} else {
			st.Status = fmt.Sprintf("down: status %d", status)
		}
	}
	return st
}

func (p *HTTPProber) once(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}
