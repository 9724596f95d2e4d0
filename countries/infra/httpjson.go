package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"africa-gateway/countries/domain"
)

// maxBody limita o tamanho lido de qualquer upstream (o GeoJSON global é o maior).
const maxBody = 64 << 20

func newHTTPClient(c *http.Client, timeout time.Duration) *http.Client {
	if c != nil {
		return c
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// fetchRaw faz um GET e devolve o corpo de uma resposta 2xx.
// Qualquer falha vira *domain.UpstreamError.
func fetchRaw(ctx context.Context, client *http.Client, source, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.UpstreamError{Source: source, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Source: source, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &domain.UpstreamError{Source: source, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &domain.UpstreamError{Source: source, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

func decodeJSON(source string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return &domain.UpstreamError{Source: source, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
