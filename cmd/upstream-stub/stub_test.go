package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"africa-gateway/countries/domain"
	"africa-gateway/countries/infra"
)

func newStub(t *testing.T, opts stubOptions) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newStubHandler(opts))
	t.Cleanup(srv.Close)
	return srv
}

func TestStub_ServesRestCountriesShape(t *testing.T) {
	srv := newStub(t, stubOptions{})
	rc := infra.NewRestCountriesClient(infra.RestCountriesOptions{BaseURL: srv.URL + "/rest/v3.1", Timeout: time.Second})

	got, err := rc.FetchRegion(context.Background(), "Africa")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != len(countries) {
		t.Fatalf("expected %d countries, got %d", len(countries), len(got))
	}
	ke := got[0]
	if ke.Alpha2 != "KE" || ke.Capital() != "Nairobi" || ke.PrimaryCurrency() != "KES" || len(ke.CapitalLatLng) != 2 {
		t.Fatalf("unexpected first country: %+v", ke)
	}
}

func TestStub_WorldBankEnvelope(t *testing.T) {
	srv := newStub(t, stubOptions{})
	wb := infra.NewWorldBankClient(infra.WorldBankOptions{BaseURL: srv.URL + "/wb/v2", Timeout: time.Second})
	ctx := context.Background()

	gdp := wb.FetchIndicator(ctx, "KEN", "NY.GDP.MKTP.CD")
	if gdp.State != domain.Present || gdp.Value.Value == nil || *gdp.Value.Value != 107.44e9 {
		t.Fatalf("unexpected gdp outcome: %+v", gdp)
	}
	if out := wb.FetchIndicator(ctx, "ZAF", "NV.AGR.TOTL.ZS"); out.State != domain.Missing {
		t.Fatalf("expected missing sector share for ZAF, got %+v", out)
	}
	if out := wb.FetchIndicator(ctx, "XXX", "SP.POP.TOTL"); out.State != domain.Missing {
		t.Fatalf("expected missing for unknown country, got %+v", out)
	}
}

func TestStub_BoundariesIncludeNonAfrican(t *testing.T) {
	srv := newStub(t, stubOptions{})
	ne := infra.NewNaturalEarthClient(infra.NaturalEarthOptions{URL: srv.URL + "/ne/countries.geojson", Timeout: time.Second})

	fc, source := ne.FetchDataset(context.Background())
	if source != domain.BoundaryLive {
		t.Fatalf("expected live source, got %s", source)
	}
	if len(fc.Features) != len(countries)+1 {
		t.Fatalf("expected %d features, got %d", len(countries)+1, len(fc.Features))
	}
}

func TestStub_FailAndDelay(t *testing.T) {
	srv := newStub(t, stubOptions{Fail: map[string]bool{sourceWB: true}, Delay: 20 * time.Millisecond})

	start := time.Now()
	resp, err := http.Get(srv.URL + "/wb/v2/country/KEN/indicator/SP.POP.TOTL")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatalf("expected delay to be applied")
	}

	resp, err = http.Get(srv.URL + "/rest/v3.1/region/africa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("non-failing source must still answer, got %d", resp.StatusCode)
	}
}
