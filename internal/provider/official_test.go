package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func TestAuthorityFetchOfficial(t *testing.T) {
	p := NewAuthorityProvider(trace.NewNoopTracerProvider().Tracer("test"), "http://bank.example/", time.Second)
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		html := `<html><body><table class="tipo-cambio">
			<tr><th>Tipo de cambio</th><th>Bs.</th></tr>
			<tr><td>Compra</td><td>6,86</td></tr>
			<tr><td>Venta</td><td>6,96</td></tr>
		</table></body></html>`
		return jsonResponse(http.StatusOK, html), nil
	})}

	quote, err := p.FetchOfficial(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Buy != 6.86 || quote.Sell != 6.96 || quote.Source != "authority" {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}

func TestAuthorityFetchOfficialMissingTable(t *testing.T) {
	p := NewAuthorityProvider(trace.NewNoopTracerProvider().Tracer("test"), "http://bank.example/", time.Second)
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `<html><body><p>mantenimiento</p></body></html>`), nil
	})}

	if _, err := p.FetchOfficial(context.Background()); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected malformed payload error, got %v", err)
	}
}

func TestConversionFetchRate(t *testing.T) {
	p := NewConversionProvider(trace.NewNoopTracerProvider().Tracer("test"), "http://fx.example", time.Second)
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if !strings.HasSuffix(req.URL.Path, "/v6/latest/USD") {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"result":"success","rates":{"BOB":6.91,"BRL":5.4}}`), nil
	})}

	v, err := p.FetchRate(context.Background(), "usd", "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 6.91 {
		t.Fatalf("expected 6.91, got %v", v)
	}
	if _, err := p.FetchRate(context.Background(), "USD", "XYZ"); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected missing currency to be malformed, got %v", err)
	}
}
