package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/trace"
)

const (
	authorityURL      = "https://www.bcb.gob.bo/"
	conversionBaseURL = "https://open.er-api.com"
)

// AuthorityProvider scrapes the central bank's published exchange table.
type AuthorityProvider struct {
	client *http.Client
	url    string
	tracer trace.Tracer
}

func NewAuthorityProvider(tracer trace.Tracer, url string, timeout time.Duration) *AuthorityProvider {
	if strings.TrimSpace(url) == "" {
		url = authorityURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AuthorityProvider{
		client: &http.Client{Timeout: timeout},
		url:    strings.TrimSpace(url),
		tracer: tracer,
	}
}

func (p *AuthorityProvider) FetchOfficial(ctx context.Context) (*OfficialQuote, error) {
	ctx, span := p.tracer.Start(ctx, "official.fetch-authority")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("authority error %d: %s", resp.StatusCode, sanitizeText(string(body), 200))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse authority page: %w", err)
	}
	return parseAuthorityTable(doc)
}

// parseAuthorityTable looks for the first row labelled "compra" and the first labelled
// "venta" and reads the number in the cell that follows the label.
func parseAuthorityTable(doc *goquery.Document) (*OfficialQuote, error) {
	var buy, sell float64
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td, th")
		for i := 0; i < cells.Length()-1; i++ {
			label := strings.ToLower(sanitizeText(cells.Eq(i).Text(), 80))
			value, ok := parseDecimal(sanitizeText(cells.Eq(i+1).Text(), 40))
			if !ok {
				continue
			}
			switch {
			case buy == 0 && strings.Contains(label, "compra"):
				buy = value
			case sell == 0 && strings.Contains(label, "venta"):
				sell = value
			}
		}
		return buy == 0 || sell == 0
	})
	if buy == 0 || sell == 0 {
		return nil, fmt.Errorf("authority table missing buy/sell: %w", ErrMalformedPayload)
	}
	return &OfficialQuote{Buy: buy, Sell: sell, Source: "authority"}, nil
}

// ConversionProvider reads a generic USD-based conversion rate.
type ConversionProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewConversionProvider(tracer trace.Tracer, baseURL string, timeout time.Duration) *ConversionProvider {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = conversionBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ConversionProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		tracer:  tracer,
	}
}

func (p *ConversionProvider) FetchRate(ctx context.Context, base, quote string) (float64, error) {
	ctx, span := p.tracer.Start(ctx, "official.fetch-conversion")
	defer span.End()

	url := fmt.Sprintf("%s/v6/latest/%s", p.baseURL, strings.ToUpper(base))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("conversion API error %d: %s", resp.StatusCode, sanitizeText(string(body), 200))
	}

	var parsed struct {
		Result string             `json:"result"`
		Rates  map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode conversion payload: %w", ErrMalformedPayload)
	}
	if parsed.Result != "" && parsed.Result != "success" {
		return 0, fmt.Errorf("conversion result %q: %w", parsed.Result, ErrMalformedPayload)
	}
	v, ok := parsed.Rates[strings.ToUpper(quote)]
	if !ok || v <= 0 {
		return 0, fmt.Errorf("conversion rate %s/%s missing: %w", base, quote, ErrMalformedPayload)
	}
	return v, nil
}
