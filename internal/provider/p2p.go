package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bluerate/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const p2pBaseURL = "https://p2p.binance.com"

// P2PProvider reads ranked order-book ads from the Binance P2P search endpoint.
type P2PProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *rate.Limiter
}

// NewP2PProvider paces requests at four per second with a burst of two.
func NewP2PProvider(tracer trace.Tracer, baseURL string, timeout time.Duration) *P2PProvider {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = p2pBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &P2PProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 2),
	}
}

type p2pSearchRequest struct {
	Asset     string   `json:"asset"`
	Fiat      string   `json:"fiat"`
	TradeType string   `json:"tradeType"`
	Page      int      `json:"page"`
	Rows      int      `json:"rows"`
	PayTypes  []string `json:"payTypes"`
}

type p2pSearchResponse struct {
	Code    string `json:"code"`
	Success bool   `json:"success"`
	Data    []struct {
		Adv struct {
			Price string `json:"price"`
		} `json:"adv"`
	} `json:"data"`
}

// FetchQuotes returns the prices of the top rows ads for one side of the pair.
// A buy-side quote is a price at which advertisers buy the asset, i.e. users sell.
func (p *P2PProvider) FetchQuotes(ctx context.Context, pair domain.Pair, side domain.Side, rows int) ([]float64, error) {
	ctx, span := p.tracer.Start(ctx, "p2p.fetch-quotes")
	defer span.End()
	span.SetAttributes(attribute.String("pair", pair.String()), attribute.String("side", string(side)))

	if rows <= 0 {
		rows = 10
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(p2pSearchRequest{
		Asset:     pair.Asset,
		Fiat:      pair.Fiat,
		TradeType: tradeTypeFor(side),
		Page:      1,
		Rows:      rows,
		PayTypes:  []string{},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/bapi/c2c/v2/friendly/c2c/adv/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("p2p API error %d: %s", resp.StatusCode, sanitizeText(string(body), 200))
	}

	var parsed p2pSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode p2p payload: %w", ErrMalformedPayload)
	}
	if !parsed.Success && parsed.Code != "000000" {
		return nil, fmt.Errorf("p2p code %q: %w", parsed.Code, ErrMalformedPayload)
	}

	prices := make([]float64, 0, min(rows, len(parsed.Data)))
	for i, row := range parsed.Data {
		if i >= rows {
			break
		}
		price, ok := parseDecimal(row.Adv.Price)
		if !ok {
			continue
		}
		prices = append(prices, price)
	}
	if len(parsed.Data) > 0 && len(prices) == 0 {
		return nil, fmt.Errorf("no parsable prices in %d ads: %w", len(parsed.Data), ErrMalformedPayload)
	}
	span.SetAttributes(attribute.Int("quotes", len(prices)))
	return prices, nil
}

func tradeTypeFor(side domain.Side) string {
	if side == domain.SideBuy {
		return "SELL"
	}
	return "BUY"
}
