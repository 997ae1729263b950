package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cryptodash/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	coingeckoBaseURL = "https://api.coingecko.com/api/v3"

	// DefaultTimeout bounds every upstream call.
	DefaultTimeout = 5 * time.Second

	maxErrorBody = 512
)

// ResponseCache stores raw upstream bodies for the revalidate interval of the
// request that produced them.
type ResponseCache interface {
	Load(ctx context.Context, key string) ([]byte, bool)
	Store(ctx context.Context, key string, body []byte, ttl time.Duration)
}

// CoinGeckoProvider fetches the ranked market list and per-coin market charts
// from the CoinGecko API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	tracer  trace.Tracer
	cache   ResponseCache
}

type Option func(*CoinGeckoProvider)

// WithBaseURL points the provider at another CoinGecko-compatible host.
func WithBaseURL(base string) Option {
	return func(p *CoinGeckoProvider) {
		if base != "" {
			p.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithAPIKey sends key as the CoinGecko demo API key header.
func WithAPIKey(key string) Option {
	return func(p *CoinGeckoProvider) { p.apiKey = key }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(p *CoinGeckoProvider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithCache enables caching of upstream bodies.
func WithCache(c ResponseCache) Option {
	return func(p *CoinGeckoProvider) { p.cache = c }
}

func NewCoinGeckoProvider(tracer trace.Tracer, opts ...Option) *CoinGeckoProvider {
	p := &CoinGeckoProvider{
		client:  &http.Client{},
		baseURL: coingeckoBaseURL,
		timeout: DefaultTimeout,
		tracer:  tracer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FetchRanked fetches the top assets ordered by market cap, one page of
// domain.MarketPageSize entries.
func (p *CoinGeckoProvider) FetchRanked(ctx context.Context, revalidate time.Duration) ([]domain.AssetSnapshot, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-ranked")
	defer span.End()

	path := fmt.Sprintf("/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=%d&page=1&sparkline=false&price_change_percentage=1h,24h,7d",
		domain.MarketPageSize)

	body, err := p.doRequest(ctx, path, revalidate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch ranked markets: %w", err)
	}

	var assets []domain.AssetSnapshot
	if err := json.Unmarshal(body, &assets); err != nil {
		return nil, fmt.Errorf("parse ranked markets: %w", err)
	}
	for i := range assets {
		assets[i].Symbol = strings.ToUpper(assets[i].Symbol)
	}

	span.SetAttributes(attribute.Int("coins", len(assets)))
	return assets, nil
}

// FetchSeries fetches the market_chart arrays of one coin. A 404 from
// upstream is reported as *NotFoundError.
func (p *CoinGeckoProvider) FetchSeries(ctx context.Context, coinID, days string, revalidate time.Duration) (*domain.TimeSeries, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-series")
	defer span.End()
	span.SetAttributes(attribute.String("coin", coinID), attribute.String("days", days))

	path := fmt.Sprintf("/coins/%s/market_chart?vs_currency=usd&days=%s",
		url.PathEscape(coinID), url.QueryEscape(days))

	body, err := p.doRequest(ctx, path, revalidate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var upstream *UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound {
			return nil, &NotFoundError{CoinID: coinID}
		}
		return nil, fmt.Errorf("fetch market chart for %s: %w", coinID, err)
	}

	var series domain.TimeSeries
	if err := json.Unmarshal(body, &series); err != nil {
		return nil, fmt.Errorf("parse market chart for %s: %w", coinID, err)
	}

	span.SetAttributes(attribute.Int("points", len(series.Prices)))
	return &series, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, path string, revalidate time.Duration) ([]byte, error) {
	key := "coingecko:" + path
	if p.cache != nil && revalidate > 0 {
		if body, ok := p.cache.Load(ctx, key); ok {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("cache.hit", true))
			return body, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if revalidate > 0 {
		req.Header.Set("Cache-Control", "max-age="+strconv.Itoa(int(revalidate/time.Second)))
	}
	if p.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("coingecko request timed out after %s: %w", p.timeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read coingecko response: %w", err)
	}

	if p.cache != nil && revalidate > 0 {
		p.cache.Store(ctx, key, body, revalidate)
	}
	return body, nil
}
