package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cryptodash/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const defaultClientTimeout = 15 * time.Second

// ErrInvalidFormat is returned when the market endpoint answers 2xx with
// something other than a JSON array.
var ErrInvalidFormat = errors.New("Formato de datos inválido")

// APIError is a non-2xx answer from the service. Message is the body's error
// field when present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to the market endpoints of the proxy service.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTracer(t trace.Tracer) ClientOption {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultClientTimeout},
		tracer:  noop.NewTracerProvider().Tracer("dashboard"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchMarket loads the ranked list with the history of coin.
func (c *Client) FetchMarket(ctx context.Context, coin, days string) ([]domain.EnrichedAsset, error) {
	ctx, span := c.tracer.Start(ctx, "dashboard.fetch-market")
	defer span.End()
	span.SetAttributes(attribute.String("coin", coin), attribute.String("days", days))

	body, err := c.get(ctx, "/api/data", coin, days)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		span.SetStatus(codes.Error, ErrInvalidFormat.Error())
		return nil, ErrInvalidFormat
	}

	var assets []domain.EnrichedAsset
	if err := json.Unmarshal(trimmed, &assets); err != nil {
		return nil, fmt.Errorf("decode market data: %w", err)
	}
	return assets, nil
}

// FetchHistory loads the full market chart of coin.
func (c *Client) FetchHistory(ctx context.Context, coin, days string) (*domain.HistoryResponse, error) {
	ctx, span := c.tracer.Start(ctx, "dashboard.fetch-history")
	defer span.End()
	span.SetAttributes(attribute.String("coin", coin), attribute.String("days", days))

	body, err := c.get(ctx, "/api/coindata", coin, days)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var history domain.HistoryResponse
	if err := json.Unmarshal(body, &history); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return &history, nil
}

func (c *Client) get(ctx context.Context, path, coin, days string) ([]byte, error) {
	q := url.Values{}
	q.Set("coin", coin)
	q.Set("days", days)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp.StatusCode, body)
	}
	return body, nil
}

func apiError(status int, body []byte) *APIError {
	var payload domain.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return &APIError{StatusCode: status, Message: payload.Error}
	}
	return &APIError{StatusCode: status, Message: fmt.Sprintf("HTTP %d", status)}
}
