package provider

import "fmt"

// UpstreamError is returned when CoinGecko answers with a non-200 status.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("CoinGecko API error: %d", e.StatusCode)
}

// NotFoundError is returned when CoinGecko does not know the requested coin.
type NotFoundError struct {
	CoinID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("coin %q not found", e.CoinID)
}
