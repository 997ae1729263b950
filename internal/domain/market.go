package domain

import "slices"

const (
	// DefaultCoin is used when a request does not name an asset.
	DefaultCoin = "bitcoin"
	// DefaultDays is used when a request does not name a window.
	DefaultDays = "30"
	// MarketPageSize is the fixed number of ranked assets fetched upstream.
	MarketPageSize = 50
	// MaxHistoryPoints bounds the history payload for the 7-day window.
	MaxHistoryPoints = 50
)

// ValidDays lists the windows accepted by the history endpoint.
var ValidDays = []string{"1", "7", "30", "90", "365"}

// IsValidDays reports whether days is one of ValidDays.
func IsValidDays(days string) bool {
	return slices.Contains(ValidDays, days)
}

// AssetSnapshot is one row of the ranked market list.
type AssetSnapshot struct {
	ID                       string  `json:"id"`
	Name                     string  `json:"name"`
	Symbol                   string  `json:"symbol"`
	Image                    string  `json:"image"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	TotalVolume              float64 `json:"total_volume"`
	PriceChange24h           float64 `json:"price_change_24h"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	PriceChangePercentage1h  float64 `json:"price_change_percentage_1h_in_currency"`
	PriceChangePercentage7d  float64 `json:"price_change_percentage_7d_in_currency"`
	MarketCapRank            int     `json:"market_cap_rank"`
}

// PricePoint is a single (timestamp, price) sample. Timestamp is in milliseconds.
type PricePoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

// TimeSeries holds the raw market_chart arrays as [timestamp, value] pairs.
type TimeSeries struct {
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// EnrichedAsset is a ranked asset with the price history of the selected coin.
// History is empty for every asset other than the selected one.
type EnrichedAsset struct {
	AssetSnapshot
	History []PricePoint `json:"history"`
}

// HistoryResponse is the payload of the single-asset history endpoint.
type HistoryResponse struct {
	CoinID       string      `json:"coin_id"`
	Days         string      `json:"days"`
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
	DataPoints   int         `json:"data_points"`
	Timestamp    string      `json:"timestamp"`
}

// ErrorResponse is the JSON body returned on any failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}
