package dashboard

import (
	"fmt"
	"sort"
	"time"

	"cryptodash/internal/domain"
	"cryptodash/internal/market"
)

const (
	TopCoinCount      = 5
	rollingWindowSize = 3
)

var esShortMonths = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}

// TopCoin is one of the largest assets with its volume smoothed over the
// preceding entries of the top list.
type TopCoin struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	MarketCap     float64 `json:"market_cap"`
	Volume        float64 `json:"volume"`
	RollingVolume float64 `json:"rolling_volume"`
}

// ChartPoint is one sampled history point ready for a line chart.
type ChartPoint struct {
	Time      string  `json:"time"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// Slice is a market cap share of the top list.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Share float64 `json:"share"`
}

func (s Slice) Label() string {
	return fmt.Sprintf("%s %.1f%%", s.Name, s.Share*100)
}

// BarRow compares raw and rolling volume for one top coin.
type BarRow struct {
	Name          string
	MarketCap     float64
	Volume        float64
	RollingVolume float64
}

// SortByMarketCap drops assets without a positive market cap and orders the
// rest largest first. The input is not modified.
func SortByMarketCap(assets []domain.EnrichedAsset) []domain.EnrichedAsset {
	out := make([]domain.EnrichedAsset, 0, len(assets))
	for _, a := range assets {
		if a.MarketCap > 0 {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MarketCap > out[j].MarketCap })
	return out
}

// TopCoins takes the first n of an already sorted list. RollingVolume is the
// mean volume of the coin and up to two coins ranked above it.
func TopCoins(sorted []domain.EnrichedAsset, n int) []TopCoin {
	if n > len(sorted) {
		n = len(sorted)
	}
	if n <= 0 {
		return []TopCoin{}
	}

	top := make([]TopCoin, n)
	for i, a := range sorted[:n] {
		start := max(0, i-(rollingWindowSize-1))
		var sum float64
		for _, w := range sorted[start : i+1] {
			sum += w.TotalVolume
		}
		top[i] = TopCoin{
			ID:            a.ID,
			Name:          a.Name,
			Symbol:        a.Symbol,
			MarketCap:     a.MarketCap,
			Volume:        a.TotalVolume,
			RollingVolume: sum / float64(i+1-start),
		}
	}
	return top
}

// SampleHistory turns raw [timestamp, price] pairs into at most
// domain.MaxHistoryPoints chart points labelled with a short Spanish date in
// loc. A nil loc means UTC.
func SampleHistory(prices [][]float64, loc *time.Location) []ChartPoint {
	if loc == nil {
		loc = time.UTC
	}

	mapped := make([]ChartPoint, 0, len(prices))
	for _, p := range prices {
		if len(p) < 2 {
			continue
		}
		ts := int64(p[0])
		mapped = append(mapped, ChartPoint{
			Time:      ShortDate(time.UnixMilli(ts).In(loc)),
			Price:     market.Round(p[1], 2),
			Timestamp: ts,
		})
	}
	if len(mapped) == 0 {
		return mapped
	}
	return market.Downsample(mapped, domain.MaxHistoryPoints)
}

// ShortDate formats t as day and abbreviated Spanish month, e.g. "14 oct".
func ShortDate(t time.Time) string {
	return fmt.Sprintf("%d %s", t.Day(), esShortMonths[t.Month()-1])
}

// PieSlices computes each top coin's share of the combined top market cap.
func PieSlices(top []TopCoin) []Slice {
	var total float64
	for _, c := range top {
		total += c.MarketCap
	}

	slices := make([]Slice, len(top))
	for i, c := range top {
		slices[i] = Slice{Name: c.Name, Value: c.MarketCap}
		if total > 0 {
			slices[i].Share = c.MarketCap / total
		}
	}
	return slices
}

func BarRows(top []TopCoin) []BarRow {
	rows := make([]BarRow, len(top))
	for i, c := range top {
		rows[i] = BarRow{Name: c.Name, MarketCap: c.MarketCap, Volume: c.Volume, RollingVolume: c.RollingVolume}
	}
	return rows
}

// LinePoints extracts the price series of sampled history.
func LinePoints(points []ChartPoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Price
	}
	return values
}

// MarketView is everything the dashboard derives from one market response.
type MarketView struct {
	Assets []domain.EnrichedAsset
	Top    []TopCoin
	Slices []Slice
	Bars   []BarRow
}

func NewMarketView(assets []domain.EnrichedAsset) MarketView {
	sorted := SortByMarketCap(assets)
	top := TopCoins(sorted, TopCoinCount)
	return MarketView{
		Assets: sorted,
		Top:    top,
		Slices: PieSlices(top),
		Bars:   BarRows(top),
	}
}

// HistoryView is the sampled chart of one history response.
type HistoryView struct {
	CoinID string
	Days   string
	Points []ChartPoint
	Line   []float64
}

func NewHistoryView(h *domain.HistoryResponse, loc *time.Location) HistoryView {
	if h == nil {
		return HistoryView{Points: []ChartPoint{}, Line: []float64{}}
	}
	points := SampleHistory(h.Prices, loc)
	return HistoryView{
		CoinID: h.CoinID,
		Days:   h.Days,
		Points: points,
		Line:   LinePoints(points),
	}
}
