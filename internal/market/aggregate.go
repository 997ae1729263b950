package market

import (
	"strconv"

	"cryptodash/internal/domain"
)

const historyPricePlaces = 8

// Enrich merges the ranked list with the price series of target. Output order
// matches ranked. Only the asset whose ID equals target carries a history;
// every other asset gets an empty, non-nil history.
func Enrich(ranked []domain.AssetSnapshot, target string, prices [][]float64) []domain.EnrichedAsset {
	out := make([]domain.EnrichedAsset, 0, len(ranked))
	for _, asset := range ranked {
		history := []domain.PricePoint{}
		if asset.ID == target {
			history = PricePoints(prices, historyPricePlaces)
		}
		out = append(out, domain.EnrichedAsset{
			AssetSnapshot: asset,
			History:       history,
		})
	}
	return out
}

// PricePoints maps raw [timestamp, price] pairs to PricePoints, rounding each
// price to places decimals. Malformed pairs are skipped.
func PricePoints(pairs [][]float64, places int) []domain.PricePoint {
	points := make([]domain.PricePoint, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) < 2 {
			continue
		}
		points = append(points, domain.PricePoint{
			Timestamp: int64(pair[0]),
			Price:     Round(pair[1], places),
		})
	}
	return points
}

// HistoryLength returns the number of history points carried by id in assets.
func HistoryLength(assets []domain.EnrichedAsset, id string) int {
	for _, a := range assets {
		if a.ID == id {
			return len(a.History)
		}
	}
	return 0
}

// Round formats v with a fixed number of decimals and parses it back.
func Round(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}
