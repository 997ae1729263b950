package dashboard

import (
	"context"
	"fmt"
	"time"

	"cryptodash/internal/domain"
	"cryptodash/internal/market"

	"golang.org/x/sync/errgroup"
)

const (
	detailHistoryDays = "30"
	detailMarketDays  = "1"
)

// CoinDetail is the drill-down view of one coin: its current row of the
// market list and its full 30 day price chart.
type CoinDetail struct {
	Asset  *domain.EnrichedAsset
	Points []ChartPoint
}

// FetchCoinDetail loads a 30 day history and the current market row of coin
// concurrently. The chart is not sampled. A coin absent from the ranked list
// yields a nil Asset.
func FetchCoinDetail(ctx context.Context, f Fetcher, coin string, loc *time.Location) (*CoinDetail, error) {
	if loc == nil {
		loc = time.UTC
	}

	var (
		history *domain.HistoryResponse
		assets  []domain.EnrichedAsset
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history, err = f.FetchHistory(gctx, coin, detailHistoryDays)
		if err != nil {
			return fmt.Errorf("history for %s: %w", coin, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		assets, err = f.FetchMarket(gctx, coin, detailMarketDays)
		if err != nil {
			return fmt.Errorf("market row for %s: %w", coin, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	detail := &CoinDetail{Points: make([]ChartPoint, 0, len(history.Prices))}
	for _, p := range history.Prices {
		if len(p) < 2 {
			continue
		}
		ts := int64(p[0])
		detail.Points = append(detail.Points, ChartPoint{
			Time:      ShortDate(time.UnixMilli(ts).In(loc)),
			Price:     market.Round(p[1], 2),
			Timestamp: ts,
		})
	}
	for i := range assets {
		if assets[i].ID == coin {
			a := assets[i]
			detail.Asset = &a
			break
		}
	}
	return detail, nil
}
