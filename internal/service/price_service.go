package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cryptodash/internal/domain"
	"cryptodash/internal/market"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Revalidate intervals handed to the upstream client per call site.
const (
	rankedRevalidate      = 300 * time.Second
	shortSeriesRevalidate = 10 * time.Second
	historyRevalidate     = 300 * time.Second
	overviewRevalidate    = 3600 * time.Second
)

// ErrInvalidDays is returned by GetCoinHistory for a window outside domain.ValidDays.
var ErrInvalidDays = errors.New("Parámetro 'days' inválido. Valores permitidos: " + strings.Join(domain.ValidDays, ", "))

type MarketProvider interface {
	FetchRanked(ctx context.Context, revalidate time.Duration) ([]domain.AssetSnapshot, error)
	FetchSeries(ctx context.Context, coinID, days string, revalidate time.Duration) (*domain.TimeSeries, error)
}

// PriceService reshapes upstream market data for the dashboard endpoints.
type PriceService struct {
	tracer   trace.Tracer
	provider MarketProvider
	now      func() time.Time
}

func NewPriceService(tracer trace.Tracer, provider MarketProvider) *PriceService {
	return &PriceService{
		tracer:   tracer,
		provider: provider,
		now:      time.Now,
	}
}

// GetMarketOverview fetches the ranked list and the series of coin
// concurrently and merges them. The ranked list is mandatory; a failed series
// degrades to an empty history. days is forwarded upstream unvalidated.
func (s *PriceService) GetMarketOverview(ctx context.Context, coin, days string) ([]domain.EnrichedAsset, error) {
	ctx, span := s.tracer.Start(ctx, "price-service.get-market-overview")
	defer span.End()
	span.SetAttributes(attribute.String("coin", coin), attribute.String("days", days))

	var (
		ranked    []domain.AssetSnapshot
		series    *domain.TimeSeries
		seriesErr error
		g         errgroup.Group
	)

	g.Go(func() error {
		var err error
		ranked, err = s.provider.FetchRanked(ctx, rankedRevalidate)
		return err
	})
	g.Go(func() error {
		series, seriesErr = s.provider.FetchSeries(ctx, coin, days, overviewSeriesRevalidate(days))
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var prices [][]float64
	if seriesErr != nil {
		log.Warn().Err(seriesErr).Str("coin", coin).Str("days", days).Msg("history unavailable, serving empty history")
	} else if series != nil {
		prices = series.Prices
		if days == "7" && len(prices) > 0 {
			prices = market.Downsample(prices, domain.MaxHistoryPoints)
		}
	}

	return market.Enrich(ranked, coin, prices), nil
}

// GetCoinHistory returns the full market_chart series of coin. days must be
// one of domain.ValidDays; otherwise ErrInvalidDays is returned before any
// upstream call.
func (s *PriceService) GetCoinHistory(ctx context.Context, coin, days string) (*domain.HistoryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "price-service.get-coin-history")
	defer span.End()
	span.SetAttributes(attribute.String("coin", coin), attribute.String("days", days))

	if !domain.IsValidDays(days) {
		return nil, ErrInvalidDays
	}

	series, err := s.provider.FetchSeries(ctx, coin, days, historySeriesRevalidate(days))
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, fmt.Errorf("empty market chart for %s", coin)
	}

	return &domain.HistoryResponse{
		CoinID:       coin,
		Days:         days,
		Prices:       orEmpty(series.Prices),
		MarketCaps:   orEmpty(series.MarketCaps),
		TotalVolumes: orEmpty(series.TotalVolumes),
		DataPoints:   len(series.Prices),
		Timestamp:    s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}, nil
}

func overviewSeriesRevalidate(days string) time.Duration {
	if days == "7" {
		return shortSeriesRevalidate
	}
	return overviewRevalidate
}

func historySeriesRevalidate(days string) time.Duration {
	if days == "1" {
		return shortSeriesRevalidate
	}
	return historyRevalidate
}

func orEmpty(pairs [][]float64) [][]float64 {
	if pairs == nil {
		return [][]float64{}
	}
	return pairs
}
