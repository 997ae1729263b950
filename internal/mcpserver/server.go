package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"cryptodash/internal/dashboard"
	"cryptodash/internal/domain"
	"cryptodash/internal/provider"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

const (
	ServerName    = "cryptodash"
	ServerVersion = "1.0.0"
)

type MarketReader interface {
	GetMarketOverview(ctx context.Context, coin, days string) ([]domain.EnrichedAsset, error)
	GetCoinHistory(ctx context.Context, coin, days string) (*domain.HistoryResponse, error)
}

type QueryInput struct {
	Coin string `json:"coin,omitempty" jsonschema:"CoinGecko coin id, defaults to bitcoin"`
	Days string `json:"days,omitempty" jsonschema:"history window in days: 1, 7, 30, 90 or 365; defaults to 30"`
}

func (in QueryInput) withDefaults() QueryInput {
	if in.Coin == "" {
		in.Coin = domain.DefaultCoin
	}
	if in.Days == "" {
		in.Days = domain.DefaultDays
	}
	return in
}

type MarketRow struct {
	Rank                     int     `json:"rank"`
	ID                       string  `json:"id"`
	Name                     string  `json:"name"`
	Symbol                   string  `json:"symbol"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	TotalVolume              float64 `json:"total_volume"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	HistoryPoints            int     `json:"history_points"`
}

type MarketOutput struct {
	Coin    string              `json:"coin"`
	Days    string              `json:"days"`
	Assets  []MarketRow         `json:"assets"`
	Top     []dashboard.TopCoin `json:"top"`
	History []PricePoint        `json:"history"`
}

type PricePoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

type HistoryOutput struct {
	CoinID     string      `json:"coin_id"`
	Days       string      `json:"days"`
	DataPoints int         `json:"data_points"`
	Prices     [][]float64 `json:"prices"`
	Timestamp  string      `json:"timestamp"`
}

// New exposes the market endpoints as MCP tools.
func New(market MarketReader) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: ServerVersion}, nil)
	t := &tools{market: market}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_market_data",
		Description: "Top 50 crypto assets by market cap, the price history of the selected coin and the top 5 with rolling volume.",
	}, t.marketData)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_coin_history",
		Description: "Full price chart of one coin for 1, 7, 30, 90 or 365 days.",
	}, t.coinHistory)

	return server
}

// Run serves the tools over stdio until ctx is cancelled or the client leaves.
func Run(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

type tools struct {
	market MarketReader
}

func (t *tools) marketData(ctx context.Context, _ *mcp.CallToolRequest, in QueryInput) (*mcp.CallToolResult, MarketOutput, error) {
	in = in.withDefaults()

	assets, err := t.market.GetMarketOverview(ctx, in.Coin, in.Days)
	if err != nil {
		log.Error().Err(err).Str("tool", "get_market_data").Str("coin", in.Coin).Msg("tool call failed")
		return nil, MarketOutput{}, fmt.Errorf("Error al obtener datos de mercado: %w", err)
	}

	out := MarketOutput{
		Coin:    in.Coin,
		Days:    in.Days,
		Assets:  make([]MarketRow, 0, len(assets)),
		Top:     dashboard.TopCoins(dashboard.SortByMarketCap(assets), dashboard.TopCoinCount),
		History: []PricePoint{},
	}
	for _, a := range assets {
		out.Assets = append(out.Assets, MarketRow{
			Rank:                     a.MarketCapRank,
			ID:                       a.ID,
			Name:                     a.Name,
			Symbol:                   a.Symbol,
			CurrentPrice:             a.CurrentPrice,
			MarketCap:                a.MarketCap,
			TotalVolume:              a.TotalVolume,
			PriceChangePercentage24h: a.PriceChangePercentage24h,
			HistoryPoints:            len(a.History),
		})
		if a.ID == in.Coin {
			for _, p := range a.History {
				out.History = append(out.History, PricePoint{Timestamp: p.Timestamp, Price: p.Price})
			}
		}
	}
	return nil, out, nil
}

func (t *tools) coinHistory(ctx context.Context, _ *mcp.CallToolRequest, in QueryInput) (*mcp.CallToolResult, HistoryOutput, error) {
	in = in.withDefaults()

	h, err := t.market.GetCoinHistory(ctx, in.Coin, in.Days)
	if err != nil {
		var notFound *provider.NotFoundError
		switch {
		case errors.As(err, &notFound):
			return nil, HistoryOutput{}, fmt.Errorf("Criptomoneda '%s' no encontrada", in.Coin)
		default:
			log.Error().Err(err).Str("tool", "get_coin_history").Str("coin", in.Coin).Msg("tool call failed")
			return nil, HistoryOutput{}, err
		}
	}

	return nil, HistoryOutput{
		CoinID:     h.CoinID,
		Days:       h.Days,
		DataPoints: h.DataPoints,
		Prices:     h.Prices,
		Timestamp:  h.Timestamp,
	}, nil
}
