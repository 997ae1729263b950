package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cryptodash/internal/domain"
	"cryptodash/internal/provider"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func rankedFixture(n int) []domain.AssetSnapshot {
	ids := []string{"bitcoin", "ethereum", "tether", "solana", "cardano"}
	out := make([]domain.AssetSnapshot, n)
	for i := range out {
		id := ids[i%len(ids)]
		if i >= len(ids) {
			id = id + "-" + string(rune('a'+i))
		}
		out[i] = domain.AssetSnapshot{ID: id, MarketCap: float64(n - i), MarketCapRank: i + 1}
	}
	return out
}

func pricesFixture(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = []float64{float64(1_700_000_000_000 + int64(i)*1000), float64(i) + 0.123456789}
	}
	return out
}

func TestGetMarketOverviewDownsamplesSevenDays(t *testing.T) {
	t.Parallel()

	p := &mockProvider{ranked: rankedFixture(50), series: &domain.TimeSeries{Prices: pricesFixture(500)}}
	svc := NewPriceService(testTracer, p)

	assets, err := svc.GetMarketOverview(context.Background(), "bitcoin", "7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assets) != 50 {
		t.Fatalf("expected 50 assets, got %d", len(assets))
	}
	btc := assets[0].History
	if len(btc) != 50 {
		t.Fatalf("expected 50 history points, got %d", len(btc))
	}
	if btc[1].Timestamp != int64(pricesFixture(500)[10][0]) {
		t.Fatalf("expected stride 10, second point at %d", btc[1].Timestamp)
	}
	if btc[0].Price != 0.12345679 {
		t.Fatalf("expected price rounded to 8 decimals, got %v", btc[0].Price)
	}
	for _, a := range assets[1:] {
		if len(a.History) != 0 {
			t.Fatalf("%s should have empty history", a.ID)
		}
	}
	if p.lastSeriesRevalidate() != 10*time.Second {
		t.Fatalf("expected 10s revalidate for 7 days, got %v", p.lastSeriesRevalidate())
	}
}

func TestGetMarketOverviewKeepsFullSeriesOtherWindows(t *testing.T) {
	t.Parallel()

	p := &mockProvider{ranked: rankedFixture(3), series: &domain.TimeSeries{Prices: pricesFixture(720)}}
	svc := NewPriceService(testTracer, p)

	assets, err := svc.GetMarketOverview(context.Background(), "bitcoin", "30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assets[0].History) != 720 {
		t.Fatalf("expected full series, got %d", len(assets[0].History))
	}
	if p.lastSeriesRevalidate() != time.Hour {
		t.Fatalf("expected 3600s revalidate, got %v", p.lastSeriesRevalidate())
	}
}

func TestGetMarketOverviewForwardsUnvalidatedDays(t *testing.T) {
	t.Parallel()

	p := &mockProvider{ranked: rankedFixture(2), seriesErr: &provider.UpstreamError{StatusCode: 400}}
	svc := NewPriceService(testTracer, p)

	assets, err := svc.GetMarketOverview(context.Background(), "bitcoin", "banana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.lastDays() != "banana" {
		t.Fatalf("days should be forwarded as-is, got %q", p.lastDays())
	}
	if len(assets[0].History) != 0 {
		t.Fatal("failed series should degrade to empty history")
	}
}

func TestGetMarketOverviewRankedFailure(t *testing.T) {
	t.Parallel()

	p := &mockProvider{rankedErr: errors.New("connection reset"), series: &domain.TimeSeries{Prices: pricesFixture(10)}}
	svc := NewPriceService(testTracer, p)

	if _, err := svc.GetMarketOverview(context.Background(), "bitcoin", "30"); err == nil {
		t.Fatal("expected ranked failure to fail the request")
	}
}

func TestGetMarketOverviewSeriesFailure(t *testing.T) {
	t.Parallel()

	p := &mockProvider{ranked: rankedFixture(5), seriesErr: errors.New("timeout")}
	svc := NewPriceService(testTracer, p)

	assets, err := svc.GetMarketOverview(context.Background(), "bitcoin", "7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, a := range assets {
		if a.History == nil || len(a.History) != 0 {
			t.Fatalf("%s: expected empty non-nil history, got %v", a.ID, a.History)
		}
	}
}

func TestGetMarketOverviewFetchesConcurrently(t *testing.T) {
	t.Parallel()

	p := &mockProvider{ranked: rankedFixture(1), series: &domain.TimeSeries{}, barrier: make(chan struct{})}
	svc := NewPriceService(testTracer, p)

	done := make(chan error, 1)
	go func() {
		_, err := svc.GetMarketOverview(context.Background(), "bitcoin", "30")
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fetches did not run concurrently")
	}
}

func TestGetCoinHistory(t *testing.T) {
	t.Parallel()

	p := &mockProvider{series: &domain.TimeSeries{Prices: pricesFixture(25), TotalVolumes: pricesFixture(25)}}
	svc := NewPriceService(testTracer, p)
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }

	resp, err := svc.GetCoinHistory(context.Background(), "ethereum", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.CoinID != "ethereum" || resp.Days != "1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.DataPoints != len(resp.Prices) || resp.DataPoints != 25 {
		t.Fatalf("data_points should equal len(prices), got %d", resp.DataPoints)
	}
	if resp.MarketCaps == nil || len(resp.MarketCaps) != 0 {
		t.Fatalf("absent market caps should be an empty slice")
	}
	if resp.Timestamp != "2025-05-01T00:00:00.000Z" {
		t.Fatalf("unexpected timestamp: %s", resp.Timestamp)
	}
	if p.lastSeriesRevalidate() != 10*time.Second {
		t.Fatalf("expected 10s revalidate for 1 day, got %v", p.lastSeriesRevalidate())
	}
}

func TestGetCoinHistoryRevalidateLongWindow(t *testing.T) {
	t.Parallel()

	p := &mockProvider{series: &domain.TimeSeries{}}
	svc := NewPriceService(testTracer, p)

	if _, err := svc.GetCoinHistory(context.Background(), "bitcoin", "365"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.lastSeriesRevalidate() != 300*time.Second {
		t.Fatalf("expected 300s revalidate, got %v", p.lastSeriesRevalidate())
	}
}

func TestGetCoinHistoryInvalidDaysSkipsUpstream(t *testing.T) {
	t.Parallel()

	for _, days := range []string{"", "0", "2", "14", "180", "max", "-7"} {
		p := &mockProvider{series: &domain.TimeSeries{}}
		svc := NewPriceService(testTracer, p)

		_, err := svc.GetCoinHistory(context.Background(), "bitcoin", days)
		if !errors.Is(err, ErrInvalidDays) {
			t.Fatalf("days=%q: expected ErrInvalidDays, got %v", days, err)
		}
		if p.seriesCalls() != 0 {
			t.Fatalf("days=%q: upstream must not be called", days)
		}
	}
}

func TestGetCoinHistoryPropagatesNotFound(t *testing.T) {
	t.Parallel()

	p := &mockProvider{seriesErr: &provider.NotFoundError{CoinID: "doesnotexist"}}
	svc := NewPriceService(testTracer, p)

	_, err := svc.GetCoinHistory(context.Background(), "doesnotexist", "30")
	var nf *provider.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

type mockProvider struct {
	ranked    []domain.AssetSnapshot
	rankedErr error
	series    *domain.TimeSeries
	seriesErr error
	barrier   chan struct{}

	mu            sync.Mutex
	seriesCount   int
	seriesDays    string
	seriesRevalid time.Duration
}

func (m *mockProvider) FetchRanked(ctx context.Context, revalidate time.Duration) ([]domain.AssetSnapshot, error) {
	if m.barrier != nil {
		<-m.barrier
	}
	if m.rankedErr != nil {
		return nil, m.rankedErr
	}
	return m.ranked, nil
}

func (m *mockProvider) FetchSeries(ctx context.Context, coinID, days string, revalidate time.Duration) (*domain.TimeSeries, error) {
	m.mu.Lock()
	m.seriesCount++
	m.seriesDays = days
	m.seriesRevalid = revalidate
	m.mu.Unlock()
	if m.barrier != nil {
		close(m.barrier)
	}
	if m.seriesErr != nil {
		return nil, m.seriesErr
	}
	return m.series, nil
}

func (m *mockProvider) seriesCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seriesCount
}

func (m *mockProvider) lastDays() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seriesDays
}

func (m *mockProvider) lastSeriesRevalidate() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seriesRevalid
}
