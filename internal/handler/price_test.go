package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cryptodash/internal/domain"
	"cryptodash/internal/notify"
	"cryptodash/internal/provider"
	"cryptodash/internal/service"
	"cryptodash/internal/tracelog"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("handler-test")

type fixture struct {
	router   *gin.Engine
	upstream *stubUpstream
	traces   *captureRecorder
	notifier *captureNotifier
}

func newFixture(t *testing.T, upstream *stubUpstream, expose bool) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	traces := &captureRecorder{}
	notifier := &captureNotifier{}
	svc := service.NewPriceService(testTracer, upstream)
	h := New(testTracer, svc, traces, notifier, ErrorFormatter{ExposeDetails: expose})

	r := gin.New()
	h.RegisterRoutes(r)
	return &fixture{router: r, upstream: upstream, traces: traces, notifier: notifier}
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	f.router.ServeHTTP(w, req)
	return w
}

func ranked(n int) []domain.AssetSnapshot {
	out := make([]domain.AssetSnapshot, n)
	out[0] = domain.AssetSnapshot{ID: "bitcoin", Symbol: "BTC", MarketCap: 2e12}
	for i := 1; i < n; i++ {
		out[i] = domain.AssetSnapshot{ID: "coin-" + string(rune('a'+i%26)) + string(rune('a'+i/26)), MarketCap: float64(n - i)}
	}
	return out
}

func prices(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = []float64{float64(1_700_000_000_000 + int64(i)*720_000), 60000 + float64(i)}
	}
	return out
}

func TestGetDataSevenDayScenario(t *testing.T) {
	f := newFixture(t, &stubUpstream{ranked: ranked(50), series: &domain.TimeSeries{Prices: prices(500)}}, false)

	w := f.get(t, "/api/data?coin=bitcoin&days=7")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var assets []domain.EnrichedAsset
	if err := json.Unmarshal(w.Body.Bytes(), &assets); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(assets) != 50 {
		t.Fatalf("expected 50 assets, got %d", len(assets))
	}
	btc := assets[0]
	if len(btc.History) > 50 || len(btc.History) == 0 {
		t.Fatalf("expected at most 50 points, got %d", len(btc.History))
	}
	if step := btc.History[1].Timestamp - btc.History[0].Timestamp; step != 10*720_000 {
		t.Fatalf("expected stride of 10 samples, got %d ms", step)
	}
	for _, a := range assets[1:] {
		if len(a.History) != 0 {
			t.Fatalf("%s should have empty history", a.ID)
		}
	}
	if !strings.Contains(w.Body.String(), `"history":[]`) {
		t.Fatal("empty histories must serialize as []")
	}

	rec := f.traces.only(t)
	if rec.Endpoint != "/api/data" || rec.Status != 200 || rec.CoinsReturned == nil || *rec.CoinsReturned != 50 {
		t.Fatalf("unexpected trace record: %+v", rec)
	}
	ev := f.notifier.only(t)
	if ev.Event != notify.EventSuccess || ev.DataPoints == nil || *ev.DataPoints != len(btc.History) {
		t.Fatalf("unexpected success event: %+v", ev)
	}
}

func TestGetDataDefaults(t *testing.T) {
	f := newFixture(t, &stubUpstream{ranked: ranked(2), series: &domain.TimeSeries{}}, false)

	if w := f.get(t, "/api/data?coin=&days="); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if f.upstream.coin != "bitcoin" || f.upstream.days != "30" {
		t.Fatalf("expected defaults bitcoin/30, got %s/%s", f.upstream.coin, f.upstream.days)
	}
}

func TestGetDataRankedFailure(t *testing.T) {
	f := newFixture(t, &stubUpstream{rankedErr: &provider.UpstreamError{StatusCode: 503}, series: &domain.TimeSeries{Prices: prices(3)}}, false)

	w := f.get(t, "/api/data?coin=bitcoin&days=30")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body domain.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Error != "Error al obtener datos de mercado" || body.Timestamp == "" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Details != "" {
		t.Fatalf("details must be hidden outside development: %+v", body)
	}

	rec := f.traces.only(t)
	if rec.Status != 500 || rec.Error == "" {
		t.Fatalf("unexpected trace: %+v", rec)
	}
	if ev := f.notifier.only(t); ev.Event != notify.EventError || ev.Error == "" {
		t.Fatalf("unexpected error event: %+v", ev)
	}
}

func TestGetDataExposesDetailsInDevelopment(t *testing.T) {
	f := newFixture(t, &stubUpstream{rankedErr: errors.New("dial tcp: refused")}, true)

	w := f.get(t, "/api/data")
	var body domain.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if !strings.Contains(body.Details, "dial tcp: refused") {
		t.Fatalf("expected details, got %+v", body)
	}
}

func TestGetDataSeriesFailureDegrades(t *testing.T) {
	f := newFixture(t, &stubUpstream{ranked: ranked(5), seriesErr: errors.New("timeout")}, false)

	w := f.get(t, "/api/data?coin=bitcoin&days=30")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var assets []domain.EnrichedAsset
	_ = json.Unmarshal(w.Body.Bytes(), &assets)
	for _, a := range assets {
		if len(a.History) != 0 {
			t.Fatalf("expected empty history for %s", a.ID)
		}
	}
	if ev := f.notifier.only(t); ev.Event != notify.EventSuccess || *ev.DataPoints != 0 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestGetCoinDataSuccess(t *testing.T) {
	f := newFixture(t, &stubUpstream{series: &domain.TimeSeries{Prices: prices(24), MarketCaps: prices(24)}}, false)

	w := f.get(t, "/api/coindata?coin=ethereum&days=1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body domain.HistoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if body.CoinID != "ethereum" || body.Days != "1" || body.DataPoints != len(body.Prices) {
		t.Fatalf("unexpected body: %+v", body)
	}
	if !strings.Contains(w.Body.String(), `"total_volumes":[]`) {
		t.Fatalf("absent series must serialize as []: %s", w.Body.String())
	}

	rec := f.traces.only(t)
	if rec.DataPoints == nil || *rec.DataPoints != 24 {
		t.Fatalf("unexpected trace: %+v", rec)
	}
	if len(f.notifier.all()) != 0 {
		t.Fatal("history endpoint must not send a success webhook")
	}
}

func TestGetCoinDataInvalidDays(t *testing.T) {
	for _, days := range []string{"2", "14", "180", "max", "abc"} {
		f := newFixture(t, &stubUpstream{series: &domain.TimeSeries{}}, false)

		w := f.get(t, "/api/coindata?coin=bitcoin&days="+days)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("days=%s: expected 400, got %d", days, w.Code)
		}
		if !strings.Contains(w.Body.String(), "1, 7, 30, 90, 365") {
			t.Fatalf("error should list allowed values: %s", w.Body.String())
		}
		if f.upstream.seriesCalls != 0 {
			t.Fatalf("days=%s: upstream called on invalid input", days)
		}
		if rec := f.traces.only(t); rec.Status != 400 || rec.Message == "" {
			t.Fatalf("unexpected trace: %+v", rec)
		}
		if len(f.notifier.all()) != 0 {
			t.Fatal("validation errors must not notify")
		}
	}
}

func TestGetCoinDataNotFound(t *testing.T) {
	f := newFixture(t, &stubUpstream{seriesErr: &provider.NotFoundError{CoinID: "doesnotexist"}}, false)

	w := f.get(t, "/api/coindata?coin=doesnotexist&days=30")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "doesnotexist") {
		t.Fatalf("body should name the coin: %s", w.Body.String())
	}
	if rec := f.traces.only(t); rec.Status != 404 || !strings.Contains(rec.Message, "doesnotexist") {
		t.Fatalf("unexpected trace: %+v", rec)
	}
	if len(f.notifier.all()) != 0 {
		t.Fatal("not found must not notify")
	}
}

func TestGetCoinDataUpstreamFailure(t *testing.T) {
	f := newFixture(t, &stubUpstream{seriesErr: &provider.UpstreamError{StatusCode: 502}}, false)

	w := f.get(t, "/api/coindata?coin=bitcoin&days=90")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body domain.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Error != "Error al obtener datos históricos" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if rec := f.traces.only(t); rec.Status != 500 || rec.Error != "CoinGecko API error: 502" {
		t.Fatalf("unexpected trace: %+v", rec)
	}
	if ev := f.notifier.only(t); ev.Event != notify.EventError {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestErrorFormatter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	resp := ErrorFormatter{}.Format("msg", errors.New("raw"), now)
	if resp.Details != "" || resp.Timestamp != "2025-01-01T00:00:00.000Z" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp := (ErrorFormatter{ExposeDetails: true}).Format("msg", errors.New("raw"), now); resp.Details != "raw" {
		t.Fatalf("expected details, got %+v", resp)
	}
}

type stubUpstream struct {
	ranked    []domain.AssetSnapshot
	rankedErr error
	series    *domain.TimeSeries
	seriesErr error

	mu          sync.Mutex
	seriesCalls int
	coin, days  string
}

func (s *stubUpstream) FetchRanked(ctx context.Context, revalidate time.Duration) ([]domain.AssetSnapshot, error) {
	if s.rankedErr != nil {
		return nil, s.rankedErr
	}
	return s.ranked, nil
}

func (s *stubUpstream) FetchSeries(ctx context.Context, coinID, days string, revalidate time.Duration) (*domain.TimeSeries, error) {
	s.mu.Lock()
	s.seriesCalls++
	s.coin, s.days = coinID, days
	s.mu.Unlock()
	if s.seriesErr != nil {
		return nil, s.seriesErr
	}
	return s.series, nil
}

type captureRecorder struct {
	mu      sync.Mutex
	records []tracelog.Record
}

func (c *captureRecorder) Record(rec tracelog.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
}

func (c *captureRecorder) only(t *testing.T) tracelog.Record {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.records) != 1 {
		t.Fatalf("expected exactly one trace record, got %d", len(c.records))
	}
	return c.records[0]
}

type captureNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *captureNotifier) Notify(_ context.Context, ev notify.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureNotifier) all() []notify.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Event(nil), c.events...)
}

func (c *captureNotifier) only(t *testing.T) notify.Event {
	t.Helper()
	events := c.all()
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	return events[0]
}
