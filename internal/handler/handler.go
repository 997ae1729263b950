package handler

import (
	"context"
	"time"

	"cryptodash/internal/domain"
	"cryptodash/internal/notify"
	"cryptodash/internal/tracelog"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type MarketReader interface {
	GetMarketOverview(ctx context.Context, coin, days string) ([]domain.EnrichedAsset, error)
	GetCoinHistory(ctx context.Context, coin, days string) (*domain.HistoryResponse, error)
}

type Handler struct {
	tracer   trace.Tracer
	market   MarketReader
	traces   tracelog.Recorder
	notifier notify.Notifier
	errors   ErrorFormatter
	now      func() time.Time
}

func New(
	tracer trace.Tracer,
	market MarketReader,
	traces tracelog.Recorder,
	notifier notify.Notifier,
	errors ErrorFormatter,
) *Handler {
	if traces == nil {
		traces = tracelog.Nop{}
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Handler{
		tracer:   tracer,
		market:   market,
		traces:   traces,
		notifier: notifier,
		errors:   errors,
		now:      time.Now,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/data", h.GetData)
	r.GET("/api/coindata", h.GetCoinData)
}

// queryOr returns the query value for key, or def when it is missing or empty.
func queryOr(c *gin.Context, key, def string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return def
}
