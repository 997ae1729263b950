package handler

import (
	"errors"
	"fmt"
	"net/http"

	"cryptodash/internal/domain"
	"cryptodash/internal/market"
	"cryptodash/internal/notify"
	"cryptodash/internal/provider"
	"cryptodash/internal/service"
	"cryptodash/internal/tracelog"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

const (
	dataEndpoint     = "/api/data"
	coinDataEndpoint = "/api/coindata"
)

// GetData godoc
// @Summary      Ranked market list with the history of one coin
// @Description  Returns the top 50 assets by market cap. Only the selected coin carries a price history; the 7 day window is downsampled to at most 50 points.
// @Tags         market
// @Produce      json
// @Param        coin  query  string  false  "CoinGecko coin id"  default(bitcoin)
// @Param        days  query  string  false  "History window, forwarded upstream as-is"  default(30)
// @Success      200  {array}   domain.EnrichedAsset
// @Failure      500  {object}  domain.ErrorResponse
// @Router       /api/data [get]
func (h *Handler) GetData(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-data")
	defer span.End()

	start := h.now()
	coin := queryOr(c, "coin", domain.DefaultCoin)
	days := queryOr(c, "days", domain.DefaultDays)
	span.SetAttributes(attribute.String("coin", coin), attribute.String("days", days))

	assets, err := h.market.GetMarketOverview(ctx, coin, days)
	if err != nil {
		log.Error().Err(err).Str("endpoint", dataEndpoint).Str("coin", coin).Msg("market data request failed")
		span.RecordError(err)

		h.traces.Record(tracelog.Record{
			Endpoint: dataEndpoint,
			Coin:     coin,
			Days:     days,
			Status:   http.StatusInternalServerError,
			Duration: h.now().Sub(start),
			Error:    err.Error(),
		})
		h.notifier.Notify(ctx, notify.ErrorEvent(coin, days, err, h.now()))

		c.JSON(http.StatusInternalServerError, h.errors.Format("Error al obtener datos de mercado", err, h.now()))
		return
	}

	h.traces.Record(tracelog.Record{
		Endpoint:      dataEndpoint,
		Coin:          coin,
		Days:          days,
		Status:        http.StatusOK,
		Duration:      h.now().Sub(start),
		CoinsReturned: tracelog.Int(len(assets)),
	})
	h.notifier.Notify(ctx, notify.SuccessEvent(coin, days, market.HistoryLength(assets, coin), h.now()))

	c.JSON(http.StatusOK, assets)
}

// GetCoinData godoc
// @Summary      Full market chart of one coin
// @Description  Returns prices, market caps and volumes of a coin for a fixed window
// @Tags         market
// @Produce      json
// @Param        coin  query  string  false  "CoinGecko coin id"  default(bitcoin)
// @Param        days  query  string  false  "History window (1, 7, 30, 90, 365)"  default(30)
// @Success      200  {object}  domain.HistoryResponse
// @Failure      400  {object}  domain.ErrorResponse
// @Failure      404  {object}  domain.ErrorResponse
// @Failure      500  {object}  domain.ErrorResponse
// @Router       /api/coindata [get]
func (h *Handler) GetCoinData(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-coin-data")
	defer span.End()

	start := h.now()
	coin := queryOr(c, "coin", domain.DefaultCoin)
	days := queryOr(c, "days", domain.DefaultDays)
	span.SetAttributes(attribute.String("coin", coin), attribute.String("days", days))

	rec := tracelog.Record{Endpoint: coinDataEndpoint, Coin: coin, Days: days}

	history, err := h.market.GetCoinHistory(ctx, coin, days)
	var notFound *provider.NotFoundError
	switch {
	case err == nil:
		rec.Status = http.StatusOK
		rec.DataPoints = tracelog.Int(history.DataPoints)
		rec.Duration = h.now().Sub(start)
		h.traces.Record(rec)
		c.JSON(http.StatusOK, history)

	case errors.Is(err, service.ErrInvalidDays):
		rec.Status = http.StatusBadRequest
		rec.Message = err.Error()
		rec.Duration = h.now().Sub(start)
		h.traces.Record(rec)
		c.JSON(http.StatusBadRequest, h.errors.Format(err.Error(), nil, h.now()))

	case errors.As(err, &notFound):
		msg := fmt.Sprintf("Criptomoneda '%s' no encontrada", coin)
		rec.Status = http.StatusNotFound
		rec.Message = msg
		rec.Duration = h.now().Sub(start)
		h.traces.Record(rec)
		c.JSON(http.StatusNotFound, h.errors.Format(msg, nil, h.now()))

	default:
		log.Error().Err(err).Str("endpoint", coinDataEndpoint).Str("coin", coin).Msg("history request failed")
		span.RecordError(err)

		rec.Status = http.StatusInternalServerError
		rec.Error = err.Error()
		rec.Duration = h.now().Sub(start)
		h.traces.Record(rec)
		h.notifier.Notify(ctx, notify.ErrorEvent(coin, days, err, h.now()))

		c.JSON(http.StatusInternalServerError, h.errors.Format("Error al obtener datos históricos", err, h.now()))
	}
}
