// Package notify delivers request outcome events to external endpoints.
// Delivery is fire-and-forget: failures are logged and never reach callers.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	EventError   = "fetch_coin_data_error"
	EventSuccess = "fetch_coin_data_success"
)

// Event is the JSON body posted to the webhook.
type Event struct {
	Event      string `json:"event"`
	Coin       string `json:"coin"`
	Days       string `json:"days"`
	DataPoints *int   `json:"data_points,omitempty"`
	Error      string `json:"error,omitempty"`
	TS         string `json:"ts"`
}

// ErrorEvent builds a fetch_coin_data_error event.
func ErrorEvent(coin, days string, err error, now time.Time) Event {
	return Event{Event: EventError, Coin: coin, Days: days, Error: err.Error(), TS: formatTS(now)}
}

// SuccessEvent builds a fetch_coin_data_success event.
func SuccessEvent(coin, days string, dataPoints int, now time.Time) Event {
	return Event{Event: EventSuccess, Coin: coin, Days: days, DataPoints: &dataPoints, TS: formatTS(now)}
}

func formatTS(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// Notifier accepts events for asynchronous delivery.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Result is the outcome of one delivery.
type Result struct {
	Target     string
	Event      string
	StatusCode int
	Attempts   int
	Err        error
}

func logResult(res Result) {
	if res.Err != nil {
		log.Warn().Err(res.Err).
			Str("target", res.Target).
			Str("event", res.Event).
			Int("attempts", res.Attempts).
			Msg("notification delivery failed")
		return
	}
	log.Debug().
		Str("target", res.Target).
		Str("event", res.Event).
		Int("status", res.StatusCode).
		Msg("notification delivered")
}

// Nop is used when no notification target is configured.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// Multi fans an event out to every notifier.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, n := range m {
		n.Notify(ctx, ev)
	}
}

// Wait drains every member that has pending deliveries.
func (m Multi) Wait() {
	for _, n := range m {
		Drain(n)
	}
}

// Drain blocks until n has no pending deliveries, if n tracks them.
func Drain(n Notifier) {
	if w, ok := n.(interface{ Wait() }); ok {
		w.Wait()
	}
}
