package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultDeliveryTimeout = 10 * time.Second

// Webhook posts events as JSON to a configured URL.
type Webhook struct {
	url        string
	client     *http.Client
	maxRetries uint64
	timeout    time.Duration
	newBackOff func() backoff.BackOff

	wg sync.WaitGroup
}

// NewWebhook returns a Nop notifier when url is empty.
func NewWebhook(url string, maxRetries int) Notifier {
	if url == "" {
		return Nop{}
	}
	return newWebhook(url, maxRetries)
}

func newWebhook(url string, maxRetries int) *Webhook {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Webhook{
		url:        url,
		client:     &http.Client{},
		maxRetries: uint64(maxRetries),
		timeout:    defaultDeliveryTimeout,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			return b
		},
	}
}

// Notify delivers ev in the background. The request context only contributes
// its values; cancelling it does not abort delivery.
func (w *Webhook) Notify(ctx context.Context, ev Event) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
		defer cancel()
		logResult(w.Deliver(dctx, ev))
	}()
}

// Wait blocks until every pending delivery has finished.
func (w *Webhook) Wait() {
	w.wg.Wait()
}

// Deliver posts ev synchronously, retrying network errors and 5xx answers.
func (w *Webhook) Deliver(ctx context.Context, ev Event) Result {
	res := Result{Target: "webhook", Event: ev.Event}

	payload, err := json.Marshal(ev)
	if err != nil {
		res.Err = fmt.Errorf("encode webhook event: %w", err)
		return res
	}

	op := func() error {
		res.Attempts++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		res.StatusCode = resp.StatusCode
		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("webhook responded %d", resp.StatusCode)
		case resp.StatusCode >= 300:
			return backoff.Permanent(fmt.Errorf("webhook responded %d", resp.StatusCode))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(w.newBackOff(), w.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		res.Err = err
	}
	return res
}
