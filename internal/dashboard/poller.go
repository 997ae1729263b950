package dashboard

import (
	"context"
	"sync"
	"time"

	"cryptodash/internal/domain"

	"github.com/rs/zerolog/log"
)

type Fetcher interface {
	FetchMarket(ctx context.Context, coin, days string) ([]domain.EnrichedAsset, error)
	FetchHistory(ctx context.Context, coin, days string) (*domain.HistoryResponse, error)
}

type Kind int

const (
	KindMarket Kind = iota + 1
	KindHistory
)

func (k Kind) String() string {
	if k == KindHistory {
		return "history"
	}
	return "market"
}

// Event reports the start or the outcome of one fetch of a cycle.
type Event struct {
	Kind    Kind
	Seq     uint64
	Filter  Filter
	Started bool
	Market  []domain.EnrichedAsset
	History *domain.HistoryResponse
	Err     error
}

// Poller issues the market and history fetches for the current filter. Both
// run concurrently and independently; a new filter cancels the in-flight cycle.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	filter   Filter

	filters chan Filter
	refresh chan struct{}
	events  chan Event

	seq uint64
	wg  sync.WaitGroup
}

// NewPoller polls with filter as the initial selection. A non-positive
// interval disables periodic refresh.
func NewPoller(fetcher Fetcher, filter Filter, interval time.Duration) *Poller {
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		filter:   filter,
		filters:  make(chan Filter, 1),
		refresh:  make(chan struct{}, 1),
		events:   make(chan Event, 8),
	}
}

func (p *Poller) Events() <-chan Event { return p.events }

// SetFilter replaces any filter change not yet picked up by Run.
func (p *Poller) SetFilter(f Filter) {
	for {
		select {
		case p.filters <- f:
			return
		default:
		}
		select {
		case <-p.filters:
		default:
		}
	}
}

// Refresh re-runs the current cycle without changing the filter.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Run starts a cycle immediately and then on every filter change, refresh
// request or tick. It blocks until ctx is cancelled and closes Events on return.
func (p *Poller) Run(ctx context.Context) {
	var tick <-chan time.Time
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	cancelCycle := func() {}
	defer func() {
		cancelCycle()
		p.wg.Wait()
		close(p.events)
	}()

	start := func() {
		cancelCycle()
		var cycleCtx context.Context
		cycleCtx, cancelCycle = context.WithCancel(ctx)
		p.startCycle(ctx, cycleCtx)
	}

	start()
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-p.filters:
			p.filter = f
			start()
		case <-p.refresh:
			start()
		case <-tick:
			start()
		}
	}
}

func (p *Poller) startCycle(ctx, cycleCtx context.Context) {
	p.seq++
	seq, f := p.seq, p.filter

	log.Debug().Uint64("seq", seq).Str("coin", f.Coin).Str("days", f.Days).Msg("dashboard cycle started")

	p.emit(ctx, Event{Kind: KindMarket, Seq: seq, Filter: f, Started: true})
	p.emit(ctx, Event{Kind: KindHistory, Seq: seq, Filter: f, Started: true})

	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		assets, err := p.fetcher.FetchMarket(cycleCtx, f.Coin, f.Days)
		if err != nil {
			log.Debug().Err(err).Str("coin", f.Coin).Msg("market fetch failed")
		}
		p.emit(cycleCtx, Event{Kind: KindMarket, Seq: seq, Filter: f, Market: assets, Err: err})
	}()
	go func() {
		defer p.wg.Done()
		history, err := p.fetcher.FetchHistory(cycleCtx, f.Coin, f.Days)
		if err != nil {
			log.Debug().Err(err).Str("coin", f.Coin).Msg("history fetch failed")
		}
		p.emit(cycleCtx, Event{Kind: KindHistory, Seq: seq, Filter: f, History: history, Err: err})
	}()
}

// emit drops ev once ctx is done so a superseded fetch never blocks.
func (p *Poller) emit(ctx context.Context, ev Event) {
	select {
	case p.events <- ev:
	case <-ctx.Done():
	}
}
