package dashboard

import (
	"time"

	"cryptodash/internal/domain"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseError
	PhasePopulated
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseError:
		return "error"
	case PhasePopulated:
		return "populated"
	default:
		return "idle"
	}
}

// Cycle tracks one fetch cycle. A cycle started with a newer sequence number
// supersedes older ones: their results are dropped when they arrive late.
type Cycle[T any] struct {
	Phase     Phase
	Data      T
	Err       string
	Seq       uint64
	UpdatedAt time.Time
}

// Start enters the loading state for seq. Data from the previous cycle is
// kept until the new one resolves. Returns false for a stale seq.
func (c *Cycle[T]) Start(seq uint64) bool {
	if seq < c.Seq {
		return false
	}
	c.Seq = seq
	c.Phase = PhaseLoading
	c.Err = ""
	return true
}

// Finish resolves the cycle seq. On error Data is reset to its zero value.
func (c *Cycle[T]) Finish(seq uint64, data T, err error, at time.Time) bool {
	if seq != c.Seq {
		return false
	}
	c.UpdatedAt = at
	if err != nil {
		var zero T
		c.Data = zero
		c.Err = err.Error()
		c.Phase = PhaseError
		return true
	}
	c.Data = data
	c.Err = ""
	c.Phase = PhasePopulated
	return true
}

func (c *Cycle[T]) Loading() bool { return c.Phase == PhaseLoading }

// Filter selects the coin and window shown by the dashboard.
type Filter struct {
	Coin string
	Days string
}

func DefaultFilter() Filter {
	return Filter{Coin: domain.DefaultCoin, Days: domain.DefaultDays}
}

// State holds both independent cycles driven by the same filter.
type State struct {
	Filter  Filter
	Market  Cycle[MarketView]
	History Cycle[HistoryView]
	loc     *time.Location
	now     func() time.Time
}

func NewState(filter Filter, loc *time.Location) *State {
	return &State{Filter: filter, loc: loc, now: time.Now}
}

// Apply folds a poller event into the state. It reports whether anything
// changed.
func (s *State) Apply(ev Event) bool {
	switch ev.Kind {
	case KindMarket:
		if ev.Started {
			s.Filter = ev.Filter
			return s.Market.Start(ev.Seq)
		}
		var view MarketView
		if ev.Err == nil {
			view = NewMarketView(ev.Market)
		}
		return s.Market.Finish(ev.Seq, view, ev.Err, s.now())
	case KindHistory:
		if ev.Started {
			s.Filter = ev.Filter
			return s.History.Start(ev.Seq)
		}
		var view HistoryView
		if ev.Err == nil {
			view = NewHistoryView(ev.History, s.loc)
		}
		return s.History.Finish(ev.Seq, view, ev.Err, s.now())
	}
	return false
}
