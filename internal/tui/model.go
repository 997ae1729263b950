package tui

import (
	"time"

	"cryptodash/internal/dashboard"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

// Coins and Days are the selectable filter values.
var (
	Coins = []string{"bitcoin", "ethereum", "cardano", "solana", "dogecoin", "binancecoin", "ripple", "polkadot"}
	Days  = []string{"7", "30", "90", "365"}
)

// Controller drives the fetch cycles behind the model.
type Controller interface {
	Events() <-chan dashboard.Event
	SetFilter(dashboard.Filter)
	Refresh()
}

type eventMsg struct {
	ev dashboard.Event
	ok bool
}

func waitForEvent(events <-chan dashboard.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		return eventMsg{ev: ev, ok: ok}
	}
}

type AppModel struct {
	ctrl    Controller
	state   *dashboard.State
	table   table.Model
	spinner spinner.Model

	coinIdx int
	daysIdx int

	width    int
	height   int
	username string
	closed   bool
}

// NewAppModel renders the dashboard for username. loc is used for chart date
// labels.
func NewAppModel(ctrl Controller, filter dashboard.Filter, username string, loc *time.Location) *AppModel {
	if loc == nil {
		loc = time.Local
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	t := table.New(
		table.WithColumns(tableColumns),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithWidth(80),
	)
	t.SetStyles(tableStyles())

	return &AppModel{
		ctrl:     ctrl,
		state:    dashboard.NewState(filter, loc),
		table:    t,
		spinner:  sp,
		coinIdx:  indexOr(Coins, filter.Coin),
		daysIdx:  indexOr(Days, filter.Days),
		username: username,
	}
}

func (m *AppModel) SetSize(width, height int) {
	m.width, m.height = width, height
	rows := height - 30
	if rows < 5 {
		rows = 5
	}
	m.table.SetHeight(rows)
	if width > 0 {
		m.table.SetWidth(width - 2)
	}
}

func (m *AppModel) State() *dashboard.State { return m.state }

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.ctrl.Events()))
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		if !msg.ok {
			m.closed = true
			return m, nil
		}
		if m.state.Apply(msg.ev) && msg.ev.Kind == dashboard.KindMarket && !msg.ev.Started {
			m.table.SetRows(tableRows(m.state.Market.Data.Assets))
		}
		return m, waitForEvent(m.ctrl.Events())

	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "n", "right", "tab":
			m.coinIdx = (m.coinIdx + 1) % len(Coins)
			m.applyFilter()
			return m, nil
		case "p", "left", "shift+tab":
			m.coinIdx = (m.coinIdx - 1 + len(Coins)) % len(Coins)
			m.applyFilter()
			return m, nil
		case "d":
			m.daysIdx = (m.daysIdx + 1) % len(Days)
			m.applyFilter()
			return m, nil
		case "r":
			m.ctrl.Refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *AppModel) applyFilter() {
	m.ctrl.SetFilter(dashboard.Filter{Coin: Coins[m.coinIdx], Days: Days[m.daysIdx]})
}

func indexOr(values []string, v string) int {
	for i, s := range values {
		if s == v {
			return i
		}
	}
	return 0
}
