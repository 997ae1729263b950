// Command dashboard is the terminal client of the market endpoints.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cryptodash/internal/config"
	"cryptodash/internal/dashboard"
	"cryptodash/internal/domain"
	"cryptodash/internal/tui"
	"cryptodash/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	newFetcherFunc = func(baseURL string) dashboard.Fetcher {
		return dashboard.NewClient(baseURL)
	}
	runProgramFunc = func(m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}
)

func main() {
	_ = loadEnvFunc()
	if err := newRootCmd(loadConfigFunc()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	server   string
	coin     string
	days     string
	refresh  time.Duration
	logLevel string
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "dashboard",
		Short: "Crypto market dashboard in the terminal",
		Long: `Interactive market dashboard backed by the cryptodash API.
Shows the price history of the selected coin, the market cap share and
24h volume of the top 5 assets and the ranked market table.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(opts.logLevel, cmd.ErrOrStderr())
			if !domain.IsValidDays(opts.days) {
				return fmt.Errorf("invalid --days %q, allowed: %v", opts.days, domain.ValidDays)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := dashboard.Filter{Coin: opts.coin, Days: opts.days}
			poller := dashboard.NewPoller(newFetcherFunc(opts.server), filter, opts.refresh)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go poller.Run(ctx)

			return runProgramFunc(tui.NewAppModel(poller, filter, "", time.Local))
		},
	}

	root.PersistentFlags().StringVar(&opts.server, "server", cfg.DashboardAPIURL, "base URL of the cryptodash API")
	root.PersistentFlags().StringVar(&opts.coin, "coin", domain.DefaultCoin, "CoinGecko coin id")
	root.PersistentFlags().StringVar(&opts.days, "days", domain.DefaultDays, "history window (1, 7, 30, 90, 365)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().DurationVar(&opts.refresh, "refresh", time.Duration(cfg.DashboardRefreshSecs)*time.Second, "refresh interval, 0 disables")

	root.AddCommand(newSnapshotCmd(opts))
	root.AddCommand(newDetailCmd(opts))
	return root
}

func newSnapshotCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Run one fetch cycle and print the derived dashboard data",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := dashboard.Filter{Coin: opts.coin, Days: opts.days}
			state, err := runOnce(cmd.Context(), newFetcherFunc(opts.server), filter)
			if err != nil {
				return err
			}

			if asJSON {
				err = writeJSON(cmd.OutOrStdout(), state)
			} else {
				writeText(cmd.OutOrStdout(), state)
			}
			if err != nil {
				return err
			}
			if state.Market.Phase == dashboard.PhaseError && state.History.Phase == dashboard.PhaseError {
				return errors.New(state.Market.Err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func newDetailCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "detail [coin]",
		Short: "Print the current price and 30 day chart of a coin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coin := opts.coin
			if len(args) == 1 {
				coin = args[0]
			}

			detail, err := dashboard.FetchCoinDetail(cmd.Context(), newFetcherFunc(opts.server), coin, time.Local)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a := detail.Asset; a != nil {
				fmt.Fprintf(out, "%s (%s)  precio actual $%g  market cap $%.0f\n", a.Name, a.Symbol, a.CurrentPrice, a.MarketCap)
			} else {
				fmt.Fprintf(out, "%s: sin datos de mercado\n", coin)
			}
			for _, p := range detail.Points {
				fmt.Fprintf(out, "%-8s %.2f\n", p.Time, p.Price)
			}
			return nil
		},
	}
}

// runOnce drives a single poller cycle until both fetches resolve.
func runOnce(ctx context.Context, f dashboard.Fetcher, filter dashboard.Filter) (*dashboard.State, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	poller := dashboard.NewPoller(f, filter, 0)
	go poller.Run(ctx)

	state := dashboard.NewState(filter, time.Local)
	pending := 2
	for pending > 0 {
		select {
		case ev, ok := <-poller.Events():
			if !ok {
				return nil, errors.New("poller stopped before the cycle resolved")
			}
			if state.Apply(ev) && !ev.Started {
				pending--
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return state, nil
}

type snapshotJSON struct {
	Coin    string                 `json:"coin"`
	Days    string                 `json:"days"`
	Market  cycleJSON              `json:"market"`
	Top     []dashboard.TopCoin    `json:"top"`
	Slices  []dashboard.Slice      `json:"slices"`
	History cycleJSON              `json:"history"`
	Points  []dashboard.ChartPoint `json:"points"`
}

type cycleJSON struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w io.Writer, s *dashboard.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshotJSON{
		Coin:    s.Filter.Coin,
		Days:    s.Filter.Days,
		Market:  cycleJSON{State: s.Market.Phase.String(), Error: s.Market.Err},
		Top:     s.Market.Data.Top,
		Slices:  s.Market.Data.Slices,
		History: cycleJSON{State: s.History.Phase.String(), Error: s.History.Err},
		Points:  s.History.Data.Points,
	})
}

func writeText(w io.Writer, s *dashboard.State) {
	fmt.Fprintf(w, "Moneda: %s  Rango: %s días\n", s.Filter.Coin, s.Filter.Days)

	fmt.Fprintln(w, "\nTop 5 por Market Cap")
	switch {
	case s.Market.Phase == dashboard.PhaseError:
		fmt.Fprintf(w, "  Error al cargar datos: %s\n", s.Market.Err)
	case len(s.Market.Data.Top) == 0:
		fmt.Fprintln(w, "  No hay datos disponibles")
	default:
		for i, c := range s.Market.Data.Top {
			fmt.Fprintf(w, "  %-12s cap=%.0f  share=%s  vol=%.0f  media=%.0f\n",
				c.Name, c.MarketCap, s.Market.Data.Slices[i].Label(), c.Volume, c.RollingVolume)
		}
	}

	fmt.Fprintln(w, "\nPrecio Histórico")
	switch {
	case s.History.Phase == dashboard.PhaseError:
		fmt.Fprintf(w, "  Error: %s\n", s.History.Err)
	case len(s.History.Data.Points) == 0:
		fmt.Fprintln(w, "  No hay datos históricos disponibles")
	default:
		for _, p := range s.History.Data.Points {
			fmt.Fprintf(w, "  %-8s %.2f\n", p.Time, p.Price)
		}
	}
}
