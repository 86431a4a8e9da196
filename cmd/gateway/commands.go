package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rajchodisetti/marketdata-gateway/internal/cache"
	"github.com/Rajchodisetti/marketdata-gateway/internal/jobs"
	"github.com/Rajchodisetti/marketdata-gateway/internal/market"
	"github.com/Rajchodisetti/marketdata-gateway/internal/server"
)

func serveCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.gw.Usage(ctx); err != nil {
				a.log.Warn().Err(err).Msg("Quota backend not answering at startup")
			}

			var sched *jobs.Scheduler
			if a.cfg.Jobs.Enabled {
				sched = jobs.New(a.log)
				if err := jobs.Register(sched, a.gw.Prices(), a.backend.store,
					a.cfg.Jobs.PriceSweep, a.cfg.Jobs.ExpiredPurge, a.log); err != nil {
					return fmt.Errorf("schedule jobs: %w", err)
				}
				sched.Start()
			}

			srv := server.New(server.Config{
				Port:        a.cfg.Server.Port,
				CORSOrigins: a.cfg.Server.CORSOrigins,
				Gateway:     a.gw,
				Log:         a.log,
			})
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err = <-errCh:
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				err = srv.Shutdown(shutdownCtx)
			}
			if sched != nil {
				sched.Stop()
			}
			return err
		},
	}
}

func fetchCmd(open opener) *cobra.Command {
	var (
		interval   string
		outputSize string
		ttlMinutes int
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "fetch <quote|overview|timeseries|news|income|balance|cashflow|earnings> [symbol...]",
		Short: "Fetch one data type through the gateway and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			kind, symbols := strings.ToLower(args[0]), args[1:]
			if kind != "news" && len(symbols) != 1 {
				return fmt.Errorf("%s takes exactly one symbol", kind)
			}

			var res any
			switch kind {
			case "quote":
				res, err = a.gw.GetQuote(ctx, symbols[0])
			case "overview":
				res, err = a.gw.GetOverview(ctx, symbols[0])
			case "timeseries":
				res, err = a.gw.GetTimeSeries(ctx, symbols[0], market.Interval(interval),
					market.OutputSize(outputSize), time.Duration(ttlMinutes)*time.Minute)
			case "news":
				f := market.DefaultNewsFilters()
				f.Tickers = symbols
				f.Limit = limit
				res, err = a.gw.GetNews(ctx, f)
			default:
				st, perr := market.ParseStatement(kind)
				if perr != nil {
					return perr
				}
				res, err = a.gw.GetFinancials(ctx, symbols[0], st)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&interval, "interval", "daily", "series interval (intraday, daily, weekly, monthly)")
	cmd.Flags().StringVar(&outputSize, "outputsize", "compact", "series size (compact, full)")
	cmd.Flags().IntVar(&ttlMinutes, "ttl-minutes", 0, "series cache TTL override, clamped to 60..1440")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "news articles to print")
	return cmd
}

func usageCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show today's upstream call budget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.gw.Usage(cmd.Context())
			if err != nil {
				return fmt.Errorf("read usage: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Date:      %s (UTC)\n", u.Date)
			fmt.Fprintf(out, "Used:      %d / %d\n", u.Used, u.Limit)
			fmt.Fprintf(out, "Remaining: %d\n", u.Remaining)
			fmt.Fprintf(out, "Resets at: %s\n", u.ResetAt.Format(time.RFC3339))
			return nil
		},
	}
}

func sweepCmd(open opener) *cobra.Command {
	var symbol, dataType string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Purge expired cache entries, or clear one symbol with --symbol",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			out := cmd.OutOrStdout()

			if symbol != "" {
				var dt market.DataType
				if dataType != "" {
					if dt, err = market.ParseDataType(dataType); err != nil {
						return err
					}
				}
				n, err := a.gw.Clear(ctx, symbol, dt)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d entries for %s\n", n, strings.ToUpper(symbol))
				return nil
			}

			sw, ok := a.backend.store.(cache.Sweeper)
			if !ok {
				fmt.Fprintf(out, "Store %q expires entries natively; nothing to purge\n", a.cfg.Store.Backend)
				return nil
			}
			if err := a.runPurge(sw); err != nil {
				return err
			}
			fmt.Fprintln(out, "Expired entries purged")
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "clear cached entries of this symbol")
	cmd.Flags().StringVar(&dataType, "data-type", "", "with --symbol, clear only this data type")
	return cmd
}

func (a *app) runPurge(sw cache.Sweeper) error {
	return jobs.New(a.log).RunNow(jobs.ExpiredPurge{Store: sw, Log: a.log})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
