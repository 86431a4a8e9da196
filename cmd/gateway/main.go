// Command gateway serves and maintains the market data cache gateway.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Rajchodisetti/marketdata-gateway/internal/config"
	"github.com/Rajchodisetti/marketdata-gateway/internal/observ"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "gateway",
		Short:         "Shared cache gateway in front of Alpha Vantage",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config/gateway.yaml", "config file")

	load := func() (config.Root, zerolog.Logger, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return cfg, zerolog.Nop(), fmt.Errorf("load config: %w", err)
		}
		observ.SetVersion(Version)
		log := observ.NewLogger(observ.LogConfig{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
		return cfg, log, nil
	}
	open := func(ctx context.Context) (*app, error) {
		cfg, log, err := load()
		if err != nil {
			return nil, err
		}
		return buildApp(ctx, cfg, log)
	}

	root.AddCommand(serveCmd(open))
	root.AddCommand(fetchCmd(open))
	root.AddCommand(usageCmd(open))
	root.AddCommand(sweepCmd(open))
	return root
}

type opener func(ctx context.Context) (*app, error)
