// Command stubs serves a fake Alpha Vantage /query endpoint from fixtures
// for local runs of the gateway.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rajchodisetti/marketdata-gateway/internal/observ"
	"github.com/Rajchodisetti/marketdata-gateway/internal/stubs"
)

func main() {
	var (
		port     int
		fixtures string
		apiKey   string
		pretty   bool
	)

	cmd := &cobra.Command{
		Use:   "stubs",
		Short: "Fake Alpha Vantage server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := observ.NewLogger(observ.LogConfig{Level: "debug", Pretty: pretty})

			fx := stubs.DefaultFixtures()
			if fixtures != "" {
				loaded, err := stubs.LoadFixtures(fixtures)
				if err != nil {
					return fmt.Errorf("load fixtures: %w", err)
				}
				fx = loaded
			}

			stub := stubs.NewAlphaVantage(fx, apiKey, log)
			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           stub.Router(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			log.Info().
				Int("port", port).
				Int("symbols", len(fx.Quotes)).
				Msgf("Point the gateway at http://localhost:%d/query", port)
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8081, "listen port")
	cmd.Flags().StringVarP(&fixtures, "fixtures", "f", "", "fixtures JSON file (built-in set when empty)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "required apikey value (any key when empty)")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "console log output")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
