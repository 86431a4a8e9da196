package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajchodisetti/marketdata-gateway/internal/cache"
	"github.com/Rajchodisetti/marketdata-gateway/internal/config"
)

func writeConfig(t *testing.T, backend, dsn string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	body := "log:\n  level: error\n" +
		"store:\n  backend: " + backend + "\n  dsn: \"" + dsn + "\"\n" +
		"upstream:\n  provider: mock\n" +
		"throttle:\n  min_interval_ms: 1\n" +
		"quota:\n  daily_limit: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestOpenBackendMemoryAndSQLite(t *testing.T) {
	ctx := context.Background()

	b, err := openBackend(ctx, config.Store{Backend: "memory"}, 5, zerolog.Nop())
	require.NoError(t, err)
	_, isMem := b.store.(*cache.Memory)
	assert.True(t, isMem)
	require.NoError(t, b.close())

	// sqlite.Open creates missing parent directories
	dsn := filepath.Join(t.TempDir(), "nested", "gateway.db")
	b, err = openBackend(ctx, config.Store{Backend: "sqlite", DSN: dsn}, 5, zerolog.Nop())
	require.NoError(t, err)
	ok, err := b.quota.TryConsume(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, b.close())
	assert.FileExists(t, dsn)
}

func TestOpenBackendUnknown(t *testing.T) {
	_, err := openBackend(context.Background(), config.Store{Backend: "mongo"}, 5, zerolog.Nop())
	assert.ErrorContains(t, err, "mongo")
}

func TestFetchQuoteCommand(t *testing.T) {
	cfg := writeConfig(t, "sqlite", filepath.Join(t.TempDir(), "g.db"))

	out, err := run(t, "--config", cfg, "fetch", "quote", "aapl")
	require.NoError(t, err)

	var res struct {
		Source string `json:"source"`
		Data   struct {
			Symbol string `json:"symbol"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "alpha_vantage", res.Source)
	assert.Equal(t, "AAPL", res.Data.Symbol)

	out, err = run(t, "--config", cfg, "usage")
	require.NoError(t, err)
	assert.Contains(t, out, "Used:      1 / 3")
}

func TestFetchRejectsBadArgs(t *testing.T) {
	cfg := writeConfig(t, "memory", "")

	_, err := run(t, "--config", cfg, "fetch", "quote")
	assert.Error(t, err)

	_, err = run(t, "--config", cfg, "fetch", "dividends", "AAPL")
	assert.Error(t, err)

	_, err = run(t, "--config", cfg, "fetch", "timeseries", "AAPL", "--interval", "hourly")
	assert.Error(t, err)
}

func TestSweepCommands(t *testing.T) {
	cfg := writeConfig(t, "sqlite", filepath.Join(t.TempDir(), "g.db"))

	_, err := run(t, "--config", cfg, "fetch", "overview", "MSFT")
	require.NoError(t, err)

	out, err := run(t, "--config", cfg, "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "Expired entries purged")

	out, err = run(t, "--config", cfg, "sweep", "--symbol", "msft", "--data-type", "overview")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 1 entries for MSFT")

	_, err = run(t, "--config", cfg, "sweep", "--symbol", "MSFT", "--data-type", "nope")
	assert.Error(t, err)
}
