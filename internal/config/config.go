package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type Store struct {
	Backend       string `yaml:"backend"` // memory | sqlite | postgres | redis
	DSN           string `yaml:"dsn"`     // sqlite path or postgres URL
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	KeyPrefix     string `yaml:"key_prefix"`
}

type Quota struct {
	DailyLimit int `yaml:"daily_limit"`
}

type Throttle struct {
	MinIntervalMs int `yaml:"min_interval_ms"`
	PerMinute     int `yaml:"per_minute"` // 0 disables the per-minute ceiling
}

type Upstream struct {
	Provider       string `yaml:"provider"` // alphavantage | mock
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	APIKey         string `yaml:"-"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type Fetch struct {
	MaxAttempts      int  `yaml:"max_attempts"`
	RetryDelayMs     int  `yaml:"retry_delay_ms"`
	TimeoutSeconds   int  `yaml:"timeout_seconds"`
	CoalesceInFlight bool `yaml:"coalesce_in_flight"`
}

type Cache struct {
	TimeSeriesTTLMinutes int `yaml:"timeseries_ttl_minutes"`
	NewsTTLMinutes       int `yaml:"news_ttl_minutes"`
	PriceTTLSeconds      int `yaml:"price_ttl_seconds"`
}

type Jobs struct {
	Enabled      bool   `yaml:"enabled"`
	PriceSweep   string `yaml:"price_sweep"`
	ExpiredPurge string `yaml:"expired_purge"`
}

type Root struct {
	Server   Server   `yaml:"server"`
	Log      Log      `yaml:"log"`
	Store    Store    `yaml:"store"`
	Quota    Quota    `yaml:"quota"`
	Throttle Throttle `yaml:"throttle"`
	Upstream Upstream `yaml:"upstream"`
	Fetch    Fetch    `yaml:"fetch"`
	Cache    Cache    `yaml:"cache"`
	Jobs     Jobs     `yaml:"jobs"`
}

// Load reads the YAML file at path (a missing file yields defaults), applies
// .env and environment overrides, then fills defaults.
func Load(path string) (Root, error) {
	var c Root
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return c, err
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return c, err
			}
		}
	}

	// .env is optional
	_ = godotenv.Load()

	applyEnv(&c)
	applyDefaults(&c)
	return c, nil
}

// Default returns a configuration with every default filled and no file.
func Default() Root {
	var c Root
	applyDefaults(&c)
	return c
}

func applyEnv(c *Root) {
	if v := os.Getenv("GATEWAY_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("GATEWAY_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Store.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Store.RedisPassword = v
	}
	if v := getEnvInt("GATEWAY_PORT"); v > 0 {
		c.Server.Port = v
	}
	if v := getEnvInt("GATEWAY_DAILY_LIMIT"); v > 0 {
		c.Quota.DailyLimit = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("QUOTES"); v != "" {
		c.Upstream.Provider = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = strings.Split(v, ",")
	}
}

func applyDefaults(c *Root) {
	if c.Server.Port == 0 {
		c.Server.Port = 8090
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Store.Backend == "" {
		c.Store.Backend = "sqlite"
	}
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	if c.Store.DSN == "" && c.Store.Backend == "sqlite" {
		c.Store.DSN = "data/gateway.db"
	}
	if c.Store.RedisAddr == "" {
		c.Store.RedisAddr = "localhost:6379"
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "mdg"
	}

	if c.Quota.DailyLimit == 0 {
		c.Quota.DailyLimit = 25 // Alpha Vantage free tier
	}

	if c.Throttle.MinIntervalMs == 0 {
		c.Throttle.MinIntervalMs = 1500
	}

	if c.Upstream.Provider == "" {
		c.Upstream.Provider = "alphavantage"
	}
	c.Upstream.Provider = strings.ToLower(strings.TrimSpace(c.Upstream.Provider))
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = "https://www.alphavantage.co/query"
	}
	if c.Upstream.APIKeyEnv == "" {
		c.Upstream.APIKeyEnv = "ALPHA_VANTAGE_API_KEY"
	}
	if c.Upstream.APIKey == "" {
		c.Upstream.APIKey = os.Getenv(c.Upstream.APIKeyEnv)
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 10
	}

	if c.Fetch.MaxAttempts == 0 {
		c.Fetch.MaxAttempts = 2
	}
	if c.Fetch.RetryDelayMs == 0 {
		c.Fetch.RetryDelayMs = 600
	}
	if c.Fetch.TimeoutSeconds == 0 {
		c.Fetch.TimeoutSeconds = 20
	}

	if c.Cache.TimeSeriesTTLMinutes == 0 {
		c.Cache.TimeSeriesTTLMinutes = 60
	}
	if c.Cache.NewsTTLMinutes == 0 {
		c.Cache.NewsTTLMinutes = 60
	}
	if c.Cache.PriceTTLSeconds == 0 {
		c.Cache.PriceTTLSeconds = 300
	}

	if c.Jobs.PriceSweep == "" {
		c.Jobs.PriceSweep = "@every 1m"
	}
	if c.Jobs.ExpiredPurge == "" {
		c.Jobs.ExpiredPurge = "0 */15 * * * *"
	}
}

func getEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// Durations derived from the integer settings.

func (t Throttle) MinInterval() time.Duration {
	return time.Duration(t.MinIntervalMs) * time.Millisecond
}

func (f Fetch) RetryDelay() time.Duration {
	return time.Duration(f.RetryDelayMs) * time.Millisecond
}

func (f Fetch) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

func (u Upstream) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

func (c Cache) TimeSeriesTTL() time.Duration {
	return time.Duration(c.TimeSeriesTTLMinutes) * time.Minute
}

func (c Cache) NewsTTL() time.Duration {
	return time.Duration(c.NewsTTLMinutes) * time.Minute
}

func (c Cache) PriceTTL() time.Duration {
	return time.Duration(c.PriceTTLSeconds) * time.Second
}
