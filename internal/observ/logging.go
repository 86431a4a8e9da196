package observ

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Pretty bool   // console output instead of JSON lines
}

var (
	logMu   sync.RWMutex
	eventLg = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// NewLogger creates the process logger and makes it the sink for Log events.
func NewLogger(cfg LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stdout
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	lg := zerolog.New(out).Level(level).With().Timestamp().Logger()
	SetLogger(lg)
	return lg
}

// SetLogger replaces the sink used by Log. Tests pass zerolog.Nop().
func SetLogger(lg zerolog.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	eventLg = lg
}

// Log writes one structured event line.
func Log(event string, kv map[string]any) {
	logMu.RLock()
	lg := eventLg
	logMu.RUnlock()
	lg.Info().Str("event", event).Fields(kv).Send()
}
