package obs

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogOptions controls the shared logger.
type LogOptions struct {
	// Level is one of trace, debug, info, warn, error. Defaults to info.
	Level string
	// Pretty switches to coloured console output instead of JSON.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

var (
	loggerMu sync.RWMutex
	logger   *zerolog.Logger
)

// InitLogger (re)builds the shared logger from opts.
func InitLogger(opts LogOptions) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(out).Level(parseLevel(opts.Level)).With().Timestamp().Logger()

	loggerMu.Lock()
	logger = &l
	loggerMu.Unlock()
	return &l
}

// Logger returns the shared structured logger used across the service. It
// falls back to info-level JSON on stdout when InitLogger was never called.
func Logger() *zerolog.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}
	return InitLogger(LogOptions{})
}

// SetOutput redirects the shared logger to w at debug level. Tests use it to
// capture log lines.
func SetOutput(w io.Writer) {
	InitLogger(LogOptions{Level: "debug", Output: w})
}

// LogRequest emits the access log line for one HTTP request.
func LogRequest(entry map[string]any) {
	Logger().Info().Fields(entry).Msg("request_complete")
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
