// Package obs holds the shared observability plumbing: the zerolog logger and
// Prometheus HTTP metrics.
package obs

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	loggerMu sync.RWMutex
	logger   = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Init configures the global logger level. Unknown levels fall back to info.
func Init(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	loggerMu.Lock()
	logger = logger.Level(lvl)
	loggerMu.Unlock()
}

// Logger returns the shared structured logger used across the service.
func Logger() *zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	l := logger
	return &l
}

// SetOutput redirects log output. Intended for tests.
func SetOutput(w io.Writer) {
	loggerMu.Lock()
	logger = zerolog.New(w).With().Timestamp().Logger()
	loggerMu.Unlock()
}
