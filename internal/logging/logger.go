package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger   *slog.Logger
	loggerMu sync.RWMutex
	isInited bool
)

// ErrAlreadyInitialized is returned by Init when the logger is already set up.
var ErrAlreadyInitialized = errors.New("logger already initialized; call Reset first to reinitialize")

// LogLevel represents logging verbosity.
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// ParseLevel parses a level name case-insensitively. The empty string is INFO.
func ParseLevel(s string) (LogLevel, error) {
	switch l := LogLevel(strings.ToUpper(s)); l {
	case "":
		return LevelInfo, nil
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return l, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config holds logger configuration.
type Config struct {
	Level  LogLevel
	Format string    // "json" or "text"
	Output io.Writer // nil for stderr
}

// New builds a logger from config without touching the global one.
func New(config Config) *slog.Logger {
	w := config.Output
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: config.Level.slogLevel()}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Init initializes the global logger with the given configuration.
// Subsequent calls return ErrAlreadyInitialized until Reset is called.
func Init(config Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if isInited {
		return ErrAlreadyInitialized
	}
	logger = New(config)
	isInited = true
	return nil
}

// Reset drops the global logger so Init can be called again.
func Reset() {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	logger = nil
	isInited = false
}

// GetLogger returns the global logger, initializing it with defaults on first
// use.
func GetLogger() *slog.Logger {
	loggerMu.RLock()
	if isInited {
		l := logger
		loggerMu.RUnlock()
		return l
	}
	loggerMu.RUnlock()

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if !isInited {
		logger = New(Config{Level: LevelInfo})
		isInited = true
	}
	return logger
}
