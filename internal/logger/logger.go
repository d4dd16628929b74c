// Package logger provides the process wide sugared zap logger. Logs are JSON
// lines written to a file so they never interleave with the terminal UI.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger  = zap.NewNop().Sugar()
	mu      sync.RWMutex
	logFile *os.File
	ready   bool
)

type config struct {
	level string
	path  string
}

// Option configures the logger before initialization
type Option func(*config)

// WithLevel sets the minimum level (debug, info, warn, error)
func WithLevel(l string) Option {
	return func(c *config) {
		c.level = l
	}
}

// WithFile writes logs to path, creating parent directories. Without it
// logging is discarded.
func WithFile(path string) Option {
	return func(c *config) {
		c.path = path
	}
}

// Init configures the global logger. Only the first successful call has an
// effect; a call that fails leaves the logger unset so a later call can retry.
func Init(opts ...Option) error {
	cfg := config{level: "info"}
	for _, opt := range opts {
		opt(&cfg)
	}

	level, err := zapcore.ParseLevel(cfg.level)
	if err != nil {
		return err
	}

	if cfg.path == "" {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()
	if ready {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.path), 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(f),
		level,
	)
	logger = zap.New(core).Sugar()
	logFile = f
	ready = true
	return nil
}

// L returns the global logger. It is a no-op logger until Init succeeds.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Named returns a child of the global logger for one component
func Named(name string) *zap.SugaredLogger {
	return L().Named(name)
}

// Sync flushes buffered entries and closes the log file
func Sync() error {
	mu.Lock()
	defer mu.Unlock()

	err := logger.Sync()
	if logFile != nil {
		if cerr := logFile.Close(); cerr != nil && err == nil {
			err = cerr
		}
		logFile = nil
		logger = zap.NewNop().Sugar()
	}
	return err
}
