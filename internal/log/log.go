// Package log configures the process-wide logrus logger and hands out
// component-scoped entries to the rest of the player.
package log

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config captures the options for the global logger.
type Config struct {
	Level  string    // "trace" .. "panic"; defaults to info
	JSON   bool      // emit JSON lines instead of text
	Output io.Writer // defaults to os.Stderr
}

var (
	mu   sync.RWMutex
	base = newLogger(Config{})
)

func newLogger(cfg Config) *logrus.Logger {
	l := logrus.New()

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	if cfg.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return l
}

// Setup replaces the global logger. Entries obtained earlier keep
// writing to the logger they were created from.
func Setup(cfg Config) {
	l := newLogger(cfg)
	mu.Lock()
	base = l
	mu.Unlock()
}

// Base returns the configured logger.
func Base() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// For returns an entry annotated with the given component name.
func For(component string) *logrus.Entry {
	return Base().WithField("component", component)
}

// Discard returns an entry that drops everything. Used by tests and by
// callers that did not supply a logger.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
