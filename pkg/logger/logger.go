// Package logger sets up structured logging. The TUI owns the terminal, so
// logs default to discard and go to a file when one is configured.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the root logger.
var Logger = zerolog.New(io.Discard)

// Component loggers.
var (
	Vault   zerolog.Logger
	RPC     zerolog.Logger
	Balance zerolog.Logger
	Tx      zerolog.Logger
	Watcher zerolog.Logger
	Server  zerolog.Logger
)

func init() {
	initComponents()
}

// Init points logging at a file. An empty path keeps logs discarded.
func Init(level, file string) error {
	if file == "" {
		Logger = zerolog.New(io.Discard)
		initComponents()
		return nil
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	Logger = zerolog.New(f).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
	initComponents()
	return nil
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func initComponents() {
	Vault = Logger.With().Str("component", "vault").Logger()
	RPC = Logger.With().Str("component", "rpc").Logger()
	Balance = Logger.With().Str("component", "balance").Logger()
	Tx = Logger.With().Str("component", "tx").Logger()
	Watcher = Logger.With().Str("component", "watcher").Logger()
	Server = Logger.With().Str("component", "server").Logger()
}
