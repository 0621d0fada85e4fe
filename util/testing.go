package util

import (
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func IsTest() bool {
	return flag.Lookup("test.v") != nil
}

// ConfigureTestLogger keeps test output quiet unless LOG_LEVEL asks otherwise.
func ConfigureTestLogger() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.TimeFormat = "04:05.000ms"
	})).With().Timestamp().Logger()
}

// TestLogger returns a logger that follows the global level set by ConfigureTestLogger.
func TestLogger() *zerolog.Logger {
	lg := log.Logger.With().Str("scope", "test").Logger()
	return &lg
}
