package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the process logger. Production emits JSON lines; every other
// environment gets the human-readable console writer at debug level.
func New(environment string) zerolog.Logger {
	return newLogger(os.Stdout, environment)
}

func newLogger(out io.Writer, environment string) zerolog.Logger {
	var writer io.Writer = out
	if environment != "production" {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(writer).With().
		Timestamp().
		Str("service", "neighbor-api").
		Str("env", environment).
		Logger()

	if environment == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	return logger
}
