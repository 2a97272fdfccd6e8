package appcmd

import (
	"os"

	"github.com/rs/zerolog"
)

// DefaultLogger logs to stderr in a human readable format, used by NewStandardSystem
func DefaultLogger() zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(w).With().Timestamp().Logger()
}
