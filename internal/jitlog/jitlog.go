// Package jitlog wraps zerolog with the field conventions the compiler
// packages share: a component tag and the name of the method currently
// being compiled, attached consistently so log lines can be correlated
// across the driver, translator, and helper registry.
package jitlog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is a component-scoped zerolog.Logger.
type Logger = zerolog.Logger

var base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

// SetOutput redirects all future For() loggers to w, in plain JSON (no
// console formatting), for callers that want to capture log output.
func SetOutput(w io.Writer) {
	base = zerolog.New(w).With().Timestamp().Logger()
}

// SetLevel adjusts the global minimum log level.
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// For returns a Logger tagged with component and iseqName.
func For(component, iseqName string) Logger {
	return base.With().Str("component", component).Str("iseq_name", iseqName).Logger()
}
