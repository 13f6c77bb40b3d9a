// Copyright (c) 2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package build

import (
	"os"

	"github.com/btcsuite/btclog"
)

// LogType is an indicating the type of logging specified by the build flag.
type LogType byte

const (
	// LogTypeNone indicates no logging.
	LogTypeNone LogType = iota

	// LogTypeStdOut all logging is written directly to stdout.
	LogTypeStdOut

	// LogTypeDefault logs to both stdout and a given io.PipeWriter.
	LogTypeDefault
)

// String returns a human readable identifier for the logging type.
func (t LogType) String() string {
	switch t {
	case LogTypeNone:
		return "none"
	case LogTypeStdOut:
		return "stdout"
	case LogTypeDefault:
		return "default"
	default:
		return "unknown"
	}
}

// NewSubLogger constructs a new subsystem logger from the current LogWriter
// implementation. The genSubLogger function is provided by the daemon so that
// all subsystems share the daemon's log backend; when it is nil, the
// development defaults below apply.
func NewSubLogger(subsystem string,
	genSubLogger func(string) btclog.Logger) btclog.Logger {

	// Default logging is used when running the standalone daemon. The
	// optional sublogger constructor routes the subsystem to the primary
	// log backend.
	if LoggingType == LogTypeDefault && genSubLogger != nil {
		return genSubLogger(subsystem)
	}

	// Logging to stdout is used in unit tests. It is not important that
	// subsystems share the same backend, since all output is written to
	// stdout anyway.
	if LoggingType == LogTypeStdOut {
		backend := btclog.NewBackend(os.Stdout)
		logger := backend.Logger(subsystem)

		// Use the default logging level specified by build flags.
		level, _ := btclog.LevelFromString(LogLevel)
		logger.SetLevel(level)

		return logger
	}

	// For any other configuration, logging is disabled.
	return btclog.Disabled
}
