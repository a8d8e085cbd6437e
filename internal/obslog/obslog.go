// Package obslog is the structured logging façade every component logs
// through. It wraps logrus instead of hand-rolling level/color/prefix
// handling (compare the teacher's internal/logger, which rolled its own
// LogLevel enum and ANSI color table): logrus already has leveled logging,
// WithField/WithFields chaining, and output formatting, so this package is
// mostly a thin naming layer plus the verbose-count-to-level mapping
// specific to babbler's CLI.
package obslog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the type every component constructor accepts. It is always
// passed explicitly; there is no package-level default, mirroring the
// "avoid true globals" guidance that already governs the cancel handle.
type Logger = logrus.FieldLogger

// New builds a Logger writing to out at the given verbosity. verbosity is
// the repeat count of -v (0-4): 0 maps to Warn, each further repeat steps
// down to Info, Debug, and Trace.
func New(out io.Writer, verbosity int) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(levelForVerbosity(verbosity))
	return l
}

func levelForVerbosity(v int) logrus.Level {
	switch {
	case v <= 0:
		return logrus.WarnLevel
	case v == 1:
		return logrus.InfoLevel
	case v == 2:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// WithConn returns a Logger tagged with a connection's descriptor and
// client id, the two labels every per-connection log line carries.
func WithConn(base Logger, descriptor string, clientID uint) Logger {
	return base.WithFields(logrus.Fields{
		"conn":      descriptor,
		"client_id": clientID,
	})
}
