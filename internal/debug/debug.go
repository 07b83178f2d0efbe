// Package debug holds the developer-facing logger. It is silent unless the
// PWM_DEBUG environment variable is set; its value names the level, and an
// unrecognized value selects debug. User-facing output never goes through it.
package debug

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide debug logger.
var Log = logrus.New()

func init() {
	Log.SetOutput(io.Discard)

	env := os.Getenv("PWM_DEBUG")
	if env == "" {
		return
	}

	level, err := logrus.ParseLevel(env)
	if err != nil {
		level = logrus.DebugLevel
	}

	Log.SetOutput(os.Stderr)
	Log.SetLevel(level)
	Log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
}

// Logf records a debug message.
func Logf(format string, args ...any) {
	Log.Debugf(format, args...)
}

// Errf records an error-level message with its cause attached.
func Errf(err error, format string, args ...any) {
	Log.WithError(err).Errorf(format, args...)
}
