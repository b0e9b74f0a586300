package util

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the global logger instance. Diagnostics go to stderr so that
// --test output on stdout stays a clean configuration.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.WarnLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// Configure applies the CLI logging flags: warnings only unless verbose,
// text unless jsonFormat.
func Configure(verbose, jsonFormat bool) {
	level := logrus.WarnLevel
	if verbose {
		level = logrus.DebugLevel
	}
	Logger.SetLevel(level)
	if jsonFormat {
		SetJSONFormat()
	}
}

// SetLogLevel sets the logging level
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetLogOutput sets the log output destination
func SetLogOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetJSONFormat enables JSON log format
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// WithField returns a logger with a field
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithDevice returns a logger with device context
func WithDevice(device string) *logrus.Entry {
	return Logger.WithField("device", device)
}

// WithASSet returns a logger scoped to one AS-SET resolution.
func WithASSet(asSet string) *logrus.Entry {
	return Logger.WithField("as_set", asSet)
}

// WithServer returns a logger with registry server context
func WithServer(server string) *logrus.Entry {
	return Logger.WithField("server", server)
}

// WithAttempt returns a logger for one alternative of a fallback chain:
// stage is "dialect" or "tool", label names the alternative, and server is
// the registry it ran against.
func WithAttempt(stage, label, server string) *logrus.Entry {
	return Logger.WithFields(logrus.Fields{
		"stage":   stage,
		"attempt": label,
		"server":  server,
	})
}

// Debugf logs a formatted debug message
func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

// Warnf logs a formatted warning message
func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}
