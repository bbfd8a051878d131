package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logger used across the service.
type Logger = *logrus.Logger

// Fields represents structured logging fields.
type Fields = logrus.Fields

// New creates a JSON logger at the given level ("debug", "info",
// "warn", "error"; anything else falls back to info).
func New(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(parseLevel(level))
	return logger
}

// NewWithService creates a logger that tags every entry with a service
// name.
func NewWithService(service, level string) *logrus.Logger {
	logger := New(level)
	logger.AddHook(&serviceHook{service: service})
	return logger
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

type serviceHook struct {
	service string
}

func (h *serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *serviceHook) Fire(entry *logrus.Entry) error {
	entry.Data["service"] = h.service
	return nil
}
