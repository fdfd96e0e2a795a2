package brevo

import (
	"fmt"
	"log/slog"
)

// restyLogger routes resty's internal messages through slog so they pass
// the same handlers, redaction included, as the rest of the service.
type restyLogger struct {
	log *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...), "provider", providerName)
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.log.Warn(fmt.Sprintf(format, v...), "provider", providerName)
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.log.Debug(fmt.Sprintf(format, v...), "provider", providerName)
}
