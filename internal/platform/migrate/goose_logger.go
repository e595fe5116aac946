package migrate

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// gooseSlogLogger adapts goose's Printf-style logger onto slog so migration
// progress lands in the application log alongside everything else.
type gooseSlogLogger struct {
	logger *slog.Logger
}

func newGooseLogger(logger *slog.Logger) gooseSlogLogger {
	return gooseSlogLogger{logger: logger}
}

func (l gooseSlogLogger) Printf(format string, v ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Info("goose: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf is only invoked by goose for unrecoverable states, so it ends the
// process after recording the failure.
func (l gooseSlogLogger) Fatalf(format string, v ...any) {
	if l.logger != nil {
		l.logger.Error("goose: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
	}
	os.Exit(1)
}
