// Package obs wires the pipeline's Logger and Metrics seams to real
// observability backends: zerolog for structured logging and OpenTelemetry
// for metrics, adapted from manifold's internal/observability (InitLogger)
// and internal/rag/obs (OtelMetrics/MockMetrics).
package obs

import (
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger, matching manifold's
// observability.InitLogger: RFC3339Nano timestamps, an optional append-mode
// log file (falling back to stdout on open failure), and the standard
// library logger redirected so nothing bypasses structured logging.
func InitLogger(logPath string, level string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	var w io.Writer = os.Stdout
	if logPath != "" {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			w = f
		} else {
			stdlog.Printf("obs: failed to open log file %q: %v", logPath, err)
		}
	}
	log.Logger = log.Output(w).With().Timestamp().Logger()

	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	lvl := zerolog.InfoLevel
	if level != "" {
		if l, err := zerolog.ParseLevel(level); err == nil {
			lvl = l
		}
	}
	zerolog.SetGlobalLevel(lvl)
	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
}

// ZerologLogger adapts the global zerolog logger to the pipeline.Logger
// interface (Info/Error/Debug with a field map), the same shape manifold's
// obs.JSONLogger gives internal/rag/service.Logger.
type ZerologLogger struct{}

func (ZerologLogger) Info(msg string, fields map[string]any)  { emit(log.Info(), msg, fields) }
func (ZerologLogger) Error(msg string, fields map[string]any) { emit(log.Error(), msg, fields) }
func (ZerologLogger) Debug(msg string, fields map[string]any) { emit(log.Debug(), msg, fields) }

func emit(ev *zerolog.Event, msg string, fields map[string]any) {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}
