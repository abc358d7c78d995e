package logging

import (
	"log/slog"
	"time"
)

// TraceEntry is one recorded simulator call.
type TraceEntry struct {
	SendID  uint32
	Comment string
	At      time.Time
	Object  string
}

// DumpTraces writes the calls leading up to an exception, oldest first, as
// one record each plus a header record.
func DumpTraces(logger *slog.Logger, reason string, entries []TraceEntry) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Send id trace", "reason", reason, "entries", len(entries))
	for _, e := range entries {
		logger.Info("trace",
			"send_id", e.SendID,
			"at", e.At.Format(time.RFC3339Nano),
			"call", e.Comment,
			"object", e.Object,
		)
	}
}
