package ui

import (
	"context"
	"log/slog"
)

// EventMessage is the log message every event record carries.
const EventMessage = "ferry.event"

// EventAttrs flattens ev into log attributes. Empty fields are left out;
// type and size are always present.
func EventAttrs(ev Event) []slog.Attr {
	attrs := []slog.Attr{slog.String("type", ev.Type.String())}
	if ev.Pattern != "" {
		attrs = append(attrs, slog.String("pattern", ev.Pattern))
	}
	if ev.Path != "" {
		attrs = append(attrs, slog.String("path", ev.Path))
	}
	if ev.Dest != "" {
		attrs = append(attrs, slog.String("dest", ev.Dest))
	}
	if ev.Reason != "" {
		attrs = append(attrs, slog.String("reason", ev.Reason))
	}
	attrs = append(attrs, slog.Int64("size", ev.Size))
	if ev.Total > 0 {
		attrs = append(attrs, slog.Int64("total", ev.Total))
	}
	if ev.Error != nil {
		attrs = append(attrs, slog.String("error", ev.Error.Error()))
	}
	return attrs
}

// LogEvent writes ev to logger as one info record.
func LogEvent(ctx context.Context, logger *slog.Logger, ev Event) {
	logger.LogAttrs(ctx, slog.LevelInfo, EventMessage, EventAttrs(ev)...)
}
