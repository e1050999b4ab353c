package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes diagnostic events to an slog.Logger.
// Useful for development when you want to see bus events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("bus_id", event.BusID),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.Device != "" {
		attrs = append(attrs, slog.String("device", event.Device))
	}

	// Add type-specific attributes
	switch {
	case event.Poll != nil:
		attrs = append(attrs, slog.Bool("submitted", event.Poll.Submitted))
		if event.Poll.SkipReason != "" {
			attrs = append(attrs, slog.String("skip_reason", event.Poll.SkipReason))
		}
	case event.Reply != nil:
		attrs = append(attrs,
			slog.String("response", event.Reply.Response),
			slog.Int("payload_size", event.Reply.PayloadSize),
		)
		if event.Reply.DropReason != "" {
			attrs = append(attrs, slog.String("drop_reason", event.Reply.DropReason))
		}
	case event.Dispatch != nil:
		attrs = append(attrs,
			slog.Uint64("buttons", uint64(event.Dispatch.Buttons)),
			slog.Int("matched", event.Dispatch.Matched),
			slog.Bool("skipped", event.Dispatch.Skipped),
		)
	case event.State != nil:
		attrs = append(attrs,
			slog.String("entity", event.State.Entity.String()),
			slog.String("new_state", event.State.NewState),
		)
		if event.State.OldState != "" {
			attrs = append(attrs, slog.String("old_state", event.State.OldState))
		}
		if event.State.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.State.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs, slog.String("error", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "bus event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
