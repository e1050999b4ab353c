// Package commands implements the maple-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/maplebus/maple-go/pkg/log"
)

// ParseLayerFlag parses a layer string from a command-line flag
// (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "bus":
		return log.LayerBus, nil
	case "wire":
		return log.LayerWire, nil
	case "driver":
		return log.LayerDriver, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be bus, wire, or driver)", s)
	}
}

// ParseCategoryFlag parses a category string from a command-line flag
// (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "poll":
		return log.CategoryPoll, nil
	case "reply":
		return log.CategoryReply, nil
	case "dispatch":
		return log.CategoryDispatch, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be poll, reply, dispatch, state, or error)", s)
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	device := event.Device
	if device == "" {
		device = "-"
	}

	var typeLabel string
	switch {
	case event.Poll != nil:
		typeLabel = "Poll"
	case event.Reply != nil:
		typeLabel = "Reply"
	case event.Dispatch != nil:
		typeLabel = "Dispatch"
	case event.State != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [bus:%s] %-6s %-4s %s\n", ts, shortenBusID(event.BusID), event.Layer, device, typeLabel)

	switch {
	case event.Poll != nil:
		formatPollDetails(w, event.Poll)
	case event.Reply != nil:
		formatReplyDetails(w, event.Reply)
	case event.Dispatch != nil:
		formatDispatchDetails(w, event.Dispatch)
	case event.State != nil:
		formatStateChangeDetails(w, event.State)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenBusID returns the first 8 characters of the bus ID.
func shortenBusID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatPollDetails(w io.Writer, poll *log.PollEvent) {
	if poll.Submitted {
		fmt.Fprintln(w, "  Submitted")
		return
	}
	fmt.Fprintf(w, "  Skipped: %s\n", poll.SkipReason)
}

func formatReplyDetails(w io.Writer, rep *log.ReplyEvent) {
	fmt.Fprintf(w, "  Response: %s (%d bytes)\n", rep.Response, rep.PayloadSize)
	if rep.DropReason != "" {
		fmt.Fprintf(w, "  Dropped: %s\n", rep.DropReason)
	}
}

func formatDispatchDetails(w io.Writer, d *log.DispatchEvent) {
	if d.Skipped {
		fmt.Fprintf(w, "  Buttons: 0x%04x (cycle skipped, registry busy)\n", d.Buttons)
		return
	}
	fmt.Fprintf(w, "  Buttons: 0x%04x  Matched: %d\n", d.Buttons, d.Matched)
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity)
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, e *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", e.Message)
	if e.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", e.Context)
	}
}

// RunView executes the view command.
func RunView(path string, filter *log.Filter, output io.Writer) error {
	reader, err := log.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	events, err := reader.ReadAll(filter)
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}
	for _, event := range events {
		formatEvent(output, event)
	}
	return nil
}
