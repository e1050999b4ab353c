package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/maplebus/maple-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByLayer    map[log.Layer]int
	EventsByCategory map[log.Category]int
	Devices          map[string]*DeviceStats
	PollsSubmitted   int
	PollsSkipped     int
	RepliesDropped   int
	DispatchCycles   int
	DispatchSkipped  int
	WatchersMatched  int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// DeviceStats holds statistics for a single device address.
type DeviceStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Polls     int
	Drops     int
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:    make(map[log.Layer]int),
		EventsByCategory: make(map[log.Category]int),
		Devices:          make(map[string]*DeviceStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.Device != "" {
			dev, ok := stats.Devices[event.Device]
			if !ok {
				dev = &DeviceStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
				stats.Devices[event.Device] = dev
			}
			dev.Events++
			if event.Timestamp.After(dev.LastSeen) {
				dev.LastSeen = event.Timestamp
			}
			if event.Poll != nil {
				dev.Polls++
			}
			if event.Reply != nil && event.Reply.DropReason != "" {
				dev.Drops++
			}
		}

		switch {
		case event.Poll != nil:
			if event.Poll.Submitted {
				stats.PollsSubmitted++
			} else {
				stats.PollsSkipped++
			}
		case event.Reply != nil:
			if event.Reply.DropReason != "" {
				stats.RepliesDropped++
			}
		case event.Dispatch != nil:
			stats.DispatchCycles++
			stats.WatchersMatched += event.Dispatch.Matched
			if event.Dispatch.Skipped {
				stats.DispatchSkipped++
			}
		case event.Error != nil:
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Maple Bus Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerBus, log.LayerWire, log.LayerDriver} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryPoll, log.CategoryReply, log.CategoryDispatch, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Poll Cycle:")
	fmt.Fprintf(w, "  Submitted:  %d\n", stats.PollsSubmitted)
	fmt.Fprintf(w, "  Skipped:    %d\n", stats.PollsSkipped)
	fmt.Fprintf(w, "  Dropped:    %d\n", stats.RepliesDropped)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Dispatch:")
	fmt.Fprintf(w, "  Cycles:     %d\n", stats.DispatchCycles)
	fmt.Fprintf(w, "  Matched:    %d\n", stats.WatchersMatched)
	fmt.Fprintf(w, "  Contended:  %d\n", stats.DispatchSkipped)

	if len(stats.Devices) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Devices: %d\n", len(stats.Devices))

		addrs := make([]string, 0, len(stats.Devices))
		for addr := range stats.Devices {
			addrs = append(addrs, addr)
		}
		sort.Strings(addrs)

		for _, addr := range addrs {
			dev := stats.Devices[addr]
			duration := dev.LastSeen.Sub(dev.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, %d polls, %d drops, active %s\n",
				addr, dev.Events, dev.Polls, dev.Drops, duration)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
