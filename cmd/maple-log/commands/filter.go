package commands

import (
	"fmt"
	"time"

	"github.com/maplebus/maple-go/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command and
// the view command's flags.
type FilterOptions struct {
	BusID     string
	Device    string
	TimeStart string
	TimeEnd   string
	Layer     string
	Category  string
}

// BuildFilter converts string options into a log.Filter.
func BuildFilter(opts FilterOptions) (*log.Filter, error) {
	filter := &log.Filter{
		BusID:  opts.BusID,
		Device: opts.Device,
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return nil, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return nil, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}
	if opts.Layer != "" {
		l, err := ParseLayerFlag(opts.Layer)
		if err != nil {
			return nil, err
		}
		filter.Layer = &l
	}
	if opts.Category != "" {
		c, err := ParseCategoryFlag(opts.Category)
		if err != nil {
			return nil, err
		}
		filter.Category = &c
	}
	return filter, nil
}

// RunFilter filters the log file and writes matching events to a new
// file.
func RunFilter(path, output string, opts FilterOptions) error {
	filter, err := BuildFilter(opts)
	if err != nil {
		return err
	}

	reader, err := log.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	events, err := reader.ReadAll(filter)
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	for _, event := range events {
		logger.Log(event)
	}

	fmt.Printf("Filtered %d events to %s\n", len(events), output)
	return nil
}
