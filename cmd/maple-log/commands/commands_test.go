package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/maplebus/maple-go/pkg/log"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	return string(data)
}

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mlog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, event := range events {
		logger.Log(event)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

func sampleEvents() []log.Event {
	ts := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	return []log.Event{
		{
			Timestamp: ts,
			BusID:     "bus-aaaa-bbbb",
			Layer:     log.LayerBus,
			Category:  log.CategoryPoll,
			Device:    "A/0",
			Poll:      &log.PollEvent{Submitted: true},
		},
		{
			Timestamp: ts.Add(time.Millisecond),
			BusID:     "bus-aaaa-bbbb",
			Layer:     log.LayerBus,
			Category:  log.CategoryPoll,
			Device:    "B/0",
			Poll:      &log.PollEvent{Submitted: false, SkipReason: "slot-busy"},
		},
		{
			Timestamp: ts.Add(2 * time.Millisecond),
			BusID:     "bus-aaaa-bbbb",
			Layer:     log.LayerDriver,
			Category:  log.CategoryReply,
			Device:    "A/0",
			Reply:     &log.ReplyEvent{Response: "AGAIN", PayloadSize: 0, DropReason: "not-data-transfer"},
		},
		{
			Timestamp: ts.Add(3 * time.Millisecond),
			BusID:     "bus-aaaa-bbbb",
			Layer:     log.LayerDriver,
			Category:  log.CategoryDispatch,
			Device:    "A/0",
			Dispatch:  &log.DispatchEvent{Buttons: 0x000c, Matched: 2},
		},
		{
			Timestamp: ts.Add(4 * time.Millisecond),
			BusID:     "bus-aaaa-bbbb",
			Layer:     log.LayerBus,
			Category:  log.CategoryState,
			State:     &log.StateChangeEvent{Entity: log.StateEntityBus, NewState: "RUNNING"},
		},
	}
}

func TestViewFormatsEvents(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunView(path, nil, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{"Poll", "Submitted", "Skipped: slot-busy",
		"Response: AGAIN", "Dropped: not-data-transfer",
		"Buttons: 0x000c  Matched: 2", "-> RUNNING"} {
		if !strings.Contains(output, want) {
			t.Errorf("view output missing %q", want)
		}
	}
}

func TestViewFilterByCategory(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	cat := log.CategoryDispatch
	var buf bytes.Buffer
	if err := RunView(path, &log.Filter{Category: &cat}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "Dispatch") {
		t.Error("expected dispatch events in output")
	}
	if strings.Contains(output, "Poll") {
		t.Error("poll events should be filtered out")
	}
}

func TestViewFilterByDevice(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunView(path, &log.Filter{Device: "B/0"}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "slot-busy") {
		t.Error("expected the B/0 skip event in output")
	}
	if strings.Contains(output, "Dispatch") {
		t.Error("A/0 events should be filtered out")
	}
}

func TestStatsOutput(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{"Total Events: 5", "BUS:", "DRIVER:",
		"POLL:", "REPLY:", "DISPATCH:", "STATE:",
		"Submitted:  1", "Skipped:    1", "Dropped:    1",
		"Matched:    2", "[A/0]", "[B/0]"} {
		if !strings.Contains(output, want) {
			t.Errorf("stats output missing %q", want)
		}
	}
}

func TestExportJSONL(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data := readFile(t, out)
	lines := strings.Split(strings.TrimSpace(data), "\n")
	if len(lines) != 5 {
		t.Fatalf("exported %d lines, want 5", len(lines))
	}
	if !strings.Contains(lines[0], "bus-aaaa-bbbb") {
		t.Error("exported JSON missing bus ID")
	}
}

func TestExportCSV(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data := readFile(t, out)
	lines := strings.Split(strings.TrimSpace(data), "\n")
	if len(lines) != 6 {
		t.Fatalf("exported %d lines, want header plus 5 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "timestamp,bus_id,layer") {
		t.Errorf("unexpected CSV header: %s", lines[0])
	}
	if !strings.Contains(data, "buttons=0x000c matched=2") {
		t.Error("CSV missing dispatch detail")
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	if err := RunExport(path, "xml", ""); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestFilterWritesNewFile(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.mlog")

	err := RunFilter(path, out, FilterOptions{Category: "dispatch"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	reader, err := log.OpenFile(out)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer reader.Close()

	events, err := reader.ReadAll(nil)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("filtered file has %d events, want 1", len(events))
	}
	if events[0].Dispatch == nil {
		t.Error("surviving event is not the dispatch event")
	}
}

func TestBuildFilterRejectsBadValues(t *testing.T) {
	if _, err := BuildFilter(FilterOptions{Layer: "kernel"}); err == nil {
		t.Error("expected error for unknown layer")
	}
	if _, err := BuildFilter(FilterOptions{Category: "frames"}); err == nil {
		t.Error("expected error for unknown category")
	}
	if _, err := BuildFilter(FilterOptions{TimeStart: "yesterday"}); err == nil {
		t.Error("expected error for bad timestamp")
	}
}

func TestParseFlagsCaseInsensitive(t *testing.T) {
	if l, err := ParseLayerFlag("Driver"); err != nil || l != log.LayerDriver {
		t.Errorf("ParseLayerFlag(Driver) = %v, %v", l, err)
	}
	if c, err := ParseCategoryFlag("POLL"); err != nil || c != log.CategoryPoll {
		t.Errorf("ParseCategoryFlag(POLL) = %v, %v", c, err)
	}
}
