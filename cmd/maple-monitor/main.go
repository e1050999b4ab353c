// Command maple-monitor runs a simulated Maple bus with attached
// controllers and an interactive console for driving them.
//
// The monitor polls the simulated pads through the real bus registry
// and controller driver, so everything the console shows went through
// the same poll, translate and dispatch path production code uses.
//
// Usage:
//
//	maple-monitor [flags]
//
// Flags:
//
//	-config string   Configuration file path (YAML)
//	-pads int        Number of simulated pads, one per port (default 1)
//	-interval dur    Poll interval (default 16.666ms)
//	-log-file string Write diagnostic events (CBOR) to this file
//	-verbose         Mirror diagnostic events to stderr
//
// Interactive Commands:
//
//	devices                - List attached pads
//	state <addr>           - Show a pad's last polled state
//	press <addr> <btn...>  - Hold buttons on a pad
//	release <addr> <btn..> - Release buttons on a pad
//	stick <addr> <x> <y>   - Position the analog stick (-128..127)
//	triggers <addr> <l> <r>- Position the triggers (0..255)
//	watch <addr|*> <btn..> - Register a combo watcher
//	unwatch <addr|*> <btn..> - Remove matching watchers
//	attach <addr>          - Attach a pad
//	detach <addr>          - Detach a pad
//	quit                   - Exit the monitor
package main

import (
	"context"
	"flag"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maplebus/maple-go/cmd/maple-monitor/interactive"
	"github.com/maplebus/maple-go/internal/testharness"
	"github.com/maplebus/maple-go/pkg/bus"
	"github.com/maplebus/maple-go/pkg/config"
	"github.com/maplebus/maple-go/pkg/controller"
	"github.com/maplebus/maple-go/pkg/log"
	"github.com/maplebus/maple-go/pkg/wire"
)

var flags struct {
	configFile string
	pads       int
	interval   time.Duration
	logFile    string
	verbose    bool
}

func init() {
	flag.StringVar(&flags.configFile, "config", "", "Configuration file path")
	flag.IntVar(&flags.pads, "pads", 1, "Number of simulated pads, one per port")
	flag.DurationVar(&flags.interval, "interval", 0, "Poll interval (overrides config)")
	flag.StringVar(&flags.logFile, "log-file", "", "Write diagnostic events to this file")
	flag.BoolVar(&flags.verbose, "verbose", false, "Mirror diagnostic events to stderr")
}

func main() {
	flag.Parse()

	cfg := config.Default()
	if flags.configFile != "" {
		loaded, err := config.Load(flags.configFile)
		if err != nil {
			stdlog.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if flags.interval > 0 {
		cfg.Bus.PollInterval = flags.interval
	}
	if flags.logFile != "" {
		cfg.Logging.FilePath = flags.logFile
	}
	if flags.verbose {
		cfg.Logging.Console = true
	}
	if err := cfg.Validate(); err != nil {
		stdlog.Fatalf("Invalid config: %v", err)
	}
	if flags.pads < 1 || flags.pads > wire.PortCount {
		stdlog.Fatalf("Invalid pad count %d (1-%d)", flags.pads, wire.PortCount)
	}

	logger, cleanup, err := buildLogger(cfg.Logging)
	if err != nil {
		stdlog.Fatalf("Failed to set up logging: %v", err)
	}
	defer cleanup()

	// Simulated bus with one pad per port.
	tr := testharness.NewSimTransport()
	defer tr.Close()

	reg := bus.NewRegistry(tr, bus.Options{
		PollInterval: cfg.Bus.PollInterval,
		Logger:       logger,
	})

	pads := make(map[wire.Address]*testharness.SimPad)
	for i := 0; i < flags.pads; i++ {
		addr := wire.MustAddress(wire.Port(i), 0)
		pad := testharness.NewSimPad()
		tr.AttachPad(addr, pad)
		pads[addr] = pad
		if _, err := reg.AddDevice(wire.Port(i), 0, testharness.StandardPadInfo()); err != nil {
			stdlog.Fatalf("Failed to attach pad %s: %v", addr, err)
		}
	}

	drv, err := controller.Attach(reg, controller.Config{
		MaxWatchers: cfg.Watcher.MaxWatchers,
		Logger:      logger,
	})
	if err != nil {
		stdlog.Fatalf("Failed to attach controller driver: %v", err)
	}
	defer drv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg.Start(ctx)
	defer reg.Close()

	mon, err := interactive.New(reg, drv, tr, pads)
	if err != nil {
		stdlog.Fatalf("Failed to create console: %v", err)
	}
	stdlog.SetOutput(mon.Stdout())
	go mon.Run(ctx, cancel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		stdlog.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}
}

// buildLogger assembles the diagnostic event sink from the logging
// config: a CBOR file, stderr, both, or neither.
func buildLogger(cfg config.LoggingConfig) (log.Logger, func(), error) {
	var sinks []log.Logger
	cleanup := func() {}

	if cfg.FilePath != "" {
		fl, err := log.NewFileLogger(cfg.FilePath)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, fl)
		cleanup = func() { _ = fl.Close() }
	}
	if cfg.Console {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		sinks = append(sinks, log.NewSlogAdapter(slog.New(handler)))
	}

	switch len(sinks) {
	case 0:
		return log.NoopLogger{}, cleanup, nil
	case 1:
		return sinks[0], cleanup, nil
	default:
		return log.NewMultiLogger(sinks...), cleanup, nil
	}
}
