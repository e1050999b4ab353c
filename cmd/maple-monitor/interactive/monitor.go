// Package interactive provides the interactive console for the
// maple-monitor command.
package interactive

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/maplebus/maple-go/internal/testharness"
	"github.com/maplebus/maple-go/pkg/bus"
	"github.com/maplebus/maple-go/pkg/controller"
	"github.com/maplebus/maple-go/pkg/wire"
)

// Monitor handles interactive mode for maple-monitor.
type Monitor struct {
	reg *bus.Registry
	drv *controller.Driver
	tr  *testharness.SimTransport
	rl  *readline.Instance

	mu       sync.Mutex
	pads     map[wire.Address]*testharness.SimPad
	watchers map[string]controller.Callback
}

// New creates a new interactive monitor over a running simulated bus.
func New(reg *bus.Registry, drv *controller.Driver, tr *testharness.SimTransport, pads map[wire.Address]*testharness.SimPad) (*Monitor, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "maple> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	if pads == nil {
		pads = make(map[wire.Address]*testharness.SimPad)
	}
	return &Monitor{
		reg:      reg,
		drv:      drv,
		tr:       tr,
		rl:       rl,
		pads:     pads,
		watchers: make(map[string]controller.Callback),
	}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use this for log output to avoid interfering with input.
func (m *Monitor) Stdout() io.Writer {
	return m.rl.Stdout()
}

// Run starts the interactive command loop.
func (m *Monitor) Run(ctx context.Context, cancel context.CancelFunc) {
	defer m.rl.Close()

	m.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := m.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(m.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			m.printHelp()

		case "devices", "list", "ls":
			m.cmdDevices()

		case "state", "s":
			m.cmdState(args)

		case "press", "p":
			m.cmdPress(args, true)

		case "release", "r":
			m.cmdPress(args, false)

		case "stick":
			m.cmdStick(args)

		case "triggers":
			m.cmdTriggers(args)

		case "watch", "w":
			m.cmdWatch(args)

		case "unwatch":
			m.cmdUnwatch(args)

		case "watchers":
			m.cmdWatchers()

		case "attach":
			m.cmdAttach(args)

		case "detach":
			m.cmdDetach(args)

		case "quit", "exit", "q":
			fmt.Fprintln(m.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(m.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (m *Monitor) printHelp() {
	fmt.Fprintln(m.rl.Stdout(), `
Maple Monitor Commands:
  Bus:
    devices                   - List attached pads
    attach <addr>             - Attach a pad (e.g. attach B/0)
    detach <addr>             - Detach a pad
    state <addr>              - Show a pad's last polled state

  Input:
    press <addr> <btn...>     - Hold buttons (e.g. press A/0 A START)
    release <addr> <btn...>   - Release buttons
    stick <addr> <x> <y>      - Position the stick (-128..127)
    triggers <addr> <l> <r>   - Position the triggers (0..255)

  Watchers:
    watch <addr|*> <btn...>   - Fire when the combo is held
    unwatch <addr|*> <btn...> - Remove matching watchers
    watchers                  - List registered watchers

  General:
    help                      - Show this help
    quit                      - Exit the monitor

  Buttons: A B C D X Y Z START DPAD_UP DPAD_DOWN DPAD_LEFT DPAD_RIGHT
           DPAD2_UP DPAD2_DOWN DPAD2_LEFT DPAD2_RIGHT`)
}

func (m *Monitor) parseAddr(arg string) (wire.Address, bool) {
	addr, err := wire.ParseAddress(arg)
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "Bad address %q: %v\n", arg, err)
		return 0, false
	}
	return addr, true
}

func (m *Monitor) padAt(arg string) (wire.Address, *testharness.SimPad, bool) {
	addr, ok := m.parseAddr(arg)
	if !ok {
		return 0, nil, false
	}
	m.mu.Lock()
	pad, ok := m.pads[addr]
	m.mu.Unlock()
	if !ok {
		fmt.Fprintf(m.rl.Stdout(), "No pad at %s (use 'devices')\n", addr)
		return 0, nil, false
	}
	return addr, pad, true
}

func (m *Monitor) cmdDevices() {
	devices := m.reg.Devices()
	if len(devices) == 0 {
		fmt.Fprintln(m.rl.Stdout(), "No pads attached")
		return
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Address() < devices[j].Address()
	})

	fmt.Fprintf(m.rl.Stdout(), "\nAttached Pads (%d):\n", len(devices))
	for _, dev := range devices {
		fmt.Fprintf(m.rl.Stdout(), "  %s  %s  functions=%s\n",
			dev.Address(), dev.Info().ProductName, dev.Info().Functions)
	}
}

func (m *Monitor) cmdState(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(m.rl.Stdout(), "Usage: state <addr>")
		return
	}
	addr, ok := m.parseAddr(args[0])
	if !ok {
		return
	}
	dev, ok := m.reg.DeviceAt(addr)
	if !ok {
		fmt.Fprintf(m.rl.Stdout(), "No device at %s\n", addr)
		return
	}
	st, ok := m.drv.StateOf(dev)
	if !ok {
		fmt.Fprintf(m.rl.Stdout(), "%s has not answered a poll yet\n", addr)
		return
	}
	fmt.Fprintf(m.rl.Stdout(), "%s  buttons=%s  triggers=%d/%d  stick=(%d,%d)  stick2=(%d,%d)\n",
		addr, st.Buttons, st.LTrig, st.RTrig, st.JoyX, st.JoyY, st.Joy2X, st.Joy2Y)
}

func (m *Monitor) cmdPress(args []string, press bool) {
	verb := "press"
	if !press {
		verb = "release"
	}
	if len(args) < 2 {
		fmt.Fprintf(m.rl.Stdout(), "Usage: %s <addr> <button...>\n", verb)
		return
	}
	addr, pad, ok := m.padAt(args[0])
	if !ok {
		return
	}
	mask, err := controller.ParseButtons(args[1:]...)
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "%v\n", err)
		return
	}
	if press {
		pad.Press(mask)
	} else {
		pad.Release(mask)
	}
	fmt.Fprintf(m.rl.Stdout(), "%s now holding %s\n", addr, pad.Held())
}

func (m *Monitor) cmdStick(args []string) {
	if len(args) != 3 {
		fmt.Fprintln(m.rl.Stdout(), "Usage: stick <addr> <x> <y>")
		return
	}
	_, pad, ok := m.padAt(args[0])
	if !ok {
		return
	}
	x, errX := strconv.ParseInt(args[1], 10, 8)
	y, errY := strconv.ParseInt(args[2], 10, 8)
	if errX != nil || errY != nil {
		fmt.Fprintln(m.rl.Stdout(), "Stick values must be -128..127")
		return
	}
	pad.SetStick(int8(x), int8(y))
}

func (m *Monitor) cmdTriggers(args []string) {
	if len(args) != 3 {
		fmt.Fprintln(m.rl.Stdout(), "Usage: triggers <addr> <left> <right>")
		return
	}
	_, pad, ok := m.padAt(args[0])
	if !ok {
		return
	}
	l, errL := strconv.ParseUint(args[1], 10, 8)
	r, errR := strconv.ParseUint(args[2], 10, 8)
	if errL != nil || errR != nil {
		fmt.Fprintln(m.rl.Stdout(), "Trigger values must be 0..255")
		return
	}
	pad.SetTriggers(uint8(l), uint8(r))
}

func watcherKey(addr wire.Address, mask controller.Button) string {
	return fmt.Sprintf("%s %s", addr, mask)
}

func (m *Monitor) cmdWatch(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(m.rl.Stdout(), "Usage: watch <addr|*> <button...>")
		return
	}
	addr, ok := m.parseAddr(args[0])
	if !ok {
		return
	}
	mask, err := controller.ParseButtons(args[1:]...)
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "%v\n", err)
		return
	}

	key := watcherKey(addr, mask)
	m.mu.Lock()
	if _, exists := m.watchers[key]; exists {
		m.mu.Unlock()
		fmt.Fprintf(m.rl.Stdout(), "Already watching %s\n", key)
		return
	}
	out := m.rl.Stdout()
	cb := func(fired wire.Address, buttons controller.Button) {
		fmt.Fprintf(out, "[COMBO] %s holds %s (watch %s)\n", fired, buttons, key)
	}
	m.watchers[key] = cb
	m.mu.Unlock()

	if err := m.drv.Register(addr, mask, cb); err != nil {
		m.mu.Lock()
		delete(m.watchers, key)
		m.mu.Unlock()
		fmt.Fprintf(m.rl.Stdout(), "Failed to register watcher: %v\n", err)
		return
	}
	fmt.Fprintf(m.rl.Stdout(), "Watching %s\n", key)
}

func (m *Monitor) cmdUnwatch(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(m.rl.Stdout(), "Usage: unwatch <addr|*> <button...>")
		return
	}
	addr, ok := m.parseAddr(args[0])
	if !ok {
		return
	}
	mask, err := controller.ParseButtons(args[1:]...)
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "%v\n", err)
		return
	}

	key := watcherKey(addr, mask)
	m.mu.Lock()
	cb, exists := m.watchers[key]
	if exists {
		delete(m.watchers, key)
	}
	m.mu.Unlock()
	if !exists {
		fmt.Fprintf(m.rl.Stdout(), "Not watching %s\n", key)
		return
	}

	removed := m.drv.Unregister(addr, mask, cb)
	fmt.Fprintf(m.rl.Stdout(), "Removed %d watcher(s)\n", removed)
}

func (m *Monitor) cmdWatchers() {
	m.mu.Lock()
	keys := make([]string, 0, len(m.watchers))
	for key := range m.watchers {
		keys = append(keys, key)
	}
	m.mu.Unlock()
	sort.Strings(keys)

	if len(keys) == 0 {
		fmt.Fprintln(m.rl.Stdout(), "No watchers registered")
		return
	}
	fmt.Fprintf(m.rl.Stdout(), "\nWatchers (%d):\n", len(keys))
	for _, key := range keys {
		fmt.Fprintf(m.rl.Stdout(), "  %s\n", key)
	}
}

func (m *Monitor) cmdAttach(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(m.rl.Stdout(), "Usage: attach <addr>")
		return
	}
	addr, ok := m.parseAddr(args[0])
	if !ok || addr.IsWildcard() {
		return
	}

	m.mu.Lock()
	_, exists := m.pads[addr]
	m.mu.Unlock()
	if exists {
		fmt.Fprintf(m.rl.Stdout(), "Pad already attached at %s\n", addr)
		return
	}

	pad := testharness.NewSimPad()
	m.tr.AttachPad(addr, pad)
	if _, err := m.reg.AddDevice(addr.Port(), addr.Unit(), testharness.StandardPadInfo()); err != nil {
		m.tr.DetachPad(addr)
		fmt.Fprintf(m.rl.Stdout(), "Failed to attach: %v\n", err)
		return
	}
	m.mu.Lock()
	m.pads[addr] = pad
	m.mu.Unlock()
	fmt.Fprintf(m.rl.Stdout(), "Attached pad at %s\n", addr)
}

func (m *Monitor) cmdDetach(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(m.rl.Stdout(), "Usage: detach <addr>")
		return
	}
	addr, ok := m.parseAddr(args[0])
	if !ok {
		return
	}

	if !m.reg.RemoveDevice(addr) {
		fmt.Fprintf(m.rl.Stdout(), "No device at %s\n", addr)
		return
	}
	m.tr.DetachPad(addr)
	m.mu.Lock()
	delete(m.pads, addr)
	m.mu.Unlock()
	fmt.Fprintf(m.rl.Stdout(), "Detached pad at %s\n", addr)
}
