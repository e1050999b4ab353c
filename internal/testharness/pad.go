// Package testharness provides a simulated Maple bus for tests and the
// interactive monitor: scriptable controller pads and an in-memory
// transport with fault injection.
package testharness

import (
	"sync"

	"github.com/maplebus/maple-go/pkg/bus"
	"github.com/maplebus/maple-go/pkg/controller"
	"github.com/maplebus/maple-go/pkg/wire"
)

// SimPad is a simulated game controller. Its inputs are set through
// Press, Release and the axis setters; each poll reads the current
// values. All methods are safe for concurrent use.
type SimPad struct {
	mu      sync.Mutex
	held    controller.Button
	ltrig   uint8
	rtrig   uint8
	joyX    int8
	joyY    int8
	joy2X   int8
	joy2Y   int8
	current wire.Condition
	dirty   bool
}

// NewSimPad creates a pad with everything released and both sticks
// centered.
func NewSimPad() *SimPad {
	p := &SimPad{dirty: true}
	return p
}

// Press holds down every button in mask.
func (p *SimPad) Press(mask controller.Button) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.held |= mask
	p.dirty = true
}

// Release lets go of every button in mask.
func (p *SimPad) Release(mask controller.Button) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.held &^= mask
	p.dirty = true
}

// ReleaseAll lets go of every button.
func (p *SimPad) ReleaseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.held = 0
	p.dirty = true
}

// Held returns the currently held buttons.
func (p *SimPad) Held() controller.Button {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.held
}

// SetStick positions the primary analog stick. Zero is centered.
func (p *SimPad) SetStick(x, y int8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.joyX, p.joyY = x, y
	p.dirty = true
}

// SetSecondStick positions the secondary analog stick.
func (p *SimPad) SetSecondStick(x, y int8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.joy2X, p.joy2Y = x, y
	p.dirty = true
}

// SetTriggers positions both analog triggers, 0 (released) to 255
// (fully pressed).
func (p *SimPad) SetTriggers(left, right uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ltrig, p.rtrig = left, right
	p.dirty = true
}

// Condition returns the pad's inputs in raw wire format: buttons
// inverted to active-low, axes rebased to the unsigned 128-centered
// encoding.
func (p *SimPad) Condition() wire.Condition {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dirty {
		p.current = wire.Condition{
			Buttons: ^uint16(p.held),
			RTrig:   p.rtrig,
			LTrig:   p.ltrig,
			JoyX:    uint8(int(p.joyX) + 128),
			JoyY:    uint8(int(p.joyY) + 128),
			Joy2X:   uint8(int(p.joy2X) + 128),
			Joy2Y:   uint8(int(p.joy2Y) + 128),
		}
		p.dirty = false
	}
	return p.current
}

// StandardPadInfo returns the identification record of a standard
// controller: digital buttons, both triggers and one analog stick.
func StandardPadInfo() bus.DeviceInfo {
	return bus.DeviceInfo{
		Functions:    wire.FunctionController,
		FunctionData: [3]uint32{uint32(controller.TypeStandardController), 0, 0},
		ProductName:  "Dreamcast Controller",
		StandbyPower: 430,
		MaxPower:     500,
	}
}
