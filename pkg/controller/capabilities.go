package controller

import "github.com/maplebus/maple-go/pkg/bus"

// Capability is the 32-bit capability bitfield a controller reports in
// its function data, describing which buttons and axes are physically
// present.
type Capability uint32

const (
	// CapRTrig is an analog right trigger.
	CapRTrig Capability = 0x00000100
	// CapLTrig is an analog left trigger.
	CapLTrig Capability = 0x00000200
	// CapAnalogX is the primary analog stick X axis.
	CapAnalogX Capability = 0x00000400
	// CapAnalogY is the primary analog stick Y axis.
	CapAnalogY Capability = 0x00000800
	// CapAnalog2X is the secondary analog stick X axis.
	CapAnalog2X Capability = 0x00001000
	// CapAnalog2Y is the secondary analog stick Y axis.
	CapAnalog2Y Capability = 0x00002000
	// CapZ is the Z button.
	CapZ Capability = 0x00010000
	// CapY is the Y button.
	CapY Capability = 0x00020000
	// CapX is the X button.
	CapX Capability = 0x00040000
	// CapD is the D button.
	CapD Capability = 0x00080000
	// CapDPad2Up is up on the secondary directional pad.
	CapDPad2Up Capability = 0x00100000
	// CapDPad2Down is down on the secondary directional pad.
	CapDPad2Down Capability = 0x00200000
	// CapDPad2Left is left on the secondary directional pad.
	CapDPad2Left Capability = 0x00400000
	// CapDPad2Right is right on the secondary directional pad.
	CapDPad2Right Capability = 0x00800000
	// CapC is the C button.
	CapC Capability = 0x01000000
	// CapB is the B button.
	CapB Capability = 0x02000000
	// CapA is the A button.
	CapA Capability = 0x04000000
	// CapStart is the Start button.
	CapStart Capability = 0x08000000
	// CapDPadUp is up on the primary directional pad.
	CapDPadUp Capability = 0x10000000
	// CapDPadDown is down on the primary directional pad.
	CapDPadDown Capability = 0x20000000
	// CapDPadLeft is left on the primary directional pad.
	CapDPadLeft Capability = 0x40000000
	// CapDPadRight is right on the primary directional pad.
	CapDPadRight Capability = 0x80000000
)

// Composite capability sets.
const (
	// CapDPad is the full primary directional pad.
	CapDPad = CapDPadUp | CapDPadDown | CapDPadLeft | CapDPadRight

	// CapDPad2 is the full secondary directional pad.
	CapDPad2 = CapDPad2Up | CapDPad2Down | CapDPad2Left | CapDPad2Right

	// CapTriggers is both analog triggers.
	CapTriggers = CapLTrig | CapRTrig

	// CapAnalog is the primary analog stick.
	CapAnalog = CapAnalogX | CapAnalogY

	// TypeStandardController is the capability set of the standard
	// first-party controller.
	TypeStandardController = CapDPad | CapA | CapB | CapX | CapY |
		CapStart | CapTriggers | CapAnalog
)

// functionDataIndex is the position of the controller capability word
// within a device's function data.
const functionDataIndex = 0

// IsExactType returns true if the controller reports exactly the given
// capability set, no more and no less. It returns false for a nil
// device.
func IsExactType(dev *bus.Device, caps Capability) bool {
	if dev == nil {
		return false
	}
	return Capability(dev.Info().FunctionData[functionDataIndex]) == caps
}

// HasAtLeastCapabilities returns true if the controller reports every
// capability in caps, whatever else it has. It returns false for a nil
// device.
func HasAtLeastCapabilities(dev *bus.Device, caps Capability) bool {
	if dev == nil {
		return false
	}
	return Capability(dev.Info().FunctionData[functionDataIndex])&caps == caps
}
