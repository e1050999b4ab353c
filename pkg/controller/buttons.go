package controller

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownButton indicates a button name ParseButtons does not know.
var ErrUnknownButton = errors.New("unknown button")

// Button is the canonical 16-bit active-high button bitfield.
type Button uint16

const (
	// ButtonC is the C button.
	ButtonC Button = 0x0001
	// ButtonB is the B button.
	ButtonB Button = 0x0002
	// ButtonA is the A button.
	ButtonA Button = 0x0004
	// ButtonStart is the Start button.
	ButtonStart Button = 0x0008
	// ButtonDPadUp is up on the primary directional pad.
	ButtonDPadUp Button = 0x0010
	// ButtonDPadDown is down on the primary directional pad.
	ButtonDPadDown Button = 0x0020
	// ButtonDPadLeft is left on the primary directional pad.
	ButtonDPadLeft Button = 0x0040
	// ButtonDPadRight is right on the primary directional pad.
	ButtonDPadRight Button = 0x0080
	// ButtonZ is the Z button.
	ButtonZ Button = 0x0100
	// ButtonY is the Y button.
	ButtonY Button = 0x0200
	// ButtonX is the X button.
	ButtonX Button = 0x0400
	// ButtonD is the D button.
	ButtonD Button = 0x0800
	// ButtonDPad2Up is up on the secondary directional pad.
	ButtonDPad2Up Button = 0x1000
	// ButtonDPad2Down is down on the secondary directional pad.
	ButtonDPad2Down Button = 0x2000
	// ButtonDPad2Left is left on the secondary directional pad.
	ButtonDPad2Left Button = 0x4000
	// ButtonDPad2Right is right on the secondary directional pad.
	ButtonDPad2Right Button = 0x8000
)

var buttonNames = []struct {
	b    Button
	name string
}{
	{ButtonC, "C"},
	{ButtonB, "B"},
	{ButtonA, "A"},
	{ButtonStart, "START"},
	{ButtonDPadUp, "DPAD_UP"},
	{ButtonDPadDown, "DPAD_DOWN"},
	{ButtonDPadLeft, "DPAD_LEFT"},
	{ButtonDPadRight, "DPAD_RIGHT"},
	{ButtonZ, "Z"},
	{ButtonY, "Y"},
	{ButtonX, "X"},
	{ButtonD, "D"},
	{ButtonDPad2Up, "DPAD2_UP"},
	{ButtonDPad2Down, "DPAD2_DOWN"},
	{ButtonDPad2Left, "DPAD2_LEFT"},
	{ButtonDPad2Right, "DPAD2_RIGHT"},
}

// Has returns true if every button in mask is set.
func (b Button) Has(mask Button) bool {
	return b&mask == mask
}

// String returns the set button names joined by "|", or "NONE".
func (b Button) String() string {
	if b == 0 {
		return "NONE"
	}
	var names []string
	for _, bn := range buttonNames {
		if b&bn.b != 0 {
			names = append(names, bn.name)
		}
	}
	return strings.Join(names, "|")
}

// ParseButtons parses button names into a bitfield. Names are
// case-insensitive and may be given as separate arguments or joined
// with "|", matching the String form.
func ParseButtons(names ...string) (Button, error) {
	var mask Button
	for _, arg := range names {
		for _, name := range strings.Split(arg, "|") {
			b, err := parseButton(name)
			if err != nil {
				return 0, err
			}
			mask |= b
		}
	}
	return mask, nil
}

func parseButton(name string) (Button, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, bn := range buttonNames {
		if bn.name == upper {
			return bn.b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownButton, name)
}
