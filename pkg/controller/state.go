package controller

import "github.com/maplebus/maple-go/pkg/wire"

// State is the canonical controller condition: active-high buttons,
// unsigned trigger positions, and axes recentered around zero.
type State struct {
	// Buttons is the active-high button bitfield.
	Buttons Button

	// LTrig and RTrig are the trigger positions, 0 (released) to 255
	// (fully pressed).
	LTrig, RTrig int16

	// JoyX, JoyY are the primary stick axes, -128..127 with 0 at
	// center.
	JoyX, JoyY int8

	// Joy2X, Joy2Y are the secondary stick axes, -128..127 with 0 at
	// center.
	Joy2X, Joy2Y int8
}

// Pressed returns true if every button in mask is held.
func (s State) Pressed(mask Button) bool {
	return s.Buttons.Has(mask)
}

// TranslateCondition converts a raw wire condition into the canonical
// state: the active-low button field is complemented and masked to 16
// bits, triggers pass through, and each axis is recentered by -128.
func TranslateCondition(cond wire.Condition) State {
	return State{
		Buttons: Button(^cond.Buttons),
		LTrig:   int16(cond.LTrig),
		RTrig:   int16(cond.RTrig),
		JoyX:    int8(int(cond.JoyX) - 128),
		JoyY:    int8(int(cond.JoyY) - 128),
		Joy2X:   int8(int(cond.Joy2X) - 128),
		Joy2Y:   int8(int(cond.Joy2Y) - 128),
	}
}
