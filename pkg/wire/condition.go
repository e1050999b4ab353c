package wire

import (
	"encoding/binary"
	"fmt"
)

// ConditionSize is the size of the raw controller condition record in
// bytes (two payload words).
const ConditionSize = 8

// Condition is the raw wire-format controller condition: an active-low
// button bitfield, two unsigned trigger positions, and four unsigned
// axis positions centered at 128.
type Condition struct {
	Buttons uint16 // active-low: 0 = pressed
	RTrig   uint8
	LTrig   uint8
	JoyX    uint8
	JoyY    uint8
	Joy2X   uint8
	Joy2Y   uint8
}

// ParseCondition decodes a raw condition record. The input must be
// exactly ConditionSize bytes; anything else is a contract violation by
// the device and reported as ErrLengthMismatch.
func ParseCondition(data []byte) (Condition, error) {
	if len(data) != ConditionSize {
		return Condition{}, fmt.Errorf("%w: condition record is %d bytes, want %d",
			ErrLengthMismatch, len(data), ConditionSize)
	}
	return Condition{
		Buttons: binary.LittleEndian.Uint16(data[0:2]),
		RTrig:   data[2],
		LTrig:   data[3],
		JoyX:    data[4],
		JoyY:    data[5],
		Joy2X:   data[6],
		Joy2Y:   data[7],
	}, nil
}

// Encode serializes the condition record into its 8-byte wire layout.
func (c Condition) Encode() []byte {
	buf := make([]byte, ConditionSize)
	binary.LittleEndian.PutUint16(buf[0:2], c.Buttons)
	buf[2] = c.RTrig
	buf[3] = c.LTrig
	buf[4] = c.JoyX
	buf[5] = c.JoyY
	buf[6] = c.Joy2X
	buf[7] = c.Joy2Y
	return buf
}
