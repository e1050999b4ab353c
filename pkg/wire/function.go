package wire

import "strings"

// Function is the 32-bit function bitmap identifying device capabilities.
// A single physical device may expose several functions; each function is
// polled and addressed independently.
type Function uint32

const (
	// FunctionController is a game controller.
	FunctionController Function = 0x01000000

	// FunctionMemoryCard is removable block storage.
	FunctionMemoryCard Function = 0x02000000

	// FunctionLCD is a dot-matrix LCD screen.
	FunctionLCD Function = 0x04000000

	// FunctionClock is a real-time clock.
	FunctionClock Function = 0x08000000

	// FunctionMicrophone is an audio input device.
	FunctionMicrophone Function = 0x10000000

	// FunctionARGun is an AR gun peripheral.
	FunctionARGun Function = 0x20000000

	// FunctionKeyboard is a keyboard.
	FunctionKeyboard Function = 0x40000000

	// FunctionLightGun is a light gun peripheral.
	FunctionLightGun Function = 0x80000000

	// FunctionVibration is a vibration (rumble) pack.
	FunctionVibration Function = 0x00010000

	// FunctionMouse is a mouse.
	FunctionMouse Function = 0x00020000

	// FunctionCamera is a camera peripheral.
	FunctionCamera Function = 0x00080000
)

var functionNames = []struct {
	f    Function
	name string
}{
	{FunctionController, "CONTROLLER"},
	{FunctionMemoryCard, "MEMCARD"},
	{FunctionLCD, "LCD"},
	{FunctionClock, "CLOCK"},
	{FunctionMicrophone, "MICROPHONE"},
	{FunctionARGun, "ARGUN"},
	{FunctionKeyboard, "KEYBOARD"},
	{FunctionLightGun, "LIGHTGUN"},
	{FunctionVibration, "VIBRATION"},
	{FunctionMouse, "MOUSE"},
	{FunctionCamera, "CAMERA"},
}

// Contains returns true if the bitmap includes every bit of other.
func (f Function) Contains(other Function) bool {
	return f&other == other
}

// String returns the set function names joined by "|", or "NONE".
func (f Function) String() string {
	if f == 0 {
		return "NONE"
	}
	var names []string
	for _, fn := range functionNames {
		if f&fn.f != 0 {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(names, "|")
}
