package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Framing constants.
const (
	// HeaderSize is the size of the frame header in bytes.
	HeaderSize = 4

	// WordSize is the size of one payload word in bytes.
	WordSize = 4

	// MaxPayloadWords is the largest payload expressible in the
	// header's 8-bit length field.
	MaxPayloadWords = 255
)

// Framing errors.
var (
	// ErrShortFrame indicates a buffer smaller than the frame header.
	ErrShortFrame = errors.New("frame too short")

	// ErrPayloadTooLarge indicates a payload over 255 words.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrPayloadAlignment indicates a payload that is not a whole
	// number of 32-bit words.
	ErrPayloadAlignment = errors.New("payload not word-aligned")

	// ErrLengthMismatch indicates a header length field that does not
	// match the bytes present.
	ErrLengthMismatch = errors.New("frame length mismatch")
)

// Frame is one Maple bus frame: a command, the destination and source
// addresses, and a word-aligned payload.
type Frame struct {
	Command Command
	Dst     Address
	Src     Address
	Payload []byte
}

// PayloadWords returns the payload length in 32-bit words.
func (f *Frame) PayloadWords() int {
	return len(f.Payload) / WordSize
}

// Encode serializes the frame into the on-wire byte layout: the header
// word followed by the payload, little-endian.
func (f *Frame) Encode() ([]byte, error) {
	if len(f.Payload)%WordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadAlignment, len(f.Payload))
	}
	words := f.PayloadWords()
	if words > MaxPayloadWords {
		return nil, fmt.Errorf("%w: %d words", ErrPayloadTooLarge, words)
	}

	buf := make([]byte, HeaderSize+len(f.Payload))
	buf[0] = byte(f.Command)
	buf[1] = byte(f.Dst)
	buf[2] = byte(f.Src)
	buf[3] = byte(words)
	copy(buf[HeaderSize:], f.Payload)
	return buf, nil
}

// Decode parses an on-wire frame. The payload is copied, so the input
// buffer may be reused by the caller.
func Decode(data []byte) (*Frame, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(data))
	}
	words := int(data[3])
	if len(data) != HeaderSize+words*WordSize {
		return nil, fmt.Errorf("%w: header says %d words, have %d bytes",
			ErrLengthMismatch, words, len(data)-HeaderSize)
	}

	f := &Frame{
		Command: Command(data[0]),
		Dst:     Address(data[1]),
		Src:     Address(data[2]),
	}
	if words > 0 {
		f.Payload = make([]byte, words*WordSize)
		copy(f.Payload, data[HeaderSize:])
	}
	return f, nil
}

// FunctionWord reads the leading function-code word of a payload.
// Every data-transfer response leads with the function code of the
// responding function.
func FunctionWord(payload []byte) (Function, error) {
	if len(payload) < WordSize {
		return 0, fmt.Errorf("%w: no function word", ErrShortFrame)
	}
	return Function(binary.LittleEndian.Uint32(payload)), nil
}

// PutFunctionWord writes a function code as a little-endian payload word.
func PutFunctionWord(buf []byte, fn Function) {
	binary.LittleEndian.PutUint32(buf, uint32(fn))
}

// GetConditionPayload builds the fixed single-word payload of a
// get-condition request for the given function.
func GetConditionPayload(fn Function) []byte {
	buf := make([]byte, WordSize)
	PutFunctionWord(buf, fn)
	return buf
}
