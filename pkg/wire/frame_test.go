package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrameEncodeDecode(t *testing.T) {
	f := &Frame{
		Command: CommandGetCondition,
		Dst:     MustAddress(PortA, 0),
		Src:     0,
		Payload: GetConditionPayload(FunctionController),
	}

	data, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if len(data) != HeaderSize+WordSize {
		t.Fatalf("encoded length = %d, want %d", len(data), HeaderSize+WordSize)
	}
	if data[0] != byte(CommandGetCondition) {
		t.Errorf("command byte = %#02x, want %#02x", data[0], byte(CommandGetCondition))
	}
	if data[3] != 1 {
		t.Errorf("length byte = %d, want 1", data[3])
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got.Command != f.Command || got.Dst != f.Dst || got.Src != f.Src {
		t.Errorf("Decode() header = (%v, %v, %v), want (%v, %v, %v)",
			got.Command, got.Dst, got.Src, f.Command, f.Dst, f.Src)
	}
	if !bytes.Equal(got.Payload, f.Payload) {
		t.Errorf("Decode() payload = %x, want %x", got.Payload, f.Payload)
	}
}

func TestFrameEncodeErrors(t *testing.T) {
	f := &Frame{Command: CommandGetCondition, Payload: []byte{1, 2, 3}}
	if _, err := f.Encode(); !errors.Is(err, ErrPayloadAlignment) {
		t.Errorf("unaligned payload: err = %v, want ErrPayloadAlignment", err)
	}

	f = &Frame{Command: CommandGetCondition, Payload: make([]byte, (MaxPayloadWords+1)*WordSize)}
	if _, err := f.Encode(); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("oversized payload: err = %v, want ErrPayloadTooLarge", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte{1, 2}); !errors.Is(err, ErrShortFrame) {
		t.Errorf("short buffer: err = %v, want ErrShortFrame", err)
	}

	// Header claims two words, only one present.
	data := []byte{byte(ResponseDataTransfer), 0x20, 0, 2, 1, 2, 3, 4}
	if _, err := Decode(data); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("truncated payload: err = %v, want ErrLengthMismatch", err)
	}
}

func TestFunctionWord(t *testing.T) {
	payload := GetConditionPayload(FunctionController)
	fn, err := FunctionWord(payload)
	if err != nil {
		t.Fatalf("FunctionWord() error: %v", err)
	}
	if fn != FunctionController {
		t.Errorf("FunctionWord() = %#08x, want %#08x", uint32(fn), uint32(FunctionController))
	}

	if _, err := FunctionWord([]byte{1, 2}); !errors.Is(err, ErrShortFrame) {
		t.Errorf("short payload: err = %v, want ErrShortFrame", err)
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CommandGetCondition, "GETCOND"},
		{ResponseDataTransfer, "DATATRF"},
		{ResponseBadFunction, "BADFUNC"},
		{Command(100), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("Command(%d).String() = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestCommandIsError(t *testing.T) {
	if CommandGetCondition.IsError() {
		t.Error("GETCOND.IsError() = true, want false")
	}
	if !ResponseAgain.IsError() {
		t.Error("AGAIN.IsError() = false, want true")
	}
}
