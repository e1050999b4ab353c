package testharness

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maplebus/maple-go/pkg/bus"
	"github.com/maplebus/maple-go/pkg/controller"
	"github.com/maplebus/maple-go/pkg/wire"
)

func padAddr(t *testing.T) wire.Address {
	t.Helper()
	addr, err := wire.NewAddress(wire.PortA, 0)
	require.NoError(t, err)
	return addr
}

func getCondFrame(addr wire.Address) *wire.Frame {
	return &wire.Frame{
		Command: wire.CommandGetCondition,
		Dst:     addr,
		Payload: wire.GetConditionPayload(wire.FunctionController),
	}
}

func TestSimPadCondition(t *testing.T) {
	pad := NewSimPad()

	cond := pad.Condition()
	assert.Equal(t, uint16(0xffff), cond.Buttons, "all buttons released reads as all ones")
	assert.Equal(t, uint8(128), cond.JoyX)
	assert.Equal(t, uint8(128), cond.JoyY)
	assert.Equal(t, uint8(0), cond.LTrig)

	pad.Press(controller.ButtonA | controller.ButtonStart)
	pad.SetStick(-128, 127)
	pad.SetTriggers(10, 255)

	cond = pad.Condition()
	assert.Equal(t, ^uint16(controller.ButtonA|controller.ButtonStart), cond.Buttons)
	assert.Equal(t, uint8(0), cond.JoyX)
	assert.Equal(t, uint8(255), cond.JoyY)
	assert.Equal(t, uint8(10), cond.LTrig)
	assert.Equal(t, uint8(255), cond.RTrig)

	pad.Release(controller.ButtonA)
	assert.Equal(t, controller.ButtonStart, pad.Held())
}

func TestTransportPollsPad(t *testing.T) {
	addr := padAddr(t)
	tr := NewSimTransport()
	defer tr.Close()

	pad := NewSimPad()
	pad.Press(controller.ButtonB)
	tr.AttachPad(addr, pad)

	dev, err := bus.NewDevice(addr.Port(), addr.Unit(), StandardPadInfo())
	require.NoError(t, err)

	require.True(t, tr.TryReserveSendSlot(dev))

	var (
		mu  sync.Mutex
		rep bus.Reply
	)
	done := make(chan struct{})
	err = tr.SubmitRequest(dev, getCondFrame(addr), func(_ *bus.Device, r bus.Reply) {
		mu.Lock()
		rep = r
		mu.Unlock()
		close(done)
	})
	require.NoError(t, err)
	<-done
	tr.Drain()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, wire.ResponseDataTransfer, rep.Response)
	require.Len(t, rep.Payload, wire.WordSize+wire.ConditionSize)

	cond, err := wire.ParseCondition(rep.Payload[wire.WordSize:])
	require.NoError(t, err)
	st := controller.TranslateCondition(cond)
	assert.Equal(t, controller.ButtonB, st.Buttons)

	// The slot is free again after delivery.
	assert.True(t, tr.TryReserveSendSlot(dev))
}

func TestTransportSlotExclusion(t *testing.T) {
	addr := padAddr(t)
	tr := NewSimTransport()
	defer tr.Close()
	tr.AttachPad(addr, NewSimPad())

	dev, err := bus.NewDevice(addr.Port(), addr.Unit(), StandardPadInfo())
	require.NoError(t, err)

	require.True(t, tr.TryReserveSendSlot(dev))
	assert.False(t, tr.TryReserveSendSlot(dev), "slot reserved twice")
}

func TestFailReserve(t *testing.T) {
	addr := padAddr(t)
	tr := NewSimTransport()
	defer tr.Close()
	tr.AttachPad(addr, NewSimPad())

	dev, err := bus.NewDevice(addr.Port(), addr.Unit(), StandardPadInfo())
	require.NoError(t, err)

	tr.FailReserve(addr, 2)
	assert.False(t, tr.TryReserveSendSlot(dev))
	assert.False(t, tr.TryReserveSendSlot(dev))
	assert.True(t, tr.TryReserveSendSlot(dev), "injected failures are consumed")
}

func TestScriptedReplyOverridesPad(t *testing.T) {
	addr := padAddr(t)
	tr := NewSimTransport()
	defer tr.Close()
	tr.AttachPad(addr, NewSimPad())

	dev, err := bus.NewDevice(addr.Port(), addr.Unit(), StandardPadInfo())
	require.NoError(t, err)

	tr.ScriptReply(addr, bus.Reply{Response: wire.ResponseAgain})

	submit := func() bus.Reply {
		require.True(t, tr.TryReserveSendSlot(dev))
		var rep bus.Reply
		done := make(chan struct{})
		err := tr.SubmitRequest(dev, getCondFrame(addr), func(_ *bus.Device, r bus.Reply) {
			rep = r
			close(done)
		})
		require.NoError(t, err)
		<-done
		tr.Drain()
		return rep
	}

	assert.Equal(t, wire.ResponseAgain, submit().Response)
	assert.Equal(t, wire.ResponseDataTransfer, submit().Response, "pad answers again once the script is consumed")
}

func TestDetachedAddressGetsNoResponse(t *testing.T) {
	addr := padAddr(t)
	tr := NewSimTransport()
	defer tr.Close()
	tr.AttachPad(addr, NewSimPad())
	tr.DetachPad(addr)

	dev, err := bus.NewDevice(addr.Port(), addr.Unit(), StandardPadInfo())
	require.NoError(t, err)

	require.True(t, tr.TryReserveSendSlot(dev))
	var rep bus.Reply
	done := make(chan struct{})
	err = tr.SubmitRequest(dev, getCondFrame(addr), func(_ *bus.Device, r bus.Reply) {
		rep = r
		close(done)
	})
	require.NoError(t, err)
	<-done
	tr.Drain()

	assert.Equal(t, wire.ResponseNone, rep.Response)
}

func TestClosedTransportRejectsSubmissions(t *testing.T) {
	addr := padAddr(t)
	tr := NewSimTransport()
	tr.AttachPad(addr, NewSimPad())

	dev, err := bus.NewDevice(addr.Port(), addr.Unit(), StandardPadInfo())
	require.NoError(t, err)

	tr.Close()
	assert.False(t, tr.TryReserveSendSlot(dev))
	err = tr.SubmitRequest(dev, getCondFrame(addr), func(*bus.Device, bus.Reply) {})
	assert.ErrorIs(t, err, bus.ErrTransportClosed)
	tr.Close() // idempotent
}

func TestNewPadRegistry(t *testing.T) {
	addr := padAddr(t)
	reg, tr, pad, err := NewPadRegistry(addr, bus.Options{})
	require.NoError(t, err)
	defer tr.Close()
	defer reg.Close()

	dev, ok := reg.DeviceAt(addr)
	require.True(t, ok)
	assert.Equal(t, wire.FunctionController, dev.Info().Functions)
	assert.NotNil(t, pad)
}
