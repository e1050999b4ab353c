package wire

// Command represents a Maple frame command or response code.
// Positive codes are requests and normal responses; negative codes are
// bus-level error responses.
type Command int8

const (
	// CommandDeviceInfo requests the device information record.
	CommandDeviceInfo Command = 1

	// CommandAllInfo requests the extended device information record.
	CommandAllInfo Command = 2

	// CommandReset asks the device to reset itself.
	CommandReset Command = 3

	// CommandKill asks the device to shut down.
	CommandKill Command = 4

	// ResponseDeviceInfo carries a device information record.
	ResponseDeviceInfo Command = 5

	// ResponseAllInfo carries an extended device information record.
	ResponseAllInfo Command = 6

	// ResponseAck acknowledges a command with no data.
	ResponseAck Command = 7

	// ResponseDataTransfer carries function data; the reply to a
	// successful get-condition request.
	ResponseDataTransfer Command = 8

	// CommandGetCondition polls a function for its current condition.
	CommandGetCondition Command = 9

	// CommandGetMemInfo requests storage media information.
	CommandGetMemInfo Command = 10

	// CommandBlockRead reads a block from storage media.
	CommandBlockRead Command = 11

	// CommandBlockWrite writes a block to storage media.
	CommandBlockWrite Command = 12

	// CommandBlockSync flushes pending block writes.
	CommandBlockSync Command = 13

	// CommandSetCondition pushes a condition to a function.
	CommandSetCondition Command = 14
)

// Error response codes.
const (
	// ResponseNone indicates the device sent nothing back.
	ResponseNone Command = -1

	// ResponseBadFunction indicates the requested function does not
	// exist on the device.
	ResponseBadFunction Command = -2

	// ResponseBadCommand indicates the device did not understand the
	// command.
	ResponseBadCommand Command = -3

	// ResponseAgain asks the host to retransmit the frame.
	ResponseAgain Command = -4

	// ResponseFileError indicates a storage media error.
	ResponseFileError Command = -5
)

// IsError returns true for bus-level error responses.
func (c Command) IsError() bool {
	return c < 0
}

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CommandDeviceInfo:
		return "DEVINFO"
	case CommandAllInfo:
		return "ALLINFO"
	case CommandReset:
		return "RESET"
	case CommandKill:
		return "KILL"
	case ResponseDeviceInfo:
		return "RESP_DEVINFO"
	case ResponseAllInfo:
		return "RESP_ALLINFO"
	case ResponseAck:
		return "ACK"
	case ResponseDataTransfer:
		return "DATATRF"
	case CommandGetCondition:
		return "GETCOND"
	case CommandGetMemInfo:
		return "GETMINFO"
	case CommandBlockRead:
		return "BREAD"
	case CommandBlockWrite:
		return "BWRITE"
	case CommandBlockSync:
		return "BSYNC"
	case CommandSetCondition:
		return "SETCOND"
	case ResponseNone:
		return "NONE"
	case ResponseBadFunction:
		return "BADFUNC"
	case ResponseBadCommand:
		return "BADCMD"
	case ResponseAgain:
		return "AGAIN"
	case ResponseFileError:
		return "FILEERR"
	default:
		return "UNKNOWN"
	}
}
