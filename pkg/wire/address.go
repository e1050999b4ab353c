package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Address errors.
var (
	// ErrInvalidPort indicates a port outside A-D.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidUnit indicates a unit outside 0-5.
	ErrInvalidUnit = errors.New("invalid unit")
)

// Port identifies one of the four bus ports.
type Port uint8

const (
	// PortA is the first bus port.
	PortA Port = 0
	// PortB is the second bus port.
	PortB Port = 1
	// PortC is the third bus port.
	PortC Port = 2
	// PortD is the fourth bus port.
	PortD Port = 3

	// PortCount is the number of bus ports.
	PortCount = 4

	// MaxUnit is the highest sub-peripheral unit number.
	MaxUnit = 5
)

// String returns the port letter.
func (p Port) String() string {
	if p > PortD {
		return "?"
	}
	return string(rune('A' + p))
}

// Address is the packed (port, unit) bus address of a device.
//
// The port occupies the top two bits. Unit 0 (the main device on the
// port) sets bit 5; units 1-5 set one of the low five bits. The zero
// value never addresses a device and is used as a wildcard filter.
type Address uint8

// AddressAny is the wildcard address filter matching every device.
const AddressAny Address = 0

// NewAddress packs a (port, unit) pair into a bus address.
func NewAddress(port Port, unit int) (Address, error) {
	if port > PortD {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}
	if unit < 0 || unit > MaxUnit {
		return 0, fmt.Errorf("%w: %d", ErrInvalidUnit, unit)
	}
	addr := Address(port) << 6
	if unit == 0 {
		addr |= 0x20
	} else {
		addr |= 1 << (unit - 1)
	}
	return addr, nil
}

// MustAddress is NewAddress for compile-time-constant arguments.
// It panics on an invalid pair.
func MustAddress(port Port, unit int) Address {
	addr, err := NewAddress(port, unit)
	if err != nil {
		panic(err)
	}
	return addr
}

// ParseAddress parses the "port/unit" form produced by String, for
// example "A/0" or "b/2". The wildcard "*" parses to AddressAny.
func ParseAddress(s string) (Address, error) {
	if s == "*" {
		return AddressAny, nil
	}
	portStr, unitStr, ok := strings.Cut(s, "/")
	if !ok || len(portStr) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, s)
	}
	c := portStr[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'A'+PortCount-1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, s)
	}
	unit, err := strconv.Atoi(unitStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
	return NewAddress(Port(c-'A'), unit)
}

// Port returns the port encoded in the address.
func (a Address) Port() Port {
	return Port(a >> 6)
}

// Unit returns the unit encoded in the address, or -1 for a malformed
// address with no unit bit set.
func (a Address) Unit() int {
	if a&0x20 != 0 {
		return 0
	}
	for u := 1; u <= MaxUnit; u++ {
		if a&(1<<(u-1)) != 0 {
			return u
		}
	}
	return -1
}

// IsWildcard returns true for the match-any filter value.
func (a Address) IsWildcard() bool {
	return a == AddressAny
}

// String returns the address in "port/unit" form, or "*" for the
// wildcard value.
func (a Address) String() string {
	if a.IsWildcard() {
		return "*"
	}
	return fmt.Sprintf("%s/%d", a.Port(), a.Unit())
}
