// Package wire defines the Maple bus wire format types.
//
// Maple frames carry a one-word header followed by a payload of 32-bit
// words, transmitted little-endian. The header packs the command code,
// destination address, source address, and payload length in words.
//
// # Addressing
//
// Every device on the bus is identified by a single address byte packing
// its port (A-D) and unit (0 = main device, 1-5 = sub-peripherals).
// Address 0 is never assigned to a device and acts as a wildcard in the
// APIs that accept an address filter.
//
// # Commands and responses
//
// Command codes are shared between requests and responses: positive codes
// are requests and normal responses, negative codes are bus-level errors.
// A successful "get condition" request is answered with a data-transfer
// response whose payload leads with the function code of the responding
// function, followed by the function's raw condition record.
package wire
