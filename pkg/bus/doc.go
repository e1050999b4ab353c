// Package bus models the Maple peripheral bus: the transport that moves
// frames to and from devices, the devices themselves, and the driver
// registry that gives function drivers a periodic polling slot.
//
// # Execution contexts
//
// The transport delivers every completion callback on a single delivery
// goroutine, the software stand-in for the bus interrupt handler.
// Driver code reached from a completion must never block. Everything
// else (device attach/detach, driver registration, the poll ticker)
// runs in ordinary task context.
//
// # Polling
//
// The registry does not retry on its own: a driver that cannot reserve
// a device's send slot this tick simply waits for the next natural
// tick. Total work per tick is proportional to the number of attached
// devices.
package bus
