// Package controller implements the game controller function driver.
//
// The driver polls every attached controller once per bus tick with a
// get-condition request, translates the raw wire condition into a
// canonical State (active-high buttons, centered axes), publishes the
// snapshot on the device, and scans the combo watcher registry for
// button combinations to dispatch.
//
// # Combo watchers
//
// A watcher pairs an address filter and a button mask with a user
// callback. The callback runs on the watcher's own worker goroutine,
// never on the bus delivery path. Dispatch is level-triggered: a combo
// that stays held re-fires its watcher on every poll tick.
//
// # Delivery-path discipline
//
// Reply handling and dispatch run on the transport's delivery
// goroutine and never block. If the watcher registry is being mutated
// when a poll response arrives, that cycle's dispatch is skipped
// entirely rather than waiting for the lock.
package controller
