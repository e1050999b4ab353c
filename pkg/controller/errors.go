package controller

import "errors"

// Registration errors.
var (
	// ErrNilCallback indicates Register was called without a callback.
	// (Unregister, not a nil callback, is the way to remove watchers.)
	ErrNilCallback = errors.New("nil combo callback")

	// ErrTooManyWatchers indicates the watcher cap was reached and no
	// new watcher could be allocated.
	ErrTooManyWatchers = errors.New("too many combo watchers")

	// ErrRegistryClosed indicates the registry has been shut down.
	ErrRegistryClosed = errors.New("combo registry closed")
)

// Drop reasons for poll responses, reported in diagnostic events.
// A dropped response never updates state and never fires a callback.
const (
	dropReasonResponse  = "not-data-transfer"
	dropReasonFunction  = "wrong-function"
	dropReasonGone      = "device-gone"
	dropReasonShort     = "short-payload"
	dropReasonRecordLen = "length-mismatch"
)
