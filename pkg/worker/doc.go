// Package worker provides suspended worker contexts for callback
// execution outside the bus delivery path.
//
// A Worker wraps one goroutine that sits parked until woken. Wake is
// non-blocking and coalescing: wakes arriving while the entry point is
// running collapse into a single further run. Destroy tears the worker
// down and joins it, waiting for any in-flight entry-point invocation
// to return before the caller proceeds.
package worker
