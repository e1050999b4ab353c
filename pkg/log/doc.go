// Package log provides structured diagnostic event logging for the bus
// stack.
//
// Events are captured at three layers: the bus layer (poll scheduling,
// device lifecycle), the wire layer (raw frames and decode failures),
// and the driver layer (state publication and combo dispatch). Sinks
// implement the Logger interface; FileLogger appends events to a file
// in CBOR, SlogAdapter bridges them into log/slog for development, and
// MultiLogger fans out to several sinks at once.
//
// Logging is diagnostic only: sinks must never block the bus delivery
// path, and every call site tolerates a NoopLogger.
package log
