// Package audit queues engine events and hands them to a Sink on a single
// background goroutine.
//
// The Dispatcher either drops events when its buffer is full or blocks the
// caller until space frees up, depending on Config.DropIfFull. Sinks are
// plain values: ChannelSink for tests, JSONWriterSink for append-only
// files, ZapSink for structured logs and MultiSink to combine them.
//
// Which events exist is decided by the engine; this package never filters.
package audit
