// Package transport defines the byte level port contract the aging engine talks
// through, and its implementation on top of real serial ports.
//
// A Port makes no framing promise: ReadAvailable returns whatever bytes are
// currently buffered, which may be nothing, part of a frame or several frames.
// Framing is recovered by package frame.
//
// Ports are exclusively owned by one channel session and are not safe for
// concurrent use, matching the half-duplex command/response conversation.
package transport
