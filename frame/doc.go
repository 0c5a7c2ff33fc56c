// Package frame implements the wire codec of the aging test fixture protocol.
//
// The fixture firmware speaks a tiny binary protocol over a point-to-point serial link.
// Every command is six bytes:
//
//	55 AA FF 02 <opcode> <channel selector>
//
// and every response starts with the three byte header 55 BB FF followed by a type byte
// and a type dependent payload. Two response shapes are recognized:
//
//   - result frame, 11 bytes, type 0x07. Offsets 7-8 carry the big-endian total count
//     and offsets 9-10 the big-endian pass count of the last aging session.
//   - short frame, 7 bytes, type 0x03.
//
// The serial line delivers bytes without any framing guarantee: a single read may hold
// stale bytes of a previous exchange, a partial frame or several concatenated frames.
// [Extract] recovers the freshest recognizable frame from such a buffer by scanning it
// backwards, so the last complete frame always wins.
//
// Commands are looked up in an immutable [CommandTable]. A table that lacks an entry
// for any (side, intent) pair is a configuration error and must be rejected before a
// test run starts; see [CommandTable.Validate].
package frame
