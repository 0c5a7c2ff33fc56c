package frame

import (
	"bytes"
	"fmt"
)

// Response frame layout.
const (
	HeaderSize      = 3
	ResultFrameSize = 11
	ShortFrameSize  = 7

	// TypeResult is the type byte of the 11-byte result frame.
	TypeResult byte = 0x07
	// TypeShort is the type byte of the 7-byte short frame.
	TypeShort byte = 0x03

	typeOffset       = 3
	totalCountOffset = 7
	passCountOffset  = 9
)

var responseHeader = []byte{0x55, 0xBB, 0xFF}

// Header returns a copy of the response header signature.
func Header() []byte {
	return bytes.Clone(responseHeader)
}

// shape is a recognized complete frame layout.
type shape struct {
	typ  byte
	size int
}

// Shapes in preference order: a complete result frame beats any short frame.
var shapes = [...]shape{
	{typ: TypeResult, size: ResultFrameSize},
	{typ: TypeShort, size: ShortFrameSize},
}

// Extract returns the freshest frame found in raw.
//
// The buffer is scanned backwards, so among several complete frames of the same shape
// the last one is returned. A complete result frame is preferred over a short frame
// regardless of their offsets. When the header occurs but no complete shape follows it,
// an 11-byte slice starting at the last header is returned if the buffer is long enough.
//
// Errors: ErrNoFrame when the header never occurs, ErrMalformedFrame when the bytes
// after the last header are too few for the best-effort slice.
//
// The returned frame never aliases raw.
func Extract(raw []byte) ([]byte, error) {
	for _, s := range shapes {
		if i := lastShapeIndex(raw, s); i >= 0 {
			return bytes.Clone(raw[i : i+s.size]), nil
		}
	}

	i := bytes.LastIndex(raw, responseHeader)
	if i < 0 {
		return nil, ErrNoFrame
	}
	if len(raw)-i < ResultFrameSize {
		return nil, fmt.Errorf("%w: %d bytes from last header at offset %d, want %d",
			ErrMalformedFrame, len(raw)-i, i, ResultFrameSize)
	}

	return bytes.Clone(raw[i : i+ResultFrameSize]), nil
}

// lastShapeIndex returns the offset of the last complete frame of shape s in raw, or -1.
func lastShapeIndex(raw []byte, s shape) int {
	for i := len(raw) - s.size; i >= 0; i-- {
		if hasHeaderAt(raw, i) && raw[i+typeOffset] == s.typ {
			return i
		}
	}

	return -1
}

func hasHeaderAt(b []byte, i int) bool {
	return i >= 0 && len(b)-i >= HeaderSize &&
		b[i] == responseHeader[0] && b[i+1] == responseHeader[1] && b[i+2] == responseHeader[2]
}

// HasHeader reports whether f starts with the response header signature.
func HasHeader(f []byte) bool {
	return hasHeaderAt(f, 0)
}

// VerifyEnterAck reports whether f acknowledges an enter-test command.
//
// Only the header signature is checked. Firmware answers the same acknowledgment with
// type byte 0x03 or 0x07, and the type byte carries no meaning for this check.
func VerifyEnterAck(f []byte) bool {
	return HasHeader(f)
}

// Hex formats b as upper-case hex bytes separated by spaces, e.g. "55 BB FF 07".
func Hex(b []byte) string {
	return fmt.Sprintf("% X", b)
}
