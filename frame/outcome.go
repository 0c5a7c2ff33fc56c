package frame

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Reason classifies why a channel exchange did not produce counters.
type Reason string

const (
	// ReasonNone marks a parsed outcome.
	ReasonNone Reason = ""
	// ReasonNoResponse: the channel returned no bytes at all.
	ReasonNoResponse Reason = "no-response"
	// ReasonMalformedFrame: bytes arrived but no usable frame header or shape.
	ReasonMalformedFrame Reason = "malformed-frame"
	// ReasonWrongLength: a frame too short for the result shape.
	ReasonWrongLength Reason = "wrong-length"
	// ReasonDecodeException: interpreting the frame payload failed.
	ReasonDecodeException Reason = "decode-exception"
	// ReasonTransportError: writing to or reading from the port failed.
	ReasonTransportError Reason = "transport-error"
	// ReasonCycleException: the whole cycle aborted unexpectedly.
	ReasonCycleException Reason = "cycle-exception"
	// ReasonSkipped: the channel was fine but the cycle was abandoned because of
	// the other channel.
	ReasonSkipped Reason = "skipped"
)

// Outcome is the structured result of one request/response exchange on one channel:
// either parsed counters or a failure reason.
type Outcome struct {
	// Reason is ReasonNone for a parsed outcome.
	Reason Reason
	// Detail carries the underlying cause of a failure.
	Detail string

	TotalCount uint16
	PassCount  uint16

	// Raw is the frame (or raw read) the outcome was derived from, if any.
	Raw []byte
}

// Parsed creates a successful outcome.
func Parsed(total, pass uint16, raw []byte) Outcome {
	return Outcome{TotalCount: total, PassCount: pass, Raw: bytes.Clone(raw)}
}

// Failed creates a failed outcome.
func Failed(reason Reason, detail string, raw []byte) Outcome {
	return Outcome{Reason: reason, Detail: detail, Raw: bytes.Clone(raw)}
}

// IsParsed reports whether the outcome carries counters.
func (o Outcome) IsParsed() bool {
	return o.Reason == ReasonNone
}

func (o Outcome) String() string {
	if o.IsParsed() {
		return fmt.Sprintf("pass %d/total %d", o.PassCount, o.TotalCount)
	}
	if o.Detail == "" {
		return string(o.Reason)
	}

	return string(o.Reason) + ": " + o.Detail
}

// DecodeResult interprets a result frame.
//
// The frame must start with the header followed by one of the recognized type bytes,
// and be at least ResultFrameSize long. Offsets 7-8 hold the total count and 9-10 the
// pass count, both big-endian.
func DecodeResult(f []byte) Outcome {
	if !HasHeader(f) || len(f) <= typeOffset {
		return Failed(ReasonMalformedFrame, "response header 55 BB FF missing: "+Hex(f), f)
	}
	if t := f[typeOffset]; t != TypeResult && t != TypeShort {
		return Failed(ReasonMalformedFrame, fmt.Sprintf("unexpected frame type 0x%02X: %s", t, Hex(f)), f)
	}
	if len(f) < ResultFrameSize {
		return Failed(ReasonWrongLength, fmt.Sprintf("got %d bytes, want %d", len(f), ResultFrameSize), f)
	}

	total := binary.BigEndian.Uint16(f[totalCountOffset : totalCountOffset+2])
	pass := binary.BigEndian.Uint16(f[passCountOffset : passCountOffset+2])

	return Parsed(total, pass, f)
}

// EncodeResult builds an 11-byte result frame carrying total and pass.
// Bytes 4-6 are filled from info.
func EncodeResult(info [3]byte, total, pass uint16) []byte {
	f := make([]byte, ResultFrameSize)
	copy(f, responseHeader)
	f[typeOffset] = TypeResult
	copy(f[4:7], info[:])
	binary.BigEndian.PutUint16(f[totalCountOffset:], total)
	binary.BigEndian.PutUint16(f[passCountOffset:], pass)

	return f
}

// EncodeShort builds a 7-byte short frame with the given payload.
func EncodeShort(payload [3]byte) []byte {
	f := make([]byte, ShortFrameSize)
	copy(f, responseHeader)
	f[typeOffset] = TypeShort
	copy(f[4:], payload[:])

	return f
}
