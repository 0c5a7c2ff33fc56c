package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeResult_RoundTrip(t *testing.T) {
	counts := []struct{ total, pass uint16 }{
		{0, 0},
		{5, 3},
		{2, 4},
		{0x0100, 0x00FF},
		{0xFFFF, 0xFFFE},
	}

	for _, c := range counts {
		f := EncodeResult([3]byte{0x41, 0x00, 0x00}, c.total, c.pass)
		out := DecodeResult(f)

		assert.True(t, out.IsParsed(), out.String())
		assert.Equal(t, c.total, out.TotalCount)
		assert.Equal(t, c.pass, out.PassCount)
		assert.Equal(t, f, out.Raw)
	}
}

func TestDecodeResult_DeviceSamples(t *testing.T) {
	out := DecodeResult([]byte{0x55, 0xBB, 0xFF, 0x07, 0x41, 0x00, 0x00, 0x00, 0x05, 0x00, 0x03})
	assert.True(t, out.IsParsed())
	assert.Equal(t, uint16(5), out.TotalCount)
	assert.Equal(t, uint16(3), out.PassCount)

	out = DecodeResult([]byte{0x55, 0xBB, 0xFF, 0x07, 0x04, 0x01, 0x00, 0x00, 0x02, 0x04, 0x00})
	assert.True(t, out.IsParsed())
	assert.Equal(t, uint16(2), out.TotalCount)
	assert.Equal(t, uint16(0x0400), out.PassCount)
}

func TestDecodeResult_Failures(t *testing.T) {
	tests := []struct {
		name   string
		frame  []byte
		reason Reason
	}{
		{name: "nil", frame: nil, reason: ReasonMalformedFrame},
		{name: "header only", frame: []byte{0x55, 0xBB, 0xFF}, reason: ReasonMalformedFrame},
		{name: "corrupt header", frame: []byte{0x55, 0xBA, 0xFF, 0x07, 0, 0, 0, 0, 1, 0, 1}, reason: ReasonMalformedFrame},
		{name: "unknown type", frame: []byte{0x55, 0xBB, 0xFF, 0x04, 0, 0, 0, 0, 1, 0, 1}, reason: ReasonMalformedFrame},
		{name: "short frame", frame: EncodeShort([3]byte{0x09, 0x01, 0x00}), reason: ReasonWrongLength},
		{name: "ten bytes", frame: EncodeResult([3]byte{}, 1, 1)[:10], reason: ReasonWrongLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := DecodeResult(tt.frame)
			assert.False(t, out.IsParsed())
			assert.Equal(t, tt.reason, out.Reason)
			assert.NotEmpty(t, out.Detail)
		})
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "pass 3/total 5", Parsed(5, 3, nil).String())
	assert.Equal(t, "no-response", Failed(ReasonNoResponse, "", nil).String())
	assert.Equal(t, "wrong-length: got 7 bytes, want 11", Failed(ReasonWrongLength, "got 7 bytes, want 11", nil).String())
}
