package transporttest

import (
	"sync"

	"github.com/arloliu/go-aging/frame"
)

// Device simulates one fixture channel. It acknowledges enter-test commands and
// answers fetch-result commands with a result frame.
//
// Per-call overrides allow scripting failures for specific exchanges: the n-th
// enter-test (1-based) is answered with EnterReplies[n] when present.
type Device struct {
	mu sync.Mutex

	// EnterAck is the default acknowledgment, a short frame when nil.
	EnterAck []byte
	// Total and Pass are reported by result frames.
	Total, Pass uint16

	// EnterReplies overrides the reply to the n-th enter-test command.
	EnterReplies map[int][]byte
	// ResultReplies overrides the reply to the n-th fetch-result command.
	ResultReplies map[int][]byte

	enters, fetches int
}

// Handle implements Handler.
func (d *Device) Handle(cmd []byte) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch Opcode(cmd) {
	case frame.OpEnterTest:
		d.enters++
		if r, ok := d.EnterReplies[d.enters]; ok {
			return r
		}
		if d.EnterAck != nil {
			return d.EnterAck
		}

		return frame.EncodeShort([3]byte{frame.OpEnterTest, cmd[5], 0x00})

	case frame.OpFetchResult:
		d.fetches++
		if r, ok := d.ResultReplies[d.fetches]; ok {
			return r
		}

		return frame.EncodeResult([3]byte{frame.OpFetchResult, cmd[5], 0x00}, d.Total, d.Pass)

	default:
		return nil
	}
}

// Enters returns the number of enter-test commands received.
func (d *Device) Enters() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.enters
}

// Fetches returns the number of fetch-result commands received.
func (d *Device) Fetches() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.fetches
}

// NewDevicePort returns a scripted port backed by a new Device reporting total/pass.
func NewDevicePort(total, pass uint16) (*ScriptedPort, *Device) {
	d := &Device{Total: total, Pass: pass}

	return NewScriptedPort(d.Handle), d
}

// FullCommands returns a complete command table using the documented opcodes.
func FullCommands() *frame.CommandTable {
	return frame.DefaultCommands().
		With(frame.Left, frame.FetchResult, frame.NewCommand(frame.OpFetchResult, frame.Left)).
		With(frame.Right, frame.FetchResult, frame.NewCommand(frame.OpFetchResult, frame.Right))
}
