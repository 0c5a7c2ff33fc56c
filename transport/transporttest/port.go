// Package transporttest provides in-memory ports and a fixture device simulator
// for testing code built on package transport.
package transporttest

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/go-aging/frame"
	"github.com/arloliu/go-aging/transport"
)

// Handler produces the bytes a device emits in response to cmd.
type Handler func(cmd []byte) []byte

// ScriptedPort is an in-memory transport.Port. Every Write is passed to the
// handler and its reply is appended to the input buffer.
type ScriptedPort struct {
	mu       sync.Mutex
	handler  Handler
	pending  []byte
	writes   [][]byte
	resets   int
	closes   int
	writeErr error
	readErr  error
}

var _ transport.Port = (*ScriptedPort)(nil)

// NewScriptedPort creates a port answering writes with h. A nil h never answers.
func NewScriptedPort(h Handler) *ScriptedPort {
	return &ScriptedPort{handler: h}
}

func (p *ScriptedPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closes > 0 {
		return 0, transport.ErrPortClosed
	}
	if p.writeErr != nil {
		return 0, p.writeErr
	}

	p.writes = append(p.writes, bytes.Clone(b))
	if p.handler != nil {
		p.pending = append(p.pending, p.handler(b)...)
	}

	return len(b), nil
}

func (p *ScriptedPort) ReadAvailable() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closes > 0 {
		return nil, transport.ErrPortClosed
	}
	if p.readErr != nil {
		return nil, p.readErr
	}

	out := p.pending
	p.pending = nil

	return out, nil
}

func (p *ScriptedPort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resets++
	p.pending = nil

	return nil
}

func (p *ScriptedPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closes++

	return nil
}

// Feed appends b to the input buffer as if it arrived on the line.
func (p *ScriptedPort) Feed(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = append(p.pending, b...)
}

// SetWriteError makes subsequent writes fail with err. A nil err clears it.
func (p *ScriptedPort) SetWriteError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.writeErr = err
}

// SetReadError makes subsequent reads fail with err. A nil err clears it.
func (p *ScriptedPort) SetReadError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.readErr = err
}

// Writes returns copies of all written commands in order.
func (p *ScriptedPort) Writes() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([][]byte, len(p.writes))
	copy(out, p.writes)

	return out
}

// Resets returns how many times the input buffer was reset.
func (p *ScriptedPort) Resets() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.resets
}

// CloseCount returns how many times Close was called.
func (p *ScriptedPort) CloseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closes
}

// Opener returns a transport.Opener serving ports by endpoint name.
// Unknown names fail to open.
func Opener(ports map[string]transport.Port) transport.Opener {
	return transport.OpenerFunc(func(name string, _ int, _ time.Duration) (transport.Port, error) {
		p, ok := ports[name]
		if !ok {
			return nil, fmt.Errorf("no such port %q", name)
		}

		return p, nil
	})
}

// ErrInjected is a convenience error for failure injection.
var ErrInjected = errors.New("transporttest: injected failure")

// Opcode returns the opcode byte of a command, or 0 for a short command.
func Opcode(cmd []byte) byte {
	if len(cmd) < frame.CommandSize {
		return 0
	}

	return cmd[4]
}
