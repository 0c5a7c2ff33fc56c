package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/go-aging/frame"
	"github.com/arloliu/go-aging/logger"
)

var (
	// ErrPortClosed is returned by operations on a closed port.
	ErrPortClosed = errors.New("transport: port closed")

	// ErrOpen wraps failures to open an endpoint.
	ErrOpen = errors.New("transport: open failed")
)

// Port is the transport collaborator of a channel session.
type Port interface {
	// Write sends p to the device.
	Write(p []byte) (int, error)
	// ReadAvailable drains the bytes currently available without waiting for
	// more to arrive. It may return an empty slice.
	ReadAvailable() ([]byte, error)
	// ResetInputBuffer discards any unread input.
	ResetInputBuffer() error
	// Close releases the port.
	Close() error
}

// Opener opens ports by endpoint identifier, e.g. "COM26" or "/dev/ttyUSB0".
type Opener interface {
	Open(endpoint string, baudRate int, timeout time.Duration) (Port, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(endpoint string, baudRate int, timeout time.Duration) (Port, error)

func (f OpenerFunc) Open(endpoint string, baudRate int, timeout time.Duration) (Port, error) {
	return f(endpoint, baudRate, timeout)
}

// Endpoint describes a port to open.
type Endpoint struct {
	Name     string
	BaudRate int
	Timeout  time.Duration
}

// Pair holds the ports of both channels. Close releases each port exactly once,
// no matter how many times it is called.
type Pair struct {
	ports  [2]Port
	names  [2]string
	logger logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// OpenPair opens the left and right endpoints. When the right port fails to open,
// the already opened left port is closed before returning.
func OpenPair(op Opener, left, right Endpoint, l logger.Logger) (*Pair, error) {
	if l == nil {
		l = logger.GetLogger()
	}

	p := &Pair{logger: l, names: [2]string{left.Name, right.Name}}

	for i, ep := range [2]Endpoint{left, right} {
		port, err := op.Open(ep.Name, ep.BaudRate, ep.Timeout)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("%w: %s port %s: %w", ErrOpen, frame.Sides[i], ep.Name, err)
		}
		p.ports[i] = port
		l.Info("port opened", "side", frame.Sides[i].String(), "port", ep.Name, "baudRate", ep.BaudRate)
	}

	return p, nil
}

// NewPair wraps two already opened ports.
func NewPair(left, right Port, l logger.Logger) *Pair {
	if l == nil {
		l = logger.GetLogger()
	}

	return &Pair{ports: [2]Port{left, right}, names: [2]string{"left", "right"}, logger: l}
}

// Port returns the port of side.
func (p *Pair) Port(side frame.Side) Port {
	return p.ports[side]
}

// Close closes both ports once. Later calls return the first result.
func (p *Pair) Close() error {
	p.closeOnce.Do(func() {
		var errs []error
		for i, port := range p.ports {
			if port == nil {
				continue
			}
			if err := port.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s port %s: %w", frame.Sides[i], p.names[i], err))
				continue
			}
			p.logger.Info("port closed", "side", frame.Sides[i].String(), "port", p.names[i])
		}
		p.closeErr = errors.Join(errs...)
	})

	return p.closeErr
}
