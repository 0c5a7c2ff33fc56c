package transport

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultPollTimeout is how long a drain read waits for the next chunk before
	// concluding that the device has nothing more buffered.
	DefaultPollTimeout = 50 * time.Millisecond

	// maxDrainSize bounds a single drain so a babbling device cannot grow the buffer forever.
	maxDrainSize = 4096

	readChunkSize = 256
)

// rawPort is the subset of serial.Port used by SerialPort.
type rawPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	ResetInputBuffer() error
	SetReadTimeout(t time.Duration) error
	Close() error
}

// SerialOpener opens ports with go.bug.st/serial, 8N1 framing.
type SerialOpener struct {
	// PollTimeout overrides DefaultPollTimeout when positive.
	PollTimeout time.Duration

	open func(name string, mode *serial.Mode) (rawPort, error)
}

var _ Opener = (*SerialOpener)(nil)

// Open opens endpoint at baudRate. timeout bounds the total duration of one
// ReadAvailable drain.
func (o *SerialOpener) Open(endpoint string, baudRate int, timeout time.Duration) (Port, error) {
	open := o.open
	if open == nil {
		open = openSerial
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	raw, err := open(endpoint, mode)
	if err != nil {
		return nil, err
	}

	poll := o.PollTimeout
	if poll <= 0 {
		poll = DefaultPollTimeout
	}
	if err := raw.SetReadTimeout(poll); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", endpoint, err)
	}

	return &SerialPort{name: endpoint, port: raw, drainLimit: timeout}, nil
}

func openSerial(name string, mode *serial.Mode) (rawPort, error) {
	return serial.Open(name, mode)
}

// SerialPort is a Port on a serial line.
type SerialPort struct {
	name       string
	port       rawPort
	drainLimit time.Duration

	closeOnce sync.Once
	closed    bool
	closeErr  error
}

var _ Port = (*SerialPort)(nil)

// Name returns the endpoint the port was opened on.
func (p *SerialPort) Name() string { return p.name }

func (p *SerialPort) Write(b []byte) (int, error) {
	if p.closed {
		return 0, ErrPortClosed
	}

	for written := 0; written < len(b); {
		n, err := p.port.Write(b[written:])
		written += n
		if err != nil {
			return written, fmt.Errorf("write %s: %w", p.name, err)
		}
		if n == 0 {
			return written, fmt.Errorf("write %s: short write %d/%d", p.name, written, len(b))
		}
	}

	return len(b), nil
}

// ReadAvailable reads chunks until a read returns no data, the drain size limit is
// reached or the drain has taken longer than the port timeout.
func (p *SerialPort) ReadAvailable() ([]byte, error) {
	if p.closed {
		return nil, ErrPortClosed
	}

	var (
		out   []byte
		chunk [readChunkSize]byte
		start = time.Now()
	)
	for len(out) < maxDrainSize {
		n, err := p.port.Read(chunk[:])
		out = append(out, chunk[:n]...)
		if err != nil {
			return out, fmt.Errorf("read %s: %w", p.name, err)
		}
		if n == 0 {
			break
		}
		if p.drainLimit > 0 && time.Since(start) >= p.drainLimit {
			break
		}
	}

	return out, nil
}

func (p *SerialPort) ResetInputBuffer() error {
	if p.closed {
		return ErrPortClosed
	}
	if err := p.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("reset input %s: %w", p.name, err)
	}

	return nil
}

// Close closes the underlying port once.
func (p *SerialPort) Close() error {
	p.closeOnce.Do(func() {
		p.closed = true
		p.closeErr = p.port.Close()
	})

	return p.closeErr
}
