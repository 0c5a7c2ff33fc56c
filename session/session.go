// Package session implements the half-duplex conversation with one fixture channel:
// one command out, one response frame in.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-aging/frame"
	"github.com/arloliu/go-aging/internal/pool"
	"github.com/arloliu/go-aging/logger"
	"github.com/arloliu/go-aging/transport"
)

// DefaultResponseWait is the fixed wait between sending a command and draining the
// response. The firmware has no ready signal, so a static wait is the only
// synchronization available.
const DefaultResponseWait = time.Second

var (
	// ErrTransport wraps write, read and buffer reset failures of the port.
	ErrTransport = errors.New("session: transport error")

	// ErrNoResponse indicates that the drain after the response wait returned no bytes.
	ErrNoResponse = errors.New("session: no response")
)

// Response is what one receive step observed.
type Response struct {
	// Raw holds every byte drained from the port, stale bytes included.
	Raw []byte
	// Frame is the frame extracted from Raw, nil when extraction failed.
	Frame []byte
}

// Metrics holds atomic counters of one session.
type Metrics struct {
	CommandSendCount  atomic.Uint64
	FrameRecvCount    atomic.Uint64
	NoResponseCount   atomic.Uint64
	BadFrameCount     atomic.Uint64
	TransportErrCount atomic.Uint64
}

// Session owns the port of one channel. It is not goroutine-safe; the cycle engine
// drives both sessions from a single flow of control.
type Session struct {
	side    frame.Side
	port    transport.Port
	logger  logger.Logger
	metrics Metrics
}

// New creates a session for side on port. A nil logger falls back to the package default.
func New(side frame.Side, port transport.Port, l logger.Logger) *Session {
	if l == nil {
		l = logger.GetLogger()
	}

	return &Session{
		side:   side,
		port:   port,
		logger: l.With("side", side.String()),
	}
}

// Side returns the channel this session talks to.
func (s *Session) Side() frame.Side { return s.side }

// Metrics returns the session counters.
func (s *Session) Metrics() *Metrics { return &s.metrics }

// Send discards unread input, so late bytes of a previous exchange cannot leak into
// the next read, then writes cmd.
func (s *Session) Send(cmd []byte) error {
	if err := s.port.ResetInputBuffer(); err != nil {
		return s.transportErr("reset input buffer", err)
	}

	if _, err := s.port.Write(cmd); err != nil {
		return s.transportErr("write command", err)
	}
	s.metrics.CommandSendCount.Add(1)
	s.logger.Info("command sent", "cmd", frame.Hex(cmd))

	return nil
}

// Receive waits for wait, then drains the available bytes once and extracts the
// freshest frame.
//
// The returned error is ctx.Err() when the wait was interrupted, wraps ErrTransport
// on a read failure, is ErrNoResponse when nothing was read, or wraps
// frame.ErrNoFrame / frame.ErrMalformedFrame when no frame could be extracted.
// Response.Raw is populated whenever bytes were read.
func (s *Session) Receive(ctx context.Context, wait time.Duration) (Response, error) {
	if err := pool.Sleep(ctx, wait); err != nil {
		return Response{}, err
	}

	raw, err := s.port.ReadAvailable()
	if err != nil {
		return Response{Raw: raw}, s.transportErr("read response", err)
	}

	if len(raw) == 0 {
		s.metrics.NoResponseCount.Add(1)
		s.logger.Warn("no response")

		return Response{}, ErrNoResponse
	}
	s.logger.Info("raw response", "raw", frame.Hex(raw), "bytes", len(raw))

	f, err := frame.Extract(raw)
	if err != nil {
		s.metrics.BadFrameCount.Add(1)
		s.logger.Warn("no valid frame in response", "raw", frame.Hex(raw), "error", err)

		return Response{Raw: raw}, err
	}
	s.metrics.FrameRecvCount.Add(1)
	s.logger.Debug("frame extracted", "frame", frame.Hex(f))

	return Response{Raw: raw, Frame: f}, nil
}

// Exchange sends cmd and receives the response after wait.
func (s *Session) Exchange(ctx context.Context, cmd []byte, wait time.Duration) (Response, error) {
	if err := s.Send(cmd); err != nil {
		return Response{}, err
	}

	return s.Receive(ctx, wait)
}

func (s *Session) transportErr(op string, err error) error {
	s.metrics.TransportErrCount.Add(1)
	s.logger.Error("transport failure", "op", op, "error", err)

	return fmt.Errorf("%w: %s %s: %w", ErrTransport, s.side, op, err)
}
