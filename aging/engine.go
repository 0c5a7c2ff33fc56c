package aging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-aging/frame"
	"github.com/arloliu/go-aging/internal/pool"
	"github.com/arloliu/go-aging/logger"
	"github.com/arloliu/go-aging/session"
)

// Engine executes single cycles across both channels.
//
// Engine is not goroutine-safe; channels are driven one after the other from the
// calling goroutine.
type Engine struct {
	cfg      *Config
	sessions [2]*session.Session
	logger   logger.Logger

	// decode interprets result frames; replaced in tests.
	decode func([]byte) frame.Outcome
	now    func() time.Time
}

// NewEngine creates an engine over the left and right sessions.
//
// It returns a *frame.ConfigurationError when the command table is incomplete.
func NewEngine(cfg *Config, left, right *session.Session) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("aging: config is nil")
	}
	if left == nil || right == nil {
		return nil, ErrNilSession
	}
	if err := cfg.commands.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:      cfg,
		sessions: [2]*session.Session{left, right},
		logger:   cfg.logger,
		decode:   frame.DecodeResult,
		now:      time.Now,
	}, nil
}

// cycleRun is the mutable state of one cycle in progress.
type cycleRun struct {
	index    int
	state    CycleState
	start    time.Time
	outcomes [2]frame.Outcome
	logger   logger.Logger
}

func (c *cycleRun) to(next CycleState) error {
	if !validTransition(c.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.state, next)
	}
	c.logger.Debug("cycle state", "from", c.state.String(), "to", next.String())
	c.state = next

	return nil
}

// RunCycle executes cycle index (1-based) and returns its result.
//
// The only error returned is the context error when the run was cancelled during a
// wait, or ErrInvalidTransition on an internal state machine fault. Channel failures
// are never errors: they are recorded in the result.
func (e *Engine) RunCycle(ctx context.Context, index int) (CycleResult, error) {
	c := &cycleRun{
		index:  index,
		state:  StateIdle,
		start:  e.now(),
		logger: e.logger.With("cycle", index),
	}
	c.logger.Info("cycle started")

	// EnterSent
	if err := c.to(StateEnterSent); err != nil {
		return CycleResult{}, err
	}
	sendErrs := e.sendAll(frame.EnterTest)

	// EnterVerified
	acked := true
	for _, side := range frame.Sides {
		ok, err := e.receiveAck(ctx, c, side, sendErrs[side])
		if err != nil {
			return CycleResult{}, err
		}
		acked = acked && ok
	}

	if !acked {
		return e.failEnter(c)
	}
	if err := c.to(StateEnterVerified); err != nil {
		return CycleResult{}, err
	}
	c.logger.Info("entered aging test mode")

	// Waiting
	if err := c.to(StateWaiting); err != nil {
		return CycleResult{}, err
	}
	if err := e.waitAging(ctx, c); err != nil {
		return CycleResult{}, err
	}

	// ResultSent
	if err := c.to(StateResultSent); err != nil {
		return CycleResult{}, err
	}
	c.logger.Info("fetching aging results")
	sendErrs = e.sendAll(frame.FetchResult)

	// ResultParsed: both sides always attempted.
	for _, side := range frame.Sides {
		out, err := e.receiveResult(ctx, c, side, sendErrs[side])
		if err != nil {
			return CycleResult{}, err
		}
		c.outcomes[side] = out
	}
	if err := c.to(StateResultParsed); err != nil {
		return CycleResult{}, err
	}

	// Done
	if err := c.to(StateDone); err != nil {
		return CycleResult{}, err
	}
	res := e.result(c)
	if res.Success {
		c.logger.Info("cycle succeeded", "left", res.Left.String(), "right", res.Right.String())
	} else {
		c.logger.Error("cycle failed", "left", res.Left.String(), "right", res.Right.String())
	}

	return res, nil
}

// sendAll issues intent to both channels, left then right. Send failures are
// logged by the session and returned per side.
func (e *Engine) sendAll(intent frame.Intent) [2]error {
	var errs [2]error
	for _, side := range frame.Sides {
		// The table was validated in NewEngine.
		cmd, err := e.cfg.commands.Encode(side, intent)
		if err == nil {
			err = e.sessions[side].Send(cmd)
		}
		errs[side] = err
	}

	return errs
}

// receiveAck reads the enter-test acknowledgment of side. A failed side gets its
// failure outcome recorded in c; the returned error is only a cancellation.
func (e *Engine) receiveAck(ctx context.Context, c *cycleRun, side frame.Side, sendErr error) (bool, error) {
	if sendErr != nil {
		c.outcomes[side] = frame.Failed(frame.ReasonTransportError, sendErr.Error(), nil)
		return false, nil
	}

	resp, err := e.sessions[side].Receive(ctx, e.cfg.responseWait)
	if isCancel(err) {
		return false, err
	}
	if err == nil && frame.VerifyEnterAck(resp.Frame) {
		return true, nil
	}

	if err == nil {
		err = fmt.Errorf("%w: not an enter-test acknowledgment", frame.ErrMalformedFrame)
	}
	c.outcomes[side] = frame.Failed(reasonOf(err), err.Error(), resp.Raw)

	return false, nil
}

// failEnter ends c in CycleFailed. Sides that acknowledged are marked skipped.
func (e *Engine) failEnter(c *cycleRun) (CycleResult, error) {
	var failed []string
	for _, side := range frame.Sides {
		if c.outcomes[side].Reason == frame.ReasonNone {
			continue
		}
		failed = append(failed, side.String())
		c.logger.Error("enter aging test failed",
			"side", side.String(),
			"reason", string(c.outcomes[side].Reason),
			"detail", c.outcomes[side].Detail,
			"raw", frame.Hex(c.outcomes[side].Raw),
		)
	}
	for _, side := range frame.Sides {
		if c.outcomes[side].Reason == frame.ReasonNone {
			c.outcomes[side] = frame.Failed(frame.ReasonSkipped, "enter-test failed on "+joinSides(failed), nil)
		}
	}

	if err := c.to(StateCycleFailed); err != nil {
		return CycleResult{}, err
	}

	return e.result(c), nil
}

func (e *Engine) waitAging(ctx context.Context, c *cycleRun) error {
	wait := e.cfg.AgingWait()
	c.logger.Info("waiting for aging to complete", "wait", wait.String())

	return pool.SleepProgress(ctx, wait, e.cfg.progressInterval, func(remaining time.Duration) {
		c.logger.Info("aging in progress", "remaining", remaining.Round(time.Second).String())
	})
}

// receiveResult reads and decodes the result frame of side. A panic while decoding
// is confined to this side.
func (e *Engine) receiveResult(ctx context.Context, c *cycleRun, side frame.Side, sendErr error) (out frame.Outcome, err error) {
	if sendErr != nil {
		return frame.Failed(frame.ReasonTransportError, sendErr.Error(), nil), nil
	}

	resp, err := e.sessions[side].Receive(ctx, e.cfg.responseWait)
	if isCancel(err) {
		return frame.Outcome{}, err
	}
	if err != nil {
		return frame.Failed(reasonOf(err), err.Error(), resp.Raw), nil
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("decode result panicked", "side", side.String(), "frame", frame.Hex(resp.Frame), "panic", r)
			out = frame.Failed(frame.ReasonDecodeException, fmt.Sprintf("%v: %v", frame.ErrDecode, r), resp.Frame)
			err = nil
		}
	}()

	out = e.decode(resp.Frame)
	if out.IsParsed() {
		c.logger.Info("result parsed", "side", side.String(), "total", out.TotalCount, "pass", out.PassCount)
	} else {
		c.logger.Error("result rejected", "side", side.String(), "reason", string(out.Reason), "detail", out.Detail)
	}

	return out, nil
}

func (e *Engine) result(c *cycleRun) CycleResult {
	now := e.now()

	return CycleResult{
		Index:     c.index,
		Success:   c.state == StateDone && c.outcomes[frame.Left].IsParsed() && c.outcomes[frame.Right].IsParsed(),
		Left:      c.outcomes[frame.Left],
		Right:     c.outcomes[frame.Right],
		State:     c.state,
		Timestamp: now,
		Duration:  now.Sub(c.start),
	}
}

// reasonOf maps a receive error to a failure reason.
func reasonOf(err error) frame.Reason {
	switch {
	case errors.Is(err, session.ErrNoResponse):
		return frame.ReasonNoResponse
	case errors.Is(err, session.ErrTransport):
		return frame.ReasonTransportError
	case errors.Is(err, frame.ErrNoFrame), errors.Is(err, frame.ErrMalformedFrame):
		return frame.ReasonMalformedFrame
	default:
		return frame.ReasonDecodeException
	}
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func joinSides(sides []string) string {
	switch len(sides) {
	case 0:
		return "no channel"
	case 1:
		return sides[0] + " channel"
	default:
		return "both channels"
	}
}
