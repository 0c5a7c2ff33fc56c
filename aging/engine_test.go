package aging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-aging/frame"
	"github.com/arloliu/go-aging/session"
	"github.com/arloliu/go-aging/transport/transporttest"
)

func TestNewEngine_IncompleteCommands(t *testing.T) {
	cfg := newTestConfig(t, WithCommands(frame.DefaultCommands()))
	left, _ := transporttest.NewDevicePort(1, 1)
	right, _ := transporttest.NewDevicePort(1, 1)

	_, err := NewEngine(cfg, session.New(frame.Left, left, nil), session.New(frame.Right, right, nil))
	require.ErrorIs(t, err, frame.ErrMissingCommand)

	var cfgErr *frame.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Len(t, cfgErr.Missing, 2)
	assert.Empty(t, left.Writes())
}

func TestNewEngine_NilSession(t *testing.T) {
	cfg := newTestConfig(t)
	_, err := NewEngine(cfg, nil, nil)
	require.ErrorIs(t, err, ErrNilSession)
}

func TestRunCycle_Success(t *testing.T) {
	cfg := newTestConfig(t)
	left, leftDev := transporttest.NewDevicePort(5, 5)
	right, rightDev := transporttest.NewDevicePort(5, 3)
	e := newTestEngine(t, cfg, left, right)

	res, err := e.RunCycle(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Index)
	assert.True(t, res.Success, res.String())
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, uint16(5), res.Left.TotalCount)
	assert.Equal(t, uint16(5), res.Left.PassCount)
	assert.Equal(t, uint16(5), res.Right.TotalCount)
	assert.Equal(t, uint16(3), res.Right.PassCount, "success does not require pass == total")
	assert.False(t, res.Timestamp.IsZero())
	assert.GreaterOrEqual(t, res.Duration, cfg.AgingWait())

	assert.Equal(t, 1, leftDev.Enters())
	assert.Equal(t, 1, leftDev.Fetches())
	assert.Equal(t, 1, rightDev.Enters())
	assert.Equal(t, 1, rightDev.Fetches())

	assert.Equal(t, [][]byte{
		{0x55, 0xAA, 0xFF, 0x02, 0x09, 0x01},
		{0x55, 0xAA, 0xFF, 0x02, 0x41, 0x01},
	}, left.Writes())
	assert.Equal(t, [][]byte{
		{0x55, 0xAA, 0xFF, 0x02, 0x09, 0x00},
		{0x55, 0xAA, 0xFF, 0x02, 0x41, 0x00},
	}, right.Writes())
	assert.Equal(t, 2, left.Resets(), "input is discarded before every command")
}

func TestRunCycle_EnterAckWithResultTypeByte(t *testing.T) {
	cfg := newTestConfig(t)
	left, leftDev := transporttest.NewDevicePort(2, 2)
	leftDev.EnterAck = []byte{0x55, 0xBB, 0xFF, 0x07, 0x04, 0x01, 0x00, 0x00, 0x02, 0x04, 0x00}
	right, _ := transporttest.NewDevicePort(2, 2)

	res, err := newTestEngine(t, cfg, left, right).RunCycle(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestRunCycle_LeftEnterFailureSkipsAgingWait(t *testing.T) {
	cfg := newTestConfig(t, WithAgingDuration(2*time.Second))
	left := transporttest.NewScriptedPort(nil) // never answers
	right, rightDev := transporttest.NewDevicePort(5, 5)
	e := newTestEngine(t, cfg, left, right)

	begin := time.Now()
	res, err := e.RunCycle(context.Background(), 4)
	elapsed := time.Since(begin)
	require.NoError(t, err)

	assert.Less(t, elapsed, time.Second, "aging wait must not be entered")
	assert.Equal(t, StateCycleFailed, res.State)
	assert.False(t, res.Success)
	assert.Equal(t, 4, res.Index)
	assert.Equal(t, frame.ReasonNoResponse, res.Left.Reason)
	assert.Equal(t, frame.ReasonSkipped, res.Right.Reason)
	assert.Contains(t, res.Right.Detail, "left channel")

	assert.Len(t, left.Writes(), 1, "only the enter-test command is sent")
	assert.Equal(t, 0, rightDev.Fetches())
}

func TestRunCycle_EnterGarbageIsMalformed(t *testing.T) {
	cfg := newTestConfig(t)
	garbage := []byte{0x01, 0x02, 0x03}
	left, _ := transporttest.NewDevicePort(1, 1)
	right := transporttest.NewScriptedPort(func([]byte) []byte { return garbage })

	res, err := newTestEngine(t, cfg, left, right).RunCycle(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, StateCycleFailed, res.State)
	assert.Equal(t, frame.ReasonSkipped, res.Left.Reason)
	assert.Equal(t, frame.ReasonMalformedFrame, res.Right.Reason)
	assert.Equal(t, garbage, res.Right.Raw)
}

func TestRunCycle_BothEnterFailures(t *testing.T) {
	cfg := newTestConfig(t)
	left := transporttest.NewScriptedPort(nil)
	right := transporttest.NewScriptedPort(nil)
	right.SetWriteError(transporttest.ErrInjected)

	res, err := newTestEngine(t, cfg, left, right).RunCycle(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, StateCycleFailed, res.State)
	assert.Equal(t, frame.ReasonNoResponse, res.Left.Reason)
	assert.Equal(t, frame.ReasonTransportError, res.Right.Reason)
}

func TestRunCycle_LeftDecodePanicStillScoresRight(t *testing.T) {
	cfg := newTestConfig(t)
	left, _ := transporttest.NewDevicePort(0xDEAD, 1)
	right, rightDev := transporttest.NewDevicePort(5, 4)
	e := newTestEngine(t, cfg, left, right)
	e.decode = func(f []byte) frame.Outcome {
		out := frame.DecodeResult(f)
		if out.TotalCount == 0xDEAD {
			var counts []uint16
			_ = counts[out.PassCount] // index out of range
		}

		return out
	}

	res, err := e.RunCycle(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State, "a late failure is scored, not aborted")
	assert.False(t, res.Success)
	assert.Equal(t, frame.ReasonDecodeException, res.Left.Reason)
	assert.Contains(t, res.Left.Detail, "index out of range")
	assert.NotEmpty(t, res.Left.Raw)

	require.True(t, res.Right.IsParsed())
	assert.Equal(t, uint16(5), res.Right.TotalCount)
	assert.Equal(t, uint16(4), res.Right.PassCount)
	assert.Equal(t, 1, rightDev.Fetches())
}

func TestRunCycle_ResultFailures(t *testing.T) {
	tests := []struct {
		name   string
		reply  []byte
		reason frame.Reason
	}{
		{name: "no response", reply: nil, reason: frame.ReasonNoResponse},
		{name: "short frame", reply: frame.EncodeShort([3]byte{0x41, 0x00, 0x00}), reason: frame.ReasonWrongLength},
		{name: "no header", reply: []byte{0xAA, 0xBB, 0xCC}, reason: frame.ReasonMalformedFrame},
		{name: "truncated result", reply: frame.EncodeResult([3]byte{}, 1, 1)[:9], reason: frame.ReasonMalformedFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(t)
			left, _ := transporttest.NewDevicePort(3, 3)
			right, rightDev := transporttest.NewDevicePort(3, 3)
			rightDev.ResultReplies = map[int][]byte{1: tt.reply}

			res, err := newTestEngine(t, cfg, left, right).RunCycle(context.Background(), 1)
			require.NoError(t, err)

			assert.Equal(t, StateDone, res.State)
			assert.False(t, res.Success)
			assert.True(t, res.Left.IsParsed())
			assert.Equal(t, tt.reason, res.Right.Reason)
		})
	}
}

func TestRunCycle_CancelDuringAgingWait(t *testing.T) {
	cfg := newTestConfig(t, WithAgingDuration(time.Hour), WithProgressInterval(time.Minute))
	left, leftDev := transporttest.NewDevicePort(1, 1)
	right, _ := transporttest.NewDevicePort(1, 1)
	e := newTestEngine(t, cfg, left, right)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	begin := time.Now()
	_, err := e.RunCycle(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(begin), 2*time.Second)
	assert.Equal(t, 0, leftDev.Fetches())
}

func TestRunCycle_CancelBeforeAck(t *testing.T) {
	cfg := newTestConfig(t)
	left, _ := transporttest.NewDevicePort(1, 1)
	right, _ := transporttest.NewDevicePort(1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(t, cfg, left, right).RunCycle(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReasonOf(t *testing.T) {
	assert.Equal(t, frame.ReasonNoResponse, reasonOf(session.ErrNoResponse))
	assert.Equal(t, frame.ReasonTransportError, reasonOf(session.ErrTransport))
	assert.Equal(t, frame.ReasonMalformedFrame, reasonOf(frame.ErrNoFrame))
	assert.Equal(t, frame.ReasonMalformedFrame, reasonOf(frame.ErrMalformedFrame))
	assert.Equal(t, frame.ReasonDecodeException, reasonOf(frame.ErrDecode))
}
