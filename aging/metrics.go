package aging

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-aging/frame"
)

// RunMetrics contains live counters of a run. They may be read from other
// goroutines, e.g. a status endpoint, while the run is in progress.
type RunMetrics struct {
	// CycleCount indicates the number of recorded cycles.
	CycleCount atomic.Uint64
	// SuccessCount indicates the number of successful cycles.
	SuccessCount atomic.Uint64
	// EnterFailCount indicates the number of cycles aborted before the aging wait.
	EnterFailCount atomic.Uint64
	// PanicCount indicates the number of cycles that aborted unexpectedly.
	PanicCount atomic.Uint64

	reasons *xsync.MapOf[frame.Reason, *xsync.Counter]
}

func newRunMetrics() *RunMetrics {
	return &RunMetrics{reasons: xsync.NewMapOf[frame.Reason, *xsync.Counter]()}
}

func (m *RunMetrics) record(r CycleResult) {
	m.CycleCount.Add(1)
	if r.Success {
		m.SuccessCount.Add(1)
	}
	// cycles aborted by the runner carry cycle-exception and may fail after the wait
	if r.State == StateCycleFailed && r.Left.Reason != frame.ReasonCycleException {
		m.EnterFailCount.Add(1)
	}

	for _, side := range frame.Sides {
		if o := r.Outcome(side); !o.IsParsed() {
			m.incReason(o.Reason)
		}
	}
}

func (m *RunMetrics) incReason(reason frame.Reason) {
	c, _ := m.reasons.LoadOrCompute(reason, xsync.NewCounter)
	c.Inc()
}

// FailureReasons returns a snapshot of per-channel failure counts by reason.
func (m *RunMetrics) FailureReasons() map[frame.Reason]int64 {
	out := make(map[frame.Reason]int64, m.reasons.Size())
	m.reasons.Range(func(reason frame.Reason, c *xsync.Counter) bool {
		out[reason] = c.Value()
		return true
	})

	return out
}
