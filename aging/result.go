package aging

import (
	"fmt"
	"time"

	"github.com/arloliu/go-aging/frame"
)

// CycleResult records one completed cycle. It is created once at the end of the
// cycle and never modified afterwards.
type CycleResult struct {
	// Index is the 1-based cycle number.
	Index int
	// Success is true when both channels produced a well-formed count report.
	// It does not require PassCount == TotalCount.
	Success bool
	Left    frame.Outcome
	Right   frame.Outcome
	// State is the terminal state, StateDone or StateCycleFailed.
	State     CycleState
	Timestamp time.Time
	Duration  time.Duration
}

// Outcome returns the outcome of side.
func (r CycleResult) Outcome(side frame.Side) frame.Outcome {
	if side == frame.Left {
		return r.Left
	}

	return r.Right
}

func (r CycleResult) String() string {
	status := "ok"
	if !r.Success {
		status = "failed"
	}

	return fmt.Sprintf("cycle %d %s (%s): left %s, right %s", r.Index, status, r.State, r.Left, r.Right)
}

// RunSummary aggregates a result log. It is derived on demand, never stored.
type RunSummary struct {
	RunID       string
	Total       int
	Succeeded   int
	Failed      int
	Interrupted bool
}

// SuccessRate returns the success percentage, 0 for an empty run.
func (s RunSummary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}

	return float64(s.Succeeded) / float64(s.Total) * 100
}

func (s RunSummary) String() string {
	return fmt.Sprintf("%d cycles, %d succeeded, %d failed, success rate %.2f%%",
		s.Total, s.Succeeded, s.Failed, s.SuccessRate())
}

// Summarize computes the summary of results.
func Summarize(results []CycleResult) RunSummary {
	s := RunSummary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		}
	}
	s.Failed = s.Total - s.Succeeded

	return s
}
