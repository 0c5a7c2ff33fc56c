package aging

// CycleState is a state of the per-cycle state machine.
type CycleState uint8

const (
	StateIdle CycleState = iota
	StateEnterSent
	StateEnterVerified
	StateWaiting
	StateResultSent
	StateResultParsed
	StateDone
	StateCycleFailed
)

func (s CycleState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateEnterSent:
		return "EnterSent"
	case StateEnterVerified:
		return "EnterVerified"
	case StateWaiting:
		return "Waiting"
	case StateResultSent:
		return "ResultSent"
	case StateResultParsed:
		return "ResultParsed"
	case StateDone:
		return "Done"
	case StateCycleFailed:
		return "CycleFailed"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether s ends a cycle.
func (s CycleState) IsTerminal() bool {
	return s == StateDone || s == StateCycleFailed
}

// canFail reports whether a cycle in state s may still abort into CycleFailed.
// Once the aging wait has begun a cycle always runs to completion.
func (s CycleState) canFail() bool {
	return s == StateEnterSent || s == StateEnterVerified
}

// validTransition reports whether the state machine may move from -> to.
func validTransition(from, to CycleState) bool {
	switch to {
	case StateEnterSent:
		return from == StateIdle
	case StateEnterVerified:
		return from == StateEnterSent
	case StateWaiting:
		return from == StateEnterVerified
	case StateResultSent:
		return from == StateWaiting
	case StateResultParsed:
		return from == StateResultSent
	case StateDone:
		return from == StateResultParsed
	case StateCycleFailed:
		return from.canFail()
	default:
		return false
	}
}
