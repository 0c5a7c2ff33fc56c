package aging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTransition(t *testing.T) {
	happy := []CycleState{
		StateIdle, StateEnterSent, StateEnterVerified, StateWaiting,
		StateResultSent, StateResultParsed, StateDone,
	}
	for i := 1; i < len(happy); i++ {
		assert.True(t, validTransition(happy[i-1], happy[i]), "%s -> %s", happy[i-1], happy[i])
	}

	assert.True(t, validTransition(StateEnterSent, StateCycleFailed))
	assert.True(t, validTransition(StateEnterVerified, StateCycleFailed))

	// no abort once the aging wait began
	for _, s := range []CycleState{StateIdle, StateWaiting, StateResultSent, StateResultParsed, StateDone} {
		assert.False(t, validTransition(s, StateCycleFailed), "%s -> CycleFailed", s)
	}

	assert.False(t, validTransition(StateIdle, StateWaiting))
	assert.False(t, validTransition(StateDone, StateIdle))
	assert.False(t, validTransition(StateCycleFailed, StateEnterSent))
}

func TestCycleState_String(t *testing.T) {
	assert.Equal(t, "EnterVerified", StateEnterVerified.String())
	assert.Equal(t, "CycleFailed", StateCycleFailed.String())
	assert.Equal(t, "Unknown", CycleState(99).String())

	assert.True(t, StateDone.IsTerminal())
	assert.True(t, StateCycleFailed.IsTerminal())
	assert.False(t, StateResultParsed.IsTerminal())
}
