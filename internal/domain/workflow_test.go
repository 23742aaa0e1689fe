package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkflowState_InFlight(t *testing.T) {
	inFlight := []WorkflowState{StateValidating, StateEncoding, StatePersisting, StateAdvancing, StateDispatching}
	for _, s := range inFlight {
		assert.True(t, s.InFlight(), s)
	}

	idle := []WorkflowState{StateIdle, StateLoading, StateReady, StateCompleted, StateAborted, StateFaulted}
	for _, s := range idle {
		assert.False(t, s.InFlight(), s)
	}
}

func TestWorkflowState_AcceptsPrint(t *testing.T) {
	assert.True(t, StateReady.AcceptsPrint())
	assert.True(t, StateAborted.AcceptsPrint())
	assert.False(t, StateCompleted.AcceptsPrint())
	assert.False(t, StateFaulted.AcceptsPrint())
	assert.False(t, StateLoading.AcceptsPrint())
}

func TestDefaultDates(t *testing.T) {
	now := time.Date(2026, time.March, 14, 16, 45, 0, 0, time.UTC)

	fab, vto := DefaultDates(now, 0)
	assert.Equal(t, "2026-03-14", fab.Format(DateLayout))
	assert.Equal(t, "2028-03-14", vto.Format(DateLayout))

	_, vto = DefaultDates(now, 3)
	assert.Equal(t, "2029-03-14", vto.Format(DateLayout))
}

func TestSequenceCounter_Lags(t *testing.T) {
	c := &SequenceCounter{ID: "ctr-1", NextID: 100}
	assert.False(t, c.Lags(99))
	assert.True(t, c.Lags(100))
	assert.True(t, c.Lags(101))
}
