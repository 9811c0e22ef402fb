package ril

import (
	"context"
	"errors"
	"testing"

	"github.com/looplab/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionStateMachineHappyPath(t *testing.T) {
	var entered []string
	sm := NewConnectionStateMachine(fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) { entered = append(entered, e.Dst) },
	})
	assert.Equal(t, StateFree, sm.CurrentState())

	require.NoError(t, sm.Define())
	require.NoError(t, sm.Activate())
	require.NoError(t, sm.Accept())
	require.NoError(t, sm.Enable())
	require.NoError(t, sm.Deactivate())
	require.NoError(t, sm.Restore())
	require.NoError(t, sm.Deactivate())
	require.NoError(t, sm.Release())

	assert.Equal(t, []string{
		StateDefining, StateActivating, StateAwaitingConfig, StateEnabled,
		StateDisabling, StateEnabled, StateDisabling, StateFree,
	}, entered)
}

func TestConnectionStateMachineFailure(t *testing.T) {
	for _, path := range [][]func(*ConnectionStateMachine) error{
		{(*ConnectionStateMachine).Define},
		{(*ConnectionStateMachine).Define, (*ConnectionStateMachine).Activate},
		{(*ConnectionStateMachine).Define, (*ConnectionStateMachine).Activate, (*ConnectionStateMachine).Accept},
	} {
		sm := NewConnectionStateMachine(nil)
		for _, step := range path {
			require.NoError(t, step(sm))
		}
		require.NoError(t, sm.Fail())
		assert.True(t, sm.Is(StateFailed))
		require.NoError(t, sm.Release())
		assert.True(t, sm.Is(StateFree))
	}
}

func TestConnectionStateMachineRejectsInvalid(t *testing.T) {
	sm := NewConnectionStateMachine(nil)
	err := sm.Enable()
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.True(t, errors.Is(sm.Fail(), ErrInvalidTransition))
	assert.NoError(t, sm.Release(), "releasing a free machine is a no-op")

	require.NoError(t, sm.Define())
	require.NoError(t, sm.Activate())
	require.NoError(t, sm.Accept())
	require.NoError(t, sm.Enable())
	assert.True(t, errors.Is(sm.Fail(), ErrInvalidTransition), "enabled connections tear down, they do not fail")
}
