package ril

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
)

var (
	StateFree           = "FREE"
	StateDefining       = "DEFINING"
	StateActivating     = "ACTIVATING"
	StateAwaitingConfig = "AWAITING-CONFIG"
	StateEnabled        = "ENABLED"
	StateDisabling      = "DISABLING"
	StateFailed         = "FAILED"
)

// ErrInvalidTransition is returned when a lifecycle event does not apply to
// the connection's current state.
var ErrInvalidTransition = errors.New("ril: invalid data connection transition")

const (
	eventDefine     = "define"
	eventActivate   = "activate"
	eventAccept     = "accept"
	eventEnable     = "enable"
	eventDeactivate = "deactivate"
	eventRestore    = "restore"
	eventFail       = "fail"
	eventRelease    = "release"
)

// ConnectionStateMachine tracks one data connection through setup and teardown.
type ConnectionStateMachine struct {
	fsm *fsm.FSM
}

// NewConnectionStateMachine callbacks: enter_state, enter_ENABLED, enter_FAILED, ...
func NewConnectionStateMachine(callbacks fsm.Callbacks) *ConnectionStateMachine {
	cs := &ConnectionStateMachine{}
	if callbacks == nil {
		callbacks = fsm.Callbacks{}
	}

	cs.fsm = fsm.NewFSM(
		StateFree,
		fsm.Events{
			{Name: eventDefine, Src: []string{StateFree}, Dst: StateDefining},
			{Name: eventActivate, Src: []string{StateDefining}, Dst: StateActivating},
			{Name: eventAccept, Src: []string{StateActivating}, Dst: StateAwaitingConfig},
			{Name: eventEnable, Src: []string{StateActivating, StateAwaitingConfig}, Dst: StateEnabled},
			{Name: eventDeactivate, Src: []string{StateEnabled}, Dst: StateDisabling},
			{Name: eventRestore, Src: []string{StateDisabling}, Dst: StateEnabled},
			{Name: eventFail, Src: []string{StateDefining, StateActivating, StateAwaitingConfig}, Dst: StateFailed},
			{Name: eventRelease, Src: []string{
				StateDefining, StateActivating, StateAwaitingConfig,
				StateEnabled, StateDisabling, StateFailed,
			}, Dst: StateFree},
		},
		callbacks,
	)
	return cs
}

func (cs *ConnectionStateMachine) CurrentState() string {
	return cs.fsm.Current()
}

// Is reports whether the current state is one of states.
func (cs *ConnectionStateMachine) Is(states ...string) bool {
	for _, s := range states {
		if cs.fsm.Is(s) {
			return true
		}
	}
	return false
}

func (cs *ConnectionStateMachine) event(name string) error {
	from := cs.fsm.Current()
	if err := cs.fsm.Event(context.Background(), name); err != nil {
		return fmt.Errorf("%w: %s from %s: %v", ErrInvalidTransition, name, from, err)
	}
	return nil
}

func (cs *ConnectionStateMachine) Define() error     { return cs.event(eventDefine) }
func (cs *ConnectionStateMachine) Activate() error   { return cs.event(eventActivate) }
func (cs *ConnectionStateMachine) Accept() error     { return cs.event(eventAccept) }
func (cs *ConnectionStateMachine) Enable() error     { return cs.event(eventEnable) }
func (cs *ConnectionStateMachine) Deactivate() error { return cs.event(eventDeactivate) }
func (cs *ConnectionStateMachine) Restore() error    { return cs.event(eventRestore) }
func (cs *ConnectionStateMachine) Fail() error       { return cs.event(eventFail) }

// Release returns the machine to FREE. Releasing a free machine is a no-op.
func (cs *ConnectionStateMachine) Release() error {
	if cs.fsm.Is(StateFree) {
		return nil
	}
	return cs.event(eventRelease)
}
