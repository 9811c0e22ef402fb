package ril

import (
	"errors"
	"fmt"

	"github.com/younglifestyle/rilbridge/ipc"
)

var (
	// ErrNoContinuation is returned by Take when nothing waits on the id.
	ErrNoContinuation = errors.New("ril: no continuation registered")
	// ErrCommandMismatch is returned by Take when the acknowledged command is
	// not the one the continuation waits for.
	ErrCommandMismatch = errors.New("ril: acknowledged command does not match continuation")
)

// ActionKind selects what happens when an acknowledgment arrives.
type ActionKind int

const (
	// ActionComplete finishes the request with success, or generic failure
	// when the modem refused the command.
	ActionComplete ActionKind = iota
	// ActionAbort finishes the request with generic failure on a refusal.
	ActionAbort
	// ActionInvoke hands the acknowledgment to a follow-up step.
	ActionInvoke
)

func (k ActionKind) String() string {
	switch k {
	case ActionComplete:
		return "complete"
	case ActionAbort:
		return "abort"
	case ActionInvoke:
		return "invoke"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Step names a follow-up in a command chain.
type Step int

const (
	// StepDefineContext runs after the port list was acknowledged.
	StepDefineContext Step = iota + 1
	// StepActivateContext runs after the context definition was acknowledged.
	StepActivateContext
	// StepActivationAccepted runs after the activation was acknowledged.
	StepActivationAccepted
	// StepDeactivationAccepted runs after the deactivation was acknowledged.
	StepDeactivationAccepted
	// StepHook calls FollowUp.Hook.
	StepHook
)

var stepNames = map[Step]string{
	StepDefineContext:        "define-context",
	StepActivateContext:      "activate-context",
	StepActivationAccepted:   "activation-accepted",
	StepDeactivationAccepted: "deactivation-accepted",
	StepHook:                 "hook",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// FollowUp carries what the next step needs. CID and Generation pin the data
// connection the chain works on; a chain whose slot was recycled meanwhile is
// recognized by a generation mismatch.
type FollowUp struct {
	Step       Step
	CID        int
	Generation uint64
	Hook       func(token Token, res ipc.PhoneResult)
}

// Action is the tagged continuation action.
type Action struct {
	Kind     ActionKind
	FollowUp FollowUp
}

// CompleteAction finishes the request when the acknowledgment arrives.
func CompleteAction() Action { return Action{Kind: ActionComplete} }

// AbortAction fails the request if the acknowledgment reports failure.
func AbortAction() Action { return Action{Kind: ActionAbort} }

// InvokeAction runs f when the acknowledgment arrives.
func InvokeAction(f FollowUp) Action { return Action{Kind: ActionInvoke, FollowUp: f} }

// Continuation waits for one generic acknowledgment.
type Continuation struct {
	ID       uint8
	Expected ipc.Command
	Handle   Token
	Action   Action
}

type continuationSlot struct {
	c        Continuation
	occupied bool
}

// Continuations holds at most one pending continuation per transaction id.
type Continuations struct {
	slots   [TransactionSlots]continuationSlot
	pending int
}

func NewContinuations() *Continuations {
	return &Continuations{}
}

// Expect registers a continuation for id. An existing entry for id is
// replaced and returned so the caller can settle its request.
func (c *Continuations) Expect(id uint8, expected ipc.Command, handle Token, action Action) (Continuation, bool) {
	slot := &c.slots[id]
	displaced, had := slot.c, slot.occupied
	if !had {
		c.pending++
	}
	*slot = continuationSlot{
		c:        Continuation{ID: id, Expected: expected, Handle: handle, Action: action},
		occupied: true,
	}
	return displaced, had
}

// Take consumes the continuation for id if it waits on command.
func (c *Continuations) Take(id uint8, command ipc.Command) (Continuation, error) {
	slot := &c.slots[id]
	if !slot.occupied {
		return Continuation{}, ErrNoContinuation
	}
	if slot.c.Expected != command {
		return Continuation{}, fmt.Errorf("%w: id 0x%02x expects %s, got %s",
			ErrCommandMismatch, id, slot.c.Expected, command)
	}
	cont := slot.c
	c.Remove(id)
	return cont, nil
}

// Peek returns the continuation for id without consuming it.
func (c *Continuations) Peek(id uint8) (Continuation, bool) {
	slot := c.slots[id]
	return slot.c, slot.occupied
}

// Remove drops the continuation for id, if any.
func (c *Continuations) Remove(id uint8) {
	if c.slots[id].occupied {
		c.slots[id] = continuationSlot{}
		c.pending--
	}
}

// Pending returns the number of registered continuations.
func (c *Continuations) Pending() int { return c.pending }
