package ril

import (
	"errors"

	"github.com/younglifestyle/rilbridge/ipc"
)

// onGenericAck settles the continuation an acknowledgment answers. A failed
// acknowledgment never produces a success completion. The matched entry is
// consumed whatever its action does.
func (e *Engine) onGenericAck(msg *ipc.Message) {
	res, err := ipc.ParsePhoneResult(msg.Payload)
	if err != nil {
		e.drop("malformed ack", "error", err)
		return
	}

	id := msg.TransactionID()
	cont, err := e.continuations.Take(id, res.Command())
	e.metrics.Continuations.Set(float64(e.continuations.Pending()))
	if err != nil {
		if errors.Is(err, ErrNoContinuation) {
			e.logger.Debug("ack without continuation", "id", id, "command", res.Command(), "code", res.Code)
			return
		}
		e.drop("ack command mismatch", "id", id, "error", err)
		return
	}

	token := cont.Handle
	switch cont.Action.Kind {
	case ActionComplete:
		if res.OK() {
			e.complete(token, StatusSuccess, nil)
		} else {
			e.complete(token, StatusGenericFailure, nil)
		}
	case ActionAbort:
		if res.OK() {
			e.logger.Debug("command accepted, awaiting reply", "id", id, "command", res.Command())
			return
		}
		e.complete(token, StatusGenericFailure, nil)
	case ActionInvoke:
		e.followUp(token, cont.Action.FollowUp, res)
	default:
		e.logger.Error("unknown continuation action", "id", id, "action", cont.Action.Kind)
		e.complete(token, StatusGenericFailure, nil)
	}
}

func (e *Engine) followUp(token Token, f FollowUp, res ipc.PhoneResult) {
	switch f.Step {
	case StepDefineContext:
		e.onPortListAck(token, f, res)
	case StepActivateContext:
		e.onDefineContextAck(token, f, res)
	case StepActivationAccepted:
		e.onActivationAck(token, f, res)
	case StepDeactivationAccepted:
		e.onDeactivationAck(token, f, res)
	case StepHook:
		if f.Hook == nil {
			e.logger.Error("hook follow-up without a hook", "token", token)
			e.complete(token, StatusGenericFailure, nil)
			return
		}
		f.Hook(token, res)
	default:
		e.logger.Error("unknown follow-up step", "token", token, "step", f.Step)
		e.complete(token, StatusGenericFailure, nil)
	}
}
