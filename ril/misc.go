package ril

import (
	"strconv"

	"github.com/spf13/cast"
	"github.com/younglifestyle/rilbridge/ipc"
)

func (e *Engine) basebandVersion(token Token, _ interface{}) {
	id := e.transactions.IDFor(token)
	if err := e.sendExpect(token, id, ipc.MiscMeVersion, ipc.TypeGet, nil, AbortAction()); err != nil {
		e.logger.Error("baseband version send failed", "error", err)
		e.complete(token, StatusGenericFailure, nil)
	}
}

func (e *Engine) onMeVersion(msg *ipc.Message) {
	if msg.Kind() != ipc.KindSolicited {
		return
	}
	token, ok := e.transactions.HandleFor(msg.TransactionID())
	if !ok {
		e.drop("version for unknown transaction", "id", msg.TransactionID())
		return
	}
	e.settle(msg.TransactionID(), ipc.MiscMeVersion, token)
	var v ipc.MeVersion
	if err := ipc.Unmarshal(msg.Payload, &v); err != nil {
		e.logger.Warn("malformed version", "error", err)
		e.complete(token, StatusGenericFailure, nil)
		return
	}
	e.complete(token, StatusSuccess, v.Baseband())
}

func (e *Engine) enterSimPin(token Token, data interface{}) {
	args, err := stringArgs(data)
	if err != nil || len(args) == 0 {
		e.complete(token, StatusGenericFailure, nil)
		return
	}
	pin, err := ipc.NewPinStatusSet(ipc.PinTypePIN1, args[0], "")
	if err != nil {
		e.logger.Warn("sim pin rejected", "error", err)
		e.complete(token, StatusGenericFailure, nil)
		return
	}

	id := e.transactions.IDFor(token)
	err = e.sendExpect(token, id, ipc.SecPinStatus, ipc.TypeSet, pin,
		InvokeAction(FollowUp{Step: StepHook, Hook: e.onPinStatusAck}))
	if err != nil {
		e.logger.Error("sim pin send failed", "error", err)
		e.complete(token, StatusGenericFailure, nil)
	}
}

func (e *Engine) onPinStatusAck(token Token, res ipc.PhoneResult) {
	if res.OK() {
		e.complete(token, StatusSuccess, PinResult{AttemptsLeft: -1})
		return
	}
	switch res.Reason() {
	case ipc.PinReasonWrongPassword:
		e.logger.Warn("wrong sim pin")
		e.complete(token, StatusPasswordIncorrect, PinResult{AttemptsLeft: -1})
	case ipc.PinReasonNoAttemptsLeft:
		e.logger.Warn("wrong sim pin, no attempts left")
		e.complete(token, StatusPasswordIncorrect, PinResult{AttemptsLeft: 0})
		e.unsolicited(UnsolSimStatusChanged, nil)
	default:
		e.complete(token, StatusGenericFailure, nil)
	}
}

func (e *Engine) sendUSSD(token Token, data interface{}) {
	text, err := cast.ToStringE(data)
	if err != nil {
		args, aerr := stringArgs(data)
		if aerr != nil || len(args) == 0 {
			e.complete(token, StatusGenericFailure, nil)
			return
		}
		text = args[0]
	}
	if text == "" {
		e.complete(token, StatusGenericFailure, nil)
		return
	}
	payload, err := ipc.EncodeUSSD(text)
	if err != nil {
		e.logger.Warn("ussd rejected", "error", err)
		e.complete(token, StatusGenericFailure, nil)
		return
	}

	id := e.transactions.IDFor(token)
	if err := e.sendExpect(token, id, ipc.SSUSSD, ipc.TypeExec, payload, CompleteAction()); err != nil {
		e.logger.Error("ussd send failed", "error", err)
		e.complete(token, StatusGenericFailure, nil)
	}
}

var ussdStates = map[uint8]int{
	ipc.USSDNoActionRequired: 0,
	ipc.USSDActionRequired:   1,
	ipc.USSDTerminatedByNet:  2,
	ipc.USSDOtherClient:      3,
	ipc.USSDNotSupported:     4,
	ipc.USSDTimeout:          5,
}

func (e *Engine) onUSSD(msg *ipc.Message) {
	u, err := ipc.ParseUSSD(msg.Payload)
	if err != nil {
		e.drop("malformed ussd", "error", err)
		return
	}
	state, ok := ussdStates[u.State]
	if !ok {
		state = ussdStates[ipc.USSDNotSupported]
	}
	e.unsolicited(UnsolOnUSSD, []string{strconv.Itoa(state), u.Text})
}

// radioPower switches between normal and low power mode. Powering off
// completes at once since the modem does not report low power; powering on
// completes when PWR_PHONE_STATE reports normal mode.
func (e *Engine) radioPower(token Token, data interface{}) {
	on, err := ParseRadioPower(data)
	if err != nil {
		e.logger.Warn("radio power rejected", "error", err)
		e.complete(token, StatusGenericFailure, nil)
		return
	}

	id := e.transactions.IDFor(token)
	if on {
		err = e.sendExpect(token, id, ipc.PwrPhoneState, ipc.TypeExec, ipc.EncodePowerState(ipc.PowerStateNormal),
			InvokeAction(FollowUp{Step: StepHook, Hook: e.onRadioPowerAck}))
	} else {
		err = e.send(id, ipc.PwrPhoneState, ipc.TypeExec, ipc.EncodePowerState(ipc.PowerStateLPM))
	}
	if err != nil {
		e.logger.Error("radio power send failed", "error", err)
		e.complete(token, StatusGenericFailure, nil)
		return
	}

	if on {
		if e.radioPowerPending {
			e.complete(e.radioPowerToken, StatusGenericFailure, nil)
		}
		e.radioPowerToken = token
		e.radioPowerPending = true
		return
	}
	e.complete(token, StatusSuccess, nil)
	e.unsolicited(UnsolRadioStateChanged, nil)
}

// onRadioPowerAck fails a pending power-on the modem refused. An accepted
// command keeps waiting for the power state report.
func (e *Engine) onRadioPowerAck(token Token, res ipc.PhoneResult) {
	if res.OK() {
		return
	}
	if !e.radioPowerPending || e.radioPowerToken != token {
		e.logger.Debug("refused power-on no longer pending", "token", token)
		return
	}
	e.logger.Warn("radio power on refused", "code", res.Code)
	e.radioPowerPending = false
	e.complete(token, StatusGenericFailure, nil)
}

func (e *Engine) onPhoneState(msg *ipc.Message) {
	if len(msg.Payload) < 1 {
		e.drop("malformed power state")
		return
	}
	switch msg.Payload[0] {
	case ipc.PowerReport(ipc.PowerStateNormal):
		e.logger.Info("radio power normal")
		if e.radioPowerPending {
			e.radioPowerPending = false
			e.complete(e.radioPowerToken, StatusSuccess, nil)
		}
		e.unsolicited(UnsolRadioStateChanged, nil)
	case ipc.PowerReport(ipc.PowerStateLPM):
		e.logger.Info("radio power low")
		e.unsolicited(UnsolRadioStateChanged, nil)
	default:
		e.logger.Debug("power state", "state", msg.Payload[0])
	}
}
