package ril

import "github.com/younglifestyle/rilbridge/ipc"

func (e *Engine) registerHandlers() {
	e.requestHandlers = map[RequestID]requestHandler{
		RequestSetupDataCall:         e.setupDataCall,
		RequestDeactivateDataCall:    e.deactivateDataCall,
		RequestDataCallList:          e.dataCallList,
		RequestLastDataCallFailCause: e.lastFailCause,
		RequestBasebandVersion:       e.basebandVersion,
		RequestEnterSimPin:           e.enterSimPin,
		RequestSendUSSD:              e.sendUSSD,
		RequestRadioPower:            e.radioPower,
	}

	e.messageHandlers = map[ipc.Command]messageHandler{
		ipc.GPRSCallStatus:      e.onCallStatus,
		ipc.GPRSIPConfiguration: e.onIPConfiguration,
		ipc.GPRSPDPContext:      e.onPDPContext,
		ipc.MiscMeVersion:       e.onMeVersion,
		ipc.SSUSSD:              e.onUSSD,
		ipc.PwrPhoneState:       e.onPhoneState,
	}
}

// Supports reports whether request has a handler.
func (e *Engine) Supports(request RequestID) bool {
	_, ok := e.requestHandlers[request]
	return ok
}
