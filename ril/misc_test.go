package ril

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/younglifestyle/rilbridge/ipc"
)

func TestBasebandVersion(t *testing.T) {
	h := newHarness(t, Capabilities{})
	h.engine.HandleRequest(4, RequestBasebandVersion, nil)
	get := h.modem.last()
	require.NotNil(t, get)
	assert.Equal(t, ipc.MiscMeVersion, get.Command)

	var v ipc.MeVersion
	copy(v.Version[:], "I9000XXJVU")
	payload, err := ipc.Marshal(v)
	require.NoError(t, err)
	h.engine.HandleMessage(&ipc.Message{Command: ipc.MiscMeVersion, Type: ipc.TypeResp, ASeq: get.MSeq, Payload: payload})
	h.engine.HandleMessage(&ipc.Message{Command: ipc.MiscMeVersion, Type: ipc.TypeResp, ASeq: get.MSeq, Payload: payload})

	require.Len(t, h.framework.completions, 1, "a second reply finds no live transaction")
	assert.Equal(t, completion{Token: 4, Status: StatusSuccess, Payload: "I9000XXJVU"}, h.framework.completions[0])
	assert.Equal(t, 0, h.engine.Continuations().Pending())
}

func TestBasebandVersionRefusedByModem(t *testing.T) {
	h := newHarness(t, Capabilities{})
	h.engine.HandleRequest(4, RequestBasebandVersion, nil)
	h.ack(0x8002)

	require.Len(t, h.framework.completions, 1)
	assert.Equal(t, completion{Token: 4, Status: StatusGenericFailure}, h.framework.completions[0])
	assert.Equal(t, 0, h.engine.Transactions().Live())
}

func TestEnterSimPinOutcomes(t *testing.T) {
	for _, tc := range []struct {
		name   string
		code   uint16
		status Status
		result interface{}
		events int
	}{
		{"accepted", ipc.ResultSuccess, StatusSuccess, PinResult{AttemptsLeft: -1}, 0},
		{"wrong", 0x8010, StatusPasswordIncorrect, PinResult{AttemptsLeft: -1}, 0},
		{"locked", 0x800c, StatusPasswordIncorrect, PinResult{AttemptsLeft: 0}, 1},
		{"other", 0x8003, StatusGenericFailure, nil, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, Capabilities{})
			h.engine.HandleRequest(8, RequestEnterSimPin, []string{"1234"})
			require.Equal(t, ipc.SecPinStatus, h.modem.last().Command)
			h.ack(tc.code)

			require.Len(t, h.framework.completions, 1)
			assert.Equal(t, completion{Token: 8, Status: tc.status, Payload: tc.result}, h.framework.completions[0])
			assert.Len(t, h.framework.events, tc.events)
		})
	}
}

func TestEnterSimPinRejectsLongPin(t *testing.T) {
	h := newHarness(t, Capabilities{})
	h.engine.HandleRequest(8, RequestEnterSimPin, []string{"123456789"})
	assert.Empty(t, h.modem.sent)
	assert.Equal(t, StatusGenericFailure, h.framework.completions[0].Status)
}

func TestSendUSSD(t *testing.T) {
	h := newHarness(t, Capabilities{})
	h.engine.HandleRequest(3, RequestSendUSSD, "*100#")
	sent := h.modem.last()
	assert.Equal(t, ipc.SSUSSD, sent.Command)
	assert.Equal(t, ipc.TypeExec, sent.Type)
	h.ack(ipc.ResultSuccess)
	assert.Equal(t, []completion{{Token: 3, Status: StatusSuccess}}, h.framework.completions)

	h.engine.HandleRequest(4, RequestSendUSSD, []string{"*101#"})
	h.ack(0x8002)
	assert.Equal(t, StatusGenericFailure, h.framework.completions[1].Status)

	h.engine.HandleRequest(5, RequestSendUSSD, nil)
	assert.Equal(t, StatusGenericFailure, h.framework.completions[2].Status)
}

func TestUSSDNotification(t *testing.T) {
	h := newHarness(t, Capabilities{})
	h.engine.HandleMessage(&ipc.Message{
		Command: ipc.SSUSSD,
		Type:    ipc.TypeNoti,
		Payload: []byte{ipc.USSDTerminatedByNet, 0x0f, 3, 'b', 'y', 'e'},
	})
	require.Len(t, h.framework.events, 1)
	assert.Equal(t, unsolicitedEvent{UnsolOnUSSD, []string{"2", "bye"}}, h.framework.events[0])
}

func TestRadioPower(t *testing.T) {
	h := newHarness(t, Capabilities{})

	h.engine.HandleRequest(1, RequestRadioPower, []string{"0"})
	assert.Equal(t, ipc.EncodePowerState(ipc.PowerStateLPM), h.modem.last().Payload)
	assert.Equal(t, []completion{{Token: 1, Status: StatusSuccess}}, h.framework.completions)
	assert.Len(t, h.framework.events, 1)

	h.engine.HandleRequest(2, RequestRadioPower, 1)
	assert.Equal(t, ipc.EncodePowerState(ipc.PowerStateNormal), h.modem.last().Payload)
	assert.Len(t, h.framework.completions, 1, "power on waits for the modem")

	h.engine.HandleMessage(&ipc.Message{
		Command: ipc.PwrPhoneState,
		Type:    ipc.TypeNoti,
		Payload: []byte{ipc.PowerReport(ipc.PowerStateNormal)},
	})
	require.Len(t, h.framework.completions, 2)
	assert.Equal(t, completion{Token: 2, Status: StatusSuccess}, h.framework.completions[1])
	assert.Len(t, h.framework.events, 2)
	assert.Equal(t, UnsolRadioStateChanged, h.framework.events[1].Event)
}

func TestRadioPowerOnRefusedByModem(t *testing.T) {
	h := newHarness(t, Capabilities{})
	h.engine.HandleRequest(1, RequestRadioPower, []string{"1"})
	h.ack(0x8002)

	require.Len(t, h.framework.completions, 1)
	assert.Equal(t, completion{Token: 1, Status: StatusGenericFailure}, h.framework.completions[0])

	h.engine.HandleMessage(&ipc.Message{
		Command: ipc.PwrPhoneState,
		Type:    ipc.TypeNoti,
		Payload: []byte{ipc.PowerReport(ipc.PowerStateNormal)},
	})
	assert.Len(t, h.framework.completions, 1, "a later power report does not complete it again")
	assert.Len(t, h.framework.events, 1)
}

func TestRadioPowerOnAcceptedWaitsForReport(t *testing.T) {
	h := newHarness(t, Capabilities{})
	h.engine.HandleRequest(1, RequestRadioPower, []string{"1"})
	h.ack(ipc.ResultSuccess)
	assert.Empty(t, h.framework.completions)
	assert.Equal(t, 0, h.engine.Continuations().Pending())

	h.engine.HandleMessage(&ipc.Message{
		Command: ipc.PwrPhoneState,
		Type:    ipc.TypeNoti,
		Payload: []byte{ipc.PowerReport(ipc.PowerStateNormal)},
	})
	require.Len(t, h.framework.completions, 1)
	assert.Equal(t, completion{Token: 1, Status: StatusSuccess}, h.framework.completions[0])
}
