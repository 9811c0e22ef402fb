package ril

import (
	"errors"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/younglifestyle/rilbridge/ipc"
)

type completion struct {
	Token   Token
	Status  Status
	Payload interface{}
}

type unsolicitedEvent struct {
	Event   Unsolicited
	Payload interface{}
}

type fakeFramework struct {
	completions []completion
	events      []unsolicitedEvent
}

func (f *fakeFramework) OnRequestComplete(token Token, status Status, payload interface{}) {
	f.completions = append(f.completions, completion{token, status, payload})
}

func (f *fakeFramework) OnUnsolicitedResponse(event Unsolicited, payload interface{}) {
	f.events = append(f.events, unsolicitedEvent{event, payload})
}

type fakeModem struct {
	sent []*ipc.Message
	err  error
}

func (m *fakeModem) Send(msg *ipc.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeModem) last() *ipc.Message {
	if len(m.sent) == 0 {
		return nil
	}
	return m.sent[len(m.sent)-1]
}

type appliedConfig struct {
	Iface                string
	Addr, GW, DNS1, DNS2 net.IP
}

type fakeNetwork struct {
	applied  []appliedConfig
	downs    []string
	applyErr error
	nameErr  error
}

func (n *fakeNetwork) ApplyConfiguration(iface string, addr, gw, dns1, dns2 net.IP) error {
	if n.applyErr != nil {
		return n.applyErr
	}
	n.applied = append(n.applied, appliedConfig{iface, addr, gw, dns1, dns2})
	return nil
}

func (n *fakeNetwork) InterfaceName(cid int) (string, error) {
	if n.nameErr != nil {
		return "", n.nameErr
	}
	return "rmnet" + string(rune('0'+cid-1)), nil
}

func (n *fakeNetwork) BringDown(iface string) error {
	n.downs = append(n.downs, iface)
	return nil
}

var errInjected = errors.New("injected")

type harness struct {
	engine    *Engine
	modem     *fakeModem
	framework *fakeFramework
	network   *fakeNetwork
	registry  *prometheus.Registry
}

func newHarness(t *testing.T, caps Capabilities) *harness {
	t.Helper()
	h := &harness{
		modem:     &fakeModem{},
		framework: &fakeFramework{},
		network:   &fakeNetwork{},
		registry:  prometheus.NewRegistry(),
	}
	e, err := NewEngine(Options{
		Capabilities: caps,
		Modem:        h.modem,
		Framework:    h.framework,
		Networking:   h.network,
		Registerer:   h.registry,
	})
	require.NoError(t, err)
	h.engine = e
	return h
}

// ack answers the last sent command with code.
func (h *harness) ack(code uint16) {
	last := h.modem.last()
	h.engine.HandleMessage(ipc.NewGenPhoneRes(last.Command, last.Type, last.MSeq, code))
}

func (h *harness) ipConfig(cid uint8, ip, gw, dns1, dns2 [4]byte) {
	payload, _ := ipc.Marshal(ipc.IPConfiguration{CID: cid, IP: ip, Gateway: gw, DNS1: dns1, DNS2: dns2})
	h.engine.HandleMessage(&ipc.Message{Command: ipc.GPRSIPConfiguration, Type: ipc.TypeNoti, Payload: payload})
}

func (h *harness) callStatus(cid, state uint8, cause uint16) {
	payload, _ := ipc.Marshal(ipc.CallStatusInfo{CID: cid, State: state, FailCause: cause})
	h.engine.HandleMessage(&ipc.Message{Command: ipc.GPRSCallStatus, Type: ipc.TypeNoti, Payload: payload})
}

// bringUp runs a full setup for token and returns the connection.
func (h *harness) bringUp(t *testing.T, token Token, apn string) *DataConnection {
	t.Helper()
	before := len(h.framework.completions)
	h.engine.HandleRequest(token, RequestSetupDataCall, []string{"1", "0", apn, "", ""})
	conn := h.engine.Pool().FindByOwner(token)
	require.NotNil(t, conn)
	cid := uint8(conn.CID)
	if h.engine.caps.PortNegotiation {
		h.ack(ipc.ResultSuccess)
	}
	h.ack(ipc.ResultSuccess)
	h.ack(ipc.ResultSuccess)
	h.ipConfig(cid, [4]byte{10, 0, 0, cid}, [4]byte{}, [4]byte{8, 8, 8, 8}, [4]byte{8, 8, 4, 4})
	h.callStatus(cid, ipc.GPRSStateEnabled, 0)
	require.Len(t, h.framework.completions, before+1)
	require.Equal(t, StatusSuccess, h.framework.completions[before].Status)
	return conn
}

// metricValue sums the samples of a counter or gauge family whose labels
// include every pair in labels.
func (h *harness) metricValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := h.registry.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			have := map[string]string{}
			for _, lp := range m.GetLabel() {
				have[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if have[k] != v {
					continue metrics
				}
			}
			total += m.GetCounter().GetValue() + m.GetGauge().GetValue()
		}
	}
	return total
}
