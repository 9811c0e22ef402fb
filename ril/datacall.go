package ril

import (
	"errors"

	"github.com/younglifestyle/rilbridge/ipc"
)

// setupDataCall starts the activation chain:
// [port list] -> define context -> activate context -> call status enabled.
func (e *Engine) setupDataCall(token Token, data interface{}) {
	req, err := ParseSetupDataCall(data)
	if err != nil {
		e.logger.Warn("setup data call rejected", "token", token, "error", err)
		e.complete(token, StatusGenericFailure, nil)
		return
	}
	if e.pool.FindByOwner(token) != nil {
		// Completing through the chokepoint would retire the in-flight
		// request's transaction, so the duplicate is answered directly.
		e.logger.Error("data call setup already in progress", "token", token)
		e.metrics.Completions.WithLabelValues(StatusGenericFailure.String()).Inc()
		e.framework.OnRequestComplete(token, StatusGenericFailure, nil)
		return
	}

	conn, evicted, err := e.pool.Allocate()
	if evicted != nil && evicted.Pending() {
		e.pool.SetFailCause(evicted.CID, FailCauseUnspecified)
		e.lastFailedCID = evicted.CID
		e.complete(evicted.ClearOwner(), StatusGenericFailure, nil)
	}
	if err != nil {
		e.logger.Error("no data connection slot", "token", token, "error", err)
		e.complete(token, StatusGenericFailure, nil)
		return
	}

	conn.APN = req.APN
	conn.Username = req.Username
	conn.Password = req.Password
	conn.define = ipc.NewDefinePDPContext(conn.CID, req.APN)
	conn.activate = ipc.NewPDPContextActivation(conn.CID, req.Username, req.Password)
	conn.SetOwner(token)
	if err := conn.state.Define(); err != nil {
		e.logger.Error("define transition", "cid", conn.CID, "error", err)
	}
	e.logger.Info("setting up data call", "token", token, "cid", conn.CID, "apn", req.APN)

	id := e.transactions.IDFor(token)
	if e.caps.PortNegotiation {
		err = e.sendExpect(token, id, ipc.GPRSPortList, ipc.TypeSet, ipc.DefaultPortList(),
			InvokeAction(FollowUp{Step: StepDefineContext, CID: conn.CID, Generation: conn.Generation}))
	} else {
		err = e.sendExpect(token, id, ipc.GPRSDefinePDPContext, ipc.TypeSet, conn.define,
			InvokeAction(FollowUp{Step: StepActivateContext, CID: conn.CID, Generation: conn.Generation}))
	}
	if err != nil {
		e.logger.Error("setup send failed", "cid", conn.CID, "error", err)
		e.failConnection(conn, FailCauseUnspecified, true)
	}
}

// followUpConnection returns the connection a chained step works on, or nil
// when the slot was recycled or handed to another request since.
func (e *Engine) followUpConnection(token Token, f FollowUp) *DataConnection {
	conn := e.pool.FindByConnectionID(f.CID)
	if conn == nil || conn.Generation != f.Generation || !conn.Pending() || conn.Owner != token {
		return nil
	}
	return conn
}

// failConnection ends the owner's request with generic failure and records
// cause as the last fail cause. free releases the slot; otherwise it stays
// FAILED until the modem reports the context down.
func (e *Engine) failConnection(conn *DataConnection, cause FailCause, free bool) {
	if conn.state.Is(StateDefining, StateActivating, StateAwaitingConfig) {
		if err := conn.state.Fail(); err != nil {
			e.logger.Error("fail transition", "cid", conn.CID, "error", err)
		}
	}
	e.pool.SetFailCause(conn.CID, cause)
	e.lastFailedCID = conn.CID

	e.logger.Warn("data call failed", "cid", conn.CID, "cause", cause, "freed", free)
	token := conn.ClearOwner()
	e.complete(token, StatusGenericFailure, nil)
	if free {
		e.pool.Free(conn)
	}
}

func (e *Engine) staleFollowUp(token Token, f FollowUp, res ipc.PhoneResult) {
	e.drop("stale follow-up", "token", token, "step", f.Step, "cid", f.CID, "ok", res.OK())
}

func (e *Engine) onPortListAck(token Token, f FollowUp, res ipc.PhoneResult) {
	conn := e.followUpConnection(token, f)
	if conn == nil {
		e.staleFollowUp(token, f, res)
		return
	}
	if !res.OK() {
		e.failConnection(conn, ClassifyFailCause(uint16(res.Reason())), true)
		return
	}

	id := e.transactions.NewID(token)
	err := e.sendExpect(token, id, ipc.GPRSDefinePDPContext, ipc.TypeSet, conn.define,
		InvokeAction(FollowUp{Step: StepActivateContext, CID: conn.CID, Generation: conn.Generation}))
	if err != nil {
		e.logger.Error("define context send failed", "cid", conn.CID, "error", err)
		e.failConnection(conn, FailCauseUnspecified, true)
	}
}

func (e *Engine) onDefineContextAck(token Token, f FollowUp, res ipc.PhoneResult) {
	conn := e.followUpConnection(token, f)
	if conn == nil {
		e.staleFollowUp(token, f, res)
		return
	}
	if !res.OK() {
		e.failConnection(conn, ClassifyFailCause(uint16(res.Reason())), true)
		return
	}
	if err := conn.state.Activate(); err != nil {
		e.logger.Error("activate transition", "cid", conn.CID, "error", err)
		e.failConnection(conn, FailCauseUnspecified, true)
		return
	}

	id := e.transactions.NewID(token)
	err := e.sendExpect(token, id, ipc.GPRSPDPContext, ipc.TypeSet, conn.activate,
		InvokeAction(FollowUp{Step: StepActivationAccepted, CID: conn.CID, Generation: conn.Generation}))
	if err != nil {
		e.logger.Error("activate context send failed", "cid", conn.CID, "error", err)
		e.failConnection(conn, FailCauseUnspecified, false)
	}
}

// onActivationAck only confirms the modem took the command. The request
// completes when GPRS_CALL_STATUS reports the context enabled.
func (e *Engine) onActivationAck(token Token, f FollowUp, res ipc.PhoneResult) {
	conn := e.followUpConnection(token, f)
	if conn == nil {
		e.staleFollowUp(token, f, res)
		return
	}
	if !res.OK() {
		e.failConnection(conn, ClassifyFailCause(uint16(res.Reason())), false)
		return
	}
	if conn.state.Is(StateActivating) {
		if err := conn.state.Accept(); err != nil {
			e.logger.Error("accept transition", "cid", conn.CID, "error", err)
		}
	}
}

// deactivateDataCall tears down an enabled connection.
func (e *Engine) deactivateDataCall(token Token, data interface{}) {
	cid, err := ParseConnectionID(data)
	if err != nil {
		e.logger.Warn("deactivate data call rejected", "token", token, "error", err)
		e.complete(token, StatusGenericFailure, nil)
		return
	}
	conn := e.pool.FindByConnectionID(cid)
	if conn == nil {
		e.logger.Warn("deactivate unknown connection", "cid", cid)
		e.complete(token, StatusGenericFailure, nil)
		return
	}
	if conn.Pending() {
		e.logger.Warn("deactivate busy connection", "cid", cid, "owner", conn.Owner)
		e.complete(token, StatusGenericFailure, nil)
		return
	}
	if !conn.state.Is(StateEnabled) {
		e.logger.Info("freeing connection that never came up", "cid", cid, "state", conn.State())
		e.pool.Free(conn)
		e.complete(token, StatusSuccess, nil)
		return
	}

	conn.SetOwner(token)
	if err := conn.state.Deactivate(); err != nil {
		e.logger.Error("deactivate transition", "cid", cid, "error", err)
	}
	id := e.transactions.IDFor(token)
	err = e.sendExpect(token, id, ipc.GPRSPDPContext, ipc.TypeSet, ipc.NewPDPContextDeactivation(cid),
		InvokeAction(FollowUp{Step: StepDeactivationAccepted, CID: cid, Generation: conn.Generation}))
	if err != nil {
		e.logger.Error("deactivate send failed", "cid", cid, "error", err)
		e.restoreConnection(conn)
	}
}

func (e *Engine) restoreConnection(conn *DataConnection) {
	if err := conn.state.Restore(); err != nil {
		e.logger.Error("restore transition", "cid", conn.CID, "error", err)
	}
	e.complete(conn.ClearOwner(), StatusGenericFailure, nil)
}

func (e *Engine) onDeactivationAck(token Token, f FollowUp, res ipc.PhoneResult) {
	conn := e.followUpConnection(token, f)
	if conn == nil {
		e.staleFollowUp(token, f, res)
		return
	}
	if !res.OK() {
		e.logger.Warn("deactivation refused", "cid", conn.CID, "code", res.Code)
		e.restoreConnection(conn)
		return
	}
	e.logger.Debug("deactivation accepted", "cid", conn.CID)
}

// onIPConfiguration stores the negotiated addressing until the context is
// reported enabled.
func (e *Engine) onIPConfiguration(msg *ipc.Message) {
	var cfg ipc.IPConfiguration
	if err := ipc.Unmarshal(msg.Payload, &cfg); err != nil {
		e.drop("malformed ip configuration", "error", err)
		return
	}
	conn := e.pool.FindByConnectionID(int(cfg.CID))
	if conn == nil {
		e.drop("ip configuration for unknown connection", "cid", cfg.CID)
		return
	}
	conn.Config = NetworkConfig{
		Address:  cfg.Address(),
		Gateway:  cfg.GatewayAddress(),
		DNS1:     cfg.PrimaryDNS(),
		DNS2:     cfg.SecondaryDNS(),
		Received: true,
	}
	e.logger.Info("ip configuration", "cid", conn.CID, "address", conn.Config.Address,
		"gateway", conn.Config.Gateway, "dns1", conn.Config.DNS1, "dns2", conn.Config.DNS2)
}

func (e *Engine) onCallStatus(msg *ipc.Message) {
	var st ipc.CallStatusInfo
	if err := ipc.Unmarshal(msg.Payload, &st); err != nil {
		e.drop("malformed call status", "error", err)
		return
	}
	conn := e.pool.FindByConnectionID(int(st.CID))
	if conn == nil {
		e.drop("call status for unknown connection", "cid", st.CID, "state", st.State)
		return
	}

	switch st.State {
	case ipc.GPRSStateEnabled:
		e.onConnectionEnabled(conn)
	case ipc.GPRSStateDisabled:
		e.onConnectionDisabled(conn, ClassifyFailCause(st.FailCause))
	default:
		e.logger.Debug("call status", "cid", conn.CID, "state", st.State, "fail_cause", st.FailCause)
	}
}

var errNoConfiguration = errors.New("no ip configuration received")

func (e *Engine) onConnectionEnabled(conn *DataConnection) {
	if !conn.Pending() || !conn.state.Is(StateActivating, StateAwaitingConfig) {
		e.logger.Debug("enabled status ignored", "cid", conn.CID, "state", conn.State(), "pending", conn.Pending())
		return
	}

	iface, err := e.configure(conn)
	if err != nil {
		e.logger.Error("configuring interface failed", "cid", conn.CID, "error", err)
		e.failConnection(conn, FailCauseUnspecified, true)
		return
	}

	conn.Interface = iface
	if err := conn.state.Enable(); err != nil {
		e.logger.Error("enable transition", "cid", conn.CID, "error", err)
	}
	conn.Enabled = true
	e.logger.Info("data call up", "cid", conn.CID, "iface", iface, "address", conn.Config.Address)
	e.complete(conn.ClearOwner(), StatusSuccess, conn.DataCall())
}

func (e *Engine) configure(conn *DataConnection) (string, error) {
	if !conn.Config.Received {
		return "", errNoConfiguration
	}
	if e.network == nil {
		return "", errors.New("no networking configured")
	}
	iface, err := e.network.InterfaceName(conn.CID)
	if err != nil {
		return "", err
	}
	cfg := conn.Config
	if err := e.network.ApplyConfiguration(iface, cfg.Address, cfg.Gateway, cfg.DNS1, cfg.DNS2); err != nil {
		return "", err
	}
	return iface, nil
}

func (e *Engine) onConnectionDisabled(conn *DataConnection, cause FailCause) {
	if !conn.Pending() {
		e.logger.Info("data call dropped by modem", "cid", conn.CID, "state", conn.State(), "cause", cause)
		e.pool.Free(conn)
		e.unsolicited(UnsolDataCallListChanged, e.dataCalls())
		return
	}

	if conn.state.Is(StateDisabling) {
		token := conn.ClearOwner()
		e.pool.Free(conn)
		e.logger.Info("data call down", "cid", conn.CID)
		e.complete(token, StatusSuccess, nil)
		return
	}

	e.failConnection(conn, cause, true)
}

// lastFailCause returns the fail cause of the last failed connection once.
func (e *Engine) lastFailCause(token Token, _ interface{}) {
	cid := e.lastFailedCID
	e.lastFailedCID = 0

	cause := FailCauseUnspecified
	if cid != 0 {
		if c, ok := e.pool.TakeFailCause(cid); ok {
			cause = c
		}
	}
	e.complete(token, StatusSuccess, int(cause))
}

// dataCallList asks the modem for its context listing; the reply completes the request.
func (e *Engine) dataCallList(token Token, _ interface{}) {
	id := e.transactions.IDFor(token)
	if err := e.sendExpect(token, id, ipc.GPRSPDPContext, ipc.TypeGet, nil, AbortAction()); err != nil {
		e.logger.Error("data call list send failed", "error", err)
		e.complete(token, StatusGenericFailure, nil)
	}
}

// onPDPContext handles both the listing reply and the listing notification.
func (e *Engine) onPDPContext(msg *ipc.Message) {
	var list ipc.PDPContextList
	err := ipc.Unmarshal(msg.Payload, &list)

	if msg.Kind() == ipc.KindSolicited {
		token, ok := e.transactions.HandleFor(msg.TransactionID())
		if !ok {
			e.drop("listing for unknown transaction", "id", msg.TransactionID())
			return
		}
		e.settle(msg.TransactionID(), ipc.GPRSPDPContext, token)
		if err != nil {
			e.logger.Warn("malformed context listing", "error", err)
			e.complete(token, StatusGenericFailure, nil)
			return
		}
		e.complete(token, StatusSuccess, e.listing(list))
		return
	}

	if err != nil {
		e.drop("malformed context listing", "error", err)
		return
	}
	e.unsolicited(UnsolDataCallListChanged, e.listing(list))
}

// listing converts a modem listing, enriched from the pool, and repairs duplicate ids.
func (e *Engine) listing(list ipc.PDPContextList) []DataCall {
	calls := make([]DataCall, 0, len(list.Descriptors))
	for _, d := range list.Descriptors {
		if d.CID == 0 {
			continue
		}
		dc := DataCall{CID: int(d.CID), Type: "IP"}
		if conn := e.pool.FindByConnectionID(dc.CID); conn != nil {
			dc = conn.DataCall()
		}
		switch {
		case d.Active == 0:
			dc.Active = DataCallInactive
		case dc.Active != DataCallActive:
			dc.Active = DataCallDormant
		}
		calls = append(calls, dc)
	}
	FixDuplicateCIDs(calls)
	return calls
}

// dataCalls renders the pool as a listing.
func (e *Engine) dataCalls() []DataCall {
	conns := e.pool.Connections()
	calls := make([]DataCall, 0, len(conns))
	for _, c := range conns {
		calls = append(calls, c.DataCall())
	}
	FixDuplicateCIDs(calls)
	return calls
}
