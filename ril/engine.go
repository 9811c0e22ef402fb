package ril

import (
	"fmt"

	"github.com/younglifestyle/rilbridge/common"
	"github.com/younglifestyle/rilbridge/ipc"
)

type requestHandler func(token Token, data interface{})

type messageHandler func(msg *ipc.Message)

// Engine correlates framework requests with modem messages. It is not safe
// for concurrent use; Bridge serializes every call onto one goroutine.
type Engine struct {
	caps      Capabilities
	modem     Modem
	framework Framework
	network   Networking
	logger    common.Logger
	metrics   *Metrics

	transactions  *Transactions
	continuations *Continuations
	pool          *Pool

	// lastFailedCID is the connection whose fail cause the next
	// LAST_DATA_CALL_FAIL_CAUSE returns; 0 when none.
	lastFailedCID int

	// radioPowerToken waits for the modem to report normal power.
	radioPowerToken   Token
	radioPowerPending bool

	requestHandlers map[RequestID]requestHandler
	messageHandlers map[ipc.Command]messageHandler
}

// NewEngine builds an engine around its collaborators.
func NewEngine(opts Options) (*Engine, error) {
	opts.applyDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		caps:          opts.Capabilities,
		modem:         opts.Modem,
		framework:     opts.Framework,
		network:       opts.Networking,
		logger:        common.WithFields(opts.Logger, "component", "engine"),
		metrics:       NewMetrics(opts.Registerer),
		transactions:  NewTransactions(),
		continuations: NewContinuations(),
	}
	e.pool = NewPool(opts.Capabilities.MaxDataConnections, opts.Networking,
		common.WithFields(opts.Logger, "component", "pool"))
	e.pool.SetStateObserver(e.metrics.observeState)
	e.registerHandlers()
	return e, nil
}

// Transactions exposes the transaction registry.
func (e *Engine) Transactions() *Transactions { return e.transactions }

// Continuations exposes the continuation registry.
func (e *Engine) Continuations() *Continuations { return e.continuations }

// Pool exposes the data connection pool.
func (e *Engine) Pool() *Pool { return e.pool }

// Metrics exposes the engine's collectors.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Cancel marks token canceled. Modem work already in flight continues; only
// the reported status changes. Canceling a finished request does nothing.
func (e *Engine) Cancel(token Token) {
	if !e.transactions.SetCanceled(token, true) {
		e.logger.Debug("cancel for request not outstanding", "token", token)
	}
}

// complete is the only path to OnRequestComplete for requests that own a
// transaction. A canceled token always reports StatusCanceled; the payload
// is still delivered.
func (e *Engine) complete(token Token, status Status, payload interface{}) {
	if e.transactions.IsCanceled(token) {
		status = StatusCanceled
	}
	e.transactions.Complete(token)
	e.metrics.Completions.WithLabelValues(status.String()).Inc()
	e.logger.Debug("request complete", "token", token, "status", status)
	e.framework.OnRequestComplete(token, status, payload)
}

func (e *Engine) unsolicited(event Unsolicited, payload interface{}) {
	e.metrics.Unsolicited.WithLabelValues(event.String()).Inc()
	e.logger.Debug("unsolicited", "event", event)
	e.framework.OnUnsolicitedResponse(event, payload)
}

func (e *Engine) drop(reason string, kv ...interface{}) {
	e.metrics.Dropped.WithLabelValues(reason).Inc()
	e.logger.Warn("dropped: "+reason, kv...)
}

// send writes one command tagged with id.
func (e *Engine) send(id uint8, command ipc.Command, typ ipc.Type, payload []byte) error {
	if err := e.modem.Send(ipc.NewRequest(command, typ, id, payload)); err != nil {
		return fmt.Errorf("send %s: %w", command, err)
	}
	return nil
}

// sendExpect registers action for id and sends a SET of command carrying
// the encoded payload. On a send failure the continuation is withdrawn.
func (e *Engine) sendExpect(token Token, id uint8, command ipc.Command, typ ipc.Type, payload interface{}, action Action) error {
	var raw []byte
	switch p := payload.(type) {
	case nil:
	case []byte:
		raw = p
	default:
		b, err := ipc.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode %s: %w", command, err)
		}
		raw = b
	}

	e.expect(id, command, token, action)
	if err := e.send(id, command, typ, raw); err != nil {
		e.continuations.Remove(id)
		e.metrics.Continuations.Set(float64(e.continuations.Pending()))
		return err
	}
	return nil
}

// settle withdraws the continuation a solicited reply made unnecessary, so
// it cannot be displaced or fire later.
func (e *Engine) settle(id uint8, command ipc.Command, token Token) {
	if c, ok := e.continuations.Peek(id); ok && c.Expected == command && c.Handle == token {
		e.continuations.Remove(id)
		e.metrics.Continuations.Set(float64(e.continuations.Pending()))
	}
}

// expect registers a continuation. A displaced continuation belongs to a
// request that can no longer finish, so it is failed here.
func (e *Engine) expect(id uint8, command ipc.Command, token Token, action Action) {
	displaced, ok := e.continuations.Expect(id, command, token, action)
	e.metrics.Continuations.Set(float64(e.continuations.Pending()))
	if !ok {
		return
	}

	e.metrics.Overwrites.Inc()
	e.logger.Warn("continuation overwritten",
		"id", id, "old_command", displaced.Expected, "old_token", displaced.Handle,
		"new_command", command, "new_token", token)
	if displaced.Handle == token {
		return
	}
	if !e.transactions.Outstanding(displaced.Handle) {
		e.logger.Debug("displaced continuation belonged to a finished request", "old_token", displaced.Handle)
		return
	}
	if f := displaced.Action.FollowUp; displaced.Action.Kind == ActionInvoke && f.CID != 0 {
		if conn := e.followUpConnection(displaced.Handle, f); conn != nil {
			e.failConnection(conn, FailCauseUnspecified, conn.state.Is(StateDefining))
			return
		}
	}
	e.complete(displaced.Handle, StatusGenericFailure, nil)
}

// HandleMessage dispatches one inbound modem message.
func (e *Engine) HandleMessage(msg *ipc.Message) {
	kind := msg.Kind()
	e.metrics.Messages.WithLabelValues(msg.Command.String(), kind.String()).Inc()

	if kind == ipc.KindAck {
		e.onGenericAck(msg)
		return
	}
	h, ok := e.messageHandlers[msg.Command]
	if !ok {
		e.logger.Debug("unhandled message", "msg", msg.String())
		return
	}
	h(msg)
}

// HandleRequest dispatches one framework request.
func (e *Engine) HandleRequest(token Token, request RequestID, data interface{}) {
	e.metrics.Requests.WithLabelValues(request.String()).Inc()
	e.logger.Debug("request", "token", token, "request", request)

	h, ok := e.requestHandlers[request]
	if !ok {
		e.complete(token, StatusRequestNotSupported, nil)
		return
	}
	h(token, data)
}
