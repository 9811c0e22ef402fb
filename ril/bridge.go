package ril

import (
	"context"
	"errors"
	"sync"

	"github.com/younglifestyle/rilbridge/common"
	"github.com/younglifestyle/rilbridge/ipc"
	"github.com/younglifestyle/rilbridge/utils"
	"go.uber.org/atomic"
)

var (
	// ErrBridgeClosed is returned when work is posted to a stopped bridge.
	ErrBridgeClosed = errors.New("ril: bridge closed")
	// ErrBridgeRunning is returned when Run is called twice.
	ErrBridgeRunning = errors.New("ril: bridge already running")
)

// ChannelClosed reports a modem channel whose reader stopped.
type ChannelClosed struct {
	Channel string
	Err     error
}

// BridgeEvents are fired on the bridge's event loop.
type BridgeEvents struct {
	ChannelClosed common.Event[ChannelClosed]
}

type requestEnvelope struct {
	token   Token
	request RequestID
	data    interface{}
}

type cancelEnvelope struct {
	token Token
}

type messageEnvelope struct {
	msg *ipc.Message
}

type callEnvelope struct {
	fn   func(*Engine)
	done chan struct{}
}

// Bridge owns an Engine and feeds it from a single goroutine. Channel
// readers and framework entry points only post to the mailbox.
type Bridge struct {
	engine   *Engine
	mailbox  *utils.Deque
	channels []*ipc.Channel
	logger   common.Logger
	events   BridgeEvents
	running  *atomic.Bool
}

func NewBridge(engine *Engine, logger common.Logger) *Bridge {
	return &Bridge{
		engine:  engine,
		mailbox: utils.NewDeque(),
		logger:  common.WithFields(common.OrNop(logger), "component", "bridge"),
		running: atomic.NewBool(false),
	}
}

// AddChannel registers a modem channel to read from in Serve.
func (b *Bridge) AddChannel(ch *ipc.Channel) {
	b.channels = append(b.channels, ch)
}

// Events returns the bridge's event hooks.
func (b *Bridge) Events() *BridgeEvents { return &b.events }

// Request queues a framework request.
func (b *Bridge) Request(token Token, request RequestID, data interface{}) error {
	return b.post(requestEnvelope{token: token, request: request, data: data})
}

// Cancel queues a cancellation for token.
func (b *Bridge) Cancel(token Token) error {
	return b.post(cancelEnvelope{token: token})
}

// Post queues a modem message. It is the sink handed to channel readers.
func (b *Bridge) Post(msg *ipc.Message) {
	if err := b.post(messageEnvelope{msg: msg}); err != nil {
		b.logger.Warn("message dropped", "msg", msg.String(), "error", err)
	}
}

// Do runs fn on the event loop and waits for it.
func (b *Bridge) Do(ctx context.Context, fn func(*Engine)) error {
	done := make(chan struct{})
	if err := b.post(callEnvelope{fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bridge) post(item interface{}) error {
	if !b.mailbox.Put(item) {
		return ErrBridgeClosed
	}
	return nil
}

// Serve starts a reader per channel and runs the event loop until ctx ends.
// A failed channel is reported through Events().ChannelClosed and is not
// restarted; the loop keeps serving the others.
func (b *Bridge) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, ch := range b.channels {
		wg.Add(1)
		go func(ch *ipc.Channel) {
			defer wg.Done()
			err := ch.Run(ctx, b.Post)
			if ctx.Err() != nil {
				return
			}
			_ = b.post(ChannelClosed{Channel: ch.Name(), Err: err})
		}(ch)
	}

	err := b.Run(ctx)
	cancel()
	wg.Wait()
	return err
}

// Run drains the mailbox until ctx ends. Queued work is dropped on exit.
func (b *Bridge) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrBridgeRunning
	}
	defer b.running.Store(false)
	defer b.mailbox.Close()

	b.logger.Info("event loop started", "channels", len(b.channels))
	for {
		item, err := b.mailbox.Get(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				b.logger.Info("event loop stopped")
				return nil
			}
			return err
		}
		b.dispatch(item)
	}
}

func (b *Bridge) dispatch(item interface{}) {
	switch v := item.(type) {
	case requestEnvelope:
		b.engine.HandleRequest(v.token, v.request, v.data)
	case cancelEnvelope:
		b.engine.Cancel(v.token)
	case messageEnvelope:
		b.engine.HandleMessage(v.msg)
	case callEnvelope:
		v.fn(b.engine)
		close(v.done)
	case ChannelClosed:
		b.logger.Error("modem channel closed", "channel", v.Channel, "error", v.Err)
		b.events.ChannelClosed.Fire(v)
	default:
		b.logger.Error("unknown mailbox item", "item", item)
	}
}
