package ipc

import (
	"errors"
	"io"
	"sync"

	"github.com/younglifestyle/rilbridge/codec"
	"github.com/younglifestyle/rilbridge/common"
	"go.uber.org/atomic"
)

var (
	// ErrClosed is returned by Send and Receive after Close.
	ErrClosed = errors.New("ipc: connection closed")
	// ErrNilMessage is returned by Send for a nil message.
	ErrNilMessage = errors.New("ipc: nil message")
)

// Client is the modem transport seen by the bridge: one message per Receive.
type Client interface {
	Send(msg *Message) error
	Receive() (*Message, error)
	Close() error
}

// Conn is a Client over a framed byte stream such as a modem device node.
type Conn struct {
	name   string
	codec  codec.Codec
	sendMu sync.Mutex
	closed *atomic.Bool
	logger common.Logger
}

// NewConn frames rw with the IPC protocol. Reads and writes are buffered.
func NewConn(name string, rw io.ReadWriteCloser, logger common.Logger) (*Conn, error) {
	c, err := codec.Bufio(codec.IPC(), 4096, 4096).NewCodec(rw)
	if err != nil {
		return nil, err
	}
	return &Conn{
		name:   name,
		codec:  c,
		closed: atomic.NewBool(false),
		logger: common.WithFields(logger, "channel", name),
	}, nil
}

// Name returns the channel name given at construction.
func (c *Conn) Name() string { return c.name }

// Send writes one message. Concurrent senders are serialized.
func (c *Conn) Send(msg *Message) error {
	if msg == nil {
		return ErrNilMessage
	}
	if c.closed.Load() {
		return ErrClosed
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.logger.Debug("TX", "msg", msg.String())
	return c.codec.Send(&codec.Frame{
		MSeq:    msg.MSeq,
		ASeq:    msg.ASeq,
		Group:   msg.Command.Group(),
		Index:   msg.Command.Index(),
		Type:    uint8(msg.Type),
		Payload: msg.Payload,
	})
}

// Receive blocks for the next message.
func (c *Conn) Receive() (*Message, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	f, err := c.codec.Receive()
	if err != nil {
		if c.closed.Load() {
			return nil, ErrClosed
		}
		return nil, err
	}
	msg := &Message{
		Command: NewCommand(f.Group, f.Index),
		Type:    Type(f.Type),
		MSeq:    f.MSeq,
		ASeq:    f.ASeq,
		Payload: f.Payload,
	}
	c.logger.Debug("RX", "msg", msg.String())
	return msg, nil
}

// Close releases the underlying stream. Safe to call more than once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.codec.Close()
}
