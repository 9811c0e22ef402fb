package ipc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/younglifestyle/rilbridge/common"
	"go.uber.org/atomic"
)

// ErrChannelRunning is returned when Run is called on a channel that is already reading.
var ErrChannelRunning = errors.New("ipc: channel already running")

// Channel reads one modem client and hands every decoded message to a sink.
// Sending goes straight to the client; only reading needs a goroutine.
type Channel struct {
	name   string
	client Client
	logger common.Logger

	running  *atomic.Bool
	received *atomic.Uint64
	sent     *atomic.Uint64

	closeOnce sync.Once
}

// NewChannel wraps client. A nil logger discards output.
func NewChannel(name string, client Client, logger common.Logger) *Channel {
	return &Channel{
		name:     name,
		client:   client,
		logger:   common.WithFields(common.OrNop(logger), "channel", name),
		running:  atomic.NewBool(false),
		received: atomic.NewUint64(0),
		sent:     atomic.NewUint64(0),
	}
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// Send forwards msg to the modem.
func (c *Channel) Send(msg *Message) error {
	if err := c.client.Send(msg); err != nil {
		return fmt.Errorf("%s: send %s: %w", c.name, msg.Command, err)
	}
	c.sent.Inc()
	return nil
}

// Received returns the number of messages read so far.
func (c *Channel) Received() uint64 { return c.received.Load() }

// Sent returns the number of messages written so far.
func (c *Channel) Sent() uint64 { return c.sent.Load() }

// Run reads until the client fails or ctx is done, calling post for every
// message in arrival order. The first read error ends the loop and is
// returned; the channel is not reopened. Cancelling ctx closes the client and
// Run returns ctx.Err().
func (c *Channel) Run(ctx context.Context, post func(*Message)) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrChannelRunning
	}
	defer c.running.Store(false)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-stop:
		}
	}()

	c.logger.Info("reader started")
	for {
		msg, err := c.client.Receive()
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("reader stopped")
				return ctx.Err()
			}
			c.logger.Error("read failed, channel closed", "error", err)
			return fmt.Errorf("%s: receive: %w", c.name, err)
		}
		c.received.Inc()
		post(msg)
	}
}

// Close closes the client once.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.client.Close()
	})
	return err
}
