package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.bug.st/serial"
)

// Dialer opens the byte stream underneath a modem channel.
type Dialer interface {
	Dial(ctx context.Context) (io.ReadWriteCloser, error)
}

// DialerFunc adapts a plain function to Dialer.
type DialerFunc func(ctx context.Context) (io.ReadWriteCloser, error)

// Dial calls f(ctx).
func (f DialerFunc) Dial(ctx context.Context) (io.ReadWriteCloser, error) { return f(ctx) }

// SerialDialer opens a modem exposed as a serial line.
type SerialDialer struct {
	// PortName is the device path, e.g. /dev/ttyACM0.
	PortName string
	// Mode is passed to serial.Open; nil uses the library defaults.
	Mode *serial.Mode
}

// Dial opens the port. serial.Open takes no context, so the open is raced
// against ctx and a late success is closed.
func (d SerialDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	if d.PortName == "" {
		return nil, errors.New("ipc: serial port name is required")
	}

	type result struct {
		p   serial.Port
		err error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := serial.Open(d.PortName, d.Mode)
		ch <- result{p: p, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.err == nil && r.p != nil {
				_ = r.p.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("open serial port %q: %w", d.PortName, r.err)
		}
		return r.p, nil
	}
}

// DeviceDialer opens a character device node such as /dev/umts_ipc0.
type DeviceDialer struct {
	Path string
}

// Dial opens Path read-write.
func (d DeviceDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(d.Path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open device %q: %w", d.Path, err)
	}
	return f, nil
}
