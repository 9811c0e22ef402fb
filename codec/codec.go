// Package codec frames modem IPC messages on a byte stream.
package codec

import "io"

// Frame is one undecoded IPC frame.
type Frame struct {
	MSeq    uint8
	ASeq    uint8
	Group   uint8
	Index   uint8
	Type    uint8
	Payload []byte
}

// Codec reads and writes whole frames.
type Codec interface {
	Receive() (*Frame, error)
	Send(*Frame) error
	Close() error
}

// Protocol creates a Codec over a stream.
type Protocol interface {
	NewCodec(rw io.ReadWriter) (Codec, error)
}
