package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var ErrMsgFormat = errors.New("codec: message format error")
var ErrMsgTooLarge = errors.New("codec: message too large")

// HeaderSize is the fixed IPC header: length(2) mseq aseq group index type.
const HeaderSize = 7

// MaxFrameSize bounds a single frame, header included.
const MaxFrameSize = 0xffff

type IPCProtocol struct{}

func (s *IPCProtocol) NewCodec(rw io.ReadWriter) (Codec, error) {
	codec := &ipcCodec{
		rw:      rw,
		headBuf: make([]byte, HeaderSize),
	}
	codec.closer, _ = rw.(io.Closer)
	return codec, nil
}

// IPC returns the modem IPC framing protocol.
func IPC() *IPCProtocol {
	return &IPCProtocol{}
}

type ipcCodec struct {
	rw      io.ReadWriter
	closer  io.Closer
	headBuf []byte
	bodyBuf []byte
}

func (c *ipcCodec) Receive() (*Frame, error) {
	if _, err := io.ReadFull(c.rw, c.headBuf); err != nil {
		return nil, err
	}

	length := int(binary.LittleEndian.Uint16(c.headBuf[0:2]))
	if length < HeaderSize {
		return nil, fmt.Errorf("frame length %d: %w", length, ErrMsgFormat)
	}

	bodyLen := length - HeaderSize
	if cap(c.bodyBuf) < bodyLen {
		c.bodyBuf = make([]byte, bodyLen)
	} else {
		c.bodyBuf = c.bodyBuf[:bodyLen]
	}

	if _, err := io.ReadFull(c.rw, c.bodyBuf); err != nil {
		return nil, err
	}

	payload := make([]byte, bodyLen)
	copy(payload, c.bodyBuf)

	return &Frame{
		MSeq:    c.headBuf[2],
		ASeq:    c.headBuf[3],
		Group:   c.headBuf[4],
		Index:   c.headBuf[5],
		Type:    c.headBuf[6],
		Payload: payload,
	}, nil
}

func (c *ipcCodec) Send(f *Frame) error {
	if f == nil {
		return ErrMsgFormat
	}
	b, err := Encode(f)
	if err != nil {
		return err
	}
	_, err = c.rw.Write(b)
	return err
}

func (c *ipcCodec) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Encode serializes a frame with its header.
func Encode(f *Frame) ([]byte, error) {
	length := HeaderSize + len(f.Payload)
	if length > MaxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes: %w", length, ErrMsgTooLarge)
	}
	b := make([]byte, length)
	binary.LittleEndian.PutUint16(b[0:2], uint16(length))
	b[2] = f.MSeq
	b[3] = f.ASeq
	b[4] = f.Group
	b[5] = f.Index
	b[6] = f.Type
	copy(b[HeaderSize:], f.Payload)
	return b, nil
}
