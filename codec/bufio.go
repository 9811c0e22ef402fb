package codec

import (
	"bufio"
	"io"
)

// Bufio wraps base so reads are buffered and every Send reaches the device as
// a single write. Modem device nodes reject frames split across writes.
func Bufio(base Protocol, readBuf, writeBuf int) Protocol {
	return &bufioProtocol{
		base:     base,
		readBuf:  readBuf,
		writeBuf: writeBuf,
	}
}

type bufioProtocol struct {
	base     Protocol
	readBuf  int
	writeBuf int
}

func (b *bufioProtocol) NewCodec(rw io.ReadWriter) (Codec, error) {
	stream := &bufioStream{Reader: rw, Writer: rw}
	if b.readBuf > 0 {
		stream.Reader = bufio.NewReaderSize(rw, b.readBuf)
	}
	if b.writeBuf > 0 {
		stream.w = bufio.NewWriterSize(rw, b.writeBuf)
		stream.Writer = stream.w
	}
	stream.c, _ = rw.(io.Closer)

	base, err := b.base.NewCodec(stream)
	if err != nil {
		return nil, err
	}
	return &bufioCodec{base: base, stream: stream}, nil
}

type bufioStream struct {
	io.Reader
	io.Writer
	c io.Closer
	w *bufio.Writer
}

func (s *bufioStream) flush() error {
	if s.w != nil {
		return s.w.Flush()
	}
	return nil
}

type bufioCodec struct {
	base   Codec
	stream *bufioStream
}

func (c *bufioCodec) Send(f *Frame) error {
	if err := c.base.Send(f); err != nil {
		return err
	}
	return c.stream.flush()
}

func (c *bufioCodec) Receive() (*Frame, error) {
	return c.base.Receive()
}

func (c *bufioCodec) Close() error {
	err := c.base.Close()
	if c.stream.c != nil {
		if cerr := c.stream.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
