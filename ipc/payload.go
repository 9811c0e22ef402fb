package ipc

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Marshal encodes a fixed-layout payload struct.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes payload into the fixed-layout struct pointed to by v.
// Trailing bytes are ignored; firmware revisions append fields.
func Unmarshal(payload []byte, v interface{}) error {
	size := binary.Size(v)
	if size < 0 {
		return fmt.Errorf("ipc: %T has no fixed size", v)
	}
	if len(payload) < size {
		return fmt.Errorf("ipc: %T wants %d bytes, got %d: %w", v, size, len(payload), ErrShortPayload)
	}
	return binary.Read(bytes.NewReader(payload[:size]), binary.LittleEndian, v)
}

// putString writes s NUL terminated, cutting it to fit dst.
func putString(dst []byte, s string) {
	if len(dst) == 0 {
		return
	}
	n := copy(dst[:len(dst)-1], s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func cString(b []byte) string {
	if n := bytes.IndexByte(b, 0); n >= 0 {
		b = b[:n]
	}
	return string(b)
}
