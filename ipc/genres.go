package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortPayload is returned when a payload is smaller than its fixed layout.
var ErrShortPayload = errors.New("ipc: payload too short")

// Result codes carried by GEN_PHONE_RES.
const (
	ResultSuccess    uint16 = 0x8000
	ResultSuccessAlt uint16 = 0x0001
)

// PhoneResult is the generic acknowledgment payload: which command it answers
// and the modem's result code.
type PhoneResult struct {
	Group uint8
	Index uint8
	Type  Type
	Code  uint16
}

const phoneResultSize = 5

// ParsePhoneResult decodes a GEN_PHONE_RES payload.
func ParsePhoneResult(payload []byte) (PhoneResult, error) {
	if len(payload) < phoneResultSize {
		return PhoneResult{}, fmt.Errorf("gen_phone_res: %d bytes: %w", len(payload), ErrShortPayload)
	}
	return PhoneResult{
		Group: payload[0],
		Index: payload[1],
		Type:  Type(payload[2]),
		Code:  binary.LittleEndian.Uint16(payload[3:5]),
	}, nil
}

// MarshalBinary encodes the payload.
func (r PhoneResult) MarshalBinary() ([]byte, error) {
	out := make([]byte, phoneResultSize)
	out[0] = r.Group
	out[1] = r.Index
	out[2] = uint8(r.Type)
	binary.LittleEndian.PutUint16(out[3:], r.Code)
	return out, nil
}

// Command returns the command this acknowledgment answers.
func (r PhoneResult) Command() Command {
	return NewCommand(r.Group, r.Index)
}

// OK reports whether the modem accepted the command.
func (r PhoneResult) OK() bool {
	return r.Code == ResultSuccess || r.Code == ResultSuccessAlt
}

// Reason returns the low byte of the result code, which carries the
// failure detail.
func (r PhoneResult) Reason() uint8 {
	return uint8(r.Code & 0x00ff)
}

// NewGenPhoneRes builds an acknowledgment message for command with id.
func NewGenPhoneRes(command Command, typ Type, id uint8, code uint16) *Message {
	payload, _ := PhoneResult{Group: command.Group(), Index: command.Index(), Type: typ, Code: code}.MarshalBinary()
	return &Message{Command: GenPhoneRes, Type: TypeIndi, ASeq: id, Payload: payload}
}
