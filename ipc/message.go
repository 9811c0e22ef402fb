package ipc

import "fmt"

// Message is one decoded modem IPC message.
//
// Outgoing messages carry the transaction id in MSeq; the modem echoes it back
// in ASeq of every solicited reply and generic acknowledgment.
type Message struct {
	Command Command
	Type    Type
	MSeq    uint8
	ASeq    uint8
	Payload []byte
}

// NewRequest builds an outgoing message tagged with transaction id.
func NewRequest(command Command, typ Type, id uint8, payload []byte) *Message {
	return &Message{Command: command, Type: typ, MSeq: id, Payload: payload}
}

// TransactionID returns the id an inbound message refers to.
func (m *Message) TransactionID() uint8 {
	return m.ASeq
}

// Kind classifies an inbound message.
func (m *Message) Kind() Kind {
	if m.Command == GenPhoneRes {
		return KindAck
	}
	if m.Type == TypeResp {
		return KindSolicited
	}
	return KindUnsolicited
}

func (m *Message) String() string {
	return fmt.Sprintf("%s type=0x%02x mseq=0x%02x aseq=0x%02x len=%d",
		m.Command, uint8(m.Type), m.MSeq, m.ASeq, len(m.Payload))
}
