package ipc

import "fmt"

// Command identifies a modem IPC message: group in the high byte, index in the low byte.
type Command uint16

// NewCommand builds a Command from its group and index bytes.
func NewCommand(group, index uint8) Command {
	return Command(uint16(group)<<8 | uint16(index))
}

// Group returns the command group.
func (c Command) Group() uint8 { return uint8(c >> 8) }

// Index returns the command index within its group.
func (c Command) Index() uint8 { return uint8(c) }

const (
	PwrPhonePwrUp Command = 0x0101
	PwrPhoneState Command = 0x0102

	CallOutgoing Command = 0x0201
	CallIncoming Command = 0x0202
	CallRelease  Command = 0x0203
	CallAnswer   Command = 0x0204
	CallStatus   Command = 0x0205
	CallList     Command = 0x0206

	SMSSendMsg     Command = 0x0401
	SMSIncomingMsg Command = 0x0402

	SecPinStatus  Command = 0x0501
	SecPhoneLock  Command = 0x0502
	SecRSimAccess Command = 0x0507
	SecLockInfo   Command = 0x050A

	NetPreferredNetworkInfo Command = 0x0801
	NetPLMNSel              Command = 0x0802
	NetCurrentPLMN          Command = 0x0803
	NetPLMNList             Command = 0x0804
	NetRegist               Command = 0x0805
	NetModeSel              Command = 0x080A

	MiscMeVersion Command = 0x0A01
	MiscMeIMSI    Command = 0x0A02
	MiscMeSN      Command = 0x0A03
	MiscTimeInfo  Command = 0x0A07

	SSUSSD Command = 0x0C06

	GPRSDefinePDPContext Command = 0x0D01
	GPRSPS               Command = 0x0D03
	GPRSPDPContext       Command = 0x0D04
	GPRSIPConfiguration  Command = 0x0D07
	GPRSHSDPAStatus      Command = 0x0D0A
	GPRSCallStatus       Command = 0x0D0E
	GPRSPortList         Command = 0x0D10

	SatProactiveCmd Command = 0x0E01
	SatEnvelopeCmd  Command = 0x0E02

	GenPhoneRes Command = 0x8001
)

var commandNames = map[Command]string{
	PwrPhonePwrUp:           "PWR_PHONE_PWR_UP",
	PwrPhoneState:           "PWR_PHONE_STATE",
	CallOutgoing:            "CALL_OUTGOING",
	CallIncoming:            "CALL_INCOMING",
	CallRelease:             "CALL_RELEASE",
	CallAnswer:              "CALL_ANSWER",
	CallStatus:              "CALL_STATUS",
	CallList:                "CALL_LIST",
	SMSSendMsg:              "SMS_SEND_MSG",
	SMSIncomingMsg:          "SMS_INCOMING_MSG",
	SecPinStatus:            "SEC_PIN_STATUS",
	SecPhoneLock:            "SEC_PHONE_LOCK",
	SecRSimAccess:           "SEC_RSIM_ACCESS",
	SecLockInfo:             "SEC_LOCK_INFO",
	NetPreferredNetworkInfo: "NET_PREF_NETWORK_INFO",
	NetPLMNSel:              "NET_PLMN_SEL",
	NetCurrentPLMN:          "NET_CURRENT_PLMN",
	NetPLMNList:             "NET_PLMN_LIST",
	NetRegist:               "NET_REGIST",
	NetModeSel:              "NET_MODE_SEL",
	MiscMeVersion:           "MISC_ME_VERSION",
	MiscMeIMSI:              "MISC_ME_IMSI",
	MiscMeSN:                "MISC_ME_SN",
	MiscTimeInfo:            "MISC_TIME_INFO",
	SSUSSD:                  "SS_USSD",
	GPRSDefinePDPContext:    "GPRS_DEFINE_PDP_CONTEXT",
	GPRSPS:                  "GPRS_PS",
	GPRSPDPContext:          "GPRS_PDP_CONTEXT",
	GPRSIPConfiguration:     "GPRS_IP_CONFIGURATION",
	GPRSHSDPAStatus:         "GPRS_HSDPA_STATUS",
	GPRSCallStatus:          "GPRS_CALL_STATUS",
	GPRSPortList:            "GPRS_PORT_LIST",
	SatProactiveCmd:         "SAT_PROACTIVE_CMD",
	SatEnvelopeCmd:          "SAT_ENVELOPE_CMD",
	GenPhoneRes:             "GEN_PHONE_RES",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", uint16(c))
}

// Type is the IPC message type byte. Outgoing requests use Exec/Get/Set/Cfrm/Event;
// the modem answers with Indi/Resp/Noti. The two ranges overlap numerically, so a
// Type is only meaningful together with the message direction.
type Type uint8

const (
	TypeExec  Type = 0x01
	TypeGet   Type = 0x02
	TypeSet   Type = 0x03
	TypeCfrm  Type = 0x04
	TypeEvent Type = 0x05

	TypeIndi Type = 0x01
	TypeResp Type = 0x02
	TypeNoti Type = 0x03
)

// Kind classifies an inbound message for dispatch.
type Kind int

const (
	// KindSolicited is a reply to a command this side sent.
	KindSolicited Kind = iota
	// KindUnsolicited is a notification the modem sent on its own.
	KindUnsolicited
	// KindAck is the generic acknowledgment family (GEN_PHONE_RES).
	KindAck
)

func (k Kind) String() string {
	switch k {
	case KindSolicited:
		return "solicited"
	case KindUnsolicited:
		return "unsolicited"
	case KindAck:
		return "ack"
	default:
		return "unknown"
	}
}
