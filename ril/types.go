package ril

import (
	"fmt"
	"net"

	"github.com/younglifestyle/rilbridge/ipc"
)

// Token is the framework's opaque handle for one request.
type Token uint64

// Status is the outcome code reported with a request completion.
type Status int

const (
	StatusSuccess             Status = 0
	StatusRadioNotAvailable   Status = 1
	StatusGenericFailure      Status = 2
	StatusPasswordIncorrect   Status = 3
	StatusRequestNotSupported Status = 6
	StatusCanceled            Status = 7
)

var statusNames = map[Status]string{
	StatusSuccess:             "SUCCESS",
	StatusRadioNotAvailable:   "RADIO_NOT_AVAILABLE",
	StatusGenericFailure:      "GENERIC_FAILURE",
	StatusPasswordIncorrect:   "PASSWORD_INCORRECT",
	StatusRequestNotSupported: "REQUEST_NOT_SUPPORTED",
	StatusCanceled:            "CANCELLED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS(%d)", int(s))
}

// RequestID names a framework request.
type RequestID int

const (
	RequestEnterSimPin           RequestID = 2
	RequestRadioPower            RequestID = 23
	RequestSetupDataCall         RequestID = 27
	RequestSendUSSD              RequestID = 29
	RequestDeactivateDataCall    RequestID = 41
	RequestBasebandVersion       RequestID = 51
	RequestLastDataCallFailCause RequestID = 56
	RequestDataCallList          RequestID = 57
)

var requestNames = map[RequestID]string{
	RequestEnterSimPin:           "ENTER_SIM_PIN",
	RequestRadioPower:            "RADIO_POWER",
	RequestSetupDataCall:         "SETUP_DATA_CALL",
	RequestSendUSSD:              "SEND_USSD",
	RequestDeactivateDataCall:    "DEACTIVATE_DATA_CALL",
	RequestBasebandVersion:       "BASEBAND_VERSION",
	RequestLastDataCallFailCause: "LAST_DATA_CALL_FAIL_CAUSE",
	RequestDataCallList:          "DATA_CALL_LIST",
}

func (r RequestID) String() string {
	if name, ok := requestNames[r]; ok {
		return name
	}
	return fmt.Sprintf("REQUEST(%d)", int(r))
}

// Unsolicited names a framework event not tied to a request.
type Unsolicited int

const (
	UnsolRadioStateChanged   Unsolicited = 1000
	UnsolOnUSSD              Unsolicited = 1006
	UnsolDataCallListChanged Unsolicited = 1010
	UnsolSimStatusChanged    Unsolicited = 1019
)

var unsolicitedNames = map[Unsolicited]string{
	UnsolRadioStateChanged:   "RADIO_STATE_CHANGED",
	UnsolOnUSSD:              "ON_USSD",
	UnsolDataCallListChanged: "DATA_CALL_LIST_CHANGED",
	UnsolSimStatusChanged:    "SIM_STATUS_CHANGED",
}

func (u Unsolicited) String() string {
	if name, ok := unsolicitedNames[u]; ok {
		return name
	}
	return fmt.Sprintf("UNSOL(%d)", int(u))
}

// Framework receives completions and unsolicited events.
type Framework interface {
	OnRequestComplete(token Token, status Status, payload interface{})
	OnUnsolicitedResponse(event Unsolicited, payload interface{})
}

// Modem accepts outgoing IPC messages. Send must not block on a reply.
type Modem interface {
	Send(msg *ipc.Message) error
}

// Networking configures host interfaces for data connections.
type Networking interface {
	ApplyConfiguration(iface string, addr, gateway, dns1, dns2 net.IP) error
	InterfaceName(cid int) (string, error)
	BringDown(iface string) error
}

// Data call activity as reported in listings.
const (
	DataCallInactive = 0
	DataCallDormant  = 1
	DataCallActive   = 2
)

// DataCall describes one data connection to the framework. It is the payload
// of a successful setup and an element of every listing.
type DataCall struct {
	CID       int
	Active    int
	Type      string
	APN       string
	Interface string
	Address   string
	Gateway   string
	DNS       []string
}

// PinResult is the payload of a SIM PIN completion. AttemptsLeft is -1 when unknown.
type PinResult struct {
	AttemptsLeft int
}
