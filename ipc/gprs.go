package ipc

import (
	"net"
)

// Call status states reported by GPRS_CALL_STATUS.
const (
	GPRSStateNotEnabled uint8 = 0x00
	GPRSStateEnabled    uint8 = 0x01
	GPRSStateDisabled   uint8 = 0x03
)

const (
	apnFieldSize        = 124
	credentialFieldSize = 32
)

// Longest strings the context payloads carry. Fields are NUL terminated.
const (
	MaxAPNLength        = apnFieldSize - 1
	MaxCredentialLength = credentialFieldSize - 1
)

// DefinePDPContext is the GPRS_DEFINE_PDP_CONTEXT SET payload.
type DefinePDPContext struct {
	Enable  uint8
	CID     uint8
	Unknown uint8
	APN     [apnFieldSize]byte
}

// NewDefinePDPContext builds a context definition for cid and apn.
func NewDefinePDPContext(cid int, apn string) DefinePDPContext {
	d := DefinePDPContext{Enable: 1, CID: uint8(cid), Unknown: 0x02}
	putString(d.APN[:], apn)
	return d
}

// AccessPoint returns the APN as a string.
func (d DefinePDPContext) AccessPoint() string { return cString(d.APN[:]) }

// PDPContextSet is the GPRS_PDP_CONTEXT SET payload. Enable=1 activates the
// context, Enable=0 deactivates it.
type PDPContextSet struct {
	Enable   uint8
	CID      uint8
	Unknown0 [32]byte
	Username [credentialFieldSize]byte
	Password [credentialFieldSize]byte
	Unknown1 [32]byte
	Unknown2 uint8
}

// NewPDPContextActivation builds an activation payload with credentials.
func NewPDPContextActivation(cid int, username, password string) PDPContextSet {
	p := PDPContextSet{Enable: 1, CID: uint8(cid)}
	p.Unknown0[2] = 0x13
	p.Unknown2 = 0x01
	putString(p.Username[:], username)
	putString(p.Password[:], password)
	return p
}

// NewPDPContextDeactivation builds a deactivation payload.
func NewPDPContextDeactivation(cid int) PDPContextSet {
	return PDPContextSet{Enable: 0, CID: uint8(cid)}
}

// Credentials returns the username and password.
func (p PDPContextSet) Credentials() (string, string) {
	return cString(p.Username[:]), cString(p.Password[:])
}

// PortList is the GPRS_PORT_LIST SET payload.
type PortList struct {
	Data [10]byte
}

// DefaultPortList returns the port list known to work on most firmware.
func DefaultPortList() PortList {
	return PortList{Data: [10]byte{0x02, 0x04, 0x16, 0x00, 0x17, 0x00, 0x87, 0x00, 0xBD, 0x01}}
}

// IPConfiguration is the GPRS_IP_CONFIGURATION notification payload.
type IPConfiguration struct {
	CID        uint8
	FieldFlag  uint8
	Unknown1   uint8
	IP         [4]byte
	DNS1       [4]byte
	DNS2       [4]byte
	Gateway    [4]byte
	SubnetMask [4]byte
	Unknown2   [4]byte
}

// Address returns the assigned local address.
func (c IPConfiguration) Address() net.IP { return ip4(c.IP) }

// GatewayAddress returns the gateway, falling back to the local address when
// the modem left it empty (point-to-point links).
func (c IPConfiguration) GatewayAddress() net.IP {
	if c.Gateway == [4]byte{} {
		return ip4(c.IP)
	}
	return ip4(c.Gateway)
}

// PrimaryDNS returns dns1.
func (c IPConfiguration) PrimaryDNS() net.IP { return ip4(c.DNS1) }

// SecondaryDNS returns dns2.
func (c IPConfiguration) SecondaryDNS() net.IP { return ip4(c.DNS2) }

func ip4(b [4]byte) net.IP {
	return net.IPv4(b[0], b[1], b[2], b[3]).To4()
}

// CallStatusInfo is the GPRS_CALL_STATUS notification payload.
type CallStatusInfo struct {
	CID       uint8
	State     uint8
	FailCause uint16
}

// PDPContextDescriptorCount is the number of descriptors in a listing.
const PDPContextDescriptorCount = 3

// PDPContextDescriptor is one entry of a GPRS_PDP_CONTEXT listing.
type PDPContextDescriptor struct {
	CID    uint8
	Active uint8
}

// PDPContextList is the GPRS_PDP_CONTEXT GET reply and notification payload.
type PDPContextList struct {
	Unknown     uint8
	Descriptors [PDPContextDescriptorCount]PDPContextDescriptor
}
