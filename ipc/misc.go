package ipc

import "fmt"

// MeVersion is the MISC_ME_VERSION reply payload.
type MeVersion struct {
	Version [32]byte
	Model   [32]byte
}

// Baseband returns the firmware version string.
func (v MeVersion) Baseband() string { return cString(v.Version[:]) }

// PIN types for SEC_PIN_STATUS.
const (
	PinTypePIN1 uint8 = 0x03
	PinTypePIN2 uint8 = 0x09
)

// Failure reasons in the low byte of a SEC_PIN_STATUS acknowledgment.
const (
	PinReasonWrongPassword  uint8 = 0x10
	PinReasonNoAttemptsLeft uint8 = 0x0c
)

// PinStatusSet is the SEC_PIN_STATUS SET payload.
type PinStatusSet struct {
	PinType uint8
	Length1 uint8
	Length2 uint8
	PIN1    [8]byte
	PIN2    [8]byte
}

// NewPinStatusSet builds an unlock payload for pin1 (and optional pin2).
func NewPinStatusSet(pinType uint8, pin1, pin2 string) (PinStatusSet, error) {
	if len(pin1) > 8 || len(pin2) > 8 {
		return PinStatusSet{}, fmt.Errorf("ipc: pin exceeds 8 digits")
	}
	p := PinStatusSet{PinType: pinType, Length1: uint8(len(pin1)), Length2: uint8(len(pin2))}
	putString(p.PIN1[:], pin1)
	putString(p.PIN2[:], pin2)
	return p, nil
}

// USSD states.
const (
	USSDNoActionRequired uint8 = 0x01
	USSDActionRequired   uint8 = 0x02
	USSDTerminatedByNet  uint8 = 0x03
	USSDOtherClient      uint8 = 0x04
	USSDNotSupported     uint8 = 0x05
	USSDTimeout          uint8 = 0x06
)

// USSD is a decoded SS_USSD notification. Text holds the raw string bytes;
// the data coding scheme is left to the framework.
type USSD struct {
	State uint8
	DCS   uint8
	Text  string
}

// ParseUSSD decodes an SS_USSD notification payload.
func ParseUSSD(payload []byte) (USSD, error) {
	if len(payload) < 3 {
		return USSD{}, fmt.Errorf("ss_ussd: %d bytes: %w", len(payload), ErrShortPayload)
	}
	u := USSD{State: payload[0], DCS: payload[1]}
	n := int(payload[2])
	if rest := payload[3:]; n > len(rest) {
		n = len(rest)
	}
	u.Text = cString(payload[3 : 3+n])
	return u, nil
}

// Power states carried by PWR_PHONE_STATE.
const (
	PowerStateLPM    uint16 = 0x0001
	PowerStateNormal uint16 = 0x0202
)

// PowerReport returns the state byte of a PWR_PHONE_STATE notification for a
// requested power state.
func PowerReport(state uint16) uint8 {
	return uint8(state >> 8)
}

// EncodePowerState builds a PWR_PHONE_STATE EXEC payload.
func EncodePowerState(state uint16) []byte {
	return []byte{uint8(state), uint8(state >> 8)}
}

// MaxUSSDLength bounds the encoded USSD string.
const MaxUSSDLength = 0xc0 - 3

// EncodeUSSD builds an SS_USSD SET payload: state, dcs, length, then the
// GSM-default-alphabet string as sent by the framework.
func EncodeUSSD(message string) ([]byte, error) {
	if len(message) > MaxUSSDLength {
		return nil, fmt.Errorf("ipc: ussd string of %d bytes exceeds %d", len(message), MaxUSSDLength)
	}
	out := make([]byte, 3+len(message))
	out[0] = USSDActionRequired
	out[1] = 0x0f
	out[2] = uint8(len(message))
	copy(out[3:], message)
	return out, nil
}
