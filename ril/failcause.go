package ril

import "fmt"

// FailCause classifies why a data connection failed. Recognized values are
// the 3GPP session management causes.
type FailCause int

const (
	FailCauseInsufficientResources       FailCause = 26
	FailCauseMissingUnknownAPN           FailCause = 27
	FailCauseUnknownPDPAddressType       FailCause = 28
	FailCauseUserAuthentication          FailCause = 29
	FailCauseActivationRejectGGSN        FailCause = 30
	FailCauseActivationRejectUnspecified FailCause = 31
	FailCauseServiceOptionNotSupported   FailCause = 32
	FailCauseServiceOptionNotSubscribed  FailCause = 33
	FailCauseServiceOptionOutOfOrder     FailCause = 34
	FailCauseNSAPIInUse                  FailCause = 35
	FailCauseUnspecified                 FailCause = 0xffff
)

var failCauseNames = map[FailCause]string{
	FailCauseInsufficientResources:       "INSUFFICIENT_RESOURCES",
	FailCauseMissingUnknownAPN:           "MISSING_UNKNOWN_APN",
	FailCauseUnknownPDPAddressType:       "UNKNOWN_PDP_ADDRESS_TYPE",
	FailCauseUserAuthentication:          "USER_AUTHENTICATION",
	FailCauseActivationRejectGGSN:        "ACTIVATION_REJECT_GGSN",
	FailCauseActivationRejectUnspecified: "ACTIVATION_REJECT_UNSPECIFIED",
	FailCauseServiceOptionNotSupported:   "SERVICE_OPTION_NOT_SUPPORTED",
	FailCauseServiceOptionNotSubscribed:  "SERVICE_OPTION_NOT_SUBSCRIBED",
	FailCauseServiceOptionOutOfOrder:     "SERVICE_OPTION_OUT_OF_ORDER",
	FailCauseNSAPIInUse:                  "NSAPI_IN_USE",
	FailCauseUnspecified:                 "ERROR_UNSPECIFIED",
}

func (f FailCause) String() string {
	if name, ok := failCauseNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FAIL_CAUSE(%d)", int(f))
}

// ClassifyFailCause maps a modem cause code. Unrecognized codes are unspecified.
func ClassifyFailCause(code uint16) FailCause {
	cause := FailCause(code)
	if cause >= FailCauseInsufficientResources && cause <= FailCauseNSAPIInUse {
		return cause
	}
	return FailCauseUnspecified
}
