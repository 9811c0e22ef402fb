package ril

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"
	"github.com/younglifestyle/rilbridge/ipc"
)

// ErrBadRequest is returned when request data cannot be decoded.
var ErrBadRequest = errors.New("ril: malformed request data")

// placeholderCredential stands in for credentials the network does not need;
// the modem rejects empty fields.
const placeholderCredential = "dummy"

// SetupDataCallRequest is the decoded SETUP_DATA_CALL argument list:
// radio technology, profile, apn, user, password, auth type, protocol.
type SetupDataCallRequest struct {
	RadioTechnology string
	Profile         string
	APN             string
	Username        string
	Password        string
	AuthType        string
	Protocol        string
}

func stringArgs(data interface{}) ([]string, error) {
	if data == nil {
		return nil, nil
	}
	args, err := cast.ToStringSliceE(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return args, nil
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// ParseSetupDataCall decodes the string arguments of a setup request.
func ParseSetupDataCall(data interface{}) (SetupDataCallRequest, error) {
	args, err := stringArgs(data)
	if err != nil {
		return SetupDataCallRequest{}, err
	}
	if len(args) < 3 || args[2] == "" {
		return SetupDataCallRequest{}, fmt.Errorf("%w: setup needs an apn", ErrBadRequest)
	}
	if len(args[2]) > ipc.MaxAPNLength {
		return SetupDataCallRequest{}, fmt.Errorf("%w: apn longer than %d bytes", ErrBadRequest, ipc.MaxAPNLength)
	}
	if len(arg(args, 3)) > ipc.MaxCredentialLength || len(arg(args, 4)) > ipc.MaxCredentialLength {
		return SetupDataCallRequest{}, fmt.Errorf("%w: credentials longer than %d bytes", ErrBadRequest, ipc.MaxCredentialLength)
	}
	return SetupDataCallRequest{
		RadioTechnology: arg(args, 0),
		Profile:         arg(args, 1),
		APN:             arg(args, 2),
		Username:        credential(arg(args, 3)),
		Password:        credential(arg(args, 4)),
		AuthType:        arg(args, 5),
		Protocol:        arg(args, 6),
	}, nil
}

func credential(s string) string {
	if len(s) < 2 {
		return placeholderCredential
	}
	return s
}

// ParseConnectionID decodes the connection id of a deactivate request. Both
// a bare number and the framework's string list are accepted.
func ParseConnectionID(data interface{}) (int, error) {
	first := data
	switch v := data.(type) {
	case []string:
		if len(v) == 0 {
			return 0, fmt.Errorf("%w: missing connection id", ErrBadRequest)
		}
		first = v[0]
	case []interface{}:
		if len(v) == 0 {
			return 0, fmt.Errorf("%w: missing connection id", ErrBadRequest)
		}
		first = v[0]
	}
	cid, err := cast.ToIntE(first)
	if err != nil {
		return 0, fmt.Errorf("%w: connection id: %v", ErrBadRequest, err)
	}
	return cid, nil
}

// ParseRadioPower decodes the on/off argument of a radio power request.
func ParseRadioPower(data interface{}) (bool, error) {
	if args, ok := data.([]string); ok {
		if len(args) == 0 {
			return false, fmt.Errorf("%w: missing power state", ErrBadRequest)
		}
		data = args[0]
	}
	n, err := cast.ToIntE(data)
	if err != nil {
		on, berr := cast.ToBoolE(data)
		if berr != nil {
			return false, fmt.Errorf("%w: power state: %v", ErrBadRequest, err)
		}
		return on, nil
	}
	return n > 0, nil
}
