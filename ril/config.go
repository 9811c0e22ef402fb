package ril

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/younglifestyle/rilbridge/common"
)

// DefaultMaxDataConnections matches the number of contexts a listing reports.
const DefaultMaxDataConnections = 3

// ErrMissingCollaborator is returned when Options lacks the modem or framework.
var ErrMissingCollaborator = errors.New("ril: modem and framework are required")

// Capabilities are what the modem reported about itself at startup.
type Capabilities struct {
	// MaxDataConnections sizes the data connection pool.
	MaxDataConnections int `yaml:"max_data_connections"`
	// PortNegotiation sends GPRS_PORT_LIST before defining a context.
	PortNegotiation bool `yaml:"port_negotiation"`
}

// Options describes the collaborators and parameters of an Engine.
type Options struct {
	Capabilities Capabilities
	Modem        Modem
	Framework    Framework
	Networking   Networking            // Optional: nil fails every setup at the configuration step.
	Registerer   prometheus.Registerer // Optional: metrics are not exported when nil.
	Logger       common.Logger         // Optional: defaults to NopLogger().
}

func (o *Options) applyDefaults() {
	if o.Capabilities.MaxDataConnections <= 0 {
		o.Capabilities.MaxDataConnections = DefaultMaxDataConnections
	}
	o.Logger = common.OrNop(o.Logger)
}

func (o *Options) validate() error {
	if o.Modem == nil || o.Framework == nil {
		return ErrMissingCollaborator
	}
	return nil
}
