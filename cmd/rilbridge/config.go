package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/younglifestyle/rilbridge/common"
	"github.com/younglifestyle/rilbridge/ipc"
	"github.com/younglifestyle/rilbridge/netcfg"
	"github.com/younglifestyle/rilbridge/ril"
	"gopkg.in/yaml.v3"
)

// ModemConfig locates the modem channels.
type ModemConfig struct {
	// Device is the formatted-message channel, e.g. /dev/umts_ipc0.
	Device string `yaml:"device"`

	// RFSDevice is the optional remote file system channel. Its messages
	// are logged and counted but nothing is requested on it.
	RFSDevice string `yaml:"rfs_device"`

	// Serial opens Device as a serial line at BaudRate instead of a plain
	// character device.
	Serial   bool `yaml:"serial"`
	BaudRate int  `yaml:"baud_rate"`

	// Open retries opening the devices while the modem boots.
	Open ipc.Backoff `yaml:"open"`
}

type NetworkConfig struct {
	InterfacePattern string `yaml:"interface_pattern"`
	PropertiesFile   string `yaml:"properties_file"`
	DefaultRoute     bool   `yaml:"default_route"`
}

type MetricsConfig struct {
	// Listen is the address of the /metrics endpoint. Empty disables it.
	Listen string `yaml:"listen"`
}

// Config is the daemon configuration file.
type Config struct {
	Modem        ModemConfig          `yaml:"modem"`
	Capabilities ril.Capabilities     `yaml:"capabilities"`
	Network      NetworkConfig        `yaml:"network"`
	Metrics      MetricsConfig        `yaml:"metrics"`
	Log          common.LoggerOptions `yaml:"log"`
	Console      bool                 `yaml:"console"`
}

func defaultConfig() Config {
	return Config{
		Modem: ModemConfig{
			Device:   "/dev/umts_ipc0",
			BaudRate: 115200,
			Open: ipc.Backoff{
				MaxAttempts: 10,
				Base:        500 * time.Millisecond,
				Max:         10 * time.Second,
			},
		},
		Capabilities: ril.Capabilities{
			MaxDataConnections: ril.DefaultMaxDataConnections,
			PortNegotiation:    true,
		},
		Network: NetworkConfig{
			InterfacePattern: netcfg.DefaultInterfacePattern,
			DefaultRoute:     true,
		},
		Log: common.LoggerOptions{
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
			Format:     "console",
		},
	}
}

// loadConfig reads path over the defaults. An empty path returns the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Modem.Device == "" {
		return errors.New("config: modem.device is required")
	}
	if c.Modem.Serial && c.Modem.BaudRate <= 0 {
		return errors.New("config: modem.baud_rate must be positive for a serial modem")
	}
	if c.Modem.Open.MaxAttempts < 0 || c.Modem.Open.Base < 0 {
		return errors.New("config: modem.open backoff must not be negative")
	}
	if c.Capabilities.MaxDataConnections < 0 {
		return errors.New("config: capabilities.max_data_connections must not be negative")
	}
	return nil
}
