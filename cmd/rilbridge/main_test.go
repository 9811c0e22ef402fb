package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/younglifestyle/rilbridge/ril"
)

func TestParseCommand(t *testing.T) {
	cmd, err := parseCommand("setup internet user secret")
	require.NoError(t, err)
	assert.Equal(t, ril.RequestSetupDataCall, cmd.request)
	req, err := ril.ParseSetupDataCall(cmd.data)
	require.NoError(t, err)
	assert.Equal(t, "internet", req.APN)
	assert.Equal(t, "user", req.Username)
	assert.Equal(t, "secret", req.Password)

	cmd, err = parseCommand("setup internet")
	require.NoError(t, err)
	req, err = ril.ParseSetupDataCall(cmd.data)
	require.NoError(t, err)
	assert.Equal(t, "dummy", req.Username)

	cmd, err = parseCommand("DEACTIVATE 2")
	require.NoError(t, err)
	cid, err := ril.ParseConnectionID(cmd.data)
	require.NoError(t, err)
	assert.Equal(t, 2, cid)

	cmd, err = parseCommand("power off")
	require.NoError(t, err)
	on, err := ril.ParseRadioPower(cmd.data)
	require.NoError(t, err)
	assert.False(t, on)

	cmd, err = parseCommand("ussd *100#  now")
	require.NoError(t, err)
	assert.Equal(t, "*100# now", cmd.data)

	cmd, err = parseCommand("cancel 42")
	require.NoError(t, err)
	assert.True(t, cmd.cancel)
	assert.Equal(t, ril.Token(42), cmd.token)

	cmd, err = parseCommand("list")
	require.NoError(t, err)
	assert.Equal(t, ril.RequestDataCallList, cmd.request)
	assert.Nil(t, cmd.data)
}

func TestParseCommandErrors(t *testing.T) {
	for _, line := range []string{"", "setup", "list now", "power maybe", "pin", "cancel x"} {
		_, err := parseCommand(line)
		assert.Error(t, err, line)
	}
	_, err := parseCommand("setup")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, err.Error(), "setup <apn>")

	_, err = parseCommand("dial 123")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errUsage)
}

func TestConsoleFrameworkPrints(t *testing.T) {
	var buf bytes.Buffer
	f := newConsoleFramework(&buf, nil)

	f.OnRequestComplete(7, ril.StatusSuccess, ril.DataCall{
		CID: 1, Active: ril.DataCallActive, APN: "internet", Interface: "rmnet0",
		Address: "10.0.0.5", Gateway: "10.0.0.1", DNS: []string{"8.8.8.8"},
	})
	f.OnUnsolicitedResponse(ril.UnsolOnUSSD, []string{"0", "hello"})

	out := buf.String()
	assert.Contains(t, out, "< [7] SUCCESS {cid=1 active=2 apn=internet if=rmnet0 addr=10.0.0.5 gw=10.0.0.1 dns=8.8.8.8}")
	assert.Contains(t, out, "< ON_USSD 0 hello")
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ril.DefaultMaxDataConnections, cfg.Capabilities.MaxDataConnections)
	assert.Equal(t, "/dev/umts_ipc0", cfg.Modem.Device)

	path := filepath.Join(t.TempDir(), "rilbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
modem:
  device: /dev/ttyACM0
  serial: true
  baud_rate: 921600
  open:
    max_attempts: 3
    base: 250ms
capabilities:
  max_data_connections: 2
  port_negotiation: false
metrics:
  listen: 127.0.0.1:9400
log:
  debug: true
`), 0o644))

	cfg, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", cfg.Modem.Device)
	assert.True(t, cfg.Modem.Serial)
	assert.Equal(t, 921600, cfg.Modem.BaudRate)
	assert.Equal(t, 3, cfg.Modem.Open.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Modem.Open.Base)
	assert.Equal(t, 10*time.Second, cfg.Modem.Open.Max)
	assert.Equal(t, 2, cfg.Capabilities.MaxDataConnections)
	assert.False(t, cfg.Capabilities.PortNegotiation)
	assert.Equal(t, "127.0.0.1:9400", cfg.Metrics.Listen)
	assert.True(t, cfg.Log.Debug)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("modem:\n  device: \"\"\n"), 0o644))
	_, err := loadConfig(path)
	assert.Error(t, err)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
