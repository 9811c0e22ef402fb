package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/younglifestyle/rilbridge/common"
	"github.com/younglifestyle/rilbridge/ipc"
	"github.com/younglifestyle/rilbridge/netcfg"
	"github.com/younglifestyle/rilbridge/ril"
	"go.bug.st/serial"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "YAML configuration file")
	device := pflag.StringP("device", "d", "", "modem IPC device (overrides config)")
	rfs := pflag.String("rfs", "", "modem RFS device (overrides config)")
	serialLine := pflag.Bool("serial", false, "open the modem device as a serial line")
	baud := pflag.Int("baud", 0, "serial baud rate (overrides config)")
	metricsAddr := pflag.String("metrics", "", "listen address for /metrics (overrides config)")
	console := pflag.Bool("console", false, "start the interactive request console")
	debug := pflag.Bool("debug", false, "enable debug logging")
	pflag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	flags := pflag.CommandLine
	if flags.Changed("device") {
		cfg.Modem.Device = *device
	}
	if flags.Changed("rfs") {
		cfg.Modem.RFSDevice = *rfs
	}
	if flags.Changed("serial") {
		cfg.Modem.Serial = *serialLine
	}
	if flags.Changed("baud") {
		cfg.Modem.BaudRate = *baud
	}
	if flags.Changed("metrics") {
		cfg.Metrics.Listen = *metricsAddr
	}
	if flags.Changed("console") {
		cfg.Console = *console
	}
	if flags.Changed("debug") {
		cfg.Log.Debug = *debug
	}
	if err := cfg.validate(); err != nil {
		log.Fatal(err)
	}

	logger := common.NewZapLogger(cfg.Log)
	defer common.Sync(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("rilbridge stopped", "error", err)
		common.Sync(logger)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, logger common.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmtChannel, err := openChannel(ctx, "fmt", cfg.Modem.Device, cfg.Modem, logger)
	if err != nil {
		return err
	}
	defer fmtChannel.Close()

	props, err := netcfg.OpenProperties(cfg.Network.PropertiesFile)
	if err != nil {
		return err
	}
	network, err := netcfg.NewConfigurator(netcfg.Options{
		InterfacePattern: cfg.Network.InterfacePattern,
		Properties:       props,
		DefaultRoute:     cfg.Network.DefaultRoute,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	framework := newConsoleFramework(os.Stdout, logger)
	engine, err := ril.NewEngine(ril.Options{
		Capabilities: cfg.Capabilities,
		Modem:        fmtChannel,
		Framework:    framework,
		Networking:   network,
		Registerer:   registry,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	bridge := ril.NewBridge(engine, logger)
	bridge.AddChannel(fmtChannel)
	if cfg.Modem.RFSDevice != "" {
		rfsChannel, err := openChannel(ctx, "rfs", cfg.Modem.RFSDevice, cfg.Modem, logger)
		if err != nil {
			return err
		}
		defer rfsChannel.Close()
		bridge.AddChannel(rfsChannel)
	}

	// Without the formatted channel no request can make progress.
	var channelErr error
	bridge.Events().ChannelClosed.AddCallback(func(ev ril.ChannelClosed) {
		if ev.Channel == fmtChannel.Name() {
			channelErr = fmt.Errorf("channel %s: %w", ev.Channel, ev.Err)
			cancel()
		}
	})

	if cfg.Metrics.Listen != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           metricsMux(registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("metrics listening", "addr", cfg.Metrics.Listen)
	}

	if cfg.Console {
		c, err := newConsole(bridge, framework, logger)
		if err != nil {
			return err
		}
		go func() {
			defer cancel()
			if err := c.Run(ctx); err != nil {
				logger.Error("console failed", "error", err)
			}
		}()
	}

	logger.Info("rilbridge started", "device", cfg.Modem.Device, "max_data_connections", cfg.Capabilities.MaxDataConnections)
	if err := bridge.Serve(ctx); err != nil {
		return err
	}
	return channelErr
}

func openChannel(ctx context.Context, name, path string, mc ModemConfig, logger common.Logger) (*ipc.Channel, error) {
	var dialer ipc.Dialer = ipc.DeviceDialer{Path: path}
	if mc.Serial {
		dialer = ipc.SerialDialer{PortName: path, Mode: &serial.Mode{BaudRate: mc.BaudRate}}
	}
	dialer = ipc.RetryDialer{
		Dialer:  dialer,
		Backoff: mc.Open,
		Logger:  common.WithFields(logger, "channel", name),
	}

	rw, err := dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s channel: %w", name, err)
	}
	return newChannel(name, rw, logger)
}

func newChannel(name string, rw io.ReadWriteCloser, logger common.Logger) (*ipc.Channel, error) {
	conn, err := ipc.NewConn(name, rw, logger)
	if err != nil {
		_ = rw.Close()
		return nil, err
	}
	return ipc.NewChannel(name, conn, logger), nil
}

func metricsMux(registry *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	return mux
}
