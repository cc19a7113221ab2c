package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.bug.st/serial"
	"i4.energy/across/esptun/modem"
	"i4.energy/across/esptun/tun"
)

func main() {
	defineFlags(flag.CommandLine)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [flags] <ifname> <uart> <ssid> <passwd> <host> <port>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	config, err := LoadConfig(
		WithDefaults(),
		WithFile(flag.Lookup("config").Value.String()),
		WithEnv(),
		WithFlags(flag.CommandLine),
		WithArgs(flag.Args()),
	)
	if err == nil {
		err = config.Validate()
	}
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		flag.Usage()
		os.Exit(1)
	}

	logger, logFile, err := newLogger(config)
	if err != nil {
		slog.Error("Failed to create logger", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		// Restore default handling so a second signal ends a process
		// stuck waiting for the modem.
		<-ctx.Done()
		logger.Info("Received shutdown signal")
		stop()
	}()

	err = run(ctx, config, logger)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("Tunnel stopped")
	case err != nil:
		logger.Error("Tunnel failed", "error", err)
		logFile.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, config *Config, logger *slog.Logger) error {
	dev, err := tun.Open(config.Interface)
	if err != nil {
		return err
	}
	defer dev.Close()
	logger.Info("Connected to interface", "interface", dev.Name())

	modemConfig, err := modem.NewConfigBuilder().
		WithDialer(modem.SerialDialer{
			PortName: config.SerialPort,
			Mode: &serial.Mode{
				BaudRate: config.BaudRate,
				DataBits: 8,
				Parity:   serial.NoParity,
				StopBits: serial.OneStopBit,
			},
		}).
		WithDevice(dev).
		WithLogger(logger.With("component", "modem")).
		WithAccessPoint(config.SSID, config.Password).
		WithRemote(config.Host, uint16(config.Port)).
		WithBaudRate(config.TargetBaudRate).
		WithBufferSize(config.BufferSize).
		Build()
	if err != nil {
		return fmt.Errorf("create modem config: %w", err)
	}

	logger.Info("Initializing modem", "serial_port", config.SerialPort)
	m, err := modem.New(ctx, modemConfig)
	if err != nil {
		return err
	}
	defer m.Close()

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Warn("Failed to notify service manager", "error", err)
	}
	defer daemon.SdNotify(false, daemon.SdNotifyStopping)

	if config.StatsInterval > 0 {
		go reportStats(ctx, logger.With("component", "stats"), m, config.StatsInterval)
	}

	return m.Loop(ctx)
}
