// Command lm50client is a client for an LM-50TCP+-class electricity meter:
// a one-shot human report, a monitoring-collector one-liner, or a
// long-running daemon that samples channels into a CSV time series.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/oxalisiot/lm50client/config"
	"github.com/oxalisiot/lm50client/daemon"
	"github.com/oxalisiot/lm50client/device"
	"github.com/oxalisiot/lm50client/metrics"
	"github.com/oxalisiot/lm50client/modbus"
	"github.com/oxalisiot/lm50client/present"
	"github.com/oxalisiot/lm50client/sink"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	log := buildLogger(cfg.LogFormat, cfg.LogLevel)

	var tr modbus.Transport
	dev := device.New(&tr, cfg.Host, cfg.Service)

	var runErr error
	switch cfg.Mode {
	case config.ModeHuman:
		runErr = runHuman(cfg, dev)
	case config.ModeCollector:
		runErr = runCollector(cfg, dev)
	case config.ModeDaemon:
		runErr = runDaemon(cfg, dev, log)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

func runHuman(cfg *config.Config, dev *device.Device) error {
	ctx := context.Background()
	if err := dev.Connect(ctx); err != nil {
		return err
	}
	defer dev.Disconnect()

	if err := dev.ReadSteady(); err != nil {
		return err
	}
	revision, _ := dev.Revision()
	serial, _ := dev.SerialNumber()

	if err := dev.UpdateVolatile(); err != nil {
		return err
	}

	readings := make([]present.Reading, len(cfg.Channels))
	for i, ch := range cfg.Channels {
		v, err := dev.Channel(ch - 1)
		readings[i] = present.Reading{Channel: ch, Value: v, Err: err}
	}

	return present.Human(os.Stdout, cfg.Host, cfg.Service, revision, serial, readings)
}

func runCollector(cfg *config.Config, dev *device.Device) error {
	ctx := context.Background()
	if err := dev.Connect(ctx); err != nil {
		return err
	}
	defer dev.Disconnect()

	updateErr := dev.UpdateVolatile()

	readings := make([]present.Reading, len(cfg.Channels))
	for i, ch := range cfg.Channels {
		if updateErr != nil {
			readings[i] = present.Reading{Channel: ch, Err: updateErr}
			continue
		}
		v, err := dev.Channel(ch - 1)
		readings[i] = present.Reading{Channel: ch, Value: v, Err: err}
	}

	if err := present.Collector(os.Stdout, readings); err != nil {
		return err
	}
	if updateErr != nil {
		os.Exit(1)
	}
	return nil
}

func runDaemon(cfg *config.Config, dev *device.Device, log *slog.Logger) error {
	detached, err := maybeDetach(cfg)
	if err != nil {
		return err
	}
	if detached {
		os.Exit(0)
	}

	ctx, stop := notifyContext(log)
	defer stop()

	sk, err := sink.NewCSV(cfg.SinkFile, cfg.Channels)
	if err != nil {
		return &daemon.FatalError{Err: err}
	}
	defer sk.Close()

	var rec daemon.Recorder
	if cfg.MetricsAddr != "" {
		m := metrics.New()
		rec = m
		srv := metrics.StartHTTP(ctx, cfg.MetricsAddr, log)
		defer srv.Close()
	}

	d := daemon.New(dev, sk, daemon.Config{
		Period:   cfg.PollPeriod,
		Channels: cfg.Channels,
	}, log, rec)

	return d.Run(ctx)
}
