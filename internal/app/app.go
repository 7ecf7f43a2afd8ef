// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package app runs the gateway: it polls the sensor, keeps a local history
// and forwards every sample over MQTT.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GermanBionicSystems/shtdevices/internal/config"
	"github.com/GermanBionicSystems/shtdevices/internal/history"
	"github.com/GermanBionicSystems/shtdevices/internal/telemetry"
	"github.com/GermanBionicSystems/shtdevices/shtcx"
	"github.com/GermanBionicSystems/shtdevices/shtcx/shtcxenv"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// trimEvery is the number of appends between two history trims.
const trimEvery = 100

// Measurer takes one reading. *shtcxenv.Sensor implements it.
type Measurer interface {
	Measure() (shtcx.Measurement, error)
}

// Sink receives every sample.
type Sink interface {
	Append(s history.Sample) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(s history.Sample) error

// Append calls f(s).
func (f SinkFunc) Append(s history.Sample) error {
	return f(s)
}

// Poller measures on a fixed interval and fans samples out to its sinks.
// A failing sink is logged and does not stop the loop.
type Poller struct {
	Sensor   Measurer
	Mode     shtcx.PowerMode
	Interval time.Duration
	Sinks    []Sink
	Logger   *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Run polls until ctx is done. The first measurement is taken immediately.
func (p *Poller) Run(ctx context.Context) error {
	if p.Interval <= 0 {
		return fmt.Errorf("app: invalid poll interval %v", p.Interval)
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	t := time.NewTicker(p.Interval)
	defer t.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.poll(now())
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
}

func (p *Poller) poll(at time.Time) {
	m, err := p.Sensor.Measure()
	if err != nil {
		p.Logger.Warn("measure failed", "error", err)
		return
	}
	s := history.NewSample(at, p.Mode, m)
	p.Logger.Debug("sample", "temperature", m.Temperature.String(), "humidity", m.Humidity.String())
	for _, sink := range p.Sinks {
		if err := sink.Append(s); err != nil {
			p.Logger.Warn("sink failed", "error", err)
		}
	}
}

// trimmingStore bounds the history to limit samples.
type trimmingStore struct {
	store *history.Store
	limit int
	n     int
}

func (t *trimmingStore) Append(s history.Sample) error {
	if err := t.store.Append(s); err != nil {
		return err
	}
	t.n++
	if t.n%trimEvery == 0 {
		return t.store.Trim(t.limit)
	}
	return nil
}

// Run opens the sensor described by cfg and polls it until ctx is done.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("initializing gateway",
		"i2c_bus", cfg.I2CBus,
		"profile", cfg.Profile.Name,
		"address", fmt.Sprintf("0x%02x", cfg.Address),
		"mode", cfg.PowerMode.String(),
		"mqtt_broker", cfg.MQTTBroker,
		"mqtt_port", cfg.MQTTPort,
	)

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("open i2c bus: %w", err)
	}
	defer bus.Close()

	dev, err := shtcx.New(bus, &shtcx.Opts{Addr: cfg.Address, Profile: cfg.Profile})
	if err != nil {
		return err
	}
	if cfg.Profile.SleepCapable {
		// A sensor left asleep by a previous run NACKs everything else.
		if err := dev.WakeUp(); err != nil {
			logger.Warn("wake-up failed", "error", err)
		}
	}
	if err := dev.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if id, err := dev.DeviceIdentifier(); err == nil {
		logger.Info("sensor ready", "device", dev.String(), "identifier", fmt.Sprintf("0x%02x", id))
	} else {
		logger.Warn("identifier read failed", "error", err)
	}
	sensor := shtcxenv.New(dev, cfg.PowerMode)
	defer sensor.Halt()

	var sinks []Sink
	if cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			return err
		}
		defer store.Close()
		sinks = append(sinks, &trimmingStore{store: store, limit: cfg.HistoryLimit})
	}

	pub := telemetry.NewPublisher(cfg, cfg.Profile.Name, logger)
	defer pub.Close()
	go func() {
		if err := pub.Connect(ctx); err != nil {
			logger.Error("mqtt connect failed", "error", err)
		}
	}()
	sinks = append(sinks, SinkFunc(func(s history.Sample) error {
		if !pub.IsConnected() {
			return nil
		}
		return pub.Publish(s)
	}))

	p := &Poller{
		Sensor:   sensor,
		Mode:     cfg.PowerMode,
		Interval: cfg.PollInterval,
		Sinks:    sinks,
		Logger:   logger,
	}
	return p.Run(ctx)
}
