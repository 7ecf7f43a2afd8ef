// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package telemetry publishes sensor samples over MQTT.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/GermanBionicSystems/shtdevices/internal/config"
	"github.com/GermanBionicSystems/shtdevices/internal/history"
)

// Payload is the JSON document published for every sample.
type Payload struct {
	StationID   string    `json:"station_id"`
	Sensor      string    `json:"sensor"`
	Timestamp   time.Time `json:"timestamp"`
	Mode        string    `json:"mode"`
	Temperature float64   `json:"temperature_c"`
	Humidity    float64   `json:"humidity_pct"`
	Sequence    uint64    `json:"sequence"`
}

// NewPayload converts a sample. Values are rounded to the sensor's 0.001
// resolution by construction.
func NewPayload(stationID, sensor string, seq uint64, s history.Sample) Payload {
	return Payload{
		StationID:   stationID,
		Sensor:      sensor,
		Timestamp:   s.Time,
		Mode:        s.Mode,
		Temperature: float64(s.MilliCelsius) / 1000,
		Humidity:    float64(s.MilliPercent) / 1000,
		Sequence:    seq,
	}
}

// Topic returns the telemetry topic of a station.
func Topic(prefix, stationID string) string {
	if prefix == "" {
		return fmt.Sprintf("%s/telemetry", stationID)
	}
	return fmt.Sprintf("%s/%s/telemetry", prefix, stationID)
}

// Publisher sends samples to an MQTT broker.
type Publisher struct {
	client mqtt.Client
	cfg    config.Config
	logger *slog.Logger
	topic  string
	sensor string

	mu        sync.RWMutex
	connected bool
	seq       uint64

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewPublisher configures the MQTT client. Nothing is sent before Connect.
func NewPublisher(cfg config.Config, sensor string, logger *slog.Logger) *Publisher {
	p := &Publisher{
		cfg:    cfg,
		logger: logger,
		topic:  Topic(cfg.MQTTTopicPrefix, cfg.StationID),
		sensor: sensor,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

// Connect waits for the first connection to the broker. It returns when ctx
// is done or Close is called.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return fmt.Errorf("publisher stopped")
	default:
	}
	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return fmt.Errorf("publisher stopped")
		default:
		}
	}
}

// Publish sends one sample with QoS 1.
func (p *Publisher) Publish(s history.Sample) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	data, err := json.Marshal(NewPayload(p.cfg.StationID, p.sensor, seq, s))
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}
	token := p.client.Publish(p.topic, 1, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for topic %s", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish telemetry: %w", err)
	}
	p.logger.Debug("published telemetry", "topic", p.topic, "sequence", seq)
	return nil
}

// IsConnected returns whether the client is connected.
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Close disconnects from the broker. It is safe to call more than once.
func (p *Publisher) Close() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.client.Disconnect(250)
	p.setConnected(false)
	p.logger.Info("mqtt disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}
