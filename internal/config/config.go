// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads program settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/GermanBionicSystems/shtdevices/shtcx"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	// I2CBus is the i2creg bus name. Empty opens the first bus.
	I2CBus       string
	Profile      shtcx.Profile
	Address      uint16
	PowerMode    shtcx.PowerMode
	PollInterval time.Duration
	StationID    string

	MQTTBroker      string
	MQTTPort        int
	MQTTClientID    string
	MQTTTopicPrefix string

	// HistoryPath is the bbolt file for stored samples. Empty disables it.
	HistoryPath  string
	HistoryLimit int
}

// LoadFromEnv reads the configuration, applying defaults for unset variables.
func LoadFromEnv() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	appEnv := get("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := ParseLogLevel(get("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	profile, err := shtcx.ProfileByName(get("SHTCX_PROFILE", "generic"))
	if err != nil {
		return Config{}, err
	}

	addrStr := get("SHTCX_ADDRESS", "0x70")
	addr, err := strconv.ParseUint(addrStr, 0, 7)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SHTCX_ADDRESS %q: %w", addrStr, err)
	}

	mode, err := ParsePowerMode(get("SHTCX_POWER_MODE", "normal"))
	if err != nil {
		return Config{}, err
	}

	pollStr := get("POLL_INTERVAL", "1s")
	poll, err := time.ParseDuration(pollStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid POLL_INTERVAL %q: %w", pollStr, err)
	}
	if poll < profile.MaxDuration(mode) {
		return Config{}, fmt.Errorf("POLL_INTERVAL %v is shorter than the %v measurement duration", poll, profile.MaxDuration(mode))
	}

	portStr := get("MQTT_PORT", "1883")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", portStr, err)
	}

	limitStr := get("HISTORY_LIMIT", "10000")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return Config{}, fmt.Errorf("invalid HISTORY_LIMIT %q", limitStr)
	}

	return Config{
		AppEnv:          appEnv,
		LogLevel:        level,
		I2CBus:          get("I2C_BUS", ""),
		Profile:         profile,
		Address:         uint16(addr),
		PowerMode:       mode,
		PollInterval:    poll,
		StationID:       get("STATION_ID", "home"),
		MQTTBroker:      get("MQTT_BROKER", "localhost"),
		MQTTPort:        port,
		MQTTClientID:    get("MQTT_CLIENT_ID", "shtcx-gateway"),
		MQTTTopicPrefix: strings.Trim(get("MQTT_TOPIC_PREFIX", "sensors"), "/"),
		HistoryPath:     get("HISTORY_PATH", ""),
		HistoryLimit:    limit,
	}, nil
}

// ParseLogLevel accepts debug, info, warn and error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

// ParsePowerMode accepts normal and lowpower.
func ParsePowerMode(s string) (shtcx.PowerMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return shtcx.NormalMode, nil
	case "lowpower", "low-power", "low":
		return shtcx.LowPower, nil
	default:
		return shtcx.NormalMode, fmt.Errorf("invalid power mode %q (allowed: normal, lowpower)", s)
	}
}
