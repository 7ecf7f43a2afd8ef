// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package shtcx

import (
	"fmt"
	"strings"
	"time"
)

// Profile describes the timing and capabilities of a sensor family.
type Profile struct {
	Name string
	// Maximum measurement duration per PowerMode.
	NormalDuration   time.Duration
	LowPowerDuration time.Duration
	// SleepCapable is true when the sensor accepts the sleep and wake-up
	// commands.
	SleepCapable bool
}

var (
	// SHTC1 is the first generation profile, also used for the SHTW2.
	//
	// Normal mode: 14.4 ms (datasheet 3.1). Low power mode: 0.94 ms (low power
	// application note).
	SHTC1 = Profile{
		Name:             "shtc1",
		NormalDuration:   14400 * time.Microsecond,
		LowPowerDuration: 940 * time.Microsecond,
	}

	// SHTC3 is the second generation profile (datasheet 3.1).
	SHTC3 = Profile{
		Name:             "shtc3",
		NormalDuration:   12100 * time.Microsecond,
		LowPowerDuration: 800 * time.Microsecond,
		SleepCapable:     true,
	}

	// Generic works with every family. It waits the longest duration of all
	// models and allows sleep; first generation sensors will reject the sleep
	// command on the bus.
	Generic = Profile{
		Name:             "generic",
		NormalDuration:   14400 * time.Microsecond,
		LowPowerDuration: 940 * time.Microsecond,
		SleepCapable:     true,
	}
)

// Device identifiers read from the ID register.
const (
	IdentifierSHTC1 uint8 = 0x07
	IdentifierSHTC3 uint8 = 0x47
)

// MaxDuration returns the time to wait for a measurement in mode.
func (p Profile) MaxDuration(mode PowerMode) time.Duration {
	if mode == LowPower {
		return p.LowPowerDuration
	}
	return p.NormalDuration
}

func (p Profile) String() string {
	return p.Name
}

// ProfileByName returns the profile for one of "shtc1", "shtw2", "shtc3" or
// "generic".
func ProfileByName(name string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "shtc1", "shtw2":
		return SHTC1, nil
	case "shtc3":
		return SHTC3, nil
	case "generic", "":
		return Generic, nil
	default:
		return Profile{}, fmt.Errorf("shtcx: unknown sensor profile %q (allowed: shtc1, shtw2, shtc3, generic)", name)
	}
}

// ProfileForIdentifier returns the profile of the sensor reporting id from
// Dev.DeviceIdentifier.
func ProfileForIdentifier(id uint8) (Profile, bool) {
	switch id {
	case IdentifierSHTC1:
		return SHTC1, true
	case IdentifierSHTC3:
		return SHTC3, true
	default:
		return Profile{}, false
	}
}
