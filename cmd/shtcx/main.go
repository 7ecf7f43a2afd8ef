// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// shtcx exercises an SHTCx sensor: identification, measurements in both
// power modes and, on sensors that support it, the sleep sequence.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/GermanBionicSystems/shtdevices/shtcx"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

func mainImpl() error {
	busName := flag.String("b", "", "I²C bus to use")
	profileName := flag.String("p", "shtc3", "sensor family: shtc1, shtw2, shtc3 or generic")
	addrStr := flag.String("a", "0x70", "I²C address")
	detect := flag.Bool("detect", false, "pick the profile from the ID register")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	addr, err := strconv.ParseUint(*addrStr, 0, 7)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", *addrStr, err)
	}
	profile, err := shtcx.ProfileByName(*profileName)
	if err != nil {
		return err
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		return err
	}
	defer bus.Close()

	var dev *shtcx.Dev
	if *detect {
		dev, err = shtcx.Detect(bus, uint16(addr), nil)
	} else {
		dev, err = shtcx.New(bus, &shtcx.Opts{Addr: uint16(addr), Profile: profile})
	}
	if err != nil {
		return err
	}
	return run(os.Stdout, dev)
}

func run(w io.Writer, dev *shtcx.Dev) error {
	p := dev.Profile()
	fmt.Fprintf(w, "Starting %s tests.\n", p.Name)
	canSleep := p.SleepCapable
	if canSleep {
		fmt.Fprintln(w, "Waking up sensor.")
		if err := dev.WakeUp(); err != nil {
			if p == shtcx.SHTC3 {
				return fmt.Errorf("wake-up failed: %w", err)
			}
			// The generic profile may be talking to an SHTC1, which doesn't
			// know the command.
			fmt.Fprintf(w, "Wake-up not acknowledged (%v); skipping power management.\n", err)
			canSleep = false
		}
	}
	if !canSleep {
		fmt.Fprintln(w, "Resetting sensor.")
		if err := dev.Reset(); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
	}
	fmt.Fprintln(w)

	id, err := dev.DeviceIdentifier()
	if err != nil {
		return fmt.Errorf("failed to get device identifier: %w", err)
	}
	fmt.Fprintf(w, "Device identifier: 0x%02x\n", id)
	raw, err := dev.RawIDRegister()
	if err != nil {
		return fmt.Errorf("failed to get raw ID register: %w", err)
	}
	fmt.Fprintf(w, "Raw ID register:   0b%016b\n", raw)

	for _, mode := range []shtcx.PowerMode{shtcx.NormalMode, shtcx.LowPower} {
		fmt.Fprintf(w, "\n%s mode measurements:\n", mode)
		for i := 0; i < 3; i++ {
			m, err := dev.Measure(mode)
			if err != nil {
				return fmt.Errorf("%s measurement failed: %w", mode, err)
			}
			fmt.Fprintf(w, "  %.2f °C | %.2f %%RH\n", m.Temperature.Celsius(), m.Humidity.Percent())
		}
	}

	if !canSleep {
		return nil
	}
	fmt.Fprintln(w, "\nTesting power management:")
	measure := func() error {
		fmt.Fprint(w, "-> Measure: ")
		t, err := dev.MeasureTemperature(shtcx.NormalMode)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Success: %.2f °C\n", t.Celsius())
		return nil
	}
	if err := measure(); err != nil {
		return err
	}
	fmt.Fprintln(w, "-> Sleep")
	if err := dev.Sleep(); err != nil {
		return fmt.Errorf("sleep command failed: %w", err)
	}
	fmt.Fprint(w, "-> Measure: ")
	_, err = dev.MeasureTemperature(shtcx.NormalMode)
	if err == nil {
		return errors.New("measurement succeeded while asleep")
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	fmt.Fprintln(w, "-> Wakeup")
	if err := dev.WakeUp(); err != nil {
		return fmt.Errorf("wake-up command failed: %w", err)
	}
	if err := measure(); err != nil {
		return err
	}
	fmt.Fprintln(w, "-> Soft reset")
	if err := dev.Reset(); err != nil {
		return fmt.Errorf("reset command failed: %w", err)
	}
	return measure()
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "shtcx: %s.\n", err)
		os.Exit(1)
	}
}
