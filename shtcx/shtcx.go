// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package shtcx

import (
	"errors"
	"fmt"
	"time"

	"github.com/GermanBionicSystems/shtdevices/common"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	// DefaultAddress is the address of the SHTC1, SHTC3 and standard SHTW2.
	DefaultAddress uint16 = 0x70

	// Soft reset and wake-up take 180-240 µs (SHTC3 datasheet table 5).
	settleDuration = 240 * time.Microsecond
)

// Delayer blocks the caller for at least d. It must not return early.
type Delayer interface {
	Delay(d time.Duration)
}

// DelayFunc adapts a function to Delayer.
type DelayFunc func(d time.Duration)

// Delay calls f(d).
func (f DelayFunc) Delay(d time.Duration) {
	f(d)
}

// Opts holds the configuration options for the device.
type Opts struct {
	// Addr is the 7-bit I²C address. 0 means DefaultAddress.
	Addr uint16
	// Profile of the sensor family. Required.
	Profile Profile
	// Delay waits out measurement and settle intervals. nil means time.Sleep.
	Delay Delayer
}

// DefaultOpts is an SHTC3 at the default address.
var DefaultOpts = Opts{
	Addr:    DefaultAddress,
	Profile: SHTC3,
}

// Dev is a handle to an SHTCx sensor.
//
// A Dev is not safe for concurrent use; the protocol is a strict
// request/response exchange and overlapping calls corrupt it.
type Dev struct {
	bus     i2c.Bus
	d       i2c.Dev
	profile Profile
	delay   Delayer
}

// New returns a driver for the sensor at opts.Addr on bus. The Opts can be
// nil for DefaultOpts.
//
// Nothing is sent to the sensor.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if bus == nil {
		return nil, errors.New("shtcx: nil bus")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddress
	}
	if addr > 0x7f {
		return nil, fmt.Errorf("shtcx: invalid 7-bit address 0x%x", addr)
	}
	if opts.Profile.NormalDuration <= 0 || opts.Profile.LowPowerDuration <= 0 {
		return nil, fmt.Errorf("shtcx: profile %q has no measurement durations", opts.Profile.Name)
	}
	delay := opts.Delay
	if delay == nil {
		delay = DelayFunc(time.Sleep)
	}
	return &Dev{
		bus:     bus,
		d:       i2c.Dev{Bus: bus, Addr: addr},
		profile: opts.Profile,
		delay:   delay,
	}, nil
}

// NewSHTC1 returns a driver for an SHTC1 at the default address.
func NewSHTC1(bus i2c.Bus) (*Dev, error) {
	return New(bus, &Opts{Addr: DefaultAddress, Profile: SHTC1})
}

// NewSHTC3 returns a driver for an SHTC3 at the default address.
func NewSHTC3(bus i2c.Bus) (*Dev, error) {
	return New(bus, &Opts{Addr: DefaultAddress, Profile: SHTC3})
}

// NewSHTW2 returns a driver for an SHTW2. The SHTW2 is sold with an
// alternative address so it must be given; 0x70 is the standard part.
//
// The SHTW2 is an SHTC1 in a different package.
func NewSHTW2(bus i2c.Bus, addr uint16) (*Dev, error) {
	return New(bus, &Opts{Addr: addr, Profile: SHTC1})
}

// NewGeneric returns a driver using the Generic profile.
func NewGeneric(bus i2c.Bus, addr uint16) (*Dev, error) {
	return New(bus, &Opts{Addr: addr, Profile: Generic})
}

// Detect reads the ID register at addr and returns a driver bound to the
// matching family profile. Unknown identifiers keep the Generic profile.
//
// The sensor must be awake.
func Detect(bus i2c.Bus, addr uint16, delay Delayer) (*Dev, error) {
	dev, err := New(bus, &Opts{Addr: addr, Profile: Generic, Delay: delay})
	if err != nil {
		return nil, err
	}
	id, err := dev.DeviceIdentifier()
	if err != nil {
		return nil, err
	}
	if p, ok := ProfileForIdentifier(id); ok {
		dev.profile = p
	}
	return dev, nil
}

// Profile returns the sensor profile in use.
func (dev *Dev) Profile() Profile {
	return dev.profile
}

// Addr returns the I²C address of the sensor.
func (dev *Dev) Addr() uint16 {
	return dev.d.Addr
}

// Release returns the bus. The Dev must not be used afterwards.
func (dev *Dev) Release() i2c.Bus {
	bus := dev.bus
	dev.bus = nil
	dev.d.Bus = nil
	return bus
}

func (dev *Dev) sendCommand(cmd Command) error {
	op := cmd.Encode()
	if err := dev.d.Tx(op[:], nil); err != nil {
		return &BusError{Op: "write", Cmd: cmd, Err: err}
	}
	return nil
}

// readWithCRC fills buf from the sensor and validates every 3-byte word. buf
// keeps what was received when the checksum fails.
func (dev *Dev) readWithCRC(cmd Command, buf []byte) error {
	if err := dev.d.Tx(nil, buf); err != nil {
		return &BusError{Op: "read", Cmd: cmd, Err: err}
	}
	if err := common.ValidateWords(buf); err != nil {
		e := &ChecksumError{Cmd: cmd, Data: append([]byte(nil), buf...)}
		var crcErr *common.CRCError
		if errors.As(err, &crcErr) {
			e.Offset = crcErr.Offset
		}
		return e
	}
	return nil
}

// RawIDRegister returns the 16-bit ID register.
func (dev *Dev) RawIDRegister() (uint16, error) {
	var buf [3]byte
	if err := dev.sendCommand(CmdReadIDRegister); err != nil {
		return 0, err
	}
	if err := dev.readWithCRC(CmdReadIDRegister, buf[:]); err != nil {
		return 0, err
	}
	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

// DeviceIdentifier returns the 7-bit sensor identifier: bits 0-5 of the ID
// register with bit 11 as bit 6.
//
// It is IdentifierSHTC3 (0x47) for the SHTC3 and IdentifierSHTC1 (0x07) for
// the SHTC1.
func (dev *Dev) DeviceIdentifier() (uint8, error) {
	id, err := dev.RawIDRegister()
	if err != nil {
		return 0, err
	}
	return uint8(id&0x3f) | uint8((id&0x0800)>>5), nil
}

// measure runs one measurement and fills buf with 3 or 6 validated bytes.
func (dev *Dev) measure(mode PowerMode, order MeasurementOrder, buf []byte) error {
	cmd := MeasureCommand(mode, order, false)
	if err := dev.sendCommand(cmd); err != nil {
		return err
	}
	dev.delay.Delay(dev.profile.MaxDuration(mode))
	return dev.readWithCRC(cmd, buf)
}

// MeasureRaw runs a measurement and returns the unconverted codes.
func (dev *Dev) MeasureRaw(mode PowerMode) (RawMeasurement, error) {
	var buf [6]byte
	if err := dev.measure(mode, TemperatureFirst, buf[:]); err != nil {
		return RawMeasurement{}, err
	}
	return RawMeasurement{
		Temperature: uint16(buf[0])<<8 | uint16(buf[1]),
		Humidity:    uint16(buf[3])<<8 | uint16(buf[4]),
	}, nil
}

// Measure runs a temperature/humidity measurement and returns the combined
// result. It blocks for the profile's measurement duration.
func (dev *Dev) Measure(mode PowerMode) (Measurement, error) {
	raw, err := dev.MeasureRaw(mode)
	if err != nil {
		return Measurement{}, err
	}
	return raw.Convert(), nil
}

// MeasureTemperature runs a measurement in temperature first order and only
// reads the temperature word.
func (dev *Dev) MeasureTemperature(mode PowerMode) (Temperature, error) {
	var buf [3]byte
	if err := dev.measure(mode, TemperatureFirst, buf[:]); err != nil {
		return 0, err
	}
	return TemperatureFromRaw(uint16(buf[0])<<8 | uint16(buf[1])), nil
}

// MeasureHumidity runs a measurement in humidity first order and only reads
// the humidity word.
func (dev *Dev) MeasureHumidity(mode PowerMode) (Humidity, error) {
	var buf [3]byte
	if err := dev.measure(mode, HumidityFirst, buf[:]); err != nil {
		return 0, err
	}
	return HumidityFromRaw(uint16(buf[0])<<8 | uint16(buf[1])), nil
}

// Reset issues a soft reset. The sensor reloads its calibration data; the
// call waits 240 µs for that to complete.
//
// The sensor must not be asleep.
func (dev *Dev) Reset() error {
	if err := dev.sendCommand(CmdSoftwareReset); err != nil {
		return err
	}
	dev.delay.Delay(settleDuration)
	return nil
}

// Sleep puts the sensor in sleep mode, where it draws 0.3-0.6 µA. Only
// WakeUp is accepted afterwards.
func (dev *Dev) Sleep() error {
	if !dev.profile.SleepCapable {
		return ErrUnsupported
	}
	return dev.sendCommand(CmdSleep)
}

// WakeUp brings the sensor out of sleep mode and waits 240 µs.
func (dev *Dev) WakeUp() error {
	if !dev.profile.SleepCapable {
		return ErrUnsupported
	}
	if err := dev.sendCommand(CmdWakeUp); err != nil {
		return err
	}
	dev.delay.Delay(settleDuration)
	return nil
}

// Sense runs a normal mode measurement. Pressure is always 0.
func (dev *Dev) Sense(e *physic.Env) error {
	e.Pressure = 0
	m, err := dev.Measure(NormalMode)
	if err != nil {
		return err
	}
	e.Temperature = m.Temperature.Physic()
	e.Humidity = m.Humidity.Physic()
	return nil
}

// Precision returns the sensor resolution of 0.01 °C and 0.01 %RH.
func (dev *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Kelvin / 100
	e.Humidity = physic.PercentRH / 100
	e.Pressure = 0
}

// Halt implements conn.Resource. There is nothing running to stop.
func (dev *Dev) Halt() error {
	return nil
}

func (dev *Dev) String() string {
	return fmt.Sprintf("shtcx(%s): %s", dev.profile.Name, &dev.d)
}

var _ conn.Resource = &Dev{}
