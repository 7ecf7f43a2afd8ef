// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package shtcx

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

// Datasheet 5.4 "Measuring and Reading the Signals" example response.
var datasheetResponse = []byte{0x64, 0x8b, 0xc7, 0xa1, 0x33, 0x1c}

var recordingData = map[string][]i2ctest.IO{
	"TestMeasure": {
		{Addr: DefaultAddress, W: []byte{0x78, 0x66}},
		{Addr: DefaultAddress, R: datasheetResponse},
	},
	"TestMeasureLowPower": {
		{Addr: DefaultAddress, W: []byte{0x60, 0x9c}},
		{Addr: DefaultAddress, R: datasheetResponse},
	},
	"TestMeasureTemperature": {
		{Addr: DefaultAddress, W: []byte{0x78, 0x66}},
		{Addr: DefaultAddress, R: []byte{0x64, 0x8b, 0xc7}},
	},
	"TestMeasureHumidity": {
		{Addr: DefaultAddress, W: []byte{0x58, 0xe0}},
		{Addr: DefaultAddress, R: []byte{0xa1, 0x33, 0x1c}},
	},
	"TestMeasureChecksum": {
		{Addr: DefaultAddress, W: []byte{0x78, 0x66}},
		{Addr: DefaultAddress, R: []byte{0x64, 0x8b, 0xc7, 0xa1, 0x33, 0x1d}},
	},
	"TestIDRegister": {
		{Addr: DefaultAddress, W: []byte{0xef, 0xc8}},
		{Addr: DefaultAddress, R: []byte{0x08, 0x07, 0x21}},
		{Addr: DefaultAddress, W: []byte{0xef, 0xc8}},
		{Addr: DefaultAddress, R: []byte{0x08, 0x07, 0x21}},
	},
	"TestReset": {
		{Addr: DefaultAddress, W: []byte{0x80, 0x5d}},
	},
	"TestDetect": {
		{Addr: 0x70, W: []byte{0xef, 0xc8}},
		{Addr: 0x70, R: []byte{0x08, 0x07, 0x21}},
	},
	"TestSense": {
		{Addr: DefaultAddress, W: []byte{0x78, 0x66}},
		{Addr: DefaultAddress, R: datasheetResponse},
	},
}

// recordDelay records the requested waits instead of sleeping.
type recordDelay []time.Duration

func (r *recordDelay) Delay(d time.Duration) {
	*r = append(*r, d)
}

func getDev(t *testing.T, p Profile) (*Dev, *i2ctest.Playback, *recordDelay) {
	bus := &i2ctest.Playback{Ops: recordingData[t.Name()], DontPanic: true}
	delay := &recordDelay{}
	dev, err := New(bus, &Opts{Addr: DefaultAddress, Profile: p, Delay: delay})
	if err != nil {
		t.Fatal(err)
	}
	return dev, bus, delay
}

func checkDelays(t *testing.T, delay *recordDelay, want ...time.Duration) {
	t.Helper()
	if len(*delay) != len(want) {
		t.Fatalf("delays %v expected %v", *delay, want)
	}
	for i := range want {
		if (*delay)[i] != want[i] {
			t.Errorf("delay #%d %s expected %s", i, (*delay)[i], want[i])
		}
	}
}

func TestNew(t *testing.T) {
	bus := &i2ctest.Playback{}
	var tests = []struct {
		name    string
		new     func() (*Dev, error)
		addr    uint16
		profile string
	}{
		{"shtc1", func() (*Dev, error) { return NewSHTC1(bus) }, 0x70, "shtc1"},
		{"shtc3", func() (*Dev, error) { return NewSHTC3(bus) }, 0x70, "shtc3"},
		{"shtw2", func() (*Dev, error) { return NewSHTW2(bus, 0x42) }, 0x42, "shtc1"},
		{"generic", func() (*Dev, error) { return NewGeneric(bus, 0x23) }, 0x23, "generic"},
		{"default opts", func() (*Dev, error) { return New(bus, nil) }, 0x70, "shtc3"},
		{"zero address", func() (*Dev, error) { return New(bus, &Opts{Profile: SHTC1}) }, 0x70, "shtc1"},
	}
	for _, test := range tests {
		dev, err := test.new()
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if dev.Addr() != test.addr {
			t.Errorf("%s: address 0x%x expected 0x%x", test.name, dev.Addr(), test.addr)
		}
		if dev.Profile().Name != test.profile {
			t.Errorf("%s: profile %s expected %s", test.name, dev.Profile(), test.profile)
		}
		if len(dev.String()) == 0 {
			t.Errorf("%s: empty String()", test.name)
		}
	}
	if _, err := New(bus, &Opts{Addr: 0x80, Profile: SHTC3}); err == nil {
		t.Error("expected error for 8-bit address")
	}
	if _, err := New(bus, &Opts{Addr: 0x70}); err == nil {
		t.Error("expected error for empty profile")
	}
	if _, err := New(nil, nil); err == nil {
		t.Error("expected error for nil bus")
	}
}

func TestRelease(t *testing.T) {
	bus := &i2ctest.Playback{}
	dev, err := NewSHTC3(bus)
	if err != nil {
		t.Fatal(err)
	}
	if got := dev.Release(); got != bus {
		t.Errorf("Release() returned %v", got)
	}
}

func TestMeasure(t *testing.T) {
	dev, bus, delay := getDev(t, SHTC1)
	m, err := dev.Measure(NormalMode)
	if err != nil {
		t.Fatal(err)
	}
	if m.Temperature.MilliCelsius() != 23730 {
		t.Errorf("temperature %d expected 23730", m.Temperature)
	}
	if m.Humidity.MilliPercent() != 62968 {
		t.Errorf("humidity %d expected 62968", m.Humidity)
	}
	checkDelays(t, delay, 14400*time.Microsecond)
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestMeasureLowPower(t *testing.T) {
	dev, bus, delay := getDev(t, SHTC3)
	raw, err := dev.MeasureRaw(LowPower)
	if err != nil {
		t.Fatal(err)
	}
	if raw.Temperature != 0x648b || raw.Humidity != 0xa133 {
		t.Errorf("raw %#v", raw)
	}
	checkDelays(t, delay, 800*time.Microsecond)
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestMeasureTemperature(t *testing.T) {
	dev, bus, delay := getDev(t, Generic)
	temp, err := dev.MeasureTemperature(NormalMode)
	if err != nil {
		t.Fatal(err)
	}
	if temp != 23730 {
		t.Errorf("temperature %d expected 23730", temp)
	}
	checkDelays(t, delay, 14400*time.Microsecond)
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestMeasureHumidity(t *testing.T) {
	dev, bus, _ := getDev(t, SHTC3)
	hum, err := dev.MeasureHumidity(NormalMode)
	if err != nil {
		t.Fatal(err)
	}
	if hum != 62968 {
		t.Errorf("humidity %d expected 62968", hum)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestMeasureChecksum(t *testing.T) {
	dev, bus, _ := getDev(t, SHTC3)
	_, err := dev.Measure(NormalMode)
	if !errors.Is(err, ErrChecksum) {
		t.Fatalf("expected checksum error, got %v", err)
	}
	var crcErr *ChecksumError
	if !errors.As(err, &crcErr) {
		t.Fatalf("expected *ChecksumError, got %T", err)
	}
	if crcErr.Offset != 3 {
		t.Errorf("offset %d expected 3", crcErr.Offset)
	}
	if want := []byte{0x64, 0x8b, 0xc7, 0xa1, 0x33, 0x1d}; !bytes.Equal(crcErr.Data, want) {
		t.Errorf("data % x expected % x", crcErr.Data, want)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

// The read buffer keeps the received bytes when validation fails.
func TestReadWithCRC(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: DefaultAddress, R: []byte{0xbe, 0xef, 0x92}},
		{Addr: DefaultAddress, R: []byte{0xbe, 0xef, 0x00}},
	}}
	dev, err := NewSHTC3(bus)
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 3)
	if err := dev.readWithCRC(CmdReadIDRegister, buf); err != nil {
		t.Fatal(err)
	}
	if err := dev.readWithCRC(CmdReadIDRegister, buf); !errors.Is(err, ErrChecksum) {
		t.Fatalf("expected checksum error, got %v", err)
	}
	if !bytes.Equal(buf, []byte{0xbe, 0xef, 0x00}) {
		t.Errorf("buffer % x", buf)
	}
}

func TestWriteError(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	dev, err := New(bus, &Opts{Profile: SHTC3, Delay: &recordDelay{}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = dev.Measure(LowPower)
	var busErr *BusError
	if !errors.As(err, &busErr) {
		t.Fatalf("expected *BusError, got %v", err)
	}
	if busErr.Op != "write" || busErr.Cmd != MeasureCommand(LowPower, TemperatureFirst, false) {
		t.Errorf("unexpected %#v", busErr)
	}
	if errors.Unwrap(err) == nil {
		t.Error("bus error not wrapped")
	}
	if _, err := dev.RawIDRegister(); !errors.As(err, &busErr) {
		t.Errorf("expected *BusError, got %v", err)
	}
}

func TestIDRegister(t *testing.T) {
	dev, bus, _ := getDev(t, SHTC3)
	raw, err := dev.RawIDRegister()
	if err != nil {
		t.Fatal(err)
	}
	if raw != 0x0807 {
		t.Errorf("raw id 0x%04x expected 0x0807", raw)
	}
	id, err := dev.DeviceIdentifier()
	if err != nil {
		t.Fatal(err)
	}
	if id != 0b01000111 {
		t.Errorf("identifier 0x%02x expected 0x47", id)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDetect(t *testing.T) {
	bus := &i2ctest.Playback{Ops: recordingData[t.Name()], DontPanic: true}
	dev, err := Detect(bus, 0x70, &recordDelay{})
	if err != nil {
		t.Fatal(err)
	}
	if dev.Profile().Name != "shtc3" {
		t.Errorf("detected %s expected shtc3", dev.Profile())
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReset(t *testing.T) {
	dev, bus, delay := getDev(t, SHTC1)
	if err := dev.Reset(); err != nil {
		t.Fatal(err)
	}
	checkDelays(t, delay, 240*time.Microsecond)
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSleepUnsupported(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	dev, err := NewSHTC1(bus)
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.Sleep(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Sleep() returned %v", err)
	}
	if err := dev.WakeUp(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("WakeUp() returned %v", err)
	}
	if bus.Count != 0 {
		t.Errorf("%d bus transactions sent", bus.Count)
	}
}

var errNack = errors.New("remote I/O error")

// sleepyBus answers like an SHTC3: once the sleep command is received,
// everything but the wake-up command is not acknowledged.
type sleepyBus struct {
	i2ctest.Playback
	asleep bool
}

func (b *sleepyBus) Tx(addr uint16, w, r []byte) error {
	switch {
	case bytes.Equal(w, []byte{0x35, 0x17}):
		b.asleep = false
	case b.asleep:
		return errNack
	case bytes.Equal(w, []byte{0xb0, 0x98}):
		b.asleep = true
	}
	return b.Playback.Tx(addr, w, r)
}

func TestSleepWakeUp(t *testing.T) {
	bus := &sleepyBus{Playback: i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: DefaultAddress, W: []byte{0xb0, 0x98}},
		{Addr: DefaultAddress, W: []byte{0x35, 0x17}},
		{Addr: DefaultAddress, W: []byte{0x78, 0x66}},
		{Addr: DefaultAddress, R: []byte{0x64, 0x8b, 0xc7}},
	}, DontPanic: true}}
	delay := &recordDelay{}
	dev, err := New(bus, &Opts{Profile: SHTC3, Delay: delay})
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.Sleep(); err != nil {
		t.Fatal(err)
	}
	_, err = dev.MeasureTemperature(NormalMode)
	var busErr *BusError
	if !errors.As(err, &busErr) || !errors.Is(err, errNack) {
		t.Fatalf("expected bus error while asleep, got %v", err)
	}
	if err := dev.WakeUp(); err != nil {
		t.Fatal(err)
	}
	temp, err := dev.MeasureTemperature(NormalMode)
	if err != nil {
		t.Fatal(err)
	}
	if temp != 23730 {
		t.Errorf("temperature %d expected 23730", temp)
	}
	checkDelays(t, delay, 240*time.Microsecond, 12100*time.Microsecond)
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSense(t *testing.T) {
	dev, bus, _ := getDev(t, SHTC3)
	env := physic.Env{Pressure: physic.Pascal}
	if err := dev.Sense(&env); err != nil {
		t.Fatal(err)
	}
	if expected := 23730*physic.MilliKelvin + physic.ZeroCelsius; env.Temperature != expected {
		t.Errorf("temperature %s expected %s", env.Temperature, expected)
	}
	if expected := 6296800 * physic.TenthMicroRH; env.Humidity != expected {
		t.Errorf("humidity %s expected %s", env.Humidity, expected)
	}
	if env.Pressure != 0 {
		t.Errorf("pressure %s", env.Pressure)
	}
	dev.Precision(&env)
	if env.Temperature != physic.Kelvin/100 || env.Humidity != physic.PercentRH/100 {
		t.Errorf("precision %#v", env)
	}
	if err := dev.Halt(); err != nil {
		t.Error(err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}
