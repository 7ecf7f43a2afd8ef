// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package shtcx

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// Temperature is a temperature in milli-degrees Celsius.
type Temperature int32

// Humidity is a relative humidity in milli-percent (1/1000 %RH).
type Humidity int32

// TemperatureFromRaw converts a raw sensor code.
//
// Datasheet 5.11: T = -45 + 175 * raw / 2^16. 175000/2^16 reduces to
// 21875/2^13.
func TemperatureFromRaw(raw uint16) Temperature {
	return Temperature(int32((uint32(raw)*21875)>>13) - 45000)
}

// HumidityFromRaw converts a raw sensor code.
//
// Datasheet 5.11: RH = 100 * raw / 2^16. 100000/2^16 reduces to 12500/2^13.
func HumidityFromRaw(raw uint16) Humidity {
	return Humidity(int32((uint32(raw) * 12500) >> 13))
}

// MilliCelsius returns the temperature in milli-degrees Celsius.
func (t Temperature) MilliCelsius() int32 {
	return int32(t)
}

// Celsius returns the temperature in degrees Celsius.
func (t Temperature) Celsius() float32 {
	return float32(t) / 1000
}

// Physic returns the temperature as a periph physic value.
func (t Temperature) Physic() physic.Temperature {
	return physic.Temperature(t)*physic.MilliKelvin + physic.ZeroCelsius
}

func (t Temperature) String() string {
	return fmt.Sprintf("%.3f°C", t.Celsius())
}

// MilliPercent returns the relative humidity in 1/1000 %RH.
func (h Humidity) MilliPercent() int32 {
	return int32(h)
}

// Percent returns the relative humidity in %RH.
func (h Humidity) Percent() float32 {
	return float32(h) / 1000
}

// Physic returns the humidity as a periph physic value.
func (h Humidity) Physic() physic.RelativeHumidity {
	return physic.RelativeHumidity(h) * (physic.PercentRH / 1000)
}

func (h Humidity) String() string {
	return fmt.Sprintf("%.3f%%rH", h.Percent())
}

// RawMeasurement holds the two codes of a measurement before conversion.
type RawMeasurement struct {
	Temperature uint16
	Humidity    uint16
}

// Convert converts both codes.
func (r RawMeasurement) Convert() Measurement {
	return Measurement{
		Temperature: TemperatureFromRaw(r.Temperature),
		Humidity:    HumidityFromRaw(r.Humidity),
	}
}

// Measurement is a combined temperature/humidity reading.
type Measurement struct {
	Temperature Temperature
	Humidity    Humidity
}

func (m Measurement) String() string {
	return fmt.Sprintf("%s %s", m.Temperature, m.Humidity)
}
