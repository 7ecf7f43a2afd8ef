// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package shtcx is a driver for the Sensirion SHTCx temperature/humidity
// sensor series: the first generation SHTC1 and SHTW2, and the second
// generation SHTC3.
//
// All sensors share one I²C protocol. They differ in the worst case
// measurement duration and in whether they support the sleep/wake-up
// commands; that difference is captured by a Profile chosen when the driver
// is created. The Generic profile works with every family at the cost of
// longer waits.
//
// Every operation is a single blocking write/wait/read exchange. The driver
// doesn't retry, doesn't lock and doesn't track whether the sensor is asleep:
// a command sent to a sleeping SHTC3 is not acknowledged and is reported as a
// *BusError. Use package shtcxenv for continuous sensing from several
// goroutines.
//
// # Datasheets
//
// https://sensirion.com/media/documents/643F9C8E/63A5A436/Datasheet_SHTC3.pdf
//
// https://sensirion.com/media/documents/7B9A6F8C/6319E50F/Datasheet_SHTC1.pdf
//
// # Accuracy
//
// SHTC1 & SHTW2
//
//	Typical accuracy: ±0.3 °C, ±3 % RH
//
// SHTC3
//
//	Typical accuracy: ±0.2 °C, ±2 % RH
//
// Measurements are returned as fixed point milli-degrees Celsius and
// milli-percent relative humidity.
//
// # Low Power Mode
//
// The low power mode shortens the measurement and the energy spent on it. The
// humidity signal is essentially unaffected but temperature repeatability is
// reduced.
package shtcx
