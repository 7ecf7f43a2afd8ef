// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"image/color"

	"github.com/GermanBionicSystems/shtdevices/internal/chart"
	"github.com/GermanBionicSystems/shtdevices/shtcx"
)

// data keeps the latest capacity readings of both power modes, oldest first.
type data struct {
	capacity   int
	tempNormal []int32
	tempLowPwr []int32
	humiNormal []int32
	humiLowPwr []int32
}

func newData(capacity int) *data {
	return &data{capacity: capacity}
}

func (d *data) add(normal, lowPwr shtcx.Measurement) {
	d.tempNormal = d.push(d.tempNormal, normal.Temperature.MilliCelsius())
	d.tempLowPwr = d.push(d.tempLowPwr, lowPwr.Temperature.MilliCelsius())
	d.humiNormal = d.push(d.humiNormal, normal.Humidity.MilliPercent())
	d.humiLowPwr = d.push(d.humiLowPwr, lowPwr.Humidity.MilliPercent())
}

func (d *data) push(s []int32, v int32) []int32 {
	s = append(s, v)
	if len(s) > d.capacity {
		s = append(s[:0], s[len(s)-d.capacity:]...)
	}
	return s
}

func (d *data) panels() []chart.Panel {
	return []chart.Panel{
		{
			Title: "Temperature",
			Min:   0,
			Max:   50,
			Series: []chart.Series{
				{Name: "Low power mode", Color: color.RGBA{R: 0xff, B: 0xff, A: 0xff}, Values: d.tempLowPwr},
				{Name: "Normal mode", Color: color.RGBA{R: 0xff, A: 0xff}, Values: d.tempNormal},
			},
		},
		{
			Title: "Humidity",
			Min:   0,
			Max:   100,
			Series: []chart.Series{
				{Name: "Low power mode", Color: color.RGBA{G: 0xff, B: 0xff, A: 0xff}, Values: d.humiLowPwr},
				{Name: "Normal mode", Color: color.RGBA{B: 0xff, A: 0xff}, Values: d.humiNormal},
			},
		},
	}
}
