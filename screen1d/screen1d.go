// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen1d draws a series of sensor readings as one line of coloured
// blocks on a terminal using ANSI 256 colour codes.
//
// Each block is one sample. Low values are blue and high values are red.
package screen1d

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for a strip.
type Opts struct {
	// X is the number of blocks; older samples scroll out on the left.
	X int
	// Min and Max bound the colour scale, in whole units. Values outside are
	// clamped.
	Min, Max float64
	// Label is printed after the blocks, followed by the latest value.
	Label string
	// Palette defaults to ansi256.Default.
	Palette *ansi256.Palette
	// W defaults to a colorable stdout.
	W io.Writer

	_ struct{}
}

// Dev is a strip of X blocks.
type Dev struct {
	w       io.Writer
	l       int
	min     float64
	max     float64
	label   string
	palette ansi256.Palette

	buf bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) (*Dev, error) {
	if opts.X <= 0 {
		return nil, errors.New("screen1d: width must be positive")
	}
	if opts.Max <= opts.Min {
		return nil, fmt.Errorf("screen1d: empty range [%g, %g]", opts.Min, opts.Max)
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Dev{
		w:       w,
		l:       opts.X,
		min:     opts.Min,
		max:     opts.Max,
		label:   opts.Label,
		palette: *p,
	}, nil
}

func (d *Dev) String() string {
	return "Screen1D"
}

// Halt resets the terminal attributes so the shell prompt is not coloured.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Color returns the block colour for v, in whole units.
func (d *Dev) Color(v float64) color.NRGBA {
	f := (v - d.min) / (d.max - d.min)
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	return color.NRGBA{R: uint8(f * 255), G: 0, B: uint8((1 - f) * 255), A: 255}
}

// Draw writes the last X values of samples, given in milli-units, on the
// current line. Missing samples on the left are drawn blank.
func (d *Dev) Draw(samples []int32) error {
	if len(samples) > d.l {
		samples = samples[len(samples)-d.l:]
	}
	// Reuse the buffer; this is called once per sample.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for i := len(samples); i < d.l; i++ {
		_ = d.buf.WriteByte(' ')
	}
	for _, s := range samples {
		_, _ = io.WriteString(&d.buf, d.palette.Block(d.Color(float64(s)/1000)))
	}
	_, _ = d.buf.WriteString("\033[0m ")
	if d.label != "" {
		_, _ = d.buf.WriteString(d.label)
		_ = d.buf.WriteByte(' ')
	}
	if len(samples) != 0 {
		fmt.Fprintf(&d.buf, "%8.3f", float64(samples[len(samples)-1])/1000)
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ fmt.Stringer = &Dev{}
