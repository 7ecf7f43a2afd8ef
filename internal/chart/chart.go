// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package chart draws temperature and humidity series into an image.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Series is one line of the chart. Values are in milli-units, as returned by
// the shtcx driver.
type Series struct {
	Name   string
	Color  color.Color
	Values []int32
}

// Panel is one chart with a fixed vertical range in whole units.
type Panel struct {
	Title    string
	Min, Max float64
	Series   []Series
}

// Opts holds the rendering options.
type Opts struct {
	Width, Height int
	// Capacity is the number of points on the x axis.
	Capacity int
	// Face is the label font. nil means basicfont.Face7x13.
	Face font.Face
}

// DefaultOpts matches the monitor's 100 point history.
var DefaultOpts = Opts{Width: 800, Height: 600, Capacity: 100}

// LoadFace parses a TrueType font file.
func LoadFace(path string, points float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("chart: parse font %s: %w", path, err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: points}), nil
}

// Render draws the panels stacked vertically.
func Render(opts *Opts, panels []Panel) *gg.Context {
	if opts == nil {
		opts = &DefaultOpts
	}
	face := opts.Face
	if face == nil {
		face = basicfont.Face7x13
	}
	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetFontFace(face)
	if len(panels) == 0 {
		return dc
	}
	const margin = 40.0
	h := float64(opts.Height) / float64(len(panels))
	for i, p := range panels {
		drawPanel(dc, p, opts.Capacity, margin, float64(i)*h+margin/2, float64(opts.Width)-2*margin, h-margin)
	}
	return dc
}

// WritePNG renders the panels and encodes them as PNG.
func WritePNG(w io.Writer, opts *Opts, panels []Panel) error {
	return Render(opts, panels).EncodePNG(w)
}

func drawPanel(dc *gg.Context, p Panel, capacity int, x, y, w, h float64) {
	dc.SetColor(color.Black)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()
	dc.DrawStringAnchored(p.Title, x+w/2, y-4, 0.5, 0)
	dc.DrawStringAnchored(fmt.Sprintf("%g", p.Max), x-4, y, 1, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%g", p.Min), x-4, y+h, 1, 0.5)

	if capacity < 2 || p.Max <= p.Min {
		return
	}
	step := w / float64(capacity-1)
	for i, s := range p.Series {
		dc.SetColor(s.Color)
		dc.SetLineWidth(2)
		for j, v := range s.Values {
			if j >= capacity {
				break
			}
			px := x + float64(j)*step
			py := y + h - (clamp(float64(v)/1000, p.Min, p.Max)-p.Min)/(p.Max-p.Min)*h
			if j == 0 {
				dc.MoveTo(px, py)
			} else {
				dc.LineTo(px, py)
			}
		}
		dc.Stroke()
		// Legend.
		ly := y + 14 + float64(i)*14
		dc.DrawRectangle(x+8, ly-8, 10, 8)
		dc.Fill()
		dc.SetColor(color.Black)
		dc.DrawString(s.Name, x+22, ly)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
