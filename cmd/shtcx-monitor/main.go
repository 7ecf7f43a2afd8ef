// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// shtcx-monitor shows SHTCx readings in both power modes as coloured strips
// in the terminal.
//
// Bus, profile and address default to the SHTCX_* environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/shtdevices/internal/chart"
	"github.com/GermanBionicSystems/shtdevices/internal/config"
	"github.com/GermanBionicSystems/shtdevices/internal/history"
	"github.com/GermanBionicSystems/shtdevices/internal/logging"
	"github.com/GermanBionicSystems/shtdevices/screen1d"
	"github.com/GermanBionicSystems/shtdevices/shtcx"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

const dataCapacity = 100

var version = "dev"

type monitor struct {
	dev     *shtcx.Dev
	data    *data
	strips  []*screen1d.Dev
	w       io.Writer
	tty     bool
	store   *history.Store
	logger  *slog.Logger
	drawn   bool
	samples int
}

func (m *monitor) sample(now time.Time) error {
	normal, err := m.dev.Measure(shtcx.NormalMode)
	if err != nil {
		return err
	}
	lowPwr, err := m.dev.Measure(shtcx.LowPower)
	if err != nil {
		return err
	}
	m.data.add(normal, lowPwr)
	m.samples++
	if m.store != nil {
		for _, s := range []history.Sample{
			history.NewSample(now, shtcx.NormalMode, normal),
			history.NewSample(now, shtcx.LowPower, lowPwr),
		} {
			if err := m.store.Append(s); err != nil {
				m.logger.Warn("history append failed", "error", err)
			}
		}
	}
	return m.render(normal, lowPwr)
}

func (m *monitor) render(normal, lowPwr shtcx.Measurement) error {
	if !m.tty {
		_, err := fmt.Fprintf(m.w, "normal %s %s | lowpower %s %s\n",
			normal.Temperature, normal.Humidity, lowPwr.Temperature, lowPwr.Humidity)
		return err
	}
	if m.drawn {
		fmt.Fprintf(m.w, "\033[%dA", len(m.strips))
	}
	series := [][]int32{m.data.tempNormal, m.data.tempLowPwr, m.data.humiNormal, m.data.humiLowPwr}
	for i, s := range m.strips {
		if err := s.Draw(series[i]); err != nil {
			return err
		}
		fmt.Fprint(m.w, "\033[K\n")
	}
	m.drawn = true
	return nil
}

// checkInterval rejects pauses a ticker can't run with.
func checkInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("invalid interval %v", d)
	}
	return nil
}

func newStrips(w io.Writer) ([]*screen1d.Dev, error) {
	opts := []screen1d.Opts{
		{X: dataCapacity, Min: 0, Max: 50, Label: "T normal  °C", W: w},
		{X: dataCapacity, Min: 0, Max: 50, Label: "T lowpower °C", W: w},
		{X: dataCapacity, Min: 0, Max: 100, Label: "H normal  %RH", W: w},
		{X: dataCapacity, Min: 0, Max: 100, Label: "H lowpower %RH", W: w},
	}
	var out []*screen1d.Dev
	for i := range opts {
		s, err := screen1d.New(&opts[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func writeChart(path, fontPath string, d *data) error {
	opts := chart.DefaultOpts
	opts.Capacity = dataCapacity
	if fontPath != "" {
		face, err := chart.LoadFace(fontPath, 12)
		if err != nil {
			return err
		}
		opts.Face = face
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := chart.WritePNG(f, &opts, d.panels()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func mainImpl() error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	busName := flag.String("b", cfg.I2CBus, "I²C bus to use")
	profileName := flag.String("p", cfg.Profile.Name, "sensor family: shtc1, shtw2, shtc3 or generic")
	addrStr := flag.String("a", fmt.Sprintf("0x%02x", cfg.Address), "I²C address")
	interval := flag.Duration("i", 50*time.Millisecond, "pause between two samples")
	historyPath := flag.String("history", cfg.HistoryPath, "bbolt file to store samples in")
	pngPath := flag.String("png", "", "write a chart of the last samples to this PNG file on exit")
	fontPath := flag.String("font", "", "TrueType font for the chart labels")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	if err := checkInterval(*interval); err != nil {
		return err
	}

	logger := logging.New(cfg, version, "shtcx-monitor")
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
	dev, err := shtcx.New(bus, &shtcx.Opts{Addr: uint16(addr), Profile: profile})
	if err != nil {
		return err
	}
	if profile.SleepCapable {
		if err := dev.WakeUp(); err != nil {
			logger.Warn("wake-up failed", "error", err)
		}
	}

	w := colorable.NewColorableStdout()
	m := &monitor{
		dev:    dev,
		data:   newData(dataCapacity),
		w:      w,
		tty:    isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
		logger: logger,
	}
	if m.strips, err = newStrips(w); err != nil {
		return err
	}
	if *historyPath != "" {
		if m.store, err = history.Open(*historyPath); err != nil {
			return err
		}
		defer m.store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	t := time.NewTicker(*interval)
	defer t.Stop()
	for ctx.Err() == nil {
		if err := m.sample(time.Now()); err != nil {
			logger.Error("measurement failed", "error", err)
		}
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
	if m.tty {
		_ = m.strips[len(m.strips)-1].Halt()
	}
	logger.Info("stopped", "samples", m.samples)

	if *pngPath != "" {
		if err := writeChart(*pngPath, *fontPath, m.data); err != nil {
			return err
		}
		logger.Info("chart written", "path", *pngPath)
	}
	if m.store != nil {
		if err := m.store.Trim(cfg.HistoryLimit); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "shtcx-monitor: %s.\n", err)
		os.Exit(1)
	}
}
