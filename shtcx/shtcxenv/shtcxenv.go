// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package shtcxenv exposes an shtcx.Dev as a physic.SenseEnv.
//
// The shtcx driver does no locking and never runs in the background. Sensor
// adds both: every access to the device goes through one mutex, and
// SenseContinuous samples on a ticker until Halt is called.
package shtcxenv

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/shtdevices/shtcx"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
)

// Sensor serializes access to an shtcx.Dev.
type Sensor struct {
	mu   sync.Mutex
	dev  *shtcx.Dev
	mode shtcx.PowerMode

	stop chan struct{}
	wg   sync.WaitGroup
}

// New returns a Sensor measuring in mode.
func New(dev *shtcx.Dev, mode shtcx.PowerMode) *Sensor {
	return &Sensor{dev: dev, mode: mode}
}

// Do runs f with exclusive access to the device. Use it for operations that
// are not part of physic.SenseEnv, like Sleep or DeviceIdentifier.
func (s *Sensor) Do(f func(dev *shtcx.Dev) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(s.dev)
}

// Measure runs one measurement in the configured mode.
func (s *Sensor) Measure() (shtcx.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.Measure(s.mode)
}

// Sense implements physic.SenseEnv. Pressure is always 0.
func (s *Sensor) Sense(e *physic.Env) error {
	e.Pressure = 0
	m, err := s.Measure()
	if err != nil {
		return err
	}
	e.Temperature = m.Temperature.Physic()
	e.Humidity = m.Humidity.Physic()
	return nil
}

// SenseContinuous implements physic.SenseEnv. It measures every interval and
// sends the readings to the returned channel; failed readings are dropped.
// Call Halt to stop it.
func (s *Sensor) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil, errors.New("shtcxenv: SenseContinuous already running")
	}
	if d := s.dev.Profile().MaxDuration(s.mode); interval < d {
		return nil, fmt.Errorf("shtcxenv: interval %s is shorter than the %s measurement duration", interval, d)
	}
	stop := make(chan struct{})
	s.stop = stop
	ch := make(chan physic.Env, 16)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				env := physic.Env{}
				if err := s.Sense(&env); err != nil {
					continue
				}
				select {
				case ch <- env:
				case <-stop:
					return
				}
			}
		}
	}()
	return ch, nil
}

// Precision implements physic.SenseEnv.
func (s *Sensor) Precision(e *physic.Env) {
	s.dev.Precision(e)
}

// Halt stops a running SenseContinuous and waits for it to finish. Implements
// conn.Resource.
func (s *Sensor) Halt() error {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		close(stop)
		s.wg.Wait()
	}
	return nil
}

func (s *Sensor) String() string {
	return fmt.Sprintf("%s (%s)", s.dev, s.mode)
}

var _ conn.Resource = &Sensor{}
var _ physic.SenseEnv = &Sensor{}
