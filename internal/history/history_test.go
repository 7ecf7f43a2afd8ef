// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/GermanBionicSystems/shtdevices/shtcx"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func appendN(t *testing.T, s *Store, n int) {
	t.Helper()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range n {
		m := shtcx.Measurement{Temperature: shtcx.Temperature(20000 + i), Humidity: shtcx.Humidity(50000 + i)}
		if err := s.Append(NewSample(start.Add(time.Duration(i)*time.Second), shtcx.NormalMode, m)); err != nil {
			t.Fatal(err)
		}
	}
}

func TestAppendRecent(t *testing.T) {
	s := openStore(t)
	appendN(t, s, 5)

	got, err := s.Recent(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d samples", len(got))
	}
	for i, want := range []int32{20002, 20003, 20004} {
		if got[i].MilliCelsius != want {
			t.Errorf("sample %d temperature %d expected %d", i, got[i].MilliCelsius, want)
		}
	}
	if got[2].Mode != "normal" {
		t.Errorf("mode %q", got[2].Mode)
	}
	if m := got[2].Measurement(); m.Humidity != 50004 {
		t.Errorf("humidity %d", m.Humidity)
	}

	all, err := s.Recent(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Errorf("got %d samples expected 5", len(all))
	}
}

func TestTrim(t *testing.T) {
	s := openStore(t)
	appendN(t, s, 10)
	if err := s.Trim(4); err != nil {
		t.Fatal(err)
	}
	n, err := s.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("len %d expected 4", n)
	}
	got, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].MilliCelsius != 20006 {
		t.Errorf("oldest kept sample %d expected 20006", got[0].MilliCelsius)
	}
	// Nothing to do.
	if err := s.Trim(100); err != nil {
		t.Fatal(err)
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	appendN(t, s, 2)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	n, err := s.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("len %d expected 2", n)
	}
}
